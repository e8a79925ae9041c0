package tables

import (
	"strconv"
	"strings"
)

// Markdown renders a raw grid as a Markdown table. Columns are labelled by
// position since a raw table has no header yet.
func Markdown(rows [][]string) string {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	if width == 0 {
		return ""
	}
	header := make([]string, width)
	for i := range header {
		header[i] = strconv.Itoa(i)
	}
	return renderMarkdown(header, rows)
}

// Markdown renders the combined table with its header row.
func (t *CombinedTable) Markdown() string {
	rows := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		cells := make([]string, len(r))
		for j, v := range r {
			cells[j] = v.String()
		}
		rows[i] = cells
	}
	return renderMarkdown(t.Header, rows)
}

func renderMarkdown(header []string, rows [][]string) string {
	if len(header) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("| " + strings.Join(escapeAll(header), " | ") + " |\n")
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	b.WriteString("| " + strings.Join(sep, " | ") + " |\n")
	for _, row := range rows {
		cells := make([]string, len(header))
		copy(cells, row)
		b.WriteString("| " + strings.Join(escapeAll(cells), " | ") + " |\n")
	}
	return b.String()
}

var cellEscaper = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ")

func escapeAll(a []string) []string {
	out := make([]string, len(a))
	for i, v := range a {
		out[i] = cellEscaper.Replace(strings.TrimSpace(v))
	}
	return out
}
