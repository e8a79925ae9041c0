package convert

import (
	"fmt"
	"io"
	"strings"

	"github.com/bagaskar44/jasaraharja-camelot-converter/internal/extract"
	"github.com/bagaskar44/jasaraharja-camelot-converter/internal/tables"
)

// Mode is how the engine looks for tables.
type Mode string

const (
	ModeBordered Mode = Mode(extract.FlavorLattice)
	ModeText     Mode = Mode(extract.FlavorStream)
)

// ParseMode accepts a user label ("bordered tables"), the engine parameter
// ("lattice") or the short form ("bordered"). Blank means ModeBordered.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.Join(strings.Fields(s), " ")) {
	case "", "bordered", "bordered tables", extract.FlavorLattice:
		return ModeBordered, nil
	case "text", "text tables", extract.FlavorStream:
		return ModeText, nil
	}
	return "", fmt.Errorf("unknown extraction mode %q (want bordered or text)", s)
}

// Flavor is the engine parameter for m.
func (m Mode) Flavor() string {
	if m == ModeText {
		return extract.FlavorStream
	}
	return extract.FlavorLattice
}

func (m Mode) Label() string {
	if m == ModeText {
		return "text tables"
	}
	return "bordered tables"
}

// Alternate returns the other mode.
func (m Mode) Alternate() Mode {
	if m == ModeText {
		return ModeBordered
	}
	return ModeText
}

func (m Mode) String() string { return m.Label() }

// Request is one conversion. Pages is "all" (also when blank) or a range
// such as "1-3,5"; OutputName is the workbook name without extension.
type Request struct {
	PDF        io.Reader
	Pages      string
	Mode       Mode
	OutputName string
}

// Preview describes one extracted table before cleaning.
type Preview struct {
	Index      int        `json:"index"`
	Page       int        `json:"page"`
	Rows       int        `json:"rows"`
	Columns    int        `json:"columns"`
	Confidence float64    `json:"confidence"`
	Flavor     string     `json:"flavor,omitempty"`
	Grid       [][]string `json:"-"`
}

// Title is the one line caption shown above a preview grid.
func (p Preview) Title() string {
	return fmt.Sprintf("Table %d - %d rows × %d columns (Accuracy: %.1f%%)", p.Index+1, p.Rows, p.Columns, p.Confidence)
}

// Markdown renders the raw grid.
func (p Preview) Markdown() string { return tables.Markdown(p.Grid) }

type Response struct {
	Tables   []Preview
	Combined *tables.CombinedTable
	Workbook []byte
	FileName string
	MIMEType string
}

// CombinedTitle is the caption shown above the merged sheet preview.
func (r *Response) CombinedTitle() string {
	return fmt.Sprintf("Combined - %d rows × %d columns", len(r.Combined.Rows), len(r.Combined.Header))
}
