package tables

import "fmt"

// MergeOptions controls how tables with differing columns are combined.
type MergeOptions struct {
	// PadMismatched unions the columns by header name instead of failing.
	// Cells a table does not have are left null.
	PadMismatched bool
}

// Merge concatenates normalized tables in order. The first table's header
// is authoritative.
func Merge(tables []*NormalizedTable, opts MergeOptions) (*CombinedTable, error) {
	if len(tables) == 0 {
		return nil, ErrEmptyResult
	}
	if opts.PadMismatched {
		return mergePadded(tables), nil
	}

	first := tables[0]
	if first.Width() == 0 {
		return nil, fmt.Errorf("table 1 has no columns left after cleanup: %w", ErrSchemaMismatch)
	}
	out := &CombinedTable{Header: append([]string(nil), first.Header...)}
	for i, t := range tables {
		if t.Width() != first.Width() {
			return nil, fmt.Errorf("table %d has %d columns, table 1 has %d: %w", i+1, t.Width(), first.Width(), ErrSchemaMismatch)
		}
		out.Rows = append(out.Rows, t.Rows...)
	}
	return out, nil
}

// mergePadded aligns columns by name, keeping the first table's order and
// appending unseen names as they appear.
func mergePadded(tables []*NormalizedTable) *CombinedTable {
	var header []string
	pos := map[string]int{}
	mapping := make([][]int, len(tables))
	for i, t := range tables {
		seen := map[string]int{}
		mapping[i] = make([]int, len(t.Header))
		for c, name := range t.Header {
			// Repeated names within one table map to successive slots.
			key := fmt.Sprintf("%s\x00%d", name, seen[name])
			seen[name]++
			p, ok := pos[key]
			if !ok {
				p = len(header)
				pos[key] = p
				header = append(header, name)
			}
			mapping[i][c] = p
		}
	}

	out := &CombinedTable{Header: header}
	for i, t := range tables {
		for _, row := range t.Rows {
			vals := make([]Value, len(header))
			for c, v := range row {
				vals[mapping[i][c]] = v
			}
			out.Rows = append(out.Rows, vals)
		}
	}
	return out
}
