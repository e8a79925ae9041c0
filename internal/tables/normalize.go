package tables

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrMalformedTable = errors.New("malformed table")
	ErrSchemaMismatch = errors.New("tables have incompatible columns")
	ErrEmptyResult    = errors.New("no tables to merge")
)

// Normalize turns one raw table into a header plus cleaned data rows.
//
// Raw row 1 is the header and is removed from the data. Tables after the
// first (index >= 1) also lose their first remaining row, raw row 0. Columns blank in every data row are dropped,
// and every column but the first is coerced to numbers where it parses.
func Normalize(raw RawTable, index int) (*NormalizedTable, error) {
	if len(raw.Rows) < 2 {
		return nil, fmt.Errorf("table %d has %d rows, need at least 2: %w", index+1, len(raw.Rows), ErrMalformedTable)
	}
	grid := rectangular(raw.Rows, raw.NumCols())

	header := grid[1]
	data := make([][]string, 0, len(grid)-1)
	data = append(data, grid[0])
	data = append(data, grid[2:]...)
	if index >= 1 && len(data) > 0 {
		data = data[1:]
	}

	keep := nonBlankColumns(data, len(header))

	out := &NormalizedTable{
		Header: make([]string, 0, len(keep)),
		Rows:   make([][]Value, 0, len(data)),
	}
	for _, c := range keep {
		out.Header = append(out.Header, header[c])
	}
	for _, row := range data {
		vals := make([]Value, 0, len(keep))
		for i, c := range keep {
			if i == 0 {
				vals = append(vals, Text(row[c]))
				continue
			}
			vals = append(vals, ParseNumber(row[c]))
		}
		out.Rows = append(out.Rows, vals)
	}
	return out, nil
}

// rectangular copies rows padding short ones with blank cells.
func rectangular(rows [][]string, width int) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		row := make([]string, width)
		copy(row, r)
		out[i] = row
	}
	return out
}

// nonBlankColumns returns the indexes of columns holding at least one
// non-blank cell. With no rows every column counts as blank.
func nonBlankColumns(rows [][]string, width int) []int {
	var keep []int
	for c := 0; c < width; c++ {
		for _, row := range rows {
			if strings.TrimSpace(row[c]) != "" {
				keep = append(keep, c)
				break
			}
		}
	}
	return keep
}

// ParseNumber replaces a decimal comma with a point and parses the result.
// When that fails the original cell text is returned unchanged.
func ParseNumber(cell string) Value {
	s := strings.TrimSpace(strings.ReplaceAll(cell, ",", "."))
	// strconv also reads hex floats and digit separators, which a
	// spreadsheet cell never means.
	if s == "" || strings.ContainsAny(s, "xX_") {
		return Text(cell)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Text(cell)
	}
	return Number(f)
}
