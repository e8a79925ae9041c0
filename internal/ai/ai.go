package ai

import (
	"github.com/bagaskar44/jasaraharja-camelot-converter/internal/tables"
)

// ExtractedTable is one table as described by the model.
type ExtractedTable struct {
	Page       int        `json:"page"`
	Confidence float64    `json:"confidence"`
	Rows       [][]string `json:"rows"`
}

// ExtractedDoc is the JSON document the model is asked to return.
type ExtractedDoc struct {
	Tables []ExtractedTable `json:"tables"`
}

// RawTables converts the model output into raw tables, dropping empty grids
// and clamping confidence into [0,100].
func (d ExtractedDoc) RawTables(flavor string) []tables.RawTable {
	var out []tables.RawTable
	for _, t := range d.Tables {
		if len(t.Rows) == 0 {
			continue
		}
		conf := t.Confidence
		if conf < 0 {
			conf = 0
		}
		if conf > 100 {
			conf = 100
		}
		out = append(out, tables.RawTable{
			Rows:       t.Rows,
			Confidence: conf,
			Page:       t.Page,
			Flavor:     flavor,
		})
	}
	return out
}
