package tables

import (
	"encoding/json"
	"strconv"
)

// RawTable is one table as returned by an extraction engine.
type RawTable struct {
	Rows       [][]string `json:"rows"`
	Confidence float64    `json:"confidence"`
	Page       int        `json:"page"`
	Flavor     string     `json:"flavor,omitempty"`
}

// NumRows returns the number of rows in the grid.
func (t RawTable) NumRows() int { return len(t.Rows) }

// NumCols returns the width of the widest row.
func (t RawTable) NumCols() int {
	n := 0
	for _, r := range t.Rows {
		if len(r) > n {
			n = len(r)
		}
	}
	return n
}

type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
)

// Value is a single cleaned cell: a string, a number, or null.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
}

func Text(s string) Value    { return Value{Kind: KindString, Str: s} }
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }
func Null() Value            { return Value{} }
func (v Value) IsNull() bool { return v.Kind == KindNull }

// String renders the value the way it is shown in previews.
func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	default:
		return ""
	}
}

// Interface returns the value as a plain Go value (string, float64 or nil).
func (v Value) Interface() interface{} {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return v.Num
	default:
		return nil
	}
}

// MarshalJSON writes the plain value, so JSON rows hold strings, numbers
// and nulls.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// NormalizedTable is a raw table after header extraction and cleanup.
type NormalizedTable struct {
	Header []string  `json:"header"`
	Rows   [][]Value `json:"rows"`
}

// Width returns the number of columns.
func (t *NormalizedTable) Width() int { return len(t.Header) }

// CombinedTable is the concatenation of all normalized tables of one request.
type CombinedTable struct {
	Header []string  `json:"header"`
	Rows   [][]Value `json:"rows"`
}
