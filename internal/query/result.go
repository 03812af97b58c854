// Package query runs literal SQL through a database.Adapter and returns
// engine-neutral tabular results.
package query

import (
	"bytes"
	"encoding/json"
)

// Result is the tabular outcome of one query. When Error is set, Columns
// and Rows are empty and RowCount is zero.
type Result struct {
	Columns       []string `json:"columns"`
	Rows          [][]any  `json:"rows"`
	RowCount      int      `json:"rowCount"`
	ExecutionTime float64  `json:"executionTime"` // milliseconds
	Error         *string  `json:"error"`
}

// Record is one row rendered as a JSON object whose keys keep the result's
// column order.
type Record struct {
	Columns []string
	Values  []any
}

// Records pairs each row with the column names.
func Records(columns []string, rows [][]any) []Record {
	out := make([]Record, len(rows))
	for i, r := range rows {
		out[i] = Record{Columns: columns, Values: r}
	}
	return out
}

// Get returns the value of column name, and whether it exists.
func (r Record) Get(name string) (any, bool) {
	for i, c := range r.Columns {
		if c == name && i < len(r.Values) {
			return r.Values[i], true
		}
	}
	return nil, false
}

// MarshalJSON writes the record as an object with keys in column order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')

		var v any
		if i < len(r.Values) {
			v = r.Values[i]
		}
		val, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
