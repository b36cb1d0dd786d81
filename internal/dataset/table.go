// Package dataset parses uploaded spreadsheets into tables and cleans them.
package dataset

import (
	"encoding/json"
	"fmt"
	"math"
)

// Table is a row-major tabular dataset. A cell is nil (missing), a float64
// or a string. It round-trips through JSON without changing cell types.
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Index returns the position of the first column named name, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

func (t *Table) Has(name string) bool { return t.Index(name) >= 0 }

func (t *Table) Len() int { return len(t.Rows) }

// Column returns the cells of column name in row order.
func (t *Table) Column(name string) ([]any, bool) {
	i := t.Index(name)
	if i < 0 {
		return nil, false
	}
	out := make([]any, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[i]
	}
	return out, true
}

// Without returns a copy of t with every column named name removed.
func (t *Table) Without(name string) *Table {
	keep := make([]int, 0, len(t.Columns))
	out := &Table{Columns: make([]string, 0, len(t.Columns)), Rows: make([][]any, len(t.Rows))}
	for i, c := range t.Columns {
		if c != name {
			keep = append(keep, i)
			out.Columns = append(out.Columns, c)
		}
	}
	for r, row := range t.Rows {
		nr := make([]any, len(keep))
		for j, i := range keep {
			nr[j] = row[i]
		}
		out.Rows[r] = nr
	}
	return out
}

// Head returns a table sharing t's columns with at most n rows.
func (t *Table) Head(n int) *Table {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	return &Table{Columns: t.Columns, Rows: t.Rows[:n]}
}

// Records maps every row to column name -> cell, for template rendering.
func (t *Table) Records() []map[string]any {
	out := make([]map[string]any, len(t.Rows))
	for r, row := range t.Rows {
		m := make(map[string]any, len(t.Columns))
		for i, c := range t.Columns {
			m[c] = row[i]
		}
		out[r] = m
	}
	return out
}

func (t *Table) Encode() (string, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Decode parses the JSON form written by Encode.
func Decode(data string) (*Table, error) {
	var t Table
	if err := json.Unmarshal([]byte(data), &t); err != nil {
		return nil, fmt.Errorf("decode table: %w", err)
	}
	for r, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return nil, fmt.Errorf("decode table: row %d has %d cells, want %d", r, len(row), len(t.Columns))
		}
	}
	return &t, nil
}

// Float reports the numeric value of a cell. Missing cells, strings and
// non-finite numbers report false.
func Float(v any) (float64, bool) {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
