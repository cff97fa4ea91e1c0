package core

import "slices"

// Table is a tabular read result with named columns. It carries only plain Go
// values (string, int64, float64, nil) so it can be rendered or exported directly.
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Len returns the number of rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// Index returns the position of column name, or -1.
func (t Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Clone returns a copy of t with its own rows.
func (t Table) Clone() Table {
	out := Table{
		Columns: slices.Clone(t.Columns),
		Rows:    make([][]any, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = slices.Clone(row)
	}
	return out
}

// WithColumn returns a copy of t with a new column computed from each row.
func (t Table) WithColumn(name string, compute func(row []any) any) Table {
	out := Table{
		Columns: append(append([]string(nil), t.Columns...), name),
		Rows:    make([][]any, len(t.Rows)),
	}
	for i, row := range t.Rows {
		r := make([]any, 0, len(row)+1)
		r = append(r, row...)
		out.Rows[i] = append(r, compute(row))
	}
	return out
}

// Relabel returns a copy of t with columns renamed through labels. Columns
// without a label keep their name.
func (t Table) Relabel(labels map[string]string) Table {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		if l, ok := labels[c]; ok {
			cols[i] = l
		} else {
			cols[i] = c
		}
	}
	return Table{Columns: cols, Rows: t.Rows}
}
