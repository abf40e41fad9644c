// Package datasource provides read access to the analytical SQL database the
// assistant answers questions about.
package datasource

import "context"

// Queryer executes a query and returns the full result set.
type Queryer interface {
	Query(ctx context.Context, query string) (*Table, error)
}

// Table is a materialised result set. Row cells keep the driver's dynamic
// typing; []byte cells are converted to string on scan.
type Table struct {
	Columns []string
	Rows    [][]any
}

// Empty reports whether the result set holds no rows.
func (t *Table) Empty() bool {
	return t == nil || len(t.Rows) == 0
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns every cell of the named column in row order. The second
// return value is false when the column does not exist.
func (t *Table) Column(name string) ([]any, bool) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, false
	}
	out := make([]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, row[idx])
	}
	return out, true
}
