// Package tabular provides the uniform in-memory representation the
// extractors produce and the exporters consume: ordered columns, one row per
// record, string cells with an explicit null.
package tabular

import (
	"fmt"
	"sort"
)

// Table holds ordered columns and rows of nullable string cells. A nil cell
// is a null, distinct from the empty string.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]*string
}

// New creates an empty table with the given column order.
func New(columns ...string) *Table {
	t := &Table{
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		t.index[c] = i
	}
	return t
}

// FromRecords builds a table from per-record field maps, as returned by the
// tabular source API. The column set is the union of all keys, sorted, so
// runs are deterministic regardless of per-record field presence.
func FromRecords(records []map[string]string) *Table {
	seen := map[string]struct{}{}
	var columns []string
	for _, rec := range records {
		for k := range rec {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				columns = append(columns, k)
			}
		}
	}
	sort.Strings(columns)

	t := New(columns...)
	for _, rec := range records {
		row := make([]*string, len(columns))
		for k, v := range rec {
			v := v
			row[t.index[k]] = &v
		}
		t.rows = append(t.rows, row)
	}
	return t
}

// Columns returns the column order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// HasColumn reports whether the table has the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// AppendRow adds a row from a column→cell map. Columns absent from the map
// are null. Unknown columns are an error, keeping extractor bugs loud.
func (t *Table) AppendRow(cells map[string]*string) error {
	row := make([]*string, len(t.columns))
	for name, val := range cells {
		i, ok := t.index[name]
		if !ok {
			return fmt.Errorf("appending row: unknown column %q", name)
		}
		row[i] = val
	}
	t.rows = append(t.rows, row)
	return nil
}

// Cell returns the value at (row, column) and whether it is non-null.
// Out-of-range rows and unknown columns read as null.
func (t *Table) Cell(row int, column string) (string, bool) {
	i, ok := t.index[column]
	if !ok || row < 0 || row >= len(t.rows) {
		return "", false
	}
	if v := t.rows[row][i]; v != nil {
		return *v, true
	}
	return "", false
}

// Value returns the cell as a *string, nil when null.
func (t *Table) Value(row int, column string) *string {
	i, ok := t.index[column]
	if !ok || row < 0 || row >= len(t.rows) {
		return nil
	}
	return t.rows[row][i]
}

// Column returns all cells of one column in row order. Unknown columns yield
// an all-null slice so validators can report them uniformly.
func (t *Table) Column(name string) []*string {
	out := make([]*string, len(t.rows))
	i, ok := t.index[name]
	if !ok {
		return out
	}
	for r, row := range t.rows {
		out[r] = row[i]
	}
	return out
}

// Equal reports whether two tables have identical column order and cell
// contents.
func (t *Table) Equal(other *Table) bool {
	if len(t.columns) != len(other.columns) || len(t.rows) != len(other.rows) {
		return false
	}
	for i, c := range t.columns {
		if other.columns[i] != c {
			return false
		}
	}
	for r := range t.rows {
		for c := range t.columns {
			a, b := t.rows[r][c], other.rows[r][c]
			if (a == nil) != (b == nil) {
				return false
			}
			if a != nil && *a != *b {
				return false
			}
		}
	}
	return true
}
