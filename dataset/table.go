// Package dataset loads the bike-sharing CSV files into an in-memory table.
//
// A Table keeps the file's column order. Columns whose every cell parses as a
// number are stored as []float64; any other column (dteday) is kept as text.
// Tables are read-only once built.
package dataset

import (
	scigoErrors "github.com/ezoic/bikedemand/pkg/errors"
)

// Table is a column-oriented view of one CSV file.
type Table struct {
	name    string
	columns []string
	numeric map[string][]float64
	text    map[string][]string
	rows    int
}

// Name is the source the table was read from.
func (t *Table) Name() string { return t.name }

// NumRows returns the number of data rows.
func (t *Table) NumRows() int { return t.rows }

// Columns returns the column names in header order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Has reports whether the table has a column called name.
func (t *Table) Has(name string) bool {
	if _, ok := t.numeric[name]; ok {
		return true
	}
	_, ok := t.text[name]
	return ok
}

// IsNumeric reports whether name is a numeric column.
func (t *Table) IsNumeric(name string) bool {
	_, ok := t.numeric[name]
	return ok
}

// Column returns a copy of the numeric column name. Text columns yield a
// ValueError and absent columns a MissingColumnError.
func (t *Table) Column(name string) ([]float64, error) {
	if col, ok := t.numeric[name]; ok {
		out := make([]float64, len(col))
		copy(out, col)
		return out, nil
	}
	if _, ok := t.text[name]; ok {
		return nil, scigoErrors.NewValueError("Table.Column", "column "+name+" is not numeric")
	}
	return nil, scigoErrors.NewMissingColumnError("Table.Column", name, t.columns)
}

// TextColumn returns the raw cells of column name whatever its type.
func (t *Table) TextColumn(name string) ([]string, error) {
	if col, ok := t.text[name]; ok {
		out := make([]string, len(col))
		copy(out, col)
		return out, nil
	}
	if _, ok := t.numeric[name]; ok {
		return nil, scigoErrors.NewValueError("Table.TextColumn", "column "+name+" is numeric")
	}
	return nil, scigoErrors.NewMissingColumnError("Table.TextColumn", name, t.columns)
}

// FromColumns builds a numeric table from parallel columns. All columns must
// have the same length.
func FromColumns(name string, names []string, cols [][]float64) (*Table, error) {
	if len(names) != len(cols) {
		return nil, scigoErrors.NewDimensionError("dataset.FromColumns", len(names), len(cols), 1)
	}
	if len(names) == 0 {
		return nil, scigoErrors.Wrap(scigoErrors.ErrEmptyData, "dataset.FromColumns")
	}

	t := &Table{
		name:    name,
		columns: make([]string, 0, len(names)),
		numeric: make(map[string][]float64, len(names)),
		text:    map[string][]string{},
		rows:    len(cols[0]),
	}
	for i, n := range names {
		if t.Has(n) {
			return nil, scigoErrors.NewValueError("dataset.FromColumns", "duplicate column "+n)
		}
		if len(cols[i]) != t.rows {
			return nil, scigoErrors.NewDimensionError("dataset.FromColumns", t.rows, len(cols[i]), 0)
		}
		col := make([]float64, t.rows)
		copy(col, cols[i])
		t.columns = append(t.columns, n)
		t.numeric[n] = col
	}
	return t, nil
}
