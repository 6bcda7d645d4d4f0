// Package table provides an immutable, column-labeled numeric table backed
// by gonum/mat.
//
// A Table is the dataset handed to a partial dependence computation: rows
// are observations, columns are named features. Operations that change the
// shape (Drop) return new tables and never alias the receiver's
// storage.
package table

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/stratx/pkg/errors"
)

// Table is a column-labeled matrix of observations.
type Table struct {
	data    *mat.Dense
	columns []string
	index   map[string]int
}

// New creates a table from data and its column names. The data is copied.
func New(data mat.Matrix, columns []string) (*Table, error) {
	if data == nil {
		return nil, errors.NewModelError("table.New", "nil data", errors.ErrEmptyData)
	}
	r, c := data.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewModelError("table.New", "empty data", errors.ErrEmptyData)
	}
	if len(columns) != c {
		return nil, errors.NewDimensionError("table.New", c, len(columns), 1)
	}
	index := make(map[string]int, c)
	for j, name := range columns {
		if name == "" {
			return nil, errors.NewValueError("table.New", "column names must be non-empty")
		}
		if _, dup := index[name]; dup {
			return nil, errors.NewValueError("table.New", "duplicate column name "+name)
		}
		index[name] = j
	}
	var dense mat.Dense
	dense.CloneFrom(data)
	return &Table{
		data:    &dense,
		columns: append([]string(nil), columns...),
		index:   index,
	}, nil
}

// FromRows creates a table from row-major values.
func FromRows(columns []string, rows [][]float64) (*Table, error) {
	if len(rows) == 0 {
		return nil, errors.NewModelError("table.FromRows", "no rows", errors.ErrEmptyData)
	}
	c := len(columns)
	flat := make([]float64, 0, len(rows)*c)
	for i, row := range rows {
		if len(row) != c {
			return nil, errors.NewDimensionError("table.FromRows", c, len(row), i)
		}
		flat = append(flat, row...)
	}
	if c == 0 {
		return nil, errors.NewModelError("table.FromRows", "no columns", errors.ErrEmptyData)
	}
	return New(mat.NewDense(len(rows), c, flat), columns)
}

// FromColumns creates a table from named column vectors of equal length.
func FromColumns(columns []string, values [][]float64) (*Table, error) {
	if len(columns) != len(values) {
		return nil, errors.NewDimensionError("table.FromColumns", len(columns), len(values), 1)
	}
	if len(values) == 0 || len(values[0]) == 0 {
		return nil, errors.NewModelError("table.FromColumns", "empty data", errors.ErrEmptyData)
	}
	n := len(values[0])
	dense := mat.NewDense(n, len(values), nil)
	for j, col := range values {
		if len(col) != n {
			return nil, errors.NewDimensionError("table.FromColumns", n, len(col), 0)
		}
		dense.SetCol(j, col)
	}
	return New(dense, columns)
}

// Dims returns the number of rows and columns.
func (t *Table) Dims() (int, int) {
	return t.data.Dims()
}

// NRows returns the number of observations.
func (t *Table) NRows() int {
	r, _ := t.data.Dims()
	return r
}

// At returns the value at row i, column j.
func (t *Table) At(i, j int) float64 {
	return t.data.At(i, j)
}

// Columns returns a copy of the column names.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// ColumnIndex returns the position of the named column.
func (t *Table) ColumnIndex(name string) (int, error) {
	j, ok := t.index[name]
	if !ok {
		return -1, errors.NewValueError("Table.ColumnIndex", "unknown column "+name)
	}
	return j, nil
}

// Col returns a copy of column j.
func (t *Table) Col(j int) []float64 {
	return mat.Col(nil, j, t.data)
}

// Matrix returns a read-only view of the underlying data.
func (t *Table) Matrix() mat.Matrix {
	return t.data
}

// Drop returns a new table without column j.
func (t *Table) Drop(j int) (*Table, error) {
	r, c := t.data.Dims()
	if j < 0 || j >= c {
		return nil, errors.NewValueError("Table.Drop", "column index out of range")
	}
	if c == 1 {
		return nil, errors.NewModelError("Table.Drop", "dropping the only column", errors.ErrEmptyData)
	}
	dense := mat.NewDense(r, c-1, nil)
	for i := 0; i < r; i++ {
		row := t.data.RawRowView(i)
		dst := dense.RawRowView(i)
		copy(dst, row[:j])
		copy(dst[j:], row[j+1:])
	}
	columns := make([]string, 0, c-1)
	columns = append(columns, t.columns[:j]...)
	columns = append(columns, t.columns[j+1:]...)
	return New(dense, columns)
}

// Unique returns the sorted distinct values of column j.
func (t *Table) Unique(j int) []float64 {
	return Unique(t.Col(j))
}

// Unique returns the sorted distinct values of x. x is not modified.
func Unique(x []float64) []float64 {
	if len(x) == 0 {
		return nil
	}
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	out := sorted[:1]
	for _, v := range sorted[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
