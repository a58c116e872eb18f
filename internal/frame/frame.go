// Package frame implements the tabular station dataset: one row per station,
// one column per sensor-derived field.
//
// Cells hold one of:
//   - nil (no data)
//   - string
//   - float64
//   - []float64 (a single series or a flattened array)
//   - []int (the shape of a flattened array, stored in "<label>_ndim" columns)
//   - *mat.Dense (channels x samples)
//   - []*mat.Dense (one mesh per channel)
//   - [][]float64 (one axis per channel)
package frame

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// NdimSuffix is appended to a column label to name its shape column.
const NdimSuffix = "_ndim"

var (
	// ErrColumnNotFound indicates that a column label is not part of the frame.
	ErrColumnNotFound = errors.New("column not found")

	// ErrRowOutOfRange indicates an invalid row index.
	ErrRowOutOfRange = errors.New("row out of range")
)

// Row is a single station row keyed by column label
type Row map[string]any

// Frame is an ordered set of columns over station rows
type Frame struct {
	columns []string
	rows    []Row
}

// New creates an empty frame with the given columns.
func New(columns ...string) *Frame {
	f := &Frame{}
	for _, c := range columns {
		f.addColumn(c)
	}
	return f
}

func (f *Frame) addColumn(label string) {
	if !slices.Contains(f.columns, label) {
		f.columns = append(f.columns, label)
	}
}

// Clone returns a copy of the frame. Cell values are shared.
func (f *Frame) Clone() *Frame {
	out := &Frame{columns: slices.Clone(f.columns), rows: make([]Row, len(f.rows))}
	for i, r := range f.rows {
		out.rows[i] = maps.Clone(r)
	}
	return out
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.rows)
}

// Columns returns the column labels in insertion order.
func (f *Frame) Columns() []string {
	return slices.Clone(f.columns)
}

// HasColumn reports whether the column exists.
func (f *Frame) HasColumn(label string) bool {
	return slices.Contains(f.columns, label)
}

// AddRow appends a row and returns its index. Unknown labels become new columns.
func (f *Frame) AddRow(r Row) int {
	row := make(Row, len(r))
	for k, v := range r {
		f.addColumn(k)
		row[k] = v
	}
	f.rows = append(f.rows, row)
	return len(f.rows) - 1
}

// Set assigns a cell, creating the column when needed.
func (f *Frame) Set(row int, label string, v any) error {
	if row < 0 || row >= len(f.rows) {
		return fmt.Errorf("%w: %d", ErrRowOutOfRange, row)
	}
	f.addColumn(label)
	f.rows[row][label] = v
	return nil
}

// Get returns a raw cell value.
func (f *Frame) Get(row int, label string) (any, error) {
	if row < 0 || row >= len(f.rows) {
		return nil, fmt.Errorf("%w: %d", ErrRowOutOfRange, row)
	}
	if !f.HasColumn(label) {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, label)
	}
	return f.rows[row][label], nil
}

// Column returns every cell of a column in row order.
func (f *Frame) Column(label string) ([]any, error) {
	if !f.HasColumn(label) {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, label)
	}
	out := make([]any, len(f.rows))
	for i, r := range f.rows {
		out[i] = r[label]
	}
	return out, nil
}

// DropColumn removes a column from the frame.
func (f *Frame) DropColumn(label string) {
	idx := slices.Index(f.columns, label)
	if idx < 0 {
		return
	}
	f.columns = slices.Delete(f.columns, idx, idx+1)
	for _, r := range f.rows {
		delete(r, label)
	}
}

// RowByValue returns the index of the first row whose column holds v.
func (f *Frame) RowByValue(label string, v any) (int, error) {
	if !f.HasColumn(label) {
		return -1, fmt.Errorf("%w: %s", ErrColumnNotFound, label)
	}
	for i, r := range f.rows {
		switch c := r[label].(type) {
		case string, float64:
			if c == v {
				return i, nil
			}
		}
	}
	return -1, fmt.Errorf("no row with %s = %v", label, v)
}

// IsEmpty reports whether a cell holds no data.
func IsEmpty(v any) bool {
	switch c := v.(type) {
	case nil:
		return true
	case []float64:
		return len(c) == 0
	case []int:
		return len(c) == 0
	case *mat.Dense:
		return c == nil || c.IsEmpty()
	case []*mat.Dense:
		return len(c) == 0
	case [][]float64:
		return len(c) == 0
	case string:
		return c == ""
	default:
		return false
	}
}

// String returns a string cell.
func (f *Frame) String(row int, label string) (string, error) {
	v, err := f.Get(row, label)
	if err != nil {
		return "", err
	}
	switch c := v.(type) {
	case string:
		return c, nil
	case nil:
		return "", nil
	default:
		return fmt.Sprint(c), nil
	}
}

// Float returns a numeric cell.
func (f *Frame) Float(row int, label string) (float64, error) {
	v, err := f.Get(row, label)
	if err != nil {
		return 0, err
	}
	c, ok := v.(float64)
	if !ok {
		return 0, typeError(label, row, "float64", v)
	}
	return c, nil
}

// Series returns a one-dimensional cell.
func (f *Frame) Series(row int, label string) ([]float64, error) {
	v, err := f.Get(row, label)
	if err != nil {
		return nil, err
	}
	c, ok := v.([]float64)
	if !ok {
		return nil, typeError(label, row, "[]float64", v)
	}
	return c, nil
}

// Shape returns a shape cell.
func (f *Frame) Shape(row int, label string) ([]int, error) {
	v, err := f.Get(row, label)
	if err != nil {
		return nil, err
	}
	c, ok := v.([]int)
	if !ok {
		return nil, typeError(label, row, "[]int", v)
	}
	return c, nil
}

// Channels returns a cell as a list of channels. A series is a single
// channel, a matrix has one channel per row.
func (f *Frame) Channels(row int, label string) ([][]float64, error) {
	v, err := f.Get(row, label)
	if err != nil {
		return nil, err
	}
	switch c := v.(type) {
	case []float64:
		return [][]float64{c}, nil
	case *mat.Dense:
		r, _ := c.Dims()
		out := make([][]float64, r)
		for i := 0; i < r; i++ {
			out[i] = mat.Row(nil, i, c)
		}
		return out, nil
	case [][]float64:
		return c, nil
	default:
		return nil, typeError(label, row, "series or matrix", v)
	}
}

// Matrix returns a two-dimensional cell.
func (f *Frame) Matrix(row int, label string) (*mat.Dense, error) {
	v, err := f.Get(row, label)
	if err != nil {
		return nil, err
	}
	c, ok := v.(*mat.Dense)
	if !ok {
		return nil, typeError(label, row, "*mat.Dense", v)
	}
	return c, nil
}

// Meshes returns a per-channel mesh cell. A single matrix is one channel.
func (f *Frame) Meshes(row int, label string) ([]*mat.Dense, error) {
	v, err := f.Get(row, label)
	if err != nil {
		return nil, err
	}
	switch c := v.(type) {
	case []*mat.Dense:
		return c, nil
	case *mat.Dense:
		return []*mat.Dense{c}, nil
	default:
		return nil, typeError(label, row, "[]*mat.Dense", v)
	}
}

// Axes returns a per-channel axis cell. A single series is one channel.
func (f *Frame) Axes(row int, label string) ([][]float64, error) {
	v, err := f.Get(row, label)
	if err != nil {
		return nil, err
	}
	switch c := v.(type) {
	case [][]float64:
		return c, nil
	case []float64:
		return [][]float64{c}, nil
	case *mat.Dense:
		return f.Channels(row, label)
	default:
		return nil, typeError(label, row, "[][]float64", v)
	}
}

func typeError(label string, row int, want string, got any) error {
	return fmt.Errorf("column %s, row %d: expected %s, got %T", label, row, want, got)
}
