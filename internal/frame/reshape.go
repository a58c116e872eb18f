package frame

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// ColumnFlatten replaces every multi-dimensional cell of a column with its
// row-major flat values and records the original shape in "<label>_ndim".
// One-dimensional cells keep their values and get a single element shape.
func ColumnFlatten(f *Frame, label string) error {
	if !f.HasColumn(label) {
		return fmt.Errorf("%w: %s", ErrColumnNotFound, label)
	}
	ndimLabel := label + NdimSuffix
	f.addColumn(ndimLabel)

	for i, r := range f.rows {
		flat, shape, err := flatten(r[label])
		if err != nil {
			return fmt.Errorf("flattening %s, row %d: %w", label, i, err)
		}
		if shape == nil {
			r[ndimLabel] = nil
			continue
		}
		r[label] = flat
		r[ndimLabel] = shape
	}
	return nil
}

// ColumnUnflatten restores the arrays of a flattened column in place using
// the shapes stored in ndimLabel. The restored cells keep the column label.
func ColumnUnflatten(f *Frame, wfLabel, ndimLabel string) error {
	for _, l := range []string{wfLabel, ndimLabel} {
		if !f.HasColumn(l) {
			return fmt.Errorf("%w: %s", ErrColumnNotFound, l)
		}
	}

	for i, r := range f.rows {
		if IsEmpty(r[wfLabel]) || IsEmpty(r[ndimLabel]) {
			continue
		}
		flat, ok := r[wfLabel].([]float64)
		if !ok {
			// already unflattened
			continue
		}
		shape, ok := r[ndimLabel].([]int)
		if !ok {
			return typeError(ndimLabel, i, "[]int", r[ndimLabel])
		}
		v, err := unflatten(flat, shape)
		if err != nil {
			return fmt.Errorf("unflattening %s, row %d: %w", wfLabel, i, err)
		}
		r[wfLabel] = v
	}
	return nil
}

func flatten(v any) ([]float64, []int, error) {
	switch c := v.(type) {
	case nil:
		return nil, nil, nil
	case []float64:
		return c, []int{len(c)}, nil
	case *mat.Dense:
		if c == nil || c.IsEmpty() {
			return nil, nil, nil
		}
		r, cols := c.Dims()
		out := make([]float64, 0, r*cols)
		for i := 0; i < r; i++ {
			out = append(out, c.RawRowView(i)...)
		}
		return out, []int{r, cols}, nil
	case [][]float64:
		if len(c) == 0 {
			return nil, nil, nil
		}
		cols := len(c[0])
		out := make([]float64, 0, len(c)*cols)
		for _, row := range c {
			if len(row) != cols {
				return nil, nil, fmt.Errorf("ragged rows: %d and %d", cols, len(row))
			}
			out = append(out, row...)
		}
		return out, []int{len(c), cols}, nil
	case []*mat.Dense:
		if len(c) == 0 {
			return nil, nil, nil
		}
		r, cols := c[0].Dims()
		out := make([]float64, 0, len(c)*r*cols)
		for _, m := range c {
			mr, mc := m.Dims()
			if mr != r || mc != cols {
				return nil, nil, fmt.Errorf("mismatched meshes: %dx%d and %dx%d", r, cols, mr, mc)
			}
			for i := 0; i < mr; i++ {
				out = append(out, m.RawRowView(i)...)
			}
		}
		return out, []int{len(c), r, cols}, nil
	default:
		return nil, nil, fmt.Errorf("cannot flatten %T", v)
	}
}

func unflatten(flat []float64, shape []int) (any, error) {
	size := 1
	for _, d := range shape {
		if d <= 0 {
			return nil, fmt.Errorf("invalid shape %v", shape)
		}
		size *= d
	}
	if size != len(flat) {
		return nil, fmt.Errorf("shape %v needs %d values, have %d", shape, size, len(flat))
	}

	data := make([]float64, len(flat))
	copy(data, flat)

	switch len(shape) {
	case 1:
		return data, nil
	case 2:
		return mat.NewDense(shape[0], shape[1], data), nil
	case 3:
		step := shape[1] * shape[2]
		out := make([]*mat.Dense, shape[0])
		for i := range out {
			out[i] = mat.NewDense(shape[1], shape[2], data[i*step:(i+1)*step])
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported number of dimensions: %d", len(shape))
	}
}

// UnflattenColumns restores every column that has a matching shape column.
func UnflattenColumns(f *Frame) error {
	for _, l := range f.Columns() {
		if strings.HasSuffix(l, NdimSuffix) {
			continue
		}
		if !f.HasColumn(l + NdimSuffix) {
			continue
		}
		if err := ColumnUnflatten(f, l, l+NdimSuffix); err != nil {
			return err
		}
	}
	return nil
}

// IsMultiDimensional reports whether a cell needs flattening before storage.
func IsMultiDimensional(v any) bool {
	switch v.(type) {
	case *mat.Dense, [][]float64, []*mat.Dense:
		return true
	default:
		return false
	}
}
