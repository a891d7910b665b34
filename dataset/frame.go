// Package dataset loads the expression, clinical, treatment and gene tables
// and keeps them row-aligned by subject.
package dataset

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/liverscope/pkg/errors"
)

// Frame is a numeric table with labelled rows (subject ids) and columns.
type Frame struct {
	Index   []string
	Columns []string
	Values  *mat.Dense

	rowPos map[string]int
	colPos map[string]int
}

// NewFrame builds a Frame, rejecting duplicate row or column labels.
func NewFrame(index, columns []string, values *mat.Dense) (*Frame, error) {
	if len(index) == 0 || len(columns) == 0 || values == nil {
		return nil, errors.ErrEmptyData
	}
	r, c := values.Dims()
	if r != len(index) {
		return nil, errors.NewDimensionError("NewFrame", len(index), r, 0)
	}
	if c != len(columns) {
		return nil, errors.NewDimensionError("NewFrame", len(columns), c, 1)
	}
	rowPos, err := positions("subject", index)
	if err != nil {
		return nil, err
	}
	colPos, err := positions("column", columns)
	if err != nil {
		return nil, err
	}
	return &Frame{Index: index, Columns: columns, Values: values, rowPos: rowPos, colPos: colPos}, nil
}

func positions(kind string, labels []string) (map[string]int, error) {
	pos := make(map[string]int, len(labels))
	for i, label := range labels {
		if prev, ok := pos[label]; ok {
			return nil, errors.NewValidationError(kind,
				fmt.Sprintf("duplicate label at positions %d and %d", prev, i), label)
		}
		pos[label] = i
	}
	return pos, nil
}

// Dims returns the number of subjects and columns.
func (f *Frame) Dims() (rows, cols int) {
	return f.Values.Dims()
}

// Column returns a copy of the named column.
func (f *Frame) Column(name string) ([]float64, error) {
	j, ok := f.colPos[name]
	if !ok {
		return nil, errors.NewValidationError("column", "not found", name)
	}
	return mat.Col(nil, j, f.Values), nil
}

// Row returns a copy of the row for subject id.
func (f *Frame) Row(id string) ([]float64, error) {
	i, ok := f.rowPos[id]
	if !ok {
		return nil, errors.NewValidationError("subject", "not found", id)
	}
	return mat.Row(nil, i, f.Values), nil
}

// HasRow reports whether subject id is present.
func (f *Frame) HasRow(id string) bool {
	_, ok := f.rowPos[id]
	return ok
}

// SelectColumns returns a new Frame holding only the named columns, in order.
func (f *Frame) SelectColumns(names ...string) (*Frame, error) {
	idx := make([]int, len(names))
	for k, name := range names {
		j, ok := f.colPos[name]
		if !ok {
			return nil, errors.NewValidationError("column", "not found", name)
		}
		idx[k] = j
	}
	rows, _ := f.Dims()
	out := mat.NewDense(rows, len(names), nil)
	for i := 0; i < rows; i++ {
		for k, j := range idx {
			out.Set(i, k, f.Values.At(i, j))
		}
	}
	return NewFrame(append([]string(nil), f.Index...), append([]string(nil), names...), out)
}

// SelectRows returns a new Frame with rows reordered to ids.
func (f *Frame) SelectRows(ids []string) (*Frame, error) {
	_, cols := f.Dims()
	out := mat.NewDense(len(ids), cols, nil)
	for k, id := range ids {
		i, ok := f.rowPos[id]
		if !ok {
			return nil, errors.NewValidationError("subject", "not found", id)
		}
		out.SetRow(k, f.Values.RawRowView(i))
	}
	return NewFrame(append([]string(nil), ids...), append([]string(nil), f.Columns...), out)
}

// TakeRows returns a new Frame holding the rows at the given positions.
func (f *Frame) TakeRows(positions []int) (*Frame, error) {
	ids := make([]string, len(positions))
	for k, i := range positions {
		if i < 0 || i >= len(f.Index) {
			return nil, errors.NewValueError("Frame.TakeRows", fmt.Sprintf("row %d out of range", i))
		}
		ids[k] = f.Index[i]
	}
	return f.SelectRows(ids)
}

// Head returns the first n rows (all rows when n exceeds the row count).
func (f *Frame) Head(n int) *Frame {
	rows, cols := f.Dims()
	if n > rows {
		n = rows
	}
	if n <= 0 {
		return &Frame{Columns: f.Columns, Values: &mat.Dense{}, colPos: f.colPos, rowPos: map[string]int{}}
	}
	head := mat.DenseCopyOf(f.Values.Slice(0, n, 0, cols))
	fr, _ := NewFrame(append([]string(nil), f.Index[:n]...), f.Columns, head)
	return fr
}
