package dataset

import (
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func newTestFrame(t *testing.T) *Frame {
	t.Helper()
	f, err := ReadFrame(strings.NewReader("id,a,b,c\nx,1,2,3\ny,4,5,6\nz,7,8,9\n"), ReadOptions{Comma: ','})
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	return f
}

func TestFrameSelect(t *testing.T) {
	f := newTestFrame(t)

	cols, err := f.SelectColumns("c", "a")
	if err != nil {
		t.Fatalf("SelectColumns: %v", err)
	}
	want := mat.NewDense(3, 2, []float64{3, 1, 6, 4, 9, 7})
	if !mat.Equal(cols.Values, want) {
		t.Errorf("SelectColumns values =\n%v", mat.Formatted(cols.Values))
	}

	rows, err := f.SelectRows([]string{"z", "x"})
	if err != nil {
		t.Fatalf("SelectRows: %v", err)
	}
	row, _ := rows.Row("z")
	if row[0] != 7 || rows.Index[1] != "x" {
		t.Errorf("SelectRows gave %v / %v", rows.Index, row)
	}

	taken, err := f.TakeRows([]int{1})
	if err != nil || taken.Index[0] != "y" {
		t.Errorf("TakeRows = %v, %v", taken, err)
	}
	if _, err := f.TakeRows([]int{3}); err == nil {
		t.Error("out-of-range position should fail")
	}

	if _, err := f.SelectColumns("missing"); err == nil {
		t.Error("unknown column should fail")
	}
	if _, err := f.Row("w"); err == nil {
		t.Error("unknown subject should fail")
	}
}

func TestFrameHead(t *testing.T) {
	f := newTestFrame(t)

	head := f.Head(2)
	if r, c := head.Dims(); r != 2 || c != 3 {
		t.Errorf("Head(2) dims = %d x %d", r, c)
	}
	if r, _ := f.Head(10).Dims(); r != 3 {
		t.Errorf("Head(10) rows = %d, want 3", r)
	}
	// Head copies values
	head.Values.Set(0, 0, 100)
	if f.Values.At(0, 0) != 1 {
		t.Error("Head must not alias the source frame")
	}
}

func TestNewFrameRejectsDuplicateColumns(t *testing.T) {
	_, err := NewFrame([]string{"r1"}, []string{"a", "a"}, mat.NewDense(1, 2, nil))
	if err == nil {
		t.Error("duplicate column names should fail")
	}
}
