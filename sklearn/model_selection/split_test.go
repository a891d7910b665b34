package model_selection

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/liverscope/pkg/errors"
)

func TestTrainTestSplit(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		testSize  float64
		stratify  []int
		wantTest  int
		wantTrain int
	}{
		{name: "ceil", n: 10, testSize: 0.25, wantTest: 3, wantTrain: 7},
		{name: "clamped low", n: 5, testSize: 0.01, wantTest: 1, wantTrain: 4},
		{name: "clamped high", n: 4, testSize: 0.99, wantTest: 3, wantTrain: 1},
		{
			name:     "stratified",
			n:        12,
			testSize: 0.25,
			stratify: []int{0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2},
			wantTest: 3, wantTrain: 9,
		},
		{
			name:     "stratified keeps both sides",
			n:        7,
			testSize: 0.1,
			stratify: []int{0, 0, 1, 1, 1, 1, 2},
			wantTest: 2, wantTrain: 5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			train, test, err := TrainTestSplit(tt.n, tt.testSize, 42, tt.stratify)
			if err != nil {
				t.Fatalf("TrainTestSplit() error = %v", err)
			}
			if len(test) != tt.wantTest || len(train) != tt.wantTrain {
				t.Fatalf("sizes = %d/%d, want %d/%d", len(train), len(test), tt.wantTrain, tt.wantTest)
			}
			if !sort.IntsAreSorted(train) || !sort.IntsAreSorted(test) {
				t.Error("indices are not sorted")
			}
			all := append(append([]int(nil), train...), test...)
			sort.Ints(all)
			want := make([]int, tt.n)
			for i := range want {
				want[i] = i
			}
			if diff := cmp.Diff(want, all); diff != "" {
				t.Errorf("train ∪ test is not a partition (-want +got):\n%s", diff)
			}
			if tt.stratify != nil {
				counts := map[int][2]int{}
				for _, i := range train {
					c := counts[tt.stratify[i]]
					c[0]++
					counts[tt.stratify[i]] = c
				}
				for _, i := range test {
					c := counts[tt.stratify[i]]
					c[1]++
					counts[tt.stratify[i]] = c
				}
				for class, c := range counts {
					if c[0]+c[1] >= 2 && (c[0] == 0 || c[1] == 0) {
						t.Errorf("class %d split %v, want both sides non-empty", class, c)
					}
				}
			}
		})
	}
}

func TestTrainTestSplit_Seeded(t *testing.T) {
	a1, b1, _ := TrainTestSplit(20, 0.3, 7, nil)
	a2, b2, _ := TrainTestSplit(20, 0.3, 7, nil)
	if diff := cmp.Diff(a1, a2); diff != "" {
		t.Errorf("train differs for the same seed:\n%s", diff)
	}
	if diff := cmp.Diff(b1, b2); diff != "" {
		t.Errorf("test differs for the same seed:\n%s", diff)
	}
}

func TestTrainTestSplit_Errors(t *testing.T) {
	var ve *errors.ValueError
	if _, _, err := TrainTestSplit(1, 0.5, 0, nil); !errors.As(err, &ve) {
		t.Errorf("n=1: got %v, want ValueError", err)
	}
	var vle *errors.ValidationError
	if _, _, err := TrainTestSplit(10, 1, 0, nil); !errors.As(err, &vle) {
		t.Errorf("testSize=1: got %v, want ValidationError", err)
	}
	var de *errors.DimensionError
	if _, _, err := TrainTestSplit(3, 0.5, 0, []int{0, 1}); !errors.As(err, &de) {
		t.Errorf("short stratify: got %v, want DimensionError", err)
	}
}

func TestTakeRows(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	got := TakeRows(X, []int{2, 0})
	want := mat.NewDense(2, 2, []float64{5, 6, 1, 2})
	if !mat.Equal(got, want) {
		t.Errorf("TakeRows = %v, want %v", mat.Formatted(got), mat.Formatted(want))
	}
	if diff := cmp.Diff([]int{9, 7}, TakeInts([]int{7, 8, 9}, []int{2, 0})); diff != "" {
		t.Error(diff)
	}
}
