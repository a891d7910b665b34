package preprocessing

import (
	"math"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/mat"
)

func TestNaturalLess(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{
			name:  "sacrifice times",
			input: []string{"24 hr", "3 hr", "9 hr", "6 hr"},
			want:  []string{"3 hr", "6 hr", "9 hr", "24 hr"},
		},
		{
			name:  "numeric doses",
			input: []string{"1500", "50", "150"},
			want:  []string{"50", "150", "1500"},
		},
		{
			name:  "dose levels",
			input: []string{"High", "Low", "Control", "Middle"},
			want:  []string{"Control", "Low", "Middle", "High"},
		},
		{
			name:  "mixed falls back to text",
			input: []string{"b", "10 mg", "a", "Low"},
			want:  []string{"Low", "10 mg", "a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := append([]string(nil), tt.input...)
			sort.SliceStable(got, func(i, j int) bool { return NaturalLess(got[i], got[j]) })
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("order mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLabelEncoder(t *testing.T) {
	labels := []string{"Low", "High", "Control", "Low", "Middle", "Control"}

	enc := NewLabelEncoder()
	codes, err := enc.FitTransform(labels)
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}
	if diff := cmp.Diff([]string{"Control", "Low", "Middle", "High"}, enc.Classes); diff != "" {
		t.Errorf("classes (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 3, 0, 1, 2, 0}, codes); diff != "" {
		t.Errorf("codes (-want +got):\n%s", diff)
	}

	back, err := enc.InverseTransform(codes)
	if err != nil {
		t.Fatalf("InverseTransform: %v", err)
	}
	if diff := cmp.Diff(labels, back); diff != "" {
		t.Errorf("round trip (-want +got):\n%s", diff)
	}

	if _, err := enc.Transform([]string{"Extreme"}); err == nil {
		t.Error("unseen label should fail")
	}
	if _, err := enc.InverseTransform([]int{7}); err == nil {
		t.Error("out-of-range code should fail")
	}
	if _, err := NewLabelEncoder().Transform(labels); err == nil {
		t.Error("unfitted encoder should fail")
	}
}

func TestLabelBinarize(t *testing.T) {
	got := LabelBinarize([]int{0, 2, 1, 5}, 3)
	want := mat.NewDense(4, 3, []float64{
		1, 0, 0,
		0, 0, 1,
		0, 1, 0,
		0, 0, 0,
	})
	if !mat.Equal(got, want) {
		t.Errorf("LabelBinarize =\n%v\nwant\n%v", mat.Formatted(got), mat.Formatted(want))
	}

	codes := MatrixCodes(CodesMatrix([]int{3, 1, 2}))
	if diff := cmp.Diff([]int{3, 1, 2}, codes); diff != "" {
		t.Errorf("codes column (-want +got):\n%s", diff)
	}
}

func TestImputeMean(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		1, math.NaN(),
		math.NaN(), math.NaN(),
		3, math.NaN(),
	})

	out, n := ImputeMean(X)
	if n != 4 {
		t.Errorf("replaced = %d, want 4", n)
	}
	if out.At(1, 0) != 2 {
		t.Errorf("imputed = %v, want column mean 2", out.At(1, 0))
	}
	if out.At(0, 1) != 0 {
		t.Errorf("all-NaN column should be filled with 0, got %v", out.At(0, 1))
	}
	if !math.IsNaN(X.At(1, 0)) {
		t.Error("input must not be modified")
	}
}

func TestMeanImputerUsesFittedMeans(t *testing.T) {
	train := mat.NewDense(2, 2, []float64{1, 10, 3, math.NaN()})
	imp := NewMeanImputer()
	if err := imp.Fit(train); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if diff := cmp.Diff([]float64{2, 10}, imp.Means); diff != "" {
		t.Errorf("means (-want +got):\n%s", diff)
	}

	out, err := imp.Transform(mat.NewDense(1, 2, []float64{math.NaN(), math.NaN()}))
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if out.At(0, 0) != 2 || out.At(0, 1) != 10 {
		t.Errorf("filled row = %v, want [2 10]", mat.Row(nil, 0, out))
	}

	if _, err := imp.Transform(mat.NewDense(1, 3, nil)); err == nil {
		t.Error("expected a feature count error")
	}
	if got := CountNaN(train); got != 1 {
		t.Errorf("CountNaN = %d, want 1", got)
	}
}
