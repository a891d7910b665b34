package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func vec(x []float64) *mat.VecDense {
	if len(x) == 0 {
		return nil
	}
	return mat.NewVecDense(len(x), x)
}

func TestAUC(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yPred   []float64
		want    float64
		wantErr bool
	}{
		{"perfect ranking", []float64{0, 0, 0, 1, 1, 1}, []float64{0.1, 0.2, 0.3, 0.7, 0.8, 0.9}, 1, false},
		{"inverted ranking", []float64{0, 0, 0, 1, 1, 1}, []float64{0.9, 0.8, 0.7, 0.3, 0.2, 0.1}, 0, false},
		{"all scores tied", []float64{0, 1, 0, 1}, []float64{0.5, 0.5, 0.5, 0.5}, 0.5, false},
		{"one swapped pair", []float64{0, 0, 1, 1}, []float64{0.1, 0.4, 0.35, 0.8}, 0.75, false},
		{"partial tie", []float64{0, 1, 1}, []float64{0.2, 0.2, 0.9}, 0.75, false},
		{"only positives", []float64{1, 1, 1}, []float64{0.1, 0.4, 0.3}, 0.5, false},
		{"only negatives", []float64{0, 0}, []float64{0.1, 0.4}, 0.5, false},
		{"non-binary labels", []float64{0, 0.5, 1}, []float64{0.1, 0.5, 0.9}, 0, true},
		{"length mismatch", []float64{0, 1}, []float64{0.5}, 0, true},
		{"empty", nil, nil, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AUC(vec(tt.yTrue), vec(tt.yPred))
			if (err != nil) != tt.wantErr {
				t.Fatalf("AUC() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("AUC() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAUCMatrix(t *testing.T) {
	got, err := AUCMatrix(
		mat.NewDense(4, 2, []float64{0, 9, 0, 9, 1, 9, 1, 9}),
		mat.NewDense(4, 2, []float64{0.1, 9, 0.4, 9, 0.35, 9, 0.8, 9}),
	)
	if err != nil || math.Abs(got-0.75) > 1e-9 {
		t.Errorf("AUCMatrix() = %v, %v; want 0.75", got, err)
	}
	if _, err := AUCMatrix(nil, mat.NewDense(1, 1, nil)); err == nil {
		t.Error("nil matrix should fail")
	}
	if _, err := AUCMatrix(&mat.Dense{}, &mat.Dense{}); err == nil {
		t.Error("empty matrix should fail")
	}
}

func TestBinaryLogLoss(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yPred   []float64
		want    float64
		wantErr bool
	}{
		{"confident and right", []float64{0, 1}, []float64{0, 1}, 0, false},
		{"mostly right", []float64{0, 0, 1, 1}, []float64{0.1, 0.2, 0.8, 0.9}, 0.164252, false},
		{"confident and wrong", []float64{0, 0, 1, 1}, []float64{0.9, 0.9, 0.1, 0.1}, 2.302585, false},
		{"non-binary labels", []float64{0, 2}, []float64{0.1, 0.9}, 0, true},
		{"empty", nil, nil, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BinaryLogLoss(vec(tt.yTrue), vec(tt.yPred))
			if (err != nil) != tt.wantErr {
				t.Fatalf("BinaryLogLoss() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-5 {
				t.Errorf("BinaryLogLoss() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAccuracyAndError(t *testing.T) {
	yTrue := vec([]float64{0, 1, 2, 1, 0})
	yPred := vec([]float64{0, 1, 1, 1, 0})

	acc, err := Accuracy(yTrue, yPred)
	if err != nil || math.Abs(acc-0.8) > 1e-12 {
		t.Errorf("Accuracy() = %v, %v", acc, err)
	}
	e, err := ClassificationError(yTrue, yPred)
	if err != nil || math.Abs(e-0.2) > 1e-12 {
		t.Errorf("ClassificationError() = %v, %v", e, err)
	}
	if _, err := Accuracy(vec([]float64{0, 1}), vec([]float64{0})); err == nil {
		t.Error("length mismatch should fail")
	}

	codesAcc, err := AccuracyCodes([]int{2, 2, 0}, []int{2, 1, 0})
	if err != nil || math.Abs(codesAcc-2.0/3.0) > 1e-12 {
		t.Errorf("AccuracyCodes() = %v, %v", codesAcc, err)
	}
}

func TestConfusionMatrix(t *testing.T) {
	// dose groups: Control=0, Low=1, High=2
	cm, err := ConfusionMatrix([]int{0, 0, 1, 2, 2, 2}, []int{0, 1, 1, 2, 2, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}
	want := mat.NewDense(3, 3, []float64{
		1, 1, 0,
		0, 1, 0,
		1, 0, 2,
	})
	if !mat.Equal(cm, want) {
		t.Errorf("ConfusionMatrix() =\n%v", mat.Formatted(cm))
	}

	if _, err := ConfusionMatrix([]int{0, 3}, []int{0, 1}, 3); err == nil {
		t.Error("out-of-range code should fail")
	}
	if _, err := ConfusionMatrix(nil, nil, 3); err == nil {
		t.Error("empty input should fail")
	}
}

func BenchmarkAUC(b *testing.B) {
	n := 1000
	yTrue := make([]float64, n)
	yPred := make([]float64, n)
	for i := 0; i < n; i++ {
		yTrue[i] = float64(i % 2)
		yPred[i] = float64(i%7) / 7
	}
	yt, yp := vec(yTrue), vec(yPred)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = AUC(yt, yp)
	}
}
