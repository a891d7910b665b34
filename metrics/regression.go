package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/liverscope/pkg/errors"
)

// MSE は平均二乗誤差を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += d * d
	}
	return sum / float64(n), nil
}

// RMSE は MSE の平方根
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差を計算する
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}
	return sum / float64(n), nil
}

// R2Score は決定係数 1 - RSS/TSS を計算する
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	mean := stat.Mean(mat.Col(nil, 0, yTrue), nil)
	var tss, rss float64
	for i := 0; i < n; i++ {
		t := yTrue.AtVec(i)
		tss += (t - mean) * (t - mean)
		d := t - yPred.AtVec(i)
		rss += d * d
	}
	if tss == 0 {
		return 0, errors.NewValueError("R2Score", "total sum of squares is zero (no variance in yTrue)")
	}
	return 1 - rss/tss, nil
}

// Reconstruction summarizes how well Xhat reproduces X cell by cell.
type Reconstruction struct {
	MSE  float64
	RMSE float64
	MAE  float64
	// R2 is the share of X's total variance around its column means that
	// Xhat reproduces.
	R2 float64
}

// ReconstructionError compares a matrix with its PCA reconstruction.
func ReconstructionError(X, Xhat mat.Matrix) (Reconstruction, error) {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return Reconstruction{}, errors.NewValueError("ReconstructionError", "empty matrix")
	}
	if rr, cc := Xhat.Dims(); rr != r || cc != c {
		if rr != r {
			return Reconstruction{}, errors.NewDimensionError("ReconstructionError", r, rr, 0)
		}
		return Reconstruction{}, errors.NewDimensionError("ReconstructionError", c, cc, 1)
	}

	var diff mat.Dense
	diff.Sub(X, Xhat)
	cells := float64(r * c)
	sq := mat.Norm(&diff, 2)
	var out Reconstruction
	out.MSE = sq * sq / cells
	out.RMSE = math.Sqrt(out.MSE)
	out.MAE = mat.Sum(absDense(&diff)) / cells

	var tss float64
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		m := stat.Mean(col, nil)
		floats.AddConst(-m, col)
		tss += floats.Dot(col, col)
	}
	if tss > 0 {
		out.R2 = 1 - sq*sq/tss
	}
	return out, nil
}

func absDense(m *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.Apply(func(_, _ int, v float64) float64 { return math.Abs(v) }, m)
	return &out
}
