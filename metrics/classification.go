// Package metrics provides classification, ROC and reconstruction metrics.
package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/liverscope/pkg/errors"
)

// logLossEps clips probabilities away from 0 and 1.
const logLossEps = 1e-15

func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yPred == nil || yTrue.Len() == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	n := yTrue.Len()
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

func checkBinary(op string, y *mat.VecDense) error {
	for i := 0; i < y.Len(); i++ {
		if v := y.AtVec(i); v != 0 && v != 1 {
			return errors.NewValueError(op, fmt.Sprintf("labels must be 0 or 1, got %v at %d", v, i))
		}
	}
	return nil
}

// AUC は二値ラベル yTrue とスコア yPred から ROC 曲線下面積を計算する
// 片方のクラスしか含まれない場合は UndefinedMetricWarning を出して 0.5 を返す
func AUC(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("AUC", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if err := checkBinary("AUC", yTrue); err != nil {
		return 0, err
	}
	labels := make([]bool, n)
	scores := make([]float64, n)
	for i := 0; i < n; i++ {
		labels[i] = yTrue.AtVec(i) == 1
		scores[i] = yPred.AtVec(i)
	}
	curve, err := ROCCurve(labels, scores)
	if err != nil {
		return 0, err
	}
	return curve.AUC, nil
}

// AUCMatrix computes AUC from the first column of each matrix.
func AUCMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	if yTrue == nil || yPred == nil {
		return 0, errors.NewValueError("AUCMatrix", "nil matrix")
	}
	yt, err := firstColumn("AUCMatrix", yTrue)
	if err != nil {
		return 0, err
	}
	yp, err := firstColumn("AUCMatrix", yPred)
	if err != nil {
		return 0, err
	}
	return AUC(yt, yp)
}

func firstColumn(op string, m mat.Matrix) (*mat.VecDense, error) {
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewValueError(op, "empty matrix")
	}
	return mat.NewVecDense(r, mat.Col(nil, 0, m)), nil
}

// BinaryLogLoss は二値分類の対数損失(クロスエントロピー)を計算する
func BinaryLogLoss(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("BinaryLogLoss", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if err := checkBinary("BinaryLogLoss", yTrue); err != nil {
		return 0, err
	}
	var sum float64
	for i := 0; i < n; i++ {
		p := math.Min(math.Max(yPred.AtVec(i), logLossEps), 1-logLossEps)
		if yTrue.AtVec(i) == 1 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(n), nil
}

// Accuracy は予測ラベルの正解率を返す
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ClassificationError は 1 - Accuracy を返す
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - acc, nil
}

// AccuracyCodes is Accuracy over integer class codes.
func AccuracyCodes(yTrue, yPred []int) (float64, error) {
	return Accuracy(codesVec(yTrue), codesVec(yPred))
}

func codesVec(codes []int) *mat.VecDense {
	if len(codes) == 0 {
		return nil
	}
	data := make([]float64, len(codes))
	for i, c := range codes {
		data[i] = float64(c)
	}
	return mat.NewVecDense(len(data), data)
}

// ConfusionMatrix returns the k×k count matrix whose entry (i, j) is the
// number of samples of true class i predicted as class j.
func ConfusionMatrix(yTrue, yPred []int, k int) (*mat.Dense, error) {
	if len(yTrue) == 0 {
		return nil, errors.NewValueError("ConfusionMatrix", "empty input")
	}
	if len(yPred) != len(yTrue) {
		return nil, errors.NewDimensionError("ConfusionMatrix", len(yTrue), len(yPred), 0)
	}
	if k <= 0 {
		return nil, errors.NewValidationError("k", "must be positive", k)
	}
	cm := mat.NewDense(k, k, nil)
	for i := range yTrue {
		t, p := yTrue[i], yPred[i]
		if t < 0 || t >= k || p < 0 || p >= k {
			return nil, errors.NewValueError("ConfusionMatrix", fmt.Sprintf("class code out of range [0, %d) at %d", k, i))
		}
		cm.Set(t, p, cm.At(t, p)+1)
	}
	return cm, nil
}
