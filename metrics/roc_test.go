package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/liverscope/pkg/errors"
)

func TestROCCurveShape(t *testing.T) {
	labels := []bool{false, true, false, true, true}
	scores := []float64{0.1, 0.9, 0.4, 0.35, 0.8}

	curve, err := ROCCurve(labels, scores)
	require.NoError(t, err)

	assert.Equal(t, 3, curve.Positives)
	assert.Equal(t, 2, curve.Negatives)
	require.Equal(t, len(curve.FPR), len(curve.TPR))
	require.Equal(t, len(curve.FPR), len(curve.Thresholds))
	// one point per distinct score plus the origin
	assert.Len(t, curve.FPR, 6)

	assert.Equal(t, 0.0, curve.FPR[0])
	assert.Equal(t, 0.0, curve.TPR[0])
	assert.Equal(t, 1.0, curve.FPR[len(curve.FPR)-1])
	assert.Equal(t, 1.0, curve.TPR[len(curve.TPR)-1])
	for i := 1; i < len(curve.FPR); i++ {
		assert.GreaterOrEqual(t, curve.FPR[i], curve.FPR[i-1])
		assert.GreaterOrEqual(t, curve.TPR[i], curve.TPR[i-1])
	}

	// positives 0.9, 0.8, 0.35 vs negatives 0.4, 0.1: 5 of 6 pairs ordered
	assert.InDelta(t, 5.0/6.0, curve.AUC, 1e-12)
}

func TestROCCurveSingleClassWarns(t *testing.T) {
	var got []error
	errors.SetWarningHandler(func(w error) { got = append(got, w) })
	defer errors.SetWarningHandler(nil)

	curve, err := ROCCurve([]bool{true, true}, []float64{0.2, 0.7})
	require.NoError(t, err)
	assert.True(t, curve.Undefined)
	assert.Equal(t, 0.5, curve.AUC)

	require.Len(t, got, 1)
	var w *errors.UndefinedMetricWarning
	assert.True(t, errors.As(got[0], &w))
}

func TestROCCurveRejectsNaN(t *testing.T) {
	_, err := ROCCurve([]bool{true, false}, []float64{math.NaN(), 0.3})
	var ni *errors.NumericalInstabilityError
	assert.True(t, errors.As(err, &ni))
}

func TestMultiClassROC(t *testing.T) {
	// three dose groups, decision scores favour the true class
	codes := []int{0, 0, 1, 1, 2, 2}
	scores := mat.NewDense(6, 3, []float64{
		0.9, 0.1, 0.0,
		0.6, 0.3, 0.1,
		0.2, 0.7, 0.1,
		0.5, 0.4, 0.1,
		0.1, 0.2, 0.7,
		0.3, 0.1, 0.6,
	})

	res, err := MultiClassROC(codes, scores, []string{"Control", "Low", "High"})
	require.NoError(t, err)
	require.Len(t, res.Classes, 3)

	assert.Equal(t, "Control", res.Classes[0].Label)
	assert.InDelta(t, 1.0, res.Classes[0].AUC, 1e-12)
	assert.InDelta(t, 1.0, res.Classes[1].AUC, 1e-12)
	assert.InDelta(t, 1.0, res.Classes[2].AUC, 1e-12)
	assert.InDelta(t, 1.0, res.Macro.AUC, 1e-12)

	assert.Equal(t, MicroLabel, res.Micro.Label)
	assert.Equal(t, 6, res.Micro.Positives)
	assert.Equal(t, 12, res.Micro.Negatives)
	assert.True(t, res.Micro.AUC > 0.8 && res.Micro.AUC <= 1)
}

func TestMultiClassROCMissingClass(t *testing.T) {
	errors.SetWarningHandler(func(error) {})
	defer errors.SetWarningHandler(nil)

	// class 2 absent from the evaluation split
	codes := []int{0, 1, 0, 1}
	scores := mat.NewDense(4, 3, []float64{
		0.8, 0.1, 0.1,
		0.2, 0.7, 0.1,
		0.4, 0.5, 0.1,
		0.3, 0.6, 0.1,
	})

	res, err := MultiClassROC(codes, scores, nil)
	require.NoError(t, err)
	assert.True(t, res.Classes[2].Undefined)
	assert.Equal(t, "class 2", res.Classes[2].Label)
	assert.Len(t, res.Defined(), 2)

	want := (res.Classes[0].AUC + res.Classes[1].AUC) / 2
	// macro AUC averages curves, which can differ slightly from mean AUC
	assert.InDelta(t, want, res.Macro.AUC, 0.15)
}

func TestMultiClassROCErrors(t *testing.T) {
	scores := mat.NewDense(2, 2, []float64{0.1, 0.9, 0.8, 0.2})

	_, err := MultiClassROC([]int{0}, scores, nil)
	assert.Error(t, err)

	_, err = MultiClassROC([]int{0, 1}, scores, []string{"only one"})
	assert.Error(t, err)

	_, err = MultiClassROC([]int{0, 1}, mat.NewDense(2, 1, []float64{1, 2}), nil)
	assert.Error(t, err)
}

func TestInterpStep(t *testing.T) {
	fpr := []float64{0, 0, 0.5, 1}
	tpr := []float64{0, 0.5, 0.5, 1}

	assert.Equal(t, 0.5, interpStep(0, fpr, tpr))
	assert.InDelta(t, 0.75, interpStep(0.75, fpr, tpr), 1e-12)
	assert.Equal(t, 1.0, interpStep(1, fpr, tpr))
}
