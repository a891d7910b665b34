package linear_model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/liverscope/pkg/errors"
)

func TestLinearRegressionExactFit(t *testing.T) {
	// y = 2x + 1
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{3, 5, 7, 9})

	lr := NewLinearRegression()
	require.NoError(t, lr.Fit(X, y))
	assert.InDelta(t, 2.0, lr.Coef()[0], 1e-9)
	assert.InDelta(t, 1.0, lr.Intercept(), 1e-9)

	pred, err := lr.Predict(mat.NewDense(2, 1, []float64{5, 6}))
	require.NoError(t, err)
	assert.InDelta(t, 11.0, pred.At(0, 0), 1e-9)
	assert.InDelta(t, 13.0, pred.At(1, 0), 1e-9)
}

func TestLinearRegressionNoIntercept(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{2, 4, 6, 8})

	lr := NewLinearRegression(WithFitIntercept(false))
	require.NoError(t, lr.Fit(X, y))
	assert.InDelta(t, 2.0, lr.Coef()[0], 1e-9)
	assert.Zero(t, lr.Intercept())
}

func TestLinearRegressionRidgeShrinks(t *testing.T) {
	X := mat.NewDense(6, 2, []float64{
		1, 0,
		2, 1,
		3, 1,
		4, 3,
		5, 2,
		6, 4,
	})
	y := mat.NewDense(6, 1, []float64{3, 5, 8, 9, 12, 13})

	ols := NewLinearRegression()
	require.NoError(t, ols.Fit(X, y))
	ridge := NewLinearRegression(WithAlpha(10))
	require.NoError(t, ridge.Fit(X, y))

	norm := func(w []float64) float64 { return math.Hypot(w[0], w[1]) }
	assert.Less(t, norm(ridge.Coef()), norm(ols.Coef()))
}

func TestLinearRegressionRidgeHandlesMoreFeaturesThanSamples(t *testing.T) {
	X := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	y := mat.NewDense(2, 1, []float64{1, 2})

	require.Error(t, NewLinearRegression().Fit(X, y))
	assert.NoError(t, NewLinearRegression(WithAlpha(1)).Fit(X, y))
}

func TestLinearRegressionErrors(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	y := mat.NewDense(3, 1, []float64{1, 2, 3})

	var nf *errors.NotFittedError
	_, err := NewLinearRegression().Predict(X)
	assert.True(t, errors.As(err, &nf))

	var de *errors.DimensionError
	err = NewLinearRegression().Fit(X, mat.NewDense(2, 1, []float64{1, 2}))
	assert.True(t, errors.As(err, &de))

	var ve *errors.ValidationError
	err = NewLinearRegression(WithAlpha(-1)).Fit(X, y)
	assert.True(t, errors.As(err, &ve))

	lr := NewLinearRegression()
	require.NoError(t, lr.Fit(mat.NewDense(3, 1, []float64{1, 2, 4}), y))
	_, err = lr.Predict(X)
	assert.True(t, errors.As(err, &de))

	bad := mat.NewDense(3, 1, []float64{1, math.NaN(), 3})
	var ne *errors.NumericalInstabilityError
	assert.True(t, errors.As(NewLinearRegression().Fit(bad, y), &ne))
}
