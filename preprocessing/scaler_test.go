package preprocessing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/liverscope/pkg/errors"
)

func TestStandardScaler_FitTransform(t *testing.T) {
	// 3 subjects x 3 genes; the last gene is constant
	X := mat.NewDense(3, 3, []float64{
		1, 10, 5,
		2, 20, 5,
		3, 30, 5,
	})

	scaler := NewStandardScalerDefault()
	Xs, err := scaler.FitTransform(X)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{2, 20, 5}, scaler.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(2.0/3.0), scaler.Scale[0], 1e-12)
	assert.Equal(t, 1.0, scaler.Scale[2], "constant column keeps unit scale")

	for j := 0; j < 2; j++ {
		col := mat.Col(nil, j, Xs)
		sum := 0.0
		for _, v := range col {
			sum += v
		}
		assert.InDelta(t, 0, sum, 1e-12)
	}
	assert.Equal(t, 0.0, Xs.At(1, 2))

	back, err := scaler.InverseTransform(Xs)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(X, back, 1e-12))
}

func TestStandardScaler_Errors(t *testing.T) {
	scaler := NewStandardScalerDefault()

	_, err := scaler.Transform(mat.NewDense(1, 2, nil))
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	require.NoError(t, scaler.Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4})))
	_, err = scaler.Transform(mat.NewDense(2, 3, nil))
	var dim *errors.DimensionError
	require.True(t, errors.As(err, &dim))
	assert.Equal(t, 2, dim.Expected)
	assert.Equal(t, 3, dim.Got)

	err = scaler.Fit(mat.NewDense(2, 1, []float64{1, math.NaN()}))
	var ve *errors.ValueError
	assert.True(t, errors.As(err, &ve))
}

func TestStandardScaler_WithoutMean(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{2, 4})
	scaler := NewStandardScaler(false, true)
	Xs, err := scaler.FitTransform(X)
	require.NoError(t, err)

	assert.Equal(t, 0.0, scaler.Mean[0])
	assert.InDelta(t, 2.0, Xs.At(0, 0), 1e-12)
	assert.InDelta(t, 4.0, Xs.At(1, 0), 1e-12)
}

func TestMinMaxScaler_GlyphRadius(t *testing.T) {
	// ALT values mapped to marker radii
	X := mat.NewDense(4, 1, []float64{40, 80, math.NaN(), 120})
	scaler := NewMinMaxScaler([2]float64{2, 10})

	out, err := scaler.FitTransform(X)
	require.NoError(t, err)

	assert.InDelta(t, 2, out.At(0, 0), 1e-12)
	assert.InDelta(t, 6, out.At(1, 0), 1e-12)
	assert.True(t, math.IsNaN(out.At(2, 0)))
	assert.InDelta(t, 10, out.At(3, 0), 1e-12)

	back, err := scaler.InverseTransform(mat.NewDense(1, 1, []float64{6}))
	require.NoError(t, err)
	assert.InDelta(t, 80, back.At(0, 0), 1e-12)
}

func TestMinMaxScaler_InvalidRange(t *testing.T) {
	scaler := NewMinMaxScaler([2]float64{1, 1})
	err := scaler.Fit(mat.NewDense(1, 1, []float64{3}))
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))
}
