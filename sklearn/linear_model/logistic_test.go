package linear_model

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/liverscope/pkg/errors"
)

// clusters returns perPoint samples around each center with class code =
// center index.
func clusters(centers [][]float64, perClass int, spread float64, seed int64) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewSource(seed))
	p := len(centers[0])
	n := len(centers) * perClass
	X := mat.NewDense(n, p, nil)
	y := mat.NewDense(n, 1, nil)
	for c, center := range centers {
		for k := 0; k < perClass; k++ {
			i := c*perClass + k
			for j := 0; j < p; j++ {
				X.Set(i, j, center[j]+rng.NormFloat64()*spread)
			}
			y.Set(i, 0, float64(c))
		}
	}
	return X, y
}

func TestLogisticRegression_Binary(t *testing.T) {
	X := mat.NewDense(6, 2, []float64{
		0.5, 0.5,
		1.0, 1.5,
		1.5, 1.0,
		3.0, 2.5,
		2.5, 3.0,
		3.5, 3.5,
	})
	y := mat.NewDense(6, 1, []float64{0, 0, 0, 1, 1, 1})

	lr := NewLogisticRegression(WithLRMaxIter(2000))
	require.NoError(t, lr.Fit(X, y))

	acc, err := lr.Score(X, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, acc)

	scores, err := lr.DecisionFunction(X)
	require.NoError(t, err)
	r, c := scores.Dims()
	assert.Equal(t, 6, r)
	assert.Equal(t, 1, c, "binary decision function is a single column")
	assert.Less(t, scores.At(0, 0), 0.0)
	assert.Greater(t, scores.At(5, 0), 0.0)

	proba, err := lr.PredictProba(mat.NewDense(2, 2, []float64{1, 1, 3, 3}))
	require.NoError(t, err)
	assert.Greater(t, proba.At(0, 0), 0.5)
	assert.Greater(t, proba.At(1, 1), 0.5)
	assert.InDelta(t, 1, proba.At(0, 0)+proba.At(0, 1), 1e-12)
}

func TestLogisticRegression_OneVsRest(t *testing.T) {
	centers := [][]float64{{0, 0}, {4, 0}, {0, 4}, {4, 4}}
	X, y := clusters(centers, 10, 0.4, 1)

	lr := NewLogisticRegression(WithLRC(10), WithLRRandomState(0))
	require.NoError(t, lr.Fit(X, y))
	assert.Equal(t, []int{0, 1, 2, 3}, lr.Classes())

	acc, err := lr.Score(X, y)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, acc, 0.95)

	scores, err := lr.DecisionFunction(X)
	require.NoError(t, err)
	_, k := scores.Dims()
	assert.Equal(t, 4, k)

	proba, err := lr.PredictProba(X)
	require.NoError(t, err)
	n, _ := proba.Dims()
	for i := 0; i < n; i++ {
		row := mat.Row(nil, i, proba)
		assert.InDelta(t, 1, floats.Sum(row), 1e-12)
		// argmax of normalized sigmoids equals argmax of scores
		assert.Equal(t, floats.MaxIdx(mat.Row(nil, i, scores)), floats.MaxIdx(row))
	}
}

func TestLogisticRegression_ParallelMatchesSequential(t *testing.T) {
	X, y := clusters([][]float64{{0, 0, 1}, {3, 1, 0}, {1, 3, 2}}, 8, 0.5, 2)

	seq := NewLogisticRegression(WithLRNJobs(1), WithLRRandomState(3))
	par := NewLogisticRegression(WithLRNJobs(3), WithLRRandomState(3))
	require.NoError(t, seq.Fit(X, y))
	require.NoError(t, par.Fit(X, y))

	assert.True(t, mat.Equal(seq.Coef(), par.Coef()))
	assert.Equal(t, seq.Intercept(), par.Intercept())
}

func TestLogisticRegression_ConvergenceWarning(t *testing.T) {
	var warnings []error
	defer errors.SetWarningHandler(errors.SetWarningHandler(func(w error) {
		warnings = append(warnings, w)
	}))

	X, y := clusters([][]float64{{0, 0}, {2, 2}}, 5, 1, 4)
	lr := NewLogisticRegression(WithLRMaxIter(1))
	require.NoError(t, lr.Fit(X, y))

	require.Len(t, warnings, 1)
	var cw *errors.ConvergenceWarning
	require.True(t, errors.As(warnings[0], &cw))
	assert.Equal(t, "LogisticRegression", cw.Algorithm)
	assert.Equal(t, []int{1}, lr.NIter())
}

func TestLogisticRegression_Errors(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{0, 0, 0, 1, 1, 0, 1, 1})

	t.Run("not fitted", func(t *testing.T) {
		_, err := NewLogisticRegression().Predict(X)
		var nf *errors.NotFittedError
		assert.True(t, errors.As(err, &nf))
	})

	t.Run("single class", func(t *testing.T) {
		err := NewLogisticRegression().Fit(X, mat.NewDense(4, 1, []float64{2, 2, 2, 2}))
		var ve *errors.ValueError
		assert.True(t, errors.As(err, &ve))
	})

	t.Run("row mismatch", func(t *testing.T) {
		err := NewLogisticRegression().Fit(X, mat.NewDense(3, 1, []float64{0, 1, 0}))
		var de *errors.DimensionError
		assert.True(t, errors.As(err, &de))
	})

	t.Run("feature mismatch", func(t *testing.T) {
		lr := NewLogisticRegression()
		require.NoError(t, lr.Fit(X, mat.NewDense(4, 1, []float64{0, 0, 1, 1})))
		_, err := lr.DecisionFunction(mat.NewDense(1, 3, nil))
		var de *errors.DimensionError
		assert.True(t, errors.As(err, &de))
	})

	t.Run("invalid C", func(t *testing.T) {
		err := NewLogisticRegression(WithLRC(0)).Fit(X, mat.NewDense(4, 1, []float64{0, 0, 1, 1}))
		var ve *errors.ValidationError
		assert.True(t, errors.As(err, &ve))
	})

	t.Run("NaN input", func(t *testing.T) {
		bad := mat.DenseCopyOf(X)
		bad.Set(0, 0, math.NaN())
		err := NewLogisticRegression().Fit(bad, mat.NewDense(4, 1, []float64{0, 0, 1, 1}))
		assert.Error(t, err)
	})
}

func TestSigmoidStable(t *testing.T) {
	assert.Equal(t, 0.5, sigmoid(0))
	assert.InDelta(t, 1, sigmoid(800), 1e-12)
	assert.InDelta(t, 0, sigmoid(-800), 1e-12)
	assert.False(t, math.IsNaN(sigmoid(-800)))
}
