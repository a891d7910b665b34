package multiclass

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/liverscope/core/model"
	"github.com/YuminosukeSato/liverscope/pkg/errors"
	"github.com/YuminosukeSato/liverscope/sklearn/linear_model"
	"github.com/YuminosukeSato/liverscope/sklearn/svm"
)

func threeBlobs(seed int64) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewSource(seed))
	centers := [][2]float64{{0, 0}, {5, 0}, {0, 5}}
	X := mat.NewDense(30, 2, nil)
	y := mat.NewDense(30, 1, nil)
	for i := 0; i < 30; i++ {
		c := i / 10
		X.Set(i, 0, centers[c][0]+rng.NormFloat64()*0.5)
		X.Set(i, 1, centers[c][1]+rng.NormFloat64()*0.5)
		y.Set(i, 0, float64(c))
	}
	return X, y
}

func accuracy(pred, y mat.Matrix) float64 {
	n, _ := y.Dims()
	correct := 0
	for i := 0; i < n; i++ {
		if pred.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(n)
}

func TestOneVsRest_Members(t *testing.T) {
	factories := map[string]EstimatorFactory{
		"svc": func() model.BinaryClassifier { return svm.NewLinearSVC(svm.WithMaxIter(200)) },
		"logistic": func() model.BinaryClassifier {
			return linear_model.NewLogisticRegression(linear_model.WithLRC(10))
		},
	}
	X, y := threeBlobs(1)
	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			defer errors.SetWarningHandler(errors.SetWarningHandler(func(error) {}))

			ovr := NewOneVsRestClassifier(factory, WithNJobs(2))
			require.NoError(t, ovr.Fit(X, y))
			assert.Equal(t, []int{0, 1, 2}, ovr.Classes())
			assert.Len(t, ovr.Estimators(), 3)

			scores, err := ovr.DecisionFunction(X)
			require.NoError(t, err)
			r, c := scores.Dims()
			assert.Equal(t, 30, r)
			assert.Equal(t, 3, c)

			pred, err := ovr.Predict(X)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, accuracy(pred, y), 0.95)
		})
	}
}

func TestOneVsRest_PredictProba(t *testing.T) {
	X, y := threeBlobs(2)
	ovr := NewOneVsRestClassifier(func() model.BinaryClassifier {
		return linear_model.NewLogisticRegression()
	})
	require.NoError(t, ovr.Fit(X, y))
	proba, err := ovr.PredictProba(X)
	require.NoError(t, err)
	for i := 0; i < 30; i++ {
		assert.InDelta(t, 1, floats.Sum(mat.Row(nil, i, proba)), 1e-12)
	}

	svcOvR := NewOneVsRestClassifier(func() model.BinaryClassifier { return svm.NewLinearSVC() })
	defer errors.SetWarningHandler(errors.SetWarningHandler(func(error) {}))
	require.NoError(t, svcOvR.Fit(X, y))
	_, err = svcOvR.PredictProba(X)
	var ve *errors.ValueError
	assert.True(t, errors.As(err, &ve))
}

func TestOneVsRest_Errors(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	ovr := NewOneVsRestClassifier(func() model.BinaryClassifier { return svm.NewLinearSVC() })

	_, err := ovr.Predict(X)
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	err = ovr.Fit(X, mat.NewDense(3, 1, []float64{4, 4, 4}))
	var ve *errors.ValueError
	assert.True(t, errors.As(err, &ve))

	err = NewOneVsRestClassifier(nil).Fit(X, mat.NewDense(3, 1, []float64{0, 1, 0}))
	var vle *errors.ValidationError
	assert.True(t, errors.As(err, &vle))
}

// shapeBug panics the way gonum does on mismatched operands.
type shapeBug struct{}

func (shapeBug) Fit(X, y mat.Matrix) error {
	var out mat.Dense
	out.Mul(X, y.T())
	return nil
}

func (shapeBug) DecisionFunction(X mat.Matrix) (mat.Matrix, error) { return nil, nil }

func TestOneVsRest_MemberPanicBecomesError(t *testing.T) {
	X, y := threeBlobs(2)
	ovr := NewOneVsRestClassifier(func() model.BinaryClassifier { return shapeBug{} }, WithNJobs(3))

	var err error
	require.NotPanics(t, func() { err = ovr.Fit(X, y) })
	var pe *errors.PanicError
	require.True(t, errors.As(err, &pe))
	assert.True(t, errors.Is(err, mat.ErrShape))
	assert.False(t, ovr.IsFitted())
}
