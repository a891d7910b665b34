package decomposition

import (
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/liverscope/core/model"
	"github.com/YuminosukeSato/liverscope/pkg/errors"
)

// makeExpression builds n samples driven by two latent factors spread over
// p features plus small noise.
func makeExpression(n, p int, seed int64) *mat.Dense {
	rng := rand.New(rand.NewSource(seed))
	X := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		f1 := rng.NormFloat64() * 5
		f2 := rng.NormFloat64() * 2
		for j := 0; j < p; j++ {
			w1 := float64(j%3) - 1
			w2 := float64(j%2)*2 - 1
			X.Set(i, j, 10+w1*f1+w2*f2+rng.NormFloat64()*0.1)
		}
	}
	return X
}

func TestPCA_MatchesCovarianceEigen(t *testing.T) {
	X := makeExpression(40, 6, 1)

	pca := NewPCA(WithNComponents(2))
	require.NoError(t, pca.Fit(X))

	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, X, nil)
	var eig mat.EigenSym
	require.True(t, eig.Factorize(&cov, true))
	values := eig.Values(nil) // ascending
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	for c := 0; c < 2; c++ {
		idx := len(values) - 1 - c
		assert.InDelta(t, values[idx], pca.ExplainedVariance[c], 1e-8)

		// same direction up to sign
		dot := floats.Dot(pca.Components.RawRowView(c), mat.Col(nil, idx, &vectors))
		assert.InDelta(t, 1, math.Abs(dot), 1e-8)
	}

	assert.Greater(t, pca.ExplainedVarianceRatio[0], pca.ExplainedVarianceRatio[1])
	cum := pca.CumulativeVarianceRatio()
	assert.InDelta(t, pca.ExplainedVarianceRatio[0]+pca.ExplainedVarianceRatio[1], cum[1], 1e-12)
	assert.Greater(t, cum[1], 0.99, "two factors explain nearly all variance")
	assert.Equal(t, 1, pca.ComponentsFor(0.5))
}

func TestPCA_DeterministicSign(t *testing.T) {
	X := makeExpression(20, 5, 2)
	neg := mat.DenseCopyOf(X)
	neg.Scale(-1, neg)

	a := NewPCA(WithNComponents(3))
	b := NewPCA(WithNComponents(3))
	require.NoError(t, a.Fit(X))
	require.NoError(t, b.Fit(neg))

	assert.True(t, mat.EqualApprox(a.Components, b.Components, 1e-10))
	for c := 0; c < 3; c++ {
		row := a.Components.RawRowView(c)
		absMax := 0
		for j := range row {
			if math.Abs(row[j]) > math.Abs(row[absMax]) {
				absMax = j
			}
		}
		assert.Positive(t, row[absMax])
	}
}

func TestPCA_TransformInverse(t *testing.T) {
	X := makeExpression(12, 4, 3)

	full := NewPCA()
	scores, err := full.FitTransform(X)
	require.NoError(t, err)
	r, k := scores.Dims()
	assert.Equal(t, 12, r)
	assert.Equal(t, 4, k)

	back, err := full.InverseTransform(scores)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(X, back, 1e-9), "full reconstruction")

	// scores are centered
	for c := 0; c < k; c++ {
		assert.InDelta(t, 0, stat.Mean(mat.Col(nil, c, scores), nil), 1e-9)
	}
}

func TestPCA_Whiten(t *testing.T) {
	X := makeExpression(30, 5, 4)
	pca := NewPCA(WithNComponents(2), WithWhiten(true))
	scores, err := pca.FitTransform(X)
	require.NoError(t, err)

	for c := 0; c < 2; c++ {
		assert.InDelta(t, 1, stat.Variance(mat.Col(nil, c, scores), nil), 1e-8)
	}
	back, err := pca.InverseTransform(scores)
	require.NoError(t, err)
	unwhitened := NewPCA(WithNComponents(2))
	plain, _ := unwhitened.FitTransform(X)
	expect, _ := unwhitened.InverseTransform(plain)
	assert.True(t, mat.EqualApprox(expect, back, 1e-8))
}

func TestPCA_Errors(t *testing.T) {
	tests := []struct {
		name string
		run  func() error
		want interface{}
	}{
		{
			name: "too many components",
			run: func() error {
				return NewPCA(WithNComponents(5)).Fit(makeExpression(4, 10, 5))
			},
			want: &errors.ValueError{},
		},
		{
			name: "not fitted",
			run: func() error {
				_, err := NewPCA().Transform(mat.NewDense(2, 2, nil))
				return err
			},
			want: &errors.NotFittedError{},
		},
		{
			name: "feature mismatch",
			run: func() error {
				pca := NewPCA(WithNComponents(2))
				if err := pca.Fit(makeExpression(10, 4, 6)); err != nil {
					return err
				}
				_, err := pca.Transform(mat.NewDense(2, 3, nil))
				return err
			},
			want: &errors.DimensionError{},
		},
		{
			name: "NaN input",
			run: func() error {
				X := makeExpression(5, 3, 7)
				X.Set(2, 1, math.NaN())
				return NewPCA().Fit(X)
			},
			want: &errors.NumericalInstabilityError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			require.Error(t, err)
			switch tt.want.(type) {
			case *errors.ValueError:
				var target *errors.ValueError
				assert.True(t, errors.As(err, &target), "got %v", err)
			case *errors.NotFittedError:
				var target *errors.NotFittedError
				assert.True(t, errors.As(err, &target), "got %v", err)
			case *errors.DimensionError:
				var target *errors.DimensionError
				assert.True(t, errors.As(err, &target), "got %v", err)
			case *errors.NumericalInstabilityError:
				var target *errors.NumericalInstabilityError
				assert.True(t, errors.As(err, &target), "got %v", err)
			}
		})
	}

	err := NewPCA().Fit(&mat.Dense{})
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func TestPCA_TopLoadings(t *testing.T) {
	X := mat.NewDense(4, 3, []float64{
		0, 1, 10,
		0, -1, 20,
		0, 1, 30,
		0, -1, 40,
	})
	pca := NewPCA(WithNComponents(1))
	require.NoError(t, pca.Fit(X))

	top, err := pca.TopLoadings(0, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, 2, top[0].Feature)
	assert.Positive(t, top[0].Weight)

	_, err = pca.TopLoadings(1, 2)
	assert.Error(t, err)
}

func TestPCA_SaveLoad(t *testing.T) {
	X := makeExpression(15, 6, 8)
	pca := NewPCA(WithNComponents(3))
	want, err := pca.FitTransform(X)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "pca.gob")
	require.NoError(t, model.SaveModel(pca, path))

	loaded := NewPCA()
	require.NoError(t, model.LoadModel(loaded, path))
	assert.True(t, loaded.IsFitted())
	assert.Equal(t, 3, loaded.NComponents())

	got, err := loaded.Transform(X)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(want, got, 1e-12))
}
