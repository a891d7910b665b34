package preprocessing

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/liverscope/core/model"
	"github.com/YuminosukeSato/liverscope/pkg/errors"
)

// MeanImputer replaces NaN cells with the column mean seen during Fit.
type MeanImputer struct {
	state *model.StateManager

	// Means holds one fill value per column.
	Means []float64
}

var _ model.Transformer = (*MeanImputer)(nil)

// NewMeanImputer creates an unfitted MeanImputer.
func NewMeanImputer() *MeanImputer {
	return &MeanImputer{state: model.NewStateManager()}
}

// Fit computes column means ignoring NaN. An all-NaN column gets 0 and
// raises a DataConversionWarning.
func (m *MeanImputer) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("MeanImputer.Fit", "empty data", errors.ErrEmptyData)
	}
	m.Means = make([]float64, c)
	for j := 0; j < c; j++ {
		sum, n := 0.0, 0
		for i := 0; i < r; i++ {
			if v := X.At(i, j); !math.IsNaN(v) {
				sum += v
				n++
			}
		}
		if n == 0 {
			errors.Warn(errors.NewDataConversionWarning("NaN", "float64", "column has no observed values; filled with 0"))
			continue
		}
		m.Means[j] = sum / float64(n)
	}
	m.state.SetFitted(r, c)
	return nil
}

// Transform returns a copy of X with NaN cells filled.
func (m *MeanImputer) Transform(X mat.Matrix) (mat.Matrix, error) {
	_, c := X.Dims()
	if err := m.state.RequireFeatures("MeanImputer", "Transform", c); err != nil {
		return nil, err
	}
	out := mat.DenseCopyOf(X)
	out.Apply(func(_, j int, v float64) float64 {
		if math.IsNaN(v) {
			return m.Means[j]
		}
		return v
	}, out)
	return out, nil
}

// FitTransform fits the imputer and fills X.
func (m *MeanImputer) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// IsFitted reports whether Fit has succeeded.
func (m *MeanImputer) IsFitted() bool { return m.state.IsFitted() }

// CountNaN returns the number of NaN cells in X.
func CountNaN(X mat.Matrix) int {
	r, c := X.Dims()
	n := 0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if math.IsNaN(X.At(i, j)) {
				n++
			}
		}
	}
	return n
}

// ImputeMean returns a copy of X with NaN cells replaced by their column mean
// and the number of replaced cells. An all-NaN column is filled with 0 and
// raises a DataConversionWarning.
func ImputeMean(X mat.Matrix) (*mat.Dense, int) {
	missing := CountNaN(X)
	if missing == 0 {
		return mat.DenseCopyOf(X), 0
	}
	imp := NewMeanImputer()
	out, err := imp.FitTransform(X)
	if err != nil {
		// empty input has nothing to fill
		return mat.DenseCopyOf(X), 0
	}
	return out.(*mat.Dense), missing
}
