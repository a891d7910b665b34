// Package decomposition provides principal component analysis.
package decomposition

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/liverscope/core/model"
	"github.com/YuminosukeSato/liverscope/pkg/errors"
)

// PCA projects samples onto the directions of maximal variance.
//
// Components are the right singular vectors of the centered data. The sign
// of each component is fixed so that its largest-magnitude loading is
// positive, which makes repeated fits produce identical scores.
type PCA struct {
	state *model.StateManager

	nComponents int
	whiten      bool

	// Components は k×p の主成分行列(行が主成分)
	Components *mat.Dense
	// ExplainedVariance は各主成分の分散(n-1 で割る)
	ExplainedVariance []float64
	// ExplainedVarianceRatio は全分散に対する割合
	ExplainedVarianceRatio []float64
	// Mean は学習データの列平均
	Mean []float64
}

var _ model.InverseTransformer = (*PCA)(nil)

// PCAOption configures a PCA.
type PCAOption func(*PCA)

// WithNComponents keeps the first k components. 0 keeps min(n, p).
func WithNComponents(k int) PCAOption {
	return func(p *PCA) {
		p.nComponents = k
	}
}

// WithWhiten scales scores to unit variance.
func WithWhiten(whiten bool) PCAOption {
	return func(p *PCA) {
		p.whiten = whiten
	}
}

// NewPCA creates an unfitted PCA.
//
//	pca := decomposition.NewPCA(decomposition.WithNComponents(3))
//	scores, err := pca.FitTransform(X)
func NewPCA(opts ...PCAOption) *PCA {
	p := &PCA{state: model.NewStateManager()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Fit computes the principal axes of X (n samples × p features).
func (p *PCA) Fit(X mat.Matrix) error {
	n, d := X.Dims()
	if n == 0 || d == 0 {
		return errors.NewModelError("PCA.Fit", "empty data", errors.ErrEmptyData)
	}
	if n < 2 {
		return errors.NewValueError("PCA.Fit", "at least 2 samples are required")
	}
	if p.nComponents < 0 {
		return errors.NewValidationError("n_components", "must be non-negative", p.nComponents)
	}
	maxK := min(n, d)
	k := p.nComponents
	if k == 0 {
		k = maxK
	}
	if k > maxK {
		return errors.NewValueError("PCA.Fit",
			fmt.Sprintf("n_components=%d must be <= min(n_samples, n_features)=%d", k, maxK))
	}
	if err := errors.CheckMatrix("PCA.Fit", X, n, d, 0); err != nil {
		return err
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(X, nil); !ok {
		return errors.NewModelError("PCA.Fit", "SVD did not converge", errors.ErrSingularMatrix)
	}
	vars := pc.VarsTo(nil)
	var vecs mat.Dense
	pc.VectorsTo(&vecs)

	total := floats.Sum(vars)
	components := mat.NewDense(k, d, nil)
	explained := make([]float64, k)
	ratio := make([]float64, k)
	col := make([]float64, d)
	for c := 0; c < k; c++ {
		mat.Col(col, c, &vecs)
		if col[floats.MaxIdx(absCopy(col))] < 0 {
			floats.Scale(-1, col)
		}
		components.SetRow(c, col)
		explained[c] = vars[c]
		if total > 0 {
			ratio[c] = vars[c] / total
		}
	}

	mean := make([]float64, d)
	for j := 0; j < d; j++ {
		mean[j] = stat.Mean(mat.Col(nil, j, X), nil)
	}

	p.Components = components
	p.ExplainedVariance = explained
	p.ExplainedVarianceRatio = ratio
	p.Mean = mean
	p.state.SetFitted(n, d)
	return nil
}

func absCopy(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = math.Abs(v)
	}
	return out
}

// Transform returns the n×k scores of X.
func (p *PCA) Transform(X mat.Matrix) (mat.Matrix, error) {
	_, d := X.Dims()
	if err := p.state.RequireFeatures("PCA", "Transform", d); err != nil {
		return nil, err
	}
	centered := mat.DenseCopyOf(X)
	centered.Apply(func(_, j int, v float64) float64 { return v - p.Mean[j] }, centered)

	var scores mat.Dense
	scores.Mul(centered, p.Components.T())
	if p.whiten {
		scores.Apply(func(_, c int, v float64) float64 {
			if p.ExplainedVariance[c] <= 0 {
				return 0
			}
			return v / math.Sqrt(p.ExplainedVariance[c])
		}, &scores)
	}
	return &scores, nil
}

// FitTransform は Fit の後に Transform を実行する
func (p *PCA) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := p.Fit(X); err != nil {
		return nil, err
	}
	return p.Transform(X)
}

// InverseTransform maps n×k scores back to feature space.
func (p *PCA) InverseTransform(Z mat.Matrix) (mat.Matrix, error) {
	if err := p.state.RequireFitted("PCA", "InverseTransform"); err != nil {
		return nil, err
	}
	_, k := Z.Dims()
	if k != p.NComponents() {
		return nil, errors.NewDimensionError("PCA.InverseTransform", p.NComponents(), k, 1)
	}
	scores := mat.DenseCopyOf(Z)
	if p.whiten {
		scores.Apply(func(_, c int, v float64) float64 {
			return v * math.Sqrt(p.ExplainedVariance[c])
		}, scores)
	}
	var out mat.Dense
	out.Mul(scores, p.Components)
	out.Apply(func(_, j int, v float64) float64 { return v + p.Mean[j] }, &out)
	return &out, nil
}

// NComponents returns the number of kept components, or the configured
// value before fitting.
func (p *PCA) NComponents() int {
	if p.Components != nil {
		k, _ := p.Components.Dims()
		return k
	}
	return p.nComponents
}

// CumulativeVarianceRatio returns the running sum of ExplainedVarianceRatio.
func (p *PCA) CumulativeVarianceRatio() []float64 {
	out := make([]float64, len(p.ExplainedVarianceRatio))
	floats.CumSum(out, p.ExplainedVarianceRatio)
	return out
}

// ComponentsFor returns the smallest k whose cumulative ratio reaches target.
func (p *PCA) ComponentsFor(target float64) int {
	for i, c := range p.CumulativeVarianceRatio() {
		if c >= target {
			return i + 1
		}
	}
	return p.NComponents()
}

// Loading is one feature's weight on a component.
type Loading struct {
	Feature int
	Weight  float64
}

// TopLoadings returns the n features with the largest |weight| on component
// c (0-based), strongest first.
func (p *PCA) TopLoadings(c, n int) ([]Loading, error) {
	if err := p.state.RequireFitted("PCA", "TopLoadings"); err != nil {
		return nil, err
	}
	k, d := p.Components.Dims()
	if c < 0 || c >= k {
		return nil, errors.NewValueError("PCA.TopLoadings", fmt.Sprintf("component %d out of range [0, %d)", c, k))
	}
	row := p.Components.RawRowView(c)
	out := make([]Loading, d)
	for j, w := range row {
		out[j] = Loading{Feature: j, Weight: w}
	}
	sort.SliceStable(out, func(a, b int) bool { return math.Abs(out[a].Weight) > math.Abs(out[b].Weight) })
	if n > 0 && n < d {
		out = out[:n]
	}
	return out, nil
}

// IsFitted reports whether Fit has succeeded.
func (p *PCA) IsFitted() bool { return p.state.IsFitted() }

// GetParams returns the hyperparameters.
func (p *PCA) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_components": p.nComponents,
		"whiten":       p.whiten,
	}
}

func (p *PCA) String() string {
	return fmt.Sprintf("PCA(n_components=%d, whiten=%t)", p.NComponents(), p.whiten)
}

type pcaSnapshot struct {
	NComponents            int
	Whiten                 bool
	Fitted                 bool
	NSamples, NFeatures    int
	Components             *mat.Dense
	ExplainedVariance      []float64
	ExplainedVarianceRatio []float64
	Mean                   []float64
}

// GobEncode lets core/model.SaveModel persist a fitted PCA.
func (p *PCA) GobEncode() ([]byte, error) {
	nFeatures, nSamples := p.state.GetDimensions()
	snap := pcaSnapshot{
		NComponents:            p.nComponents,
		Whiten:                 p.whiten,
		Fitted:                 p.state.IsFitted(),
		NSamples:               nSamples,
		NFeatures:              nFeatures,
		Components:             p.Components,
		ExplainedVariance:      p.ExplainedVariance,
		ExplainedVarianceRatio: p.ExplainedVarianceRatio,
		Mean:                   p.Mean,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return nil, errors.Wrap(err, "encode PCA")
	}
	return buf.Bytes(), nil
}

// GobDecode restores a PCA written by GobEncode.
func (p *PCA) GobDecode(data []byte) error {
	var snap pcaSnapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return errors.Wrap(err, "decode PCA")
	}
	p.state = model.NewStateManager()
	p.nComponents = snap.NComponents
	p.whiten = snap.Whiten
	p.Components = snap.Components
	p.ExplainedVariance = snap.ExplainedVariance
	p.ExplainedVarianceRatio = snap.ExplainedVarianceRatio
	p.Mean = snap.Mean
	if snap.Fitted {
		p.state.SetFitted(snap.NSamples, snap.NFeatures)
	}
	return nil
}
