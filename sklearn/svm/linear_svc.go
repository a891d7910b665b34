// Package svm provides a linear support vector classifier.
package svm

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/liverscope/core/model"
	"github.com/YuminosukeSato/liverscope/pkg/errors"
)

// LinearSVC は L2 正則化ヒンジ損失の二値線形 SVM
// 確率的劣勾配法（Pegasos 形式の学習率）で学習し、平均化した重みを使う。
// 多クラス問題は multiclass.OneVsRestClassifier で包んで扱う。
type LinearSVC struct {
	state *model.StateManager

	// ハイパーパラメータ
	C            float64
	fitIntercept bool
	maxIter      int // エポック数
	tol          float64
	eta0         float64
	randomState  int64

	// 学習パラメータ
	coef_      []float64
	intercept_ float64
	classes_   []int
	nIter_     int
}

var _ model.Classifier = (*LinearSVC)(nil)

// Option is a functional option for LinearSVC.
type Option func(*LinearSVC)

// NewLinearSVC creates a LinearSVC. The default seed is 0 so repeated fits
// are reproducible.
func NewLinearSVC(opts ...Option) *LinearSVC {
	svc := &LinearSVC{
		state:        model.NewStateManager(),
		C:            1.0,
		fitIntercept: true,
		maxIter:      1000,
		tol:          1e-3,
		eta0:         0.1,
		randomState:  0,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// WithC sets the inverse regularization strength.
func WithC(c float64) Option {
	return func(s *LinearSVC) { s.C = c }
}

// WithFitIntercept toggles the bias term.
func WithFitIntercept(fit bool) Option {
	return func(s *LinearSVC) { s.fitIntercept = fit }
}

// WithMaxIter sets the maximum number of epochs.
func WithMaxIter(n int) Option {
	return func(s *LinearSVC) { s.maxIter = n }
}

// WithTol sets the stopping tolerance on the relative change of the
// averaged weights between epochs.
func WithTol(tol float64) Option {
	return func(s *LinearSVC) { s.tol = tol }
}

// WithEta0 sets the initial learning rate.
func WithEta0(eta float64) Option {
	return func(s *LinearSVC) { s.eta0 = eta }
}

// WithRandomState sets the shuffling seed.
func WithRandomState(seed int64) Option {
	return func(s *LinearSVC) { s.randomState = seed }
}

func (s *LinearSVC) validate() error {
	switch {
	case s.C <= 0:
		return errors.NewValidationError("C", "must be positive", s.C)
	case s.maxIter <= 0:
		return errors.NewValidationError("max_iter", "must be positive", s.maxIter)
	case s.tol < 0:
		return errors.NewValidationError("tol", "must be non-negative", s.tol)
	case s.eta0 <= 0:
		return errors.NewValidationError("eta0", "must be positive", s.eta0)
	}
	return nil
}

// Fit trains on X (n×p) and y (n×1) holding exactly two class codes.
func (s *LinearSVC) Fit(X, y mat.Matrix) error {
	if err := s.validate(); err != nil {
		return err
	}
	n, p := X.Dims()
	if n == 0 || p == 0 {
		return errors.NewModelError("LinearSVC.Fit", "empty data", errors.ErrEmptyData)
	}
	yRows, yCols := y.Dims()
	if yRows != n {
		return errors.NewDimensionError("LinearSVC.Fit", n, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("LinearSVC.Fit", 1, yCols, 1)
	}
	if err := errors.CheckMatrix("LinearSVC.Fit", X, n, p, 0); err != nil {
		return err
	}

	seen := make(map[int]bool)
	var classes []int
	for i := 0; i < n; i++ {
		c := int(y.At(i, 0))
		if !seen[c] {
			seen[c] = true
			classes = append(classes, c)
		}
	}
	sort.Ints(classes)
	if len(classes) != 2 {
		return errors.NewValueError("LinearSVC.Fit",
			fmt.Sprintf("binary classifier needs exactly 2 classes, got %d; wrap it in OneVsRestClassifier", len(classes)))
	}
	s.classes_ = classes

	// ±1 targets
	target := make([]float64, n)
	for i := range target {
		target[i] = -1
		if int(y.At(i, 0)) == classes[1] {
			target[i] = 1
		}
	}

	Xd := mat.DenseCopyOf(X)
	converged := s.sgd(Xd, target)
	if !converged {
		errors.Warn(errors.NewConvergenceWarning("LinearSVC", s.nIter_,
			fmt.Sprintf("averaged weights still moving more than tol=%g; increase max_iter", s.tol)))
	}
	s.state.SetFitted(n, p)
	return nil
}

// sgd runs shuffled epochs of hinge-loss subgradient steps with step size
// eta0/(1+eta0·λ·t), λ = 1/(C·n), and keeps a running average of the iterates.
func (s *LinearSVC) sgd(X *mat.Dense, target []float64) bool {
	n, p := X.Dims()
	lambda := 1 / (s.C * float64(n))
	rng := rand.New(rand.NewSource(s.randomState))

	w := make([]float64, p)
	var b float64
	avgW := make([]float64, p)
	var avgB float64
	prev := make([]float64, p)

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	t := 0
	for epoch := 1; epoch <= s.maxIter; epoch++ {
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
		for _, i := range order {
			t++
			eta := s.eta0 / (1 + s.eta0*lambda*float64(t))
			row := X.RawRowView(i)
			margin := target[i] * (floats.Dot(w, row) + b)

			floats.Scale(1-eta*lambda, w)
			if margin < 1 {
				floats.AddScaled(w, eta*target[i], row)
				if s.fitIntercept {
					b += eta * target[i]
				}
			}

			// Running average: avg += (x - avg)/t
			inv := 1 / float64(t)
			for j := range avgW {
				avgW[j] += (w[j] - avgW[j]) * inv
			}
			avgB += (b - avgB) * inv
		}

		s.coef_ = append(s.coef_[:0], avgW...)
		s.intercept_ = avgB
		s.nIter_ = epoch

		change := floats.Distance(avgW, prev, math.Inf(1))
		scale := math.Max(1, floats.Norm(avgW, math.Inf(1)))
		if epoch > 1 && change/scale < s.tol {
			return true
		}
		copy(prev, avgW)
	}
	return false
}

// DecisionFunction returns an n×1 column of signed margins; positive values
// favour Classes()[1].
func (s *LinearSVC) DecisionFunction(X mat.Matrix) (mat.Matrix, error) {
	n, p := X.Dims()
	if err := s.state.RequireFeatures("LinearSVC", "DecisionFunction", p); err != nil {
		return nil, err
	}
	scores := mat.NewVecDense(n, nil)
	scores.MulVec(X, mat.NewVecDense(p, append([]float64(nil), s.coef_...)))
	out := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		out.Set(i, 0, scores.AtVec(i)+s.intercept_)
	}
	return out, nil
}

// Predict returns an n×1 column of class codes.
func (s *LinearSVC) Predict(X mat.Matrix) (mat.Matrix, error) {
	scores, err := s.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	n, _ := scores.Dims()
	out := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		label := s.classes_[0]
		if scores.At(i, 0) > 0 {
			label = s.classes_[1]
		}
		out.Set(i, 0, float64(label))
	}
	return out, nil
}

// Classes returns the two class codes seen during Fit.
func (s *LinearSVC) Classes() []int { return append([]int(nil), s.classes_...) }

// Coef returns a copy of the averaged weight vector.
func (s *LinearSVC) Coef() []float64 { return append([]float64(nil), s.coef_...) }

// Intercept returns the averaged bias.
func (s *LinearSVC) Intercept() float64 { return s.intercept_ }

// NIter returns the number of epochs run.
func (s *LinearSVC) NIter() int { return s.nIter_ }

// IsFitted reports whether Fit has succeeded.
func (s *LinearSVC) IsFitted() bool { return s.state.IsFitted() }

// GetParams returns the hyperparameters.
func (s *LinearSVC) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"C":             s.C,
		"fit_intercept": s.fitIntercept,
		"max_iter":      s.maxIter,
		"tol":           s.tol,
		"eta0":          s.eta0,
		"random_state":  s.randomState,
	}
}

func (s *LinearSVC) String() string {
	return fmt.Sprintf("LinearSVC(C=%g, max_iter=%d)", s.C, s.maxIter)
}
