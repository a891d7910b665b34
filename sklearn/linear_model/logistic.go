// Package linear_model provides logistic regression for binary and
// one-vs-rest multiclass classification, and least-squares regression.
package linear_model

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/liverscope/core/model"
	"github.com/YuminosukeSato/liverscope/core/parallel"
	"github.com/YuminosukeSato/liverscope/pkg/errors"
)

// LogisticRegression implements L2-regularized logistic regression trained
// by full-batch gradient descent. With more than two classes it fits one
// binary model per class (one-vs-rest).
type LogisticRegression struct {
	state *model.StateManager

	// Hyperparameters
	penalty      string  // "l2" or "none"
	C            float64 // Inverse regularization strength
	fitIntercept bool
	maxIter      int
	tol          float64
	randomState  int64
	nJobs        int

	// Model parameters
	coef_      [][]float64 // 1×p for binary, k×p for multiclass
	intercept_ []float64
	classes_   []int
	nIter_     []int
}

var (
	_ model.ProbabilisticClassifier = (*LogisticRegression)(nil)
	_ model.ParameterGetter         = (*LogisticRegression)(nil)
)

// LogisticRegressionOption is a functional option for LogisticRegression
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates a new LogisticRegression classifier
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:        model.NewStateManager(),
		penalty:      "l2",
		C:            1.0,
		fitIntercept: true,
		maxIter:      1000,
		tol:          1e-4,
		randomState:  -1,
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// WithLRPenalty sets the regularization type ("l2" or "none")
func WithLRPenalty(penalty string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.penalty = penalty
	}
}

// WithLRC sets the inverse regularization strength
func WithLRC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.C = c
	}
}

// WithLogisticFitIntercept sets whether to fit intercept
func WithLogisticFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.fitIntercept = fit
	}
}

// WithLRMaxIter sets the maximum number of iterations
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.maxIter = maxIter
	}
}

// WithLRTol sets the gradient tolerance for stopping
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.tol = tol
	}
}

// WithLRRandomState seeds the weight initialization. A negative seed starts
// from zero weights.
func WithLRRandomState(seed int64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.randomState = seed
	}
}

// WithLRNJobs bounds the goroutines used for one-vs-rest fitting.
// 0 uses every CPU.
func WithLRNJobs(n int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.nJobs = n
	}
}

func (lr *LogisticRegression) validate() error {
	switch {
	case lr.penalty != "l2" && lr.penalty != "none":
		return errors.NewValidationError("penalty", "must be l2 or none", lr.penalty)
	case lr.C <= 0:
		return errors.NewValidationError("C", "must be positive", lr.C)
	case lr.maxIter <= 0:
		return errors.NewValidationError("max_iter", "must be positive", lr.maxIter)
	case lr.tol <= 0:
		return errors.NewValidationError("tol", "must be positive", lr.tol)
	}
	return nil
}

// Fit trains the model. y is an n×1 column of integer class codes.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	if err := lr.validate(); err != nil {
		return err
	}
	nSamples, nFeatures := X.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("LogisticRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	yRows, yCols := y.Dims()
	if yRows != nSamples {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("LogisticRegression.Fit", 1, yCols, 1)
	}
	if err := errors.CheckMatrix("LogisticRegression.Fit", X, nSamples, nFeatures, 0); err != nil {
		return err
	}

	labels := make([]int, nSamples)
	for i := range labels {
		labels[i] = int(y.At(i, 0))
	}
	lr.classes_ = uniqueClasses(labels)
	if len(lr.classes_) < 2 {
		return errors.NewValueError("LogisticRegression.Fit",
			fmt.Sprintf("need samples of at least 2 classes, got %d", len(lr.classes_)))
	}

	Xd := mat.DenseCopyOf(X)
	// Binary models separate classes_[1] from classes_[0].
	targets := lr.classes_[1:]
	if len(lr.classes_) > 2 {
		targets = lr.classes_
	}
	lr.coef_ = make([][]float64, len(targets))
	lr.intercept_ = make([]float64, len(targets))
	lr.nIter_ = make([]int, len(targets))
	converged := make([]bool, len(targets))

	err := parallel.ForEach(len(targets), lr.nJobs, func(k int) error {
		yBinary := make([]float64, nSamples)
		for i, l := range labels {
			if l == targets[k] {
				yBinary[i] = 1
			}
		}
		w, b, it, ok := lr.gradientDescent(Xd, yBinary, int64(k))
		lr.coef_[k], lr.intercept_[k], lr.nIter_[k], converged[k] = w, b, it, ok
		return nil
	})
	if err != nil {
		return err
	}
	for k, ok := range converged {
		if !ok {
			errors.Warn(errors.NewConvergenceWarning("LogisticRegression", lr.nIter_[k],
				fmt.Sprintf("class %d did not reach tol=%g; increase max_iter or scale the features", targets[k], lr.tol)))
		}
	}

	lr.state.SetFitted(nSamples, nFeatures)
	return nil
}

// gradientDescent minimizes mean log-loss + ||w||²/(2·C·n).
func (lr *LogisticRegression) gradientDescent(X *mat.Dense, y []float64, offset int64) ([]float64, float64, int, bool) {
	n, p := X.Dims()
	w := make([]float64, p)
	if lr.randomState >= 0 {
		rng := rand.New(rand.NewSource(lr.randomState + offset))
		for j := range w {
			w[j] = rng.NormFloat64() * 0.01
		}
	}
	var b float64

	lambda := 0.0
	if lr.penalty == "l2" {
		lambda = 1 / (lr.C * float64(n))
	}

	wv := mat.NewVecDense(p, w)
	z := mat.NewVecDense(n, nil)
	residual := mat.NewVecDense(n, nil)
	grad := mat.NewVecDense(p, nil)

	// Fixed step 1/L, where L bounds the Lipschitz constant of the gradient.
	frob := mat.Norm(X, 2)
	step := 1 / (0.25*(frob*frob/float64(n)+1) + lambda)

	for iter := 0; iter < lr.maxIter; iter++ {
		z.MulVec(X, wv)
		for i := 0; i < n; i++ {
			residual.SetVec(i, sigmoid(z.AtVec(i)+b)-y[i])
		}
		grad.MulVec(X.T(), residual)
		grad.ScaleVec(1/float64(n), grad)
		if lambda > 0 {
			grad.AddScaledVec(grad, lambda, wv)
		}
		gradB := 0.0
		if lr.fitIntercept {
			gradB = floats.Sum(residual.RawVector().Data) / float64(n)
		}

		maxGrad := math.Max(math.Abs(gradB), mat.Norm(grad, math.Inf(1)))
		if maxGrad < lr.tol {
			return w, b, iter, true
		}

		wv.AddScaledVec(wv, -step, grad)
		b -= step * gradB
	}
	return w, b, lr.maxIter, false
}

func uniqueClasses(labels []int) []int {
	seen := make(map[int]bool)
	var classes []int
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			classes = append(classes, l)
		}
	}
	sort.Ints(classes)
	return classes
}

// DecisionFunction returns signed distances to each decision boundary:
// n×1 for binary problems (positive favours Classes()[1]) and n×k otherwise.
func (lr *LogisticRegression) DecisionFunction(X mat.Matrix) (mat.Matrix, error) {
	_, p := X.Dims()
	if err := lr.state.RequireFeatures("LogisticRegression", "DecisionFunction", p); err != nil {
		return nil, err
	}
	n, _ := X.Dims()
	k := len(lr.coef_)
	W := mat.NewDense(k, p, nil)
	for c := range lr.coef_ {
		W.SetRow(c, lr.coef_[c])
	}
	scores := mat.NewDense(n, k, nil)
	scores.Mul(X, W.T())
	scores.Apply(func(_, c int, v float64) float64 { return v + lr.intercept_[c] }, scores)
	return scores, nil
}

// Predict returns the class code with the highest score for each sample.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	scores, err := lr.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	n, k := scores.Dims()
	predictions := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		if k == 1 {
			label := lr.classes_[0]
			if scores.At(i, 0) > 0 {
				label = lr.classes_[1]
			}
			predictions.Set(i, 0, float64(label))
			continue
		}
		row := mat.Row(nil, i, scores)
		predictions.Set(i, 0, float64(lr.classes_[floats.MaxIdx(row)]))
	}
	return predictions, nil
}

// PredictProba returns n×k class probabilities. Multiclass probabilities are
// the per-class sigmoids normalized to sum to one.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	scores, err := lr.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	n, k := scores.Dims()
	probas := mat.NewDense(n, len(lr.classes_), nil)
	for i := 0; i < n; i++ {
		if k == 1 {
			p := sigmoid(scores.At(i, 0))
			probas.Set(i, 0, 1-p)
			probas.Set(i, 1, p)
			continue
		}
		row := probas.RawRowView(i)
		for c := 0; c < k; c++ {
			row[c] = sigmoid(scores.At(i, c))
		}
		sum := floats.Sum(row)
		if sum == 0 {
			floats.AddConst(1/float64(k), row)
			continue
		}
		floats.Scale(1/sum, row)
	}
	return probas, nil
}

// Score returns the mean accuracy on the given test data and labels.
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	n, _ := X.Dims()
	correct := 0
	for i := 0; i < n; i++ {
		if predictions.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// Classes returns the sorted class codes seen during Fit.
func (lr *LogisticRegression) Classes() []int {
	return append([]int(nil), lr.classes_...)
}

// NIter returns the iterations used by each binary model.
func (lr *LogisticRegression) NIter() []int {
	return append([]int(nil), lr.nIter_...)
}

// Coef returns a copy of the coefficient matrix (1×p or k×p).
func (lr *LogisticRegression) Coef() *mat.Dense {
	if len(lr.coef_) == 0 {
		return nil
	}
	W := mat.NewDense(len(lr.coef_), len(lr.coef_[0]), nil)
	for c := range lr.coef_ {
		W.SetRow(c, lr.coef_[c])
	}
	return W
}

// Intercept returns a copy of the intercepts.
func (lr *LogisticRegression) Intercept() []float64 {
	return append([]float64(nil), lr.intercept_...)
}

// IsFitted reports whether Fit has succeeded.
func (lr *LogisticRegression) IsFitted() bool { return lr.state.IsFitted() }

// GetParams returns the model hyperparameters
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"penalty":       lr.penalty,
		"C":             lr.C,
		"fit_intercept": lr.fitIntercept,
		"max_iter":      lr.maxIter,
		"tol":           lr.tol,
		"random_state":  lr.randomState,
		"n_jobs":        lr.nJobs,
	}
}

func (lr *LogisticRegression) String() string {
	return fmt.Sprintf("LogisticRegression(penalty=%s, C=%g, max_iter=%d)", lr.penalty, lr.C, lr.maxIter)
}

// sigmoid is the numerically stable logistic function.
func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
