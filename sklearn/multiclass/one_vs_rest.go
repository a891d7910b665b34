// Package multiclass turns binary classifiers into multiclass ones.
package multiclass

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/liverscope/core/model"
	"github.com/YuminosukeSato/liverscope/core/parallel"
	"github.com/YuminosukeSato/liverscope/pkg/errors"
)

// EstimatorFactory returns a fresh, unfitted binary classifier.
type EstimatorFactory func() model.BinaryClassifier

type probabilistic interface {
	PredictProba(X mat.Matrix) (mat.Matrix, error)
}

// OneVsRestClassifier fits one binary estimator per class, each separating
// that class (label 1) from all others (label 0).
type OneVsRestClassifier struct {
	state *model.StateManager

	factory EstimatorFactory
	nJobs   int

	estimators_ []model.BinaryClassifier
	classes_    []int
}

var _ model.ProbabilisticClassifier = (*OneVsRestClassifier)(nil)

// Option configures a OneVsRestClassifier.
type Option func(*OneVsRestClassifier)

// WithNJobs sets how many binary estimators are fitted concurrently.
// 0 uses every CPU.
func WithNJobs(n int) Option {
	return func(o *OneVsRestClassifier) { o.nJobs = n }
}

// NewOneVsRestClassifier creates a classifier that builds its members with factory.
func NewOneVsRestClassifier(factory EstimatorFactory, opts ...Option) *OneVsRestClassifier {
	o := &OneVsRestClassifier{state: model.NewStateManager(), factory: factory}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Fit trains one estimator per class code found in y (n×1).
func (o *OneVsRestClassifier) Fit(X, y mat.Matrix) error {
	if o.factory == nil {
		return errors.NewValidationError("factory", "must not be nil", nil)
	}
	n, p := X.Dims()
	if n == 0 || p == 0 {
		return errors.NewModelError("OneVsRestClassifier.Fit", "empty data", errors.ErrEmptyData)
	}
	yRows, yCols := y.Dims()
	if yRows != n {
		return errors.NewDimensionError("OneVsRestClassifier.Fit", n, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("OneVsRestClassifier.Fit", 1, yCols, 1)
	}

	labels := make([]int, n)
	seen := make(map[int]bool)
	var classes []int
	for i := range labels {
		labels[i] = int(y.At(i, 0))
		if !seen[labels[i]] {
			seen[labels[i]] = true
			classes = append(classes, labels[i])
		}
	}
	sort.Ints(classes)
	if len(classes) < 2 {
		return errors.NewValueError("OneVsRestClassifier.Fit",
			fmt.Sprintf("need samples of at least 2 classes, got %d", len(classes)))
	}

	Xd := mat.DenseCopyOf(X)
	estimators := make([]model.BinaryClassifier, len(classes))
	err := parallel.ForEach(len(classes), o.nJobs, func(k int) error {
		yk := mat.NewDense(n, 1, nil)
		for i, l := range labels {
			if l == classes[k] {
				yk.Set(i, 0, 1)
			}
		}
		est := o.factory()
		if err := est.Fit(Xd, yk); err != nil {
			return errors.Wrapf(err, "fit estimator for class %d", classes[k])
		}
		estimators[k] = est
		return nil
	})
	if err != nil {
		return err
	}

	o.estimators_ = estimators
	o.classes_ = classes
	o.state.SetFitted(n, p)
	return nil
}

// DecisionFunction returns an n×k matrix whose column c is the score of the
// estimator for Classes()[c].
func (o *OneVsRestClassifier) DecisionFunction(X mat.Matrix) (mat.Matrix, error) {
	n, p := X.Dims()
	if err := o.state.RequireFeatures("OneVsRestClassifier", "DecisionFunction", p); err != nil {
		return nil, err
	}
	scores := mat.NewDense(n, len(o.estimators_), nil)
	for c, est := range o.estimators_ {
		col, err := est.DecisionFunction(X)
		if err != nil {
			return nil, errors.Wrapf(err, "decision function for class %d", o.classes_[c])
		}
		for i := 0; i < n; i++ {
			scores.Set(i, c, col.At(i, 0))
		}
	}
	return scores, nil
}

// Predict returns the class whose estimator scores highest.
func (o *OneVsRestClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	scores, err := o.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	n, _ := scores.Dims()
	out := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		out.Set(i, 0, float64(o.classes_[floats.MaxIdx(mat.Row(nil, i, scores))]))
	}
	return out, nil
}

// PredictProba returns the members' positive-class probabilities normalized
// per row. Members must implement PredictProba.
func (o *OneVsRestClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	n, p := X.Dims()
	if err := o.state.RequireFeatures("OneVsRestClassifier", "PredictProba", p); err != nil {
		return nil, err
	}
	k := len(o.estimators_)
	proba := mat.NewDense(n, k, nil)
	for c, est := range o.estimators_ {
		pe, ok := est.(probabilistic)
		if !ok {
			return nil, errors.NewValueError("OneVsRestClassifier.PredictProba",
				fmt.Sprintf("estimator %T does not provide probabilities; use DecisionFunction", est))
		}
		pc, err := pe.PredictProba(X)
		if err != nil {
			return nil, err
		}
		_, cols := pc.Dims()
		for i := 0; i < n; i++ {
			proba.Set(i, c, pc.At(i, cols-1))
		}
	}
	for i := 0; i < n; i++ {
		row := proba.RawRowView(i)
		if sum := floats.Sum(row); sum > 0 {
			floats.Scale(1/sum, row)
		} else {
			floats.AddConst(1/float64(k), row)
		}
	}
	return proba, nil
}

// Classes returns the sorted class codes.
func (o *OneVsRestClassifier) Classes() []int { return append([]int(nil), o.classes_...) }

// Estimators returns the fitted members in Classes() order.
func (o *OneVsRestClassifier) Estimators() []model.BinaryClassifier {
	return append([]model.BinaryClassifier(nil), o.estimators_...)
}

// IsFitted reports whether Fit has succeeded.
func (o *OneVsRestClassifier) IsFitted() bool { return o.state.IsFitted() }

func (o *OneVsRestClassifier) String() string {
	return fmt.Sprintf("OneVsRestClassifier(n_classes=%d, n_jobs=%d)", len(o.classes_), o.nJobs)
}
