package metrics

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/liverscope/pkg/errors"
)

// Labels used for the averaged curves of MultiClassROC.
const (
	MicroLabel = "micro-average"
	MacroLabel = "macro-average"
)

// Curve is one ROC curve. FPR is non-decreasing from 0 to 1 and
// Thresholds[i] is the score cutoff producing (FPR[i], TPR[i]); the first
// threshold is +Inf.
type Curve struct {
	Label      string
	FPR        []float64
	TPR        []float64
	Thresholds []float64
	AUC        float64
	Positives  int
	Negatives  int
	// Undefined is set when the input held a single class. AUC is then 0.5
	// and the point slices are empty.
	Undefined bool
}

// TrapezoidArea integrates y over x with the trapezoidal rule. x must be
// sorted ascending.
func TrapezoidArea(x, y []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	return integrate.Trapezoidal(x, y)
}

// ROCCurve computes the ROC curve of scores for the binary labels yTrue,
// where larger scores mean "more likely positive".
func ROCCurve(yTrue []bool, scores []float64) (*Curve, error) {
	return rocCurve("", yTrue, scores)
}

func rocCurve(label string, yTrue []bool, scores []float64) (*Curve, error) {
	if len(yTrue) == 0 {
		return nil, errors.NewValueError("ROCCurve", "empty input")
	}
	if len(scores) != len(yTrue) {
		return nil, errors.NewDimensionError("ROCCurve", len(yTrue), len(scores), 0)
	}
	if err := errors.CheckNumericalStability("ROCCurve", scores, 0); err != nil {
		return nil, err
	}

	curve := &Curve{Label: label}
	for _, positive := range yTrue {
		if positive {
			curve.Positives++
		} else {
			curve.Negatives++
		}
	}
	if curve.Positives == 0 || curve.Negatives == 0 {
		condition := "only one class present in y_true"
		if label != "" {
			condition = fmt.Sprintf("class %q: %s", label, condition)
		}
		errors.Warn(errors.NewUndefinedMetricWarning("roc_auc", condition, 0.5))
		curve.AUC = 0.5
		curve.Undefined = true
		return curve, nil
	}

	y := append([]float64(nil), scores...)
	classes := append([]bool(nil), yTrue...)
	stat.SortWeightedLabeled(y, classes, nil)
	tpr, fpr, thresh := stat.ROC(nil, y, classes, nil)

	curve.FPR = fpr
	curve.TPR = tpr
	curve.Thresholds = thresh
	curve.AUC = TrapezoidArea(fpr, tpr)
	return curve, nil
}

// MultiClassResult holds one-vs-rest curves for every class plus the micro
// and macro averages.
type MultiClassResult struct {
	Classes []*Curve
	Micro   *Curve
	Macro   *Curve
}

// Defined returns the per-class curves that have both classes present.
func (r *MultiClassResult) Defined() []*Curve {
	var out []*Curve
	for _, c := range r.Classes {
		if !c.Undefined {
			out = append(out, c)
		}
	}
	return out
}

// MultiClassROC computes one-vs-rest ROC curves. yCodes holds class codes in
// [0, k) and scores is the n×k decision matrix whose column c scores class c.
// A class absent from yCodes gets an Undefined curve and is left out of the
// macro average.
func MultiClassROC(yCodes []int, scores mat.Matrix, classNames []string) (*MultiClassResult, error) {
	n, k := scores.Dims()
	if n == 0 || len(yCodes) == 0 {
		return nil, errors.NewValueError("MultiClassROC", "empty input")
	}
	if len(yCodes) != n {
		return nil, errors.NewDimensionError("MultiClassROC", n, len(yCodes), 0)
	}
	if k < 2 {
		return nil, errors.NewValueError("MultiClassROC", fmt.Sprintf("need at least 2 score columns, got %d", k))
	}
	if classNames != nil && len(classNames) != k {
		return nil, errors.NewDimensionError("MultiClassROC", k, len(classNames), 1)
	}

	res := &MultiClassResult{Classes: make([]*Curve, k)}
	microTrue := make([]bool, 0, n*k)
	microScores := make([]float64, 0, n*k)
	labels := make([]bool, n)
	for c := 0; c < k; c++ {
		col := mat.Col(nil, c, scores)
		for i, code := range yCodes {
			labels[i] = code == c
		}
		name := fmt.Sprintf("class %d", c)
		if classNames != nil {
			name = classNames[c]
		}
		curve, err := rocCurve(name, labels, col)
		if err != nil {
			return nil, errors.Wrapf(err, "class %s", name)
		}
		res.Classes[c] = curve
		microTrue = append(microTrue, labels...)
		microScores = append(microScores, col...)
	}

	micro, err := rocCurve(MicroLabel, microTrue, microScores)
	if err != nil {
		return nil, err
	}
	res.Micro = micro
	res.Macro = macroAverage(res.Defined())
	return res, nil
}

// macroAverage averages TPR over the union of all FPR points.
func macroAverage(curves []*Curve) *Curve {
	if len(curves) == 0 {
		return &Curve{Label: MacroLabel, AUC: 0.5, Undefined: true}
	}
	var grid []float64
	for _, c := range curves {
		grid = append(grid, c.FPR...)
	}
	sort.Float64s(grid)
	grid = uniqueSorted(grid)

	mean := make([]float64, len(grid))
	for _, c := range curves {
		for g, x := range grid {
			mean[g] += interpStep(x, c.FPR, c.TPR)
		}
	}
	for g := range mean {
		mean[g] /= float64(len(curves))
	}
	return &Curve{
		Label: MacroLabel,
		FPR:   grid,
		TPR:   mean,
		AUC:   TrapezoidArea(grid, mean),
	}
}

func uniqueSorted(x []float64) []float64 {
	out := x[:0]
	for i, v := range x {
		if i == 0 || v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

// interpStep linearly interpolates the curve at x. Where several points share
// FPR == x the highest TPR is used.
func interpStep(x float64, fpr, tpr []float64) float64 {
	hi := sort.Search(len(fpr), func(i int) bool { return fpr[i] > x })
	if hi > 0 && fpr[hi-1] == x {
		return tpr[hi-1]
	}
	if hi == 0 {
		return tpr[0]
	}
	if hi == len(fpr) {
		return tpr[len(tpr)-1]
	}
	x0, x1 := fpr[hi-1], fpr[hi]
	y0, y1 := tpr[hi-1], tpr[hi]
	if x1 == x0 {
		return math.Max(y0, y1)
	}
	return y0 + (y1-y0)*(x-x0)/(x1-x0)
}
