package linear_model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/liverscope/core/model"
	"github.com/YuminosukeSato/liverscope/core/parallel"
	"github.com/YuminosukeSato/liverscope/pkg/errors"
)

// LinearRegression は最小二乗法(alpha > 0 ならリッジ回帰)による線形回帰モデル。
// 切片は正則化しない。
type LinearRegression struct {
	state *model.StateManager

	alpha        float64
	fitIntercept bool

	coef_      []float64
	intercept_ float64
}

var (
	_ model.Fitter    = (*LinearRegression)(nil)
	_ model.Predictor = (*LinearRegression)(nil)
)

// LinearRegressionOption is a functional option for LinearRegression.
type LinearRegressionOption func(*LinearRegression)

// NewLinearRegression は新しい線形回帰モデルを作成する
func NewLinearRegression(opts ...LinearRegressionOption) *LinearRegression {
	lr := &LinearRegression{
		state:        model.NewStateManager(),
		fitIntercept: true,
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// WithAlpha sets the L2 penalty; 0 gives ordinary least squares.
func WithAlpha(alpha float64) LinearRegressionOption {
	return func(lr *LinearRegression) { lr.alpha = alpha }
}

// WithFitIntercept sets whether to fit an intercept.
func WithFitIntercept(fit bool) LinearRegressionOption {
	return func(lr *LinearRegression) { lr.fitIntercept = fit }
}

// Fit は正規方程式 (XᵀX + αI) w = Xᵀy を解いて学習する。
// y は n×1 の列ベクトル
func (lr *LinearRegression) Fit(X, y mat.Matrix) error {
	if lr.alpha < 0 {
		return errors.NewValidationError("alpha", "must be non-negative", lr.alpha)
	}
	r, c := X.Dims()
	ry, cy := y.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("LinearRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("LinearRegression.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("LinearRegression.Fit", "y must be a column vector")
	}
	if err := errors.CheckMatrix("LinearRegression.Fit", X, r, c, 0); err != nil {
		return err
	}
	if err := errors.CheckMatrix("LinearRegression.Fit", y, r, 1, 0); err != nil {
		return err
	}

	// 切片ありの場合は中心化してから解く
	xMean := make([]float64, c)
	var yMean float64
	if lr.fitIntercept {
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				xMean[j] += X.At(i, j)
			}
			yMean += y.At(i, 0)
		}
		for j := range xMean {
			xMean[j] /= float64(r)
		}
		yMean /= float64(r)
	}

	Xc := mat.NewDense(r, c, nil)
	yc := mat.NewVecDense(r, nil)
	parallel.ParallelizeWithThreshold(r, 1000, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < c; j++ {
				Xc.Set(i, j, X.At(i, j)-xMean[j])
			}
			yc.SetVec(i, y.At(i, 0)-yMean)
		}
	})

	var XTX mat.Dense
	XTX.Mul(Xc.T(), Xc)
	for j := 0; j < c; j++ {
		XTX.Set(j, j, XTX.At(j, j)+lr.alpha)
	}
	var XTy mat.VecDense
	XTy.MulVec(Xc.T(), yc)

	var w mat.VecDense
	if err := w.SolveVec(&XTX, &XTy); err != nil {
		return errors.NewModelError("LinearRegression.Fit",
			fmt.Sprintf("normal equations not solvable (alpha=%g)", lr.alpha), errors.ErrSingularMatrix)
	}

	lr.coef_ = make([]float64, c)
	lr.intercept_ = yMean
	for j := 0; j < c; j++ {
		lr.coef_[j] = w.AtVec(j)
		lr.intercept_ -= lr.coef_[j] * xMean[j]
	}
	if err := errors.CheckNumericalStability("LinearRegression.Fit", lr.coef_, 0); err != nil {
		return err
	}
	lr.state.SetFitted(r, c)
	return nil
}

// Predict は n×1 の予測値を返す
func (lr *LinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	r, c := X.Dims()
	if err := lr.state.RequireFeatures("LinearRegression", "Predict", c); err != nil {
		return nil, err
	}
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		v := lr.intercept_
		for j, w := range lr.coef_ {
			v += X.At(i, j) * w
		}
		out.Set(i, 0, v)
	}
	return out, nil
}

// Coef returns a copy of the fitted weights.
func (lr *LinearRegression) Coef() []float64 { return append([]float64(nil), lr.coef_...) }

// Intercept returns the fitted intercept.
func (lr *LinearRegression) Intercept() float64 { return lr.intercept_ }

// IsFitted reports whether Fit has succeeded.
func (lr *LinearRegression) IsFitted() bool { return lr.state.IsFitted() }

// GetParams returns the hyperparameters.
func (lr *LinearRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"alpha":         lr.alpha,
		"fit_intercept": lr.fitIntercept,
	}
}

func (lr *LinearRegression) String() string {
	if !lr.IsFitted() {
		return fmt.Sprintf("LinearRegression(alpha=%g)", lr.alpha)
	}
	return fmt.Sprintf("LinearRegression(alpha=%g, n_features=%d)", lr.alpha, len(lr.coef_))
}
