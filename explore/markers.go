package explore

import (
	"context"
	"io"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/liverscope/metrics"
	"github.com/YuminosukeSato/liverscope/pkg/errors"
	"github.com/YuminosukeSato/liverscope/pkg/log"
	"github.com/YuminosukeSato/liverscope/preprocessing"
	"github.com/YuminosukeSato/liverscope/report"
	"github.com/YuminosukeSato/liverscope/sklearn/linear_model"
	"github.com/YuminosukeSato/liverscope/sklearn/model_selection"
)

// observed returns the entries of idx whose value in y is not NaN.
func observed(y []float64, idx []int) []int {
	out := make([]int, 0, len(idx))
	for _, i := range idx {
		if !math.IsNaN(y[i]) {
			out = append(out, i)
		}
	}
	return out
}

func takeFloats(y []float64, idx []int) *mat.VecDense {
	v := mat.NewVecDense(len(idx), nil)
	for k, i := range idx {
		v.SetVec(k, y[i])
	}
	return v
}

// Markers regresses each clinical marker on the leading principal components
// of expression and reports the fit on held-out subjects. Components are
// fitted on the training subjects only; subjects missing a marker are left
// out of that marker's fit.
func (e *Explorer) Markers(ctx context.Context) ([]report.MarkerFit, error) {
	if err := e.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	var fits []report.MarkerFit
	err := e.step(log.PhaseEvaluation, func(logger log.Logger) error {
		codes, err := preprocessing.NewLabelEncoder().FitTransform(e.data.Labels(e.Target()))
		if err != nil {
			return err
		}
		X := e.data.Expression.Values
		n, p := X.Dims()
		train, test, err := model_selection.TrainTestSplit(n, e.cfg.TestSize, e.cfg.Seed, codes)
		if err != nil {
			return err
		}
		pipe := &featurePipeline{}
		components := componentsFor(e.cfg.ClassifierComponents, len(train), p)
		ZTrain, err := pipe.fitTransform(model_selection.TakeRows(X, train), components)
		if err != nil {
			return errors.Wrap(err, "fit features")
		}
		ZTest, err := pipe.transform(model_selection.TakeRows(X, test))
		if err != nil {
			return errors.Wrap(err, "transform held-out features")
		}
		// positions of each subject inside ZTrain and ZTest
		pos := make(map[int]int, n)
		for k, i := range train {
			pos[i] = k
		}
		for k, i := range test {
			pos[i] = k
		}

		for _, marker := range e.data.Clinical.Columns {
			y, err := e.data.Clinical.Column(marker)
			if err != nil {
				return err
			}
			tr, te := observed(y, train), observed(y, test)
			if len(tr) < 2 || len(te) == 0 {
				logger.Warn("too few observed values to fit marker", "marker", marker, "train", len(tr), "test", len(te))
				continue
			}
			rowsOf := func(idx []int) []int {
				out := make([]int, len(idx))
				for k, i := range idx {
					out[k] = pos[i]
				}
				return out
			}

			lr := linear_model.NewLinearRegression(linear_model.WithAlpha(e.cfg.Alpha))
			yTrain := takeFloats(y, tr)
			if err := lr.Fit(model_selection.TakeRows(ZTrain, rowsOf(tr)), yTrain); err != nil {
				return errors.Wrapf(err, "marker %s", marker)
			}
			pred, err := lr.Predict(model_selection.TakeRows(ZTest, rowsOf(te)))
			if err != nil {
				return err
			}
			yTest := takeFloats(y, te)
			yPred := mat.NewVecDense(len(te), mat.Col(nil, 0, pred))

			fit := report.MarkerFit{Marker: marker, Train: len(tr), Test: len(te)}
			if fit.RMSE, err = metrics.RMSE(yTest, yPred); err != nil {
				return err
			}
			if fit.MAE, err = metrics.MAE(yTest, yPred); err != nil {
				return err
			}
			if fit.R2, err = metrics.R2Score(yTest, yPred); err != nil {
				fit.R2 = math.NaN()
			}
			logger.Debug("marker fitted", "marker", marker, "r2", fit.R2, "rmse", fit.RMSE)
			fits = append(fits, fit)
		}
		logger.Info("clinical markers regressed on components",
			log.ModelNameKey, "LinearRegression",
			log.ComponentsKey, components,
			log.SamplesKey, len(train),
			"markers", len(fits),
		)
		return e.section("Clinical markers from expression (held out)", func(w io.Writer) error {
			return report.WriteMarkerFits(w, fits)
		})
	})
	if err != nil {
		return nil, err
	}
	return fits, nil
}
