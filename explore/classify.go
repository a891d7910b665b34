package explore

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/liverscope/core/model"
	"github.com/YuminosukeSato/liverscope/metrics"
	"github.com/YuminosukeSato/liverscope/pkg/errors"
	"github.com/YuminosukeSato/liverscope/pkg/log"
	"github.com/YuminosukeSato/liverscope/preprocessing"
	"github.com/YuminosukeSato/liverscope/report"
	"github.com/YuminosukeSato/liverscope/sklearn/decomposition"
	"github.com/YuminosukeSato/liverscope/sklearn/linear_model"
	"github.com/YuminosukeSato/liverscope/sklearn/model_selection"
	"github.com/YuminosukeSato/liverscope/sklearn/multiclass"
	"github.com/YuminosukeSato/liverscope/sklearn/svm"
	"github.com/YuminosukeSato/liverscope/visualize"
)

// ROCFile is the Parquet file holding the evaluated ROC curves.
const ROCFile = "roc_curves" + report.ParquetExt

// ClassifyResult is the held-out evaluation of one-vs-rest classification.
type ClassifyResult struct {
	Target    string
	Model     string
	Features  string
	Classes   []string
	Train     []int
	Test      []int
	ROC       *metrics.MultiClassResult
	Accuracy  float64
	Confusion *mat.Dense
	ROCPath   string
	PlotPath  string
}

// featurePipeline turns raw expression rows into model inputs: mean
// imputation, standardization and, when components > 0, PCA followed by a
// second standardization of the scores. Every stage is fitted on the
// training rows only.
type featurePipeline struct {
	stages []model.Transformer
}

func (f *featurePipeline) fitTransform(X mat.Matrix, components int) (mat.Matrix, error) {
	f.stages = []model.Transformer{
		preprocessing.NewMeanImputer(),
		preprocessing.NewStandardScalerDefault(),
	}
	if components > 0 {
		f.stages = append(f.stages,
			decomposition.NewPCA(decomposition.WithNComponents(components)),
			preprocessing.NewStandardScalerDefault(),
		)
	}
	out := X
	for _, stage := range f.stages {
		var err error
		if out, err = stage.FitTransform(out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (f *featurePipeline) transform(X mat.Matrix) (mat.Matrix, error) {
	out := X
	for _, stage := range f.stages {
		var err error
		if out, err = stage.Transform(out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// estimatorFactory builds the binary members for the configured model.
func (e *Explorer) estimatorFactory() (multiclass.EstimatorFactory, error) {
	c, maxIter, seed := e.cfg.C, e.cfg.MaxIter, e.cfg.Seed
	switch e.cfg.Model {
	case "logistic":
		return func() model.BinaryClassifier {
			return linear_model.NewLogisticRegression(
				linear_model.WithLRC(c),
				linear_model.WithLRMaxIter(maxIter),
				linear_model.WithLRRandomState(seed),
			)
		}, nil
	case "svm":
		return func() model.BinaryClassifier {
			return svm.NewLinearSVC(svm.WithC(c), svm.WithMaxIter(maxIter), svm.WithRandomState(seed))
		}, nil
	}
	return nil, errors.NewValidationError("model", "must be logistic or svm", e.cfg.Model)
}

// Classify predicts the configured treatment grouping from expression. It
// holds out a stratified test split, fits one binary model per group and
// reports per-group, micro and macro ROC AUC on the held-out subjects.
func (e *Explorer) Classify(ctx context.Context) (*ClassifyResult, error) {
	if err := e.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	res := &ClassifyResult{Target: e.cfg.Target, Model: e.cfg.Model, Features: e.cfg.Features}

	var (
		clf           *multiclass.OneVsRestClassifier
		codes         []int
		XTrain, XTest mat.Matrix
	)
	err := e.step(log.PhaseTraining, func(logger log.Logger) error {
		enc := preprocessing.NewLabelEncoder()
		var err error
		codes, err = enc.FitTransform(e.data.Labels(e.Target()))
		if err != nil {
			return err
		}
		res.Classes = enc.Classes
		if len(res.Classes) < 2 {
			return errors.NewValueError("Classify",
				fmt.Sprintf("target %s has %d group(s); need at least 2", e.cfg.Target, len(res.Classes)))
		}

		X := e.data.Expression.Values
		n, p := X.Dims()
		res.Train, res.Test, err = model_selection.TrainTestSplit(n, e.cfg.TestSize, e.cfg.Seed, codes)
		if err != nil {
			return err
		}

		components := 0
		if e.cfg.Features == "pca" {
			components = componentsFor(e.cfg.ClassifierComponents, len(res.Train), p)
		}
		pipe := &featurePipeline{}
		XTrain, err = pipe.fitTransform(model_selection.TakeRows(X, res.Train), components)
		if err != nil {
			return errors.Wrap(err, "fit features")
		}
		XTest, err = pipe.transform(model_selection.TakeRows(X, res.Test))
		if err != nil {
			return errors.Wrap(err, "transform held-out features")
		}

		factory, err := e.estimatorFactory()
		if err != nil {
			return err
		}
		clf = multiclass.NewOneVsRestClassifier(factory, multiclass.WithNJobs(e.cfg.Jobs))
		yTrain := preprocessing.CodesMatrix(model_selection.TakeInts(codes, res.Train))
		if err := clf.Fit(XTrain, yTrain); err != nil {
			return err
		}
		_, f := XTrain.Dims()
		logger.Info("classifier fitted",
			log.ModelNameKey, e.cfg.Model,
			log.TargetKey, e.cfg.Target,
			log.SamplesKey, len(res.Train),
			log.FeaturesKey, f,
			log.ClassesKey, len(res.Classes),
			log.RandomSeedKey, e.cfg.Seed,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = e.step(log.PhaseEvaluation, func(logger log.Logger) error {
		scores, err := clf.DecisionFunction(XTest)
		if err != nil {
			return err
		}
		yTest := model_selection.TakeInts(codes, res.Test)
		if res.ROC, err = metrics.MultiClassROC(yTest, scores, res.Classes); err != nil {
			return err
		}
		for _, c := range res.ROC.Classes {
			if c.Undefined {
				logger.Warn("group missing from held-out split; AUC undefined", "class", c.Label)
			}
		}
		pred, err := clf.Predict(XTest)
		if err != nil {
			return err
		}
		predCodes := preprocessing.MatrixCodes(pred)
		if res.Accuracy, err = metrics.AccuracyCodes(yTest, predCodes); err != nil {
			return err
		}
		if res.Confusion, err = metrics.ConfusionMatrix(yTest, predCodes, len(res.Classes)); err != nil {
			return err
		}
		logger.Info("held-out evaluation",
			log.SamplesKey, len(res.Test),
			log.AccuracyKey, res.Accuracy,
			log.AUCKey, res.ROC.Macro.AUC,
			"micro_auc", res.ROC.Micro.AUC,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := e.step(log.PhaseReporting, func(logger log.Logger) error {
		return e.reportClassify(res, logger)
	}); err != nil {
		return nil, err
	}
	return res, nil
}

func (e *Explorer) reportClassify(res *ClassifyResult, logger log.Logger) error {
	if err := e.section("ROC AUC (held out)", func(w io.Writer) error {
		if err := report.WriteAUC(w, res.ROC); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "accuracy\t%.3f\n", res.Accuracy)
		return err
	}); err != nil {
		return err
	}
	if err := e.section("Confusion matrix", func(w io.Writer) error {
		return report.WriteConfusion(w, res.Confusion, res.Classes, res.Classes)
	}); err != nil {
		return err
	}

	title := fmt.Sprintf("ROC: %s by %s (%s)", e.cfg.Model, e.cfg.Target, e.cfg.Features)
	p, err := visualize.MultiClassROCPlot(title, res.ROC)
	if err != nil {
		return err
	}
	res.PlotPath = e.cfg.PlotPath("roc")
	if err := visualize.Save(p, res.PlotPath, visualize.DefaultSize, visualize.DefaultSize); err != nil {
		return err
	}
	logger.Info("plot written", log.OperationKey, log.OperationPlot, log.PathKey, res.PlotPath)

	curves := append(append([]*metrics.Curve(nil), res.ROC.Classes...), res.ROC.Micro, res.ROC.Macro)
	res.ROCPath = filepath.Join(e.cfg.OutDir, ROCFile)
	if err := report.WriteROCParquet(res.ROCPath, e.runID, curves); err != nil {
		return errors.Wrap(err, "export ROC curves")
	}
	logger.Info("curves exported", log.OperationKey, log.OperationExport, log.PathKey, res.ROCPath)
	return nil
}
