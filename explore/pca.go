package explore

import (
	"context"
	"io"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/liverscope/metrics"
	"github.com/YuminosukeSato/liverscope/pkg/errors"
	"github.com/YuminosukeSato/liverscope/pkg/log"
	"github.com/YuminosukeSato/liverscope/preprocessing"
	"github.com/YuminosukeSato/liverscope/report"
	"github.com/YuminosukeSato/liverscope/sklearn/decomposition"
)

// ScoresFile is the Parquet file holding per-subject PCA scores.
const ScoresFile = "pca_scores" + report.ParquetExt

// PCAResult is the output of the PCA step over the whole dataset.
type PCAResult struct {
	Imputer        *preprocessing.MeanImputer
	Scaler         *preprocessing.StandardScaler
	Model          *decomposition.PCA
	Scores         *mat.Dense
	Reconstruction metrics.Reconstruction
	ScoresPath     string
}

// componentsFor resolves a requested component count against the data shape.
func componentsFor(requested, n, p int) int {
	limit := n
	if p < limit {
		limit = p
	}
	if requested <= 0 || requested > limit {
		return limit
	}
	return requested
}

// standardize fills missing cells and scales every gene to unit variance.
func standardize(X mat.Matrix) (*preprocessing.MeanImputer, *preprocessing.StandardScaler, mat.Matrix, error) {
	imp := preprocessing.NewMeanImputer()
	filled, err := imp.FitTransform(X)
	if err != nil {
		return nil, nil, nil, err
	}
	scaler := preprocessing.NewStandardScalerDefault()
	scaled, err := scaler.FitTransform(filled)
	if err != nil {
		return nil, nil, nil, err
	}
	return imp, scaler, scaled, nil
}

// PCA standardizes the expression matrix, fits PCA and reports explained
// variance, top loadings and reconstruction error. Scores are written to
// ScoresFile under the output directory.
func (e *Explorer) PCA(ctx context.Context) (*PCAResult, error) {
	if e.pca != nil {
		return e.pca, nil
	}
	if err := e.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	res := &PCAResult{}
	err := e.step(log.PhaseReduction, func(logger log.Logger) error {
		X := e.data.Expression.Values
		n, p := X.Dims()
		if missing := preprocessing.CountNaN(X); missing > 0 {
			logger.Warn("imputing missing expression values with column means", "cells", missing)
		}
		imp, scaler, scaled, err := standardize(X)
		if err != nil {
			return err
		}

		k := componentsFor(e.cfg.Components, n, p)
		pca := decomposition.NewPCA(decomposition.WithNComponents(k))
		scores, err := pca.FitTransform(scaled)
		if err != nil {
			return err
		}
		recon, err := pca.InverseTransform(scores)
		if err != nil {
			return err
		}
		rec, err := metrics.ReconstructionError(scaled, recon)
		if err != nil {
			return err
		}
		cum := pca.CumulativeVarianceRatio()
		logger.Info("principal components fitted",
			log.ModelNameKey, "PCA",
			log.SamplesKey, n,
			log.FeaturesKey, p,
			log.ComponentsKey, k,
			log.ExplainedVarianceKey, cum[len(cum)-1],
		)

		res.Imputer, res.Scaler, res.Model = imp, scaler, pca
		res.Scores = scores.(*mat.Dense)
		res.Reconstruction = rec
		return e.reportPCA(res, logger)
	})
	if err != nil {
		return nil, err
	}
	e.pca = res
	return res, nil
}

func (e *Explorer) reportPCA(res *PCAResult, logger log.Logger) error {
	pca := res.Model
	if err := e.section("Explained variance", func(w io.Writer) error {
		return report.WriteExplainedVariance(w, pca.ExplainedVariance, pca.ExplainedVarianceRatio)
	}); err != nil {
		return err
	}
	if err := e.section("Reconstruction from kept components", func(w io.Writer) error {
		return report.WriteReconstruction(w, pca.NComponents(), res.Reconstruction)
	}); err != nil {
		return err
	}
	shown := 3
	if pca.NComponents() < shown {
		shown = pca.NComponents()
	}
	for c := 0; c < shown; c++ {
		loadings, err := pca.TopLoadings(c, e.cfg.TopLoadings)
		if err != nil {
			return err
		}
		if err := e.section("Top loadings", func(w io.Writer) error {
			return report.WriteTopLoadings(w, c, loadings, e.data.Expression.Columns, e.data.Genes)
		}); err != nil {
			return err
		}
	}

	res.ScoresPath = filepath.Join(e.cfg.OutDir, ScoresFile)
	labels := e.data.Labels(e.Target())
	if err := report.WriteScoresParquet(res.ScoresPath, e.runID, e.data.Expression.Index, labels, res.Scores); err != nil {
		return errors.Wrap(err, "export PCA scores")
	}
	logger.Info("scores exported", log.OperationKey, log.OperationExport, log.PathKey, res.ScoresPath)
	return nil
}
