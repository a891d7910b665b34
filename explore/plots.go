package explore

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"

	"github.com/YuminosukeSato/liverscope/pkg/errors"
	"github.com/YuminosukeSato/liverscope/pkg/log"
	"github.com/YuminosukeSato/liverscope/preprocessing"
	"github.com/YuminosukeSato/liverscope/visualize"
)

// Glyph radius range, in points, for SizeBy.
const (
	minGlyph = 2
	maxGlyph = 8
)

// glyphSizes maps a clinical marker onto glyph radii. Missing values get
// the midpoint of the range.
func (e *Explorer) glyphSizes() ([]float64, error) {
	if e.cfg.SizeBy == "" {
		return nil, nil
	}
	col, err := e.data.Clinical.Column(e.cfg.SizeBy)
	if err != nil {
		return nil, err
	}
	scaler := preprocessing.NewMinMaxScaler([2]float64{minGlyph, maxGlyph})
	scaled, err := scaler.FitTransform(mat.NewDense(len(col), 1, col))
	if err != nil {
		return nil, errors.Wrapf(err, "size by %s", e.cfg.SizeBy)
	}
	sizes := mat.Col(nil, 0, scaled)
	for i, v := range sizes {
		if math.IsNaN(v) {
			sizes[i] = (minGlyph + maxGlyph) / 2
		}
	}
	return sizes, nil
}

// Plots draws the scree plot, the 2D and 3D score scatter plots and a pairs
// grid, returning the written paths.
func (e *Explorer) Plots(ctx context.Context) ([]string, error) {
	res, err := e.PCA(ctx)
	if err != nil {
		return nil, err
	}
	var paths []string
	err = e.step(log.PhaseReporting, func(logger log.Logger) error {
		labels := e.data.Labels(e.Target())
		sizes, err := e.glyphSizes()
		if err != nil {
			return err
		}
		ratio := res.Model.ExplainedVarianceRatio
		k := res.Model.NComponents()
		title := fmt.Sprintf("PCA of gene expression by %s", e.cfg.Target)

		scree, err := visualize.ScreePlot(ratio)
		if err != nil {
			return err
		}
		if err := e.savePlot(scree, "scree", &paths); err != nil {
			return err
		}

		if k >= 2 {
			p2, err := visualize.Scatter2D(res.Scores, labels, visualize.ScatterOptions{
				Title: title, VarianceRatio: ratio, Sizes: sizes,
			})
			if err != nil {
				return err
			}
			if err := e.savePlot(p2, "pca2d", &paths); err != nil {
				return err
			}
		}
		if k >= 3 {
			p3, err := visualize.Scatter3D(res.Scores, labels, visualize.ScatterOptions{
				Title: title, VarianceRatio: ratio, Sizes: sizes,
				Azimuth: e.cfg.Azimuth, Elevation: e.cfg.Elevation,
			})
			if err != nil {
				return err
			}
			if err := e.savePlot(p3, "pca3d", &paths); err != nil {
				return err
			}

			grid, err := visualize.PairGrid(res.Scores, labels, min(4, k))
			if err != nil {
				return err
			}
			path := e.cfg.PlotPath("pca_pairs")
			if err := grid.Save(path, 2*visualize.DefaultSize, 2*visualize.DefaultSize); err != nil {
				return err
			}
			paths = append(paths, path)
		}
		logger.Info("plots written", log.OperationKey, log.OperationPlot, "count", len(paths))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

func (e *Explorer) savePlot(p *plot.Plot, name string, paths *[]string) error {
	path := e.cfg.PlotPath(name)
	if err := visualize.Save(p, path, visualize.DefaultSize, visualize.DefaultSize); err != nil {
		return err
	}
	*paths = append(*paths, path)
	return nil
}
