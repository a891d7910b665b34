package visualize

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/liverscope/pkg/errors"
)

// ScreePlot draws the explained variance ratio per component as bars and
// the cumulative ratio as a line with points.
func ScreePlot(ratio []float64) (*plot.Plot, error) {
	if len(ratio) == 0 {
		return nil, errors.NewValueError("ScreePlot", "no components")
	}
	p := plot.New()
	p.Title.Text = "Explained variance"
	p.X.Label.Text = "Principal component"
	p.Y.Label.Text = "Variance ratio"
	p.Y.Min, p.Y.Max = 0, 1.05
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	p.Legend.Left = true

	bars, err := plotter.NewBarChart(plotter.Values(ratio), vg.Points(12))
	if err != nil {
		return nil, errors.Wrap(err, "scree bars")
	}
	bars.Color = plotutil.Color(0)
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.Legend.Add("per component", bars)

	cum := make([]float64, len(ratio))
	floats.CumSum(cum, ratio)
	pts := make(plotter.XYs, len(cum))
	for i, v := range cum {
		pts[i] = plotter.XY{X: float64(i), Y: v}
	}
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, errors.Wrap(err, "cumulative line")
	}
	line.LineStyle.Color = plotutil.Color(1)
	points.GlyphStyle.Color = plotutil.Color(1)
	p.Add(line, points)
	p.Legend.Add("cumulative", line, points)

	names := make([]string, len(ratio))
	for i := range names {
		names[i] = fmt.Sprintf("PC%d", i+1)
	}
	p.NominalX(names...)
	return p, nil
}
