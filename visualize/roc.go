package visualize

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/liverscope/metrics"
	"github.com/YuminosukeSato/liverscope/pkg/errors"
)

// ROCPlot draws one line per curve with the AUC in its legend entry, plus the
// chance diagonal. Undefined curves are listed in the legend but not drawn.
// Averaged curves (micro/macro) are dashed.
func ROCPlot(title string, curves ...*metrics.Curve) (*plot.Plot, error) {
	if len(curves) == 0 {
		return nil, errors.NewValueError("ROCPlot", "no curves to draw")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "False positive rate"
	p.Y.Label.Text = "True positive rate"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1.02
	p.Add(plotter.NewGrid())
	p.Legend.Left = true
	p.Legend.Top = false
	p.Legend.YOffs = vg.Points(4)
	p.Legend.XOffs = -vg.Points(4)

	chance, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return nil, errors.Wrap(err, "chance line")
	}
	chance.LineStyle.Color = plotutil.DarkColors[len(plotutil.DarkColors)-1]
	chance.LineStyle.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
	chance.LineStyle.Width = vg.Points(0.5)
	p.Add(chance)

	for i, c := range curves {
		if c == nil {
			continue
		}
		if c.Undefined {
			p.Legend.Add(fmt.Sprintf("%s (undefined)", c.Label))
			continue
		}
		pts := make(plotter.XYs, len(c.FPR))
		for k := range c.FPR {
			pts[k] = plotter.XY{X: c.FPR[k], Y: c.TPR[k]}
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return nil, errors.Wrapf(err, "curve %s", c.Label)
		}
		l.LineStyle.Color = plotutil.Color(i)
		l.LineStyle.Width = vg.Points(1.5)
		if c.Label == metrics.MicroLabel || c.Label == metrics.MacroLabel {
			l.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
		}
		p.Add(l)
		p.Legend.Add(fmt.Sprintf("%s (AUC = %.3f)", c.Label, c.AUC), l)
	}
	return p, nil
}

// MultiClassROCPlot draws every per-class curve of res followed by the micro
// and macro averages.
func MultiClassROCPlot(title string, res *metrics.MultiClassResult) (*plot.Plot, error) {
	if res == nil {
		return nil, errors.NewValueError("MultiClassROCPlot", "nil result")
	}
	curves := append([]*metrics.Curve(nil), res.Classes...)
	curves = append(curves, res.Micro, res.Macro)
	return ROCPlot(title, curves...)
}
