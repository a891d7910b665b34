package visualize

import (
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/YuminosukeSato/liverscope/pkg/errors"
)

// Grid is a rectangular arrangement of plots saved into one image.
type Grid struct {
	Plots [][]*plot.Plot
}

// PairGrid builds a k×k grid where panel (r, c) plots component c against
// component r for the first k score columns. Only the top-right panel
// carries a legend.
func PairGrid(scores mat.Matrix, labels []string, k int) (*Grid, error) {
	_, cols := scores.Dims()
	if k < 2 || k > cols {
		return nil, errors.NewValidationError("k", fmt.Sprintf("must be in [2, %d]", cols), k)
	}
	g := &Grid{Plots: make([][]*plot.Plot, k)}
	for r := 0; r < k; r++ {
		g.Plots[r] = make([]*plot.Plot, k)
		for c := 0; c < k; c++ {
			p, err := Scatter2D(scores, labels, ScatterOptions{Components: []int{c, r}})
			if err != nil {
				return nil, err
			}
			if r != 0 || c != k-1 {
				p.Legend = plot.NewLegend()
			}
			if r != k-1 {
				p.X.Label.Text = ""
			}
			if c != 0 {
				p.Y.Label.Text = ""
			}
			g.Plots[r][c] = p
		}
	}
	return g, nil
}

// Save renders the grid to path; the format is taken from the extension.
func (g *Grid) Save(path string, w, h vg.Length) error {
	format, err := prepare(path)
	if err != nil {
		return err
	}
	rows := len(g.Plots)
	if rows == 0 {
		return errors.NewValueError("Grid.Save", "empty grid")
	}
	cols := len(g.Plots[0])

	img, err := draw.NewFormattedCanvas(w, h, format)
	if err != nil {
		return errors.Wrapf(err, "canvas for %s", path)
	}
	tiles := draw.Tiles{
		Rows: rows, Cols: cols,
		PadX: vg.Millimeter, PadY: vg.Millimeter,
		PadTop: vg.Points(2), PadBottom: vg.Points(2),
		PadLeft: vg.Points(2), PadRight: vg.Points(2),
	}
	canvases := plot.Align(g.Plots, tiles, draw.New(img))
	for r := range g.Plots {
		for c, p := range g.Plots[r] {
			if p != nil {
				p.Draw(canvases[r][c])
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if _, err := img.WriteTo(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	return errors.Wrap(f.Close(), "close plot file")
}
