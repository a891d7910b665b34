package visualize

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/YuminosukeSato/liverscope/pkg/errors"
	"github.com/YuminosukeSato/liverscope/preprocessing"
)

// ScatterOptions controls Scatter2D and Scatter3D.
type ScatterOptions struct {
	Title string
	// Components are zero-based score columns: two for 2D, three for 3D.
	// Empty means 0, 1 (, 2).
	Components []int
	// AxisLabels overrides the default "PC1 (42.0%)" style labels.
	AxisLabels []string
	// VarianceRatio, when set, adds the explained share to default labels.
	VarianceRatio []float64
	// Sizes gives a glyph radius in points per sample; nil uses a fixed radius.
	Sizes []float64
	// Azimuth and Elevation, in degrees, orient the 3D view.
	Azimuth, Elevation float64
}

const defaultRadius = 3

type group struct {
	name    string
	indices []int
}

// groupsOf returns the distinct labels in natural order with their rows.
func groupsOf(labels []string) []group {
	pos := make(map[string]int)
	var groups []group
	for i, l := range labels {
		g, ok := pos[l]
		if !ok {
			g = len(groups)
			pos[l] = g
			groups = append(groups, group{name: l})
		}
		groups[g].indices = append(groups[g].indices, i)
	}
	sort.SliceStable(groups, func(a, b int) bool {
		return preprocessing.NaturalLess(groups[a].name, groups[b].name)
	})
	return groups
}

func checkScores(op string, scores mat.Matrix, labels []string, comps []int, sizes []float64) error {
	n, k := scores.Dims()
	if n != len(labels) {
		return errors.NewDimensionError(op, n, len(labels), 0)
	}
	if sizes != nil && len(sizes) != n {
		return errors.NewDimensionError(op, n, len(sizes), 0)
	}
	for _, c := range comps {
		if c < 0 || c >= k {
			return errors.NewValidationError("component", fmt.Sprintf("must be in [0, %d)", k), c)
		}
	}
	return nil
}

func componentsOr(comps []int, def ...int) []int {
	if len(comps) == 0 {
		return def
	}
	return comps
}

func axisLabel(opts ScatterOptions, axis, comp int) string {
	if axis < len(opts.AxisLabels) {
		return opts.AxisLabels[axis]
	}
	if comp < len(opts.VarianceRatio) {
		return fmt.Sprintf("PC%d (%.1f%%)", comp+1, 100*opts.VarianceRatio[comp])
	}
	return fmt.Sprintf("PC%d", comp+1)
}

// groupScatter adds one colored scatter series per group using xy to place
// row i.
func groupScatter(p *plot.Plot, labels []string, sizes []float64, xy func(i int) (float64, float64)) error {
	for gi, g := range groupsOf(labels) {
		pts := make(plotter.XYs, len(g.indices))
		for k, i := range g.indices {
			pts[k].X, pts[k].Y = xy(i)
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return errors.Wrapf(err, "scatter for group %q", g.name)
		}
		s.GlyphStyle.Color = plotutil.Color(gi)
		s.GlyphStyle.Shape = plotutil.Shape(gi)
		s.GlyphStyle.Radius = vg.Points(defaultRadius)
		if sizes != nil {
			rows := g.indices
			base := s.GlyphStyle
			s.GlyphStyleFunc = func(k int) draw.GlyphStyle {
				gs := base
				gs.Radius = vg.Points(sizes[rows[k]])
				return gs
			}
		}
		p.Add(s)
		p.Legend.Add(g.name, s)
	}
	return nil
}

// Scatter2D plots two score columns with one series per label group.
func Scatter2D(scores mat.Matrix, labels []string, opts ScatterOptions) (*plot.Plot, error) {
	comps := componentsOr(opts.Components, 0, 1)
	if len(comps) != 2 {
		return nil, errors.NewValidationError("components", "2D scatter needs exactly 2", comps)
	}
	if err := checkScores("Scatter2D", scores, labels, comps, opts.Sizes); err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = axisLabel(opts, 0, comps[0])
	p.Y.Label.Text = axisLabel(opts, 1, comps[1])
	p.Add(plotter.NewGrid())
	p.Legend.Top = true

	err := groupScatter(p, labels, opts.Sizes, func(i int) (float64, float64) {
		return scores.At(i, comps[0]), scores.At(i, comps[1])
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Projection maps 3D points onto the page for a camera at the given azimuth
// (rotation about the vertical axis) and elevation, both in degrees.
type Projection struct {
	sinAz, cosAz, sinEl, cosEl float64
}

// NewProjection builds a Projection.
func NewProjection(azimuth, elevation float64) Projection {
	az := azimuth * math.Pi / 180
	el := elevation * math.Pi / 180
	return Projection{sinAz: math.Sin(az), cosAz: math.Cos(az), sinEl: math.Sin(el), cosEl: math.Cos(el)}
}

// Project returns page coordinates of (x, y, z).
func (pr Projection) Project(x, y, z float64) (float64, float64) {
	u := x*pr.cosAz - y*pr.sinAz
	depth := x*pr.sinAz + y*pr.cosAz
	v := z*pr.cosEl - depth*pr.sinEl
	return u, v
}

// Scatter3D projects three score columns onto the page and draws an axis
// triad through the centroid of the points.
func Scatter3D(scores mat.Matrix, labels []string, opts ScatterOptions) (*plot.Plot, error) {
	comps := componentsOr(opts.Components, 0, 1, 2)
	if len(comps) != 3 {
		return nil, errors.NewValidationError("components", "3D scatter needs exactly 3", comps)
	}
	if err := checkScores("Scatter3D", scores, labels, comps, opts.Sizes); err != nil {
		return nil, err
	}
	az, el := opts.Azimuth, opts.Elevation
	if az == 0 && el == 0 {
		az, el = -60, 30
	}
	proj := NewProjection(az, el)

	p := plot.New()
	p.Title.Text = opts.Title
	p.HideAxes()
	p.Legend.Top = true

	err := groupScatter(p, labels, opts.Sizes, func(i int) (float64, float64) {
		return proj.Project(scores.At(i, comps[0]), scores.At(i, comps[1]), scores.At(i, comps[2]))
	})
	if err != nil {
		return nil, err
	}
	if err := addTriad(p, scores, comps, proj, opts); err != nil {
		return nil, err
	}
	return p, nil
}

func addTriad(p *plot.Plot, scores mat.Matrix, comps []int, proj Projection, opts ScatterOptions) error {
	n, _ := scores.Dims()
	var origin [3]float64
	var extent float64
	for a, c := range comps {
		lo, hi := math.Inf(1), math.Inf(-1)
		for i := 0; i < n; i++ {
			v := scores.At(i, c)
			origin[a] += v / float64(n)
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
		extent = math.Max(extent, (hi-lo)/2)
	}
	if extent == 0 {
		extent = 1
	}

	ends := make(plotter.XYs, 3)
	names := make([]string, 3)
	for a := range comps {
		tip := origin
		tip[a] += extent
		x0, y0 := proj.Project(origin[0], origin[1], origin[2])
		x1, y1 := proj.Project(tip[0], tip[1], tip[2])
		l, err := plotter.NewLine(plotter.XYs{{X: x0, Y: y0}, {X: x1, Y: y1}})
		if err != nil {
			return errors.Wrap(err, "axis triad")
		}
		l.LineStyle.Width = vg.Points(1)
		l.LineStyle.Dashes = []vg.Length{vg.Points(3), vg.Points(2)}
		p.Add(l)
		ends[a] = plotter.XY{X: x1, Y: y1}
		names[a] = axisLabel(opts, a, comps[a])
	}
	lbl, err := plotter.NewLabels(plotter.XYLabels{XYs: ends, Labels: names})
	if err != nil {
		return errors.Wrap(err, "axis labels")
	}
	p.Add(lbl)
	return nil
}
