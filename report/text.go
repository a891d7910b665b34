// Package report renders analysis results as aligned text tables and as
// Parquet files.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/liverscope/dataset"
	"github.com/YuminosukeSato/liverscope/metrics"
	"github.com/YuminosukeSato/liverscope/pkg/errors"
	"github.com/YuminosukeSato/liverscope/sklearn/decomposition"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func flush(tw *tabwriter.Writer) error {
	return errors.Wrap(tw.Flush(), "write report table")
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.4g", v)
}

// WriteSummary prints table shapes and treatment group sizes.
func WriteSummary(w io.Writer, s dataset.Summary) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "subjects\t%d\n", s.Subjects)
	fmt.Fprintf(tw, "genes\t%d (%d annotated)\n", s.Genes, s.AnnotatedGenes)
	fmt.Fprintf(tw, "clinical markers\t%d\t%s\n", len(s.ClinicalMarkers), strings.Join(s.ClinicalMarkers, ", "))
	fmt.Fprintf(tw, "missing cells\t%d\n", s.MissingCells)
	writeGroups(tw, "dose groups", s.DoseGroups)
	writeGroups(tw, "time groups", s.TimeGroups)
	return flush(tw)
}

func writeGroups(tw io.Writer, title string, groups []dataset.GroupCount) {
	parts := make([]string, len(groups))
	for i, g := range groups {
		parts[i] = fmt.Sprintf("%s=%d", g.Name, g.Count)
	}
	fmt.Fprintf(tw, "%s\t%d\t%s\n", title, len(groups), strings.Join(parts, " "))
}

// WriteHead prints the first rows of f with at most maxCols columns;
// maxCols <= 0 prints every column.
func WriteHead(w io.Writer, f *dataset.Frame, rows, maxCols int) error {
	head := f.Head(rows)
	n, p := head.Dims()
	shown := p
	if maxCols > 0 && maxCols < p {
		shown = maxCols
	}

	tw := newTable(w)
	fmt.Fprint(tw, "subject")
	for j := 0; j < shown; j++ {
		fmt.Fprintf(tw, "\t%s", head.Columns[j])
	}
	if shown < p {
		fmt.Fprintf(tw, "\t... (%d more)", p-shown)
	}
	fmt.Fprintln(tw)
	for i := 0; i < n; i++ {
		fmt.Fprint(tw, head.Index[i])
		for j := 0; j < shown; j++ {
			fmt.Fprintf(tw, "\t%s", formatFloat(head.Values.At(i, j)))
		}
		fmt.Fprintln(tw)
	}
	return flush(tw)
}

// WriteExplainedVariance prints per-component variance, ratio and
// cumulative ratio.
func WriteExplainedVariance(w io.Writer, variance, ratio []float64) error {
	if len(variance) != len(ratio) {
		return errors.NewDimensionError("WriteExplainedVariance", len(variance), len(ratio), 0)
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "component\tvariance\tratio\tcumulative")
	cum := 0.0
	for i := range ratio {
		cum += ratio[i]
		fmt.Fprintf(tw, "PC%d\t%.4g\t%.2f%%\t%.2f%%\n", i+1, variance[i], 100*ratio[i], 100*cum)
	}
	return flush(tw)
}

// WriteTopLoadings prints the strongest features of one component with the
// gene accession and title when genes knows the column.
func WriteTopLoadings(w io.Writer, component int, loadings []decomposition.Loading, columns []string, genes *dataset.GeneTable) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "PC%d\tcolumn\tweight\taccession\ttitle\n", component+1)
	for rank, l := range loadings {
		if l.Feature < 0 || l.Feature >= len(columns) {
			return errors.NewValidationError("loading feature", "out of range", l.Feature)
		}
		col := columns[l.Feature]
		info, _ := genes.Lookup(col)
		fmt.Fprintf(tw, "%d\t%s\t%+.4f\t%s\t%s\n", rank+1, col, l.Weight, info.Accession, info.Title)
	}
	return flush(tw)
}

// WriteAUC prints one row per curve of res, marking undefined curves.
func WriteAUC(w io.Writer, res *metrics.MultiClassResult) error {
	if res == nil {
		return errors.NewValueError("WriteAUC", "nil result")
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "class\tpositives\tnegatives\tAUC")
	rows := append(append([]*metrics.Curve(nil), res.Classes...), res.Micro, res.Macro)
	for _, c := range rows {
		if c == nil {
			continue
		}
		auc := fmt.Sprintf("%.3f", c.AUC)
		if c.Undefined {
			auc = "undefined"
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", c.Label, c.Positives, c.Negatives, auc)
	}
	return flush(tw)
}

// WriteConfusion prints a square count matrix with true classes as rows.
// It serves both confusion matrices and cluster contingency tables (rows
// and cols name each axis).
func WriteConfusion(w io.Writer, m mat.Matrix, rows, cols []string) error {
	r, c := m.Dims()
	if r != len(rows) {
		return errors.NewDimensionError("WriteConfusion", r, len(rows), 0)
	}
	if c != len(cols) {
		return errors.NewDimensionError("WriteConfusion", c, len(cols), 1)
	}
	tw := newTable(w)
	fmt.Fprint(tw, "true \\ pred")
	for _, name := range cols {
		fmt.Fprintf(tw, "\t%s", name)
	}
	fmt.Fprintln(tw)
	for i, name := range rows {
		fmt.Fprint(tw, name)
		for j := 0; j < c; j++ {
			fmt.Fprintf(tw, "\t%d", int(m.At(i, j)))
		}
		fmt.Fprintln(tw)
	}
	return flush(tw)
}

// WriteReconstruction prints how well the kept components reproduce the
// input.
func WriteReconstruction(w io.Writer, components int, r metrics.Reconstruction) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "components\t%d\n", components)
	fmt.Fprintf(tw, "MSE\t%.4g\n", r.MSE)
	fmt.Fprintf(tw, "RMSE\t%.4g\n", r.RMSE)
	fmt.Fprintf(tw, "MAE\t%.4g\n", r.MAE)
	fmt.Fprintf(tw, "R2\t%.4f\n", r.R2)
	return flush(tw)
}

// MarkerFit is the held-out fit of one clinical marker regressed on
// expression components.
type MarkerFit struct {
	Marker string
	Train  int
	Test   int
	R2     float64
	RMSE   float64
	MAE    float64
}

// WriteMarkerFits prints one row per marker; an undefined R2 prints as NaN.
func WriteMarkerFits(w io.Writer, fits []MarkerFit) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "marker\ttrain\ttest\tR2\tRMSE\tMAE")
	for _, f := range fits {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%.4g\t%.4g\n", f.Marker, f.Train, f.Test, formatFloat(f.R2), f.RMSE, f.MAE)
	}
	return flush(tw)
}
