package dataset

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/YuminosukeSato/liverscope/pkg/errors"
	"github.com/YuminosukeSato/liverscope/pkg/log"
)

// Files lists the paths of the four input tables.
type Files struct {
	Expression string
	Clinical   string
	Treatment  string
	Genes      string
}

// Default file names inside a data directory.
const (
	ExpressionFile = "expression.txt"
	ClinicalFile   = "clinical.txt"
	TreatmentFile  = "treatment.txt"
	GenesFile      = "genes.txt"
)

// DefaultFiles returns the standard file layout under dir.
func DefaultFiles(dir string) Files {
	return Files{
		Expression: filepath.Join(dir, ExpressionFile),
		Clinical:   filepath.Join(dir, ClinicalFile),
		Treatment:  filepath.Join(dir, TreatmentFile),
		Genes:      filepath.Join(dir, GenesFile),
	}
}

// LoadOptions configures Load.
type LoadOptions struct {
	// Comma forces a delimiter for every file; 0 picks one by extension.
	Comma     rune
	NAValues  []string
	Treatment TreatmentOptions
	Logger    log.Logger
}

// Dataset groups the four tables. After Load every table's row i refers to
// the same subject as Expression row i.
type Dataset struct {
	Expression *Frame
	Clinical   *Frame
	Treatment  *TreatmentTable
	Genes      *GeneTable
}

// Load reads all four tables and aligns them on the expression row order.
func Load(ctx context.Context, files Files, opts LoadOptions) (*Dataset, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.GetLoggerWithName("dataset")
	}
	if opts.Treatment == (TreatmentOptions{}) {
		opts.Treatment = DefaultTreatmentOptions()
	}
	start := time.Now()

	ds := &Dataset{}
	steps := []struct {
		table string
		path  string
		read  func(f *os.File, ro ReadOptions) (int, int, error)
	}{
		{"expression", files.Expression, func(f *os.File, ro ReadOptions) (int, int, error) {
			fr, err := ReadFrame(f, ro)
			if err != nil {
				return 0, 0, err
			}
			ds.Expression = fr
			r, c := fr.Dims()
			return r, c, nil
		}},
		{"clinical", files.Clinical, func(f *os.File, ro ReadOptions) (int, int, error) {
			fr, err := ReadFrame(f, ro)
			if err != nil {
				return 0, 0, err
			}
			ds.Clinical = fr
			r, c := fr.Dims()
			return r, c, nil
		}},
		{"treatment", files.Treatment, func(f *os.File, ro ReadOptions) (int, int, error) {
			tt, err := ReadTreatment(f, ro, opts.Treatment)
			if err != nil {
				return 0, 0, err
			}
			ds.Treatment = tt
			return tt.Len(), len(tt.Columns), nil
		}},
		{"genes", files.Genes, func(f *os.File, ro ReadOptions) (int, int, error) {
			gt, err := ReadGeneTable(f, ro)
			if err != nil {
				return 0, 0, err
			}
			ds.Genes = gt
			return gt.Len(), 2, nil
		}},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, errors.WithStack(err)
		}
		ro := ReadOptions{Source: step.path, Comma: opts.Comma, NAValues: opts.NAValues}
		if ro.Comma == 0 {
			ro.Comma = DelimiterFor(step.path)
		}
		rows, cols, err := readFile(step.path, ro, step.read)
		if err != nil {
			logger.Error("failed to load table", log.TableKey, step.table, log.PathKey, step.path, log.ErrAttrKey, err)
			return nil, err
		}
		logger.Debug("loaded table",
			log.TableKey, step.table,
			log.PathKey, step.path,
			log.SamplesKey, rows,
			log.FeaturesKey, cols,
		)
	}

	if err := ds.Align(); err != nil {
		return nil, err
	}

	rows, cols := ds.Expression.Dims()
	logger.Info("dataset loaded",
		log.OperationKey, log.OperationLoad,
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return ds, nil
}

func readFile(path string, ro ReadOptions, read func(*os.File, ReadOptions) (int, int, error)) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, errors.NewDataFileError(path, 0, "", err)
	}
	defer f.Close()
	return read(f, ro)
}

// Align reorders the clinical and treatment rows to the expression order.
// Subject sets must match exactly.
func (d *Dataset) Align() error {
	if d.Expression == nil {
		return errors.NewValueError("Dataset.Align", "expression table is not loaded")
	}
	ids := d.Expression.Index

	if d.Clinical != nil {
		if err := checkSubjects("clinical", ids, d.Clinical.HasRow, d.Clinical.Index); err != nil {
			return err
		}
		clinical, err := d.Clinical.SelectRows(ids)
		if err != nil {
			return err
		}
		d.Clinical = clinical
	}
	if d.Treatment != nil {
		has := func(id string) bool { _, ok := d.Treatment.Lookup(id); return ok }
		if err := checkSubjects("treatment", ids, has, d.Treatment.Subjects()); err != nil {
			return err
		}
		d.Treatment = d.Treatment.reorder(ids)
	}
	return nil
}

func checkSubjects(table string, want []string, has func(string) bool, got []string) error {
	wanted := make(map[string]bool, len(want))
	var missing, extra []string
	for _, id := range want {
		wanted[id] = true
		if !has(id) {
			missing = append(missing, id)
		}
	}
	for _, id := range got {
		if !wanted[id] {
			extra = append(extra, id)
		}
	}
	if len(missing) > 0 || len(extra) > 0 {
		return errors.NewAlignmentError(table, missing, extra)
	}
	return nil
}

// Labels returns per-subject group names for target in expression row order.
func (d *Dataset) Labels(target Target) []string {
	return d.Treatment.Labels(target)
}

// GroupCount is the size of one treatment group.
type GroupCount struct {
	Name  string
	Count int
}

// Summary describes the loaded tables.
type Summary struct {
	Subjects        int
	Genes           int
	AnnotatedGenes  int
	ClinicalMarkers []string
	DoseGroups      []GroupCount
	TimeGroups      []GroupCount
	MissingCells    int
}

// Summary returns table shapes and treatment group sizes.
func (d *Dataset) Summary() Summary {
	rows, cols := d.Expression.Dims()
	s := Summary{Subjects: rows, Genes: cols}
	for _, c := range d.Expression.Columns {
		if _, ok := d.Genes.Lookup(c); ok {
			s.AnnotatedGenes++
		}
	}
	if d.Clinical != nil {
		s.ClinicalMarkers = append([]string(nil), d.Clinical.Columns...)
		s.MissingCells += countNaN(d.Clinical)
	}
	s.MissingCells += countNaN(d.Expression)
	if d.Treatment != nil {
		s.DoseGroups = groupCounts(d.Treatment, TargetDose)
		s.TimeGroups = groupCounts(d.Treatment, TargetTime)
	}
	return s
}

func countNaN(f *Frame) int {
	n := 0
	rows, cols := f.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if math.IsNaN(f.Values.At(i, j)) {
				n++
			}
		}
	}
	return n
}

func groupCounts(t *TreatmentTable, target Target) []GroupCount {
	counts := make(map[string]int)
	for _, l := range t.Labels(target) {
		counts[l]++
	}
	groups := t.Groups(target)
	out := make([]GroupCount, 0, len(groups))
	for _, g := range groups {
		out = append(out, GroupCount{Name: g, Count: counts[g]})
	}
	return out
}
