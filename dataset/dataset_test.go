package dataset

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/liverscope/pkg/errors"
	"github.com/YuminosukeSato/liverscope/pkg/log"
)

func testLoadOptions() (LoadOptions, *log.TestLogger) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	return LoadOptions{Logger: logger}, logger
}

func TestLoadAlignsTables(t *testing.T) {
	files := writeFixture(t, nil)
	opts, logger := testLoadOptions()

	ds, err := Load(context.Background(), files, opts)
	require.NoError(t, err)

	rows, cols := ds.Expression.Dims()
	assert.Equal(t, 4, rows)
	assert.Equal(t, 3, cols)
	assert.True(t, math.IsNaN(ds.Expression.Values.At(1, 1)), "NA should load as NaN")

	want := []string{"r01", "r02", "r03", "r04"}
	assert.Equal(t, want, ds.Expression.Index)
	assert.Equal(t, want, ds.Clinical.Index)
	assert.Equal(t, want, ds.Treatment.Subjects())

	alt, err := ds.Clinical.Column("ALT")
	require.NoError(t, err)
	assert.Equal(t, []float64{35, 38, 40, 60}, alt)

	assert.Equal(t, []string{"Control", "Low", "Control", "High"}, ds.Labels(TargetDose))
	assert.Equal(t, "2", ds.Treatment.Records[1].Individual)

	assert.True(t, logger.ContainsMessage("dataset loaded"))
	assert.True(t, logger.ContainsField(log.TableKey, "genes"))
}

func TestLoadCSVByExtension(t *testing.T) {
	dir := t.TempDir()
	files := Files{
		Expression: filepath.Join(dir, "expression.csv"),
		Clinical:   filepath.Join(dir, "clinical.csv"),
		Treatment:  filepath.Join(dir, "treatment.csv"),
		Genes:      filepath.Join(dir, "genes.csv"),
	}
	toCSV := func(s string) string { return strings.ReplaceAll(s, "\t", ",") }
	for path, body := range map[string]string{
		files.Expression: expressionTSV,
		files.Clinical:   clinicalTSV,
		files.Treatment:  treatmentTSV,
		files.Genes:      genesTSV,
	} {
		require.NoError(t, os.WriteFile(path, []byte(toCSV(body)), 0o644))
	}

	opts, _ := testLoadOptions()
	ds, err := Load(context.Background(), files, opts)
	require.NoError(t, err)
	assert.Equal(t, "NM_001 Cytochrome P450 1A1", ds.Genes.Describe("g1"))
	assert.Equal(t, "g3", ds.Genes.Describe("g3"))
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]string
		remove    string
		check     func(t *testing.T, err error)
	}{
		{
			name:   "missing file",
			remove: ClinicalFile,
			check: func(t *testing.T, err error) {
				var dfe *errors.DataFileError
				require.True(t, errors.As(err, &dfe))
				assert.True(t, strings.HasSuffix(dfe.Path, ClinicalFile))
				assert.True(t, os.IsNotExist(dfe.Err))
			},
		},
		{
			name: "ragged row",
			overrides: map[string]string{
				ExpressionFile: "subject\tg1\tg2\nr01\t1\t2\nr02\t3\n",
			},
			check: func(t *testing.T, err error) {
				var dfe *errors.DataFileError
				require.True(t, errors.As(err, &dfe))
				assert.Equal(t, 3, dfe.Line)
			},
		},
		{
			name: "non numeric cell",
			overrides: map[string]string{
				ClinicalFile: "subject\tALT\nr01\thigh\n",
			},
			check: func(t *testing.T, err error) {
				var dfe *errors.DataFileError
				require.True(t, errors.As(err, &dfe))
				assert.Equal(t, "ALT", dfe.Column)
				assert.Equal(t, 2, dfe.Line)
			},
		},
		{
			name: "duplicate subject",
			overrides: map[string]string{
				ExpressionFile: "subject\tg1\nr01\t1\nr01\t2\n",
			},
			check: func(t *testing.T, err error) {
				var ve *errors.ValidationError
				assert.True(t, errors.As(err, &ve))
			},
		},
		{
			name: "empty table",
			overrides: map[string]string{
				GenesFile: "column\taccession\ttitle\n",
			},
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, errors.ErrEmptyData))
			},
		},
		{
			name: "unknown dose column",
			overrides: map[string]string{
				TreatmentFile: "subject\tgroup\ttime\nr01\tLow\t3 hr\n",
			},
			check: func(t *testing.T, err error) {
				var ve *errors.ValidationError
				require.True(t, errors.As(err, &ve))
				assert.Equal(t, "dose", ve.Value)
			},
		},
		{
			name: "subject sets differ",
			overrides: map[string]string{
				TreatmentFile: "subject\tdose\ttime\nr01\tLow\t3 hr\nr02\tLow\t3 hr\nr03\tHigh\t3 hr\nr99\tHigh\t3 hr\n",
			},
			check: func(t *testing.T, err error) {
				var ae *errors.AlignmentError
				require.True(t, errors.As(err, &ae))
				assert.Equal(t, "treatment", ae.Table)
				assert.Equal(t, []string{"r04"}, ae.Missing)
				assert.Equal(t, []string{"r99"}, ae.Extra)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := writeFixture(t, tt.overrides)
			if tt.remove != "" {
				require.NoError(t, os.Remove(filepath.Join(filepath.Dir(files.Expression), tt.remove)))
			}
			opts, _ := testLoadOptions()
			_, err := Load(context.Background(), files, opts)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestLoadCanceled(t *testing.T) {
	files := writeFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts, _ := testLoadOptions()
	_, err := Load(ctx, files, opts)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSummary(t *testing.T) {
	files := writeFixture(t, nil)
	opts, _ := testLoadOptions()
	ds, err := Load(context.Background(), files, opts)
	require.NoError(t, err)

	got := ds.Summary()
	want := Summary{
		Subjects:        4,
		Genes:           3,
		AnnotatedGenes:  2,
		ClinicalMarkers: []string{"ALT", "AST"},
		DoseGroups:      []GroupCount{{"Control", 2}, {"Low", 1}, {"High", 1}},
		TimeGroups:      []GroupCount{{"3 hr", 1}, {"24 hr", 3}},
		MissingCells:    1,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Summary mismatch (-want +got):\n%s", diff)
	}
}

func TestParseTarget(t *testing.T) {
	for _, s := range []string{"dose", "TIME", " dose_time "} {
		if _, err := ParseTarget(s); err != nil {
			t.Errorf("ParseTarget(%q): %v", s, err)
		}
	}
	if _, err := ParseTarget("organ"); err == nil {
		t.Error("unknown target should fail")
	}

	rec := Treatment{Dose: "High", Time: "24 hr"}
	if got := rec.Label(TargetDoseTime); got != "High / 24 hr" {
		t.Errorf("Label(dose_time) = %q", got)
	}
}
