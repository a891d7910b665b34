package report

import (
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet"
	"github.com/apache/arrow/go/v17/parquet/compress"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/liverscope/metrics"
	"github.com/YuminosukeSato/liverscope/pkg/errors"
)

// RunIDKey is the file metadata key holding the run id.
const RunIDKey = "liverscope.run_id"

// ParquetExt is the extension of every file written by this package.
const ParquetExt = ".parquet"

// ROCSchema is the layout of WriteROCParquet files: one row per curve point.
var ROCSchema = arrow.NewSchema([]arrow.Field{
	{Name: "curve", Type: &arrow.DictionaryType{
		IndexType: arrow.PrimitiveTypes.Uint8,
		ValueType: arrow.BinaryTypes.String,
		Ordered:   false,
	}},
	{Name: "fpr", Type: arrow.PrimitiveTypes.Float64},
	{Name: "tpr", Type: arrow.PrimitiveTypes.Float64},
	{Name: "threshold", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: "auc", Type: arrow.PrimitiveTypes.Float64},
}, nil)

// ScoresSchema returns the layout of WriteScoresParquet files: subject,
// label and one float column per component (pc1..pck).
func ScoresSchema(k int, metadata *arrow.Metadata) *arrow.Schema {
	fields := []arrow.Field{
		{Name: "subject", Type: arrow.BinaryTypes.String},
		{Name: "label", Type: arrow.BinaryTypes.String},
	}
	for c := 0; c < k; c++ {
		fields = append(fields, arrow.Field{Name: fmt.Sprintf("pc%d", c+1), Type: arrow.PrimitiveTypes.Float64})
	}
	return arrow.NewSchema(fields, metadata)
}

func runMetadata(runID string) *arrow.Metadata {
	md := arrow.NewMetadata([]string{RunIDKey}, []string{runID})
	return &md
}

// WriteScoresParquet writes per-subject component scores. labels may be nil.
func WriteScoresParquet(path, runID string, subjects, labels []string, scores mat.Matrix) error {
	n, k := scores.Dims()
	if len(subjects) != n {
		return errors.NewDimensionError("WriteScoresParquet", n, len(subjects), 0)
	}
	if labels != nil && len(labels) != n {
		return errors.NewDimensionError("WriteScoresParquet", n, len(labels), 0)
	}

	schema := ScoresSchema(k, runMetadata(runID))
	builder := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer builder.Release()

	fields := builder.Fields()
	subjectField := fields[0].(*array.StringBuilder)
	labelField := fields[1].(*array.StringBuilder)
	for i := 0; i < n; i++ {
		subjectField.Append(subjects[i])
		if labels != nil {
			labelField.Append(labels[i])
		} else {
			labelField.Append("")
		}
		for c := 0; c < k; c++ {
			fields[2+c].(*array.Float64Builder).Append(scores.At(i, c))
		}
	}
	return writeRecords(path, schema, builder)
}

// WriteROCParquet writes the points of every defined curve.
func WriteROCParquet(path, runID string, curves []*metrics.Curve) error {
	schema := arrow.NewSchema(ROCSchema.Fields(), runMetadata(runID))
	builder := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer builder.Release()

	fields := builder.Fields()
	curveField := fields[0].(*array.BinaryDictionaryBuilder)
	fprField := fields[1].(*array.Float64Builder)
	tprField := fields[2].(*array.Float64Builder)
	thresholdField := fields[3].(*array.Float64Builder)
	aucField := fields[4].(*array.Float64Builder)

	for _, c := range curves {
		if c == nil || c.Undefined {
			continue
		}
		for i := range c.FPR {
			if err := curveField.AppendString(c.Label); err != nil {
				return errors.Wrapf(err, "append curve %s", c.Label)
			}
			fprField.Append(c.FPR[i])
			tprField.Append(c.TPR[i])
			// Averaged curves carry no thresholds.
			if i < len(c.Thresholds) {
				thresholdField.Append(c.Thresholds[i])
			} else {
				thresholdField.AppendNull()
			}
			aucField.Append(c.AUC)
		}
	}
	return writeRecords(path, schema, builder)
}

func writeRecords(path string, schema *arrow.Schema, builder *array.RecordBuilder) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create directory %s", dir)
		}
	}
	outFile, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	// The parquet writer closes outFile.
	writer, err := pqarrow.NewFileWriter(
		schema,
		outFile,
		parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Gzip),
			parquet.WithCompressionLevel(gzip.BestCompression)),
		pqarrow.DefaultWriterProps(),
	)
	if err != nil {
		outFile.Close()
		return errors.Wrapf(err, "parquet writer for %s", path)
	}
	defer func() {
		if cerr := writer.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "close %s", path)
		}
	}()

	record := builder.NewRecord()
	defer record.Release()

	return errors.Wrapf(writer.Write(record), "write %s", path)
}
