package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/liverscope/pkg/errors"
)

// DefaultNAValues are the cell spellings read as missing values.
var DefaultNAValues = []string{"", "NA", "N/A", "NaN", "nan", "null", "-"}

// ReadOptions controls how a delimited table is parsed.
type ReadOptions struct {
	// Source names the input in errors and warnings.
	Source string
	// Comma is the field delimiter; 0 means tab.
	Comma rune
	// NAValues overrides DefaultNAValues.
	NAValues []string
}

// DelimiterFor picks ',' for .csv files and tab otherwise.
func DelimiterFor(path string) rune {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return ','
	}
	return '\t'
}

type table struct {
	header []string
	ids    []string
	cells  [][]string
	lines  []int
}

// readTable reads a header row followed by records whose first field is the
// row label. Every record must have the header's width.
func readTable(r io.Reader, opts ReadOptions) (*table, error) {
	reader := csv.NewReader(r)
	reader.Comma = opts.Comma
	if reader.Comma == 0 {
		reader.Comma = '\t'
	}
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.NewDataFileError(opts.Source, 0, "", errors.ErrEmptyData)
	}
	if err != nil {
		return nil, errors.NewDataFileError(opts.Source, 1, "", err)
	}
	if len(header) < 2 {
		return nil, errors.NewDataFileError(opts.Source, 1, "",
			errors.Newf("header has %d field(s); need a subject column and at least one value column", len(header)))
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	t := &table{header: header}
	seen := make(map[string]int)
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		line, _ := reader.FieldPos(0)
		if err != nil {
			return nil, errors.NewDataFileError(opts.Source, line, "", err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if len(rec) != len(header) {
			return nil, errors.NewDataFileError(opts.Source, line, "",
				errors.Newf("expected %d fields, got %d", len(header), len(rec)))
		}
		id := strings.TrimSpace(rec[0])
		if prev, ok := seen[id]; ok {
			return nil, errors.NewDataFileError(opts.Source, line, header[0],
				errors.NewValidationError("subject", fmt.Sprintf("duplicate of line %d", prev), id))
		}
		seen[id] = line
		t.ids = append(t.ids, id)
		t.cells = append(t.cells, rec[1:])
		t.lines = append(t.lines, line)
	}
	if len(t.ids) == 0 {
		return nil, errors.NewDataFileError(opts.Source, 0, "", errors.ErrEmptyData)
	}
	return t, nil
}

// ReadFrame parses a numeric table. Missing cells become NaN and raise a
// single DataConversionWarning for the whole input.
func ReadFrame(r io.Reader, opts ReadOptions) (*Frame, error) {
	t, err := readTable(r, opts)
	if err != nil {
		return nil, err
	}
	na := opts.NAValues
	if na == nil {
		na = DefaultNAValues
	}
	isNA := make(map[string]bool, len(na))
	for _, v := range na {
		isNA[v] = true
	}

	columns := t.header[1:]
	values := mat.NewDense(len(t.ids), len(columns), nil)
	missing := 0
	for i, rec := range t.cells {
		for j, cell := range rec {
			cell = strings.TrimSpace(cell)
			if isNA[cell] {
				values.Set(i, j, math.NaN())
				missing++
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, errors.NewDataFileError(opts.Source, t.lines[i], columns[j], err)
			}
			values.Set(i, j, v)
		}
	}
	if missing > 0 {
		errors.Warn(errors.NewDataConversionWarning("string", "float64",
			fmt.Sprintf("%d missing cell(s) in %s read as NaN", missing, sourceName(opts))))
	}
	return NewFrame(t.ids, append([]string(nil), columns...), values)
}

func sourceName(opts ReadOptions) string {
	if opts.Source == "" {
		return "input"
	}
	return opts.Source
}
