package dataset

import (
	"io"
	"sort"
	"strings"

	"github.com/YuminosukeSato/liverscope/pkg/errors"
	"github.com/YuminosukeSato/liverscope/preprocessing"
)

// Target names a treatment attribute used as a class label.
type Target string

const (
	TargetDose     Target = "dose"
	TargetTime     Target = "time"
	TargetDoseTime Target = "dose_time"
)

// ParseTarget validates a target name.
func ParseTarget(s string) (Target, error) {
	switch t := Target(strings.ToLower(strings.TrimSpace(s))); t {
	case TargetDose, TargetTime, TargetDoseTime:
		return t, nil
	}
	return "", errors.NewValidationError("target", "must be dose, time or dose_time", s)
}

// Treatment is one subject's treatment record.
type Treatment struct {
	Subject    string
	Individual string
	Dose       string
	Time       string
}

// Label returns the group name of the record for target.
func (t Treatment) Label(target Target) string {
	switch target {
	case TargetTime:
		return t.Time
	case TargetDoseTime:
		return t.Dose + " / " + t.Time
	default:
		return t.Dose
	}
}

// TreatmentOptions names the treatment table columns. Matching is
// case-insensitive; an absent individual column is allowed.
type TreatmentOptions struct {
	DoseColumn       string
	TimeColumn       string
	IndividualColumn string
}

// DefaultTreatmentOptions returns the column names used by the bundled data.
func DefaultTreatmentOptions() TreatmentOptions {
	return TreatmentOptions{DoseColumn: "dose", TimeColumn: "time", IndividualColumn: "individual"}
}

// TreatmentTable holds treatment records in row order.
type TreatmentTable struct {
	Columns []string
	Records []Treatment

	pos map[string]int
}

// ReadTreatment parses the treatment table. The first column is the subject id.
func ReadTreatment(r io.Reader, opts ReadOptions, cols TreatmentOptions) (*TreatmentTable, error) {
	t, err := readTable(r, opts)
	if err != nil {
		return nil, err
	}
	find := func(name string, required bool) (int, error) {
		for j, h := range t.header[1:] {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				return j, nil
			}
		}
		if required {
			return -1, errors.NewDataFileError(opts.Source, 1, name,
				errors.NewValidationError("treatment column", "not found in header", name))
		}
		return -1, nil
	}
	doseIdx, err := find(cols.DoseColumn, true)
	if err != nil {
		return nil, err
	}
	timeIdx, err := find(cols.TimeColumn, true)
	if err != nil {
		return nil, err
	}
	indIdx, _ := find(cols.IndividualColumn, false)

	records := make([]Treatment, len(t.ids))
	for i, rec := range t.cells {
		records[i] = Treatment{
			Subject: t.ids[i],
			Dose:    strings.TrimSpace(rec[doseIdx]),
			Time:    strings.TrimSpace(rec[timeIdx]),
		}
		if indIdx >= 0 {
			records[i].Individual = strings.TrimSpace(rec[indIdx])
		}
	}
	return newTreatmentTable(append([]string(nil), t.header[1:]...), records), nil
}

func newTreatmentTable(columns []string, records []Treatment) *TreatmentTable {
	pos := make(map[string]int, len(records))
	for i, r := range records {
		pos[r.Subject] = i
	}
	return &TreatmentTable{Columns: columns, Records: records, pos: pos}
}

// Len returns the number of subjects.
func (t *TreatmentTable) Len() int { return len(t.Records) }

// Subjects returns the subject ids in row order.
func (t *TreatmentTable) Subjects() []string {
	ids := make([]string, len(t.Records))
	for i, r := range t.Records {
		ids[i] = r.Subject
	}
	return ids
}

// Lookup returns the record for subject.
func (t *TreatmentTable) Lookup(subject string) (Treatment, bool) {
	i, ok := t.pos[subject]
	if !ok {
		return Treatment{}, false
	}
	return t.Records[i], true
}

// Labels returns the per-row group names for target.
func (t *TreatmentTable) Labels(target Target) []string {
	out := make([]string, len(t.Records))
	for i, r := range t.Records {
		out[i] = r.Label(target)
	}
	return out
}

// Groups returns the distinct group names for target in natural order.
func (t *TreatmentTable) Groups(target Target) []string {
	seen := make(map[string]bool)
	var groups []string
	for _, l := range t.Labels(target) {
		if !seen[l] {
			seen[l] = true
			groups = append(groups, l)
		}
	}
	sort.SliceStable(groups, func(i, j int) bool { return preprocessing.NaturalLess(groups[i], groups[j]) })
	return groups
}

// DoseGroups returns the distinct dose groups.
func (t *TreatmentTable) DoseGroups() []string { return t.Groups(TargetDose) }

// TimeGroups returns the distinct time groups.
func (t *TreatmentTable) TimeGroups() []string { return t.Groups(TargetTime) }

// reorder returns a table whose rows follow ids.
func (t *TreatmentTable) reorder(ids []string) *TreatmentTable {
	records := make([]Treatment, len(ids))
	for k, id := range ids {
		records[k] = t.Records[t.pos[id]]
	}
	return newTreatmentTable(t.Columns, records)
}
