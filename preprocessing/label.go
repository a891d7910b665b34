package preprocessing

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/liverscope/pkg/errors"
)

// ordinalWords ranks the dose level names used by treatment tables.
var ordinalWords = map[string]int{
	"control": 0,
	"vehicle": 0,
	"none":    0,
	"low":     1,
	"middle":  2,
	"mid":     2,
	"medium":  2,
	"high":    3,
}

type groupKey struct {
	class int // 0 ordinal word, 1 numeric prefix, 2 other
	num   float64
	text  string
}

func keyOf(s string) groupKey {
	t := strings.TrimSpace(s)
	if r, ok := ordinalWords[strings.ToLower(t)]; ok {
		return groupKey{class: 0, num: float64(r), text: t}
	}
	end := 0
	for end < len(t) {
		c := rune(t[end])
		if unicode.IsDigit(c) || c == '.' || (end == 0 && (c == '-' || c == '+')) {
			end++
			continue
		}
		break
	}
	if end > 0 {
		if v, err := strconv.ParseFloat(t[:end], 64); err == nil {
			return groupKey{class: 1, num: v, text: strings.TrimSpace(t[end:])}
		}
	}
	return groupKey{class: 2, text: t}
}

// NaturalLess orders group names so that "3 hr" < "24 hr", "50" < "150" and
// Control < Low < Middle < High. Other names compare lexically.
func NaturalLess(a, b string) bool {
	ka, kb := keyOf(a), keyOf(b)
	if ka.class != kb.class {
		return ka.class < kb.class
	}
	if ka.num != kb.num {
		return ka.num < kb.num
	}
	if ka.text != kb.text {
		return ka.text < kb.text
	}
	return a < b
}

// LabelEncoder maps group names to integer codes 0..k-1 in NaturalLess order.
type LabelEncoder struct {
	Classes []string

	index map[string]int
}

// NewLabelEncoder creates an unfitted LabelEncoder.
func NewLabelEncoder() *LabelEncoder {
	return &LabelEncoder{}
}

// Fit collects the distinct labels.
func (e *LabelEncoder) Fit(labels []string) error {
	if len(labels) == 0 {
		return errors.NewModelError("LabelEncoder.Fit", "empty data", errors.ErrEmptyData)
	}
	seen := make(map[string]bool)
	classes := make([]string, 0)
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			classes = append(classes, l)
		}
	}
	sort.SliceStable(classes, func(i, j int) bool { return NaturalLess(classes[i], classes[j]) })

	e.Classes = classes
	e.index = make(map[string]int, len(classes))
	for i, c := range classes {
		e.index[c] = i
	}
	return nil
}

// Transform returns the code of each label.
func (e *LabelEncoder) Transform(labels []string) ([]int, error) {
	if e.index == nil {
		return nil, errors.NewNotFittedError("LabelEncoder", "Transform")
	}
	codes := make([]int, len(labels))
	for i, l := range labels {
		c, ok := e.index[l]
		if !ok {
			return nil, errors.NewValueError("LabelEncoder.Transform", fmt.Sprintf("unseen label %q", l))
		}
		codes[i] = c
	}
	return codes, nil
}

// FitTransform fits on labels and encodes them.
func (e *LabelEncoder) FitTransform(labels []string) ([]int, error) {
	if err := e.Fit(labels); err != nil {
		return nil, err
	}
	return e.Transform(labels)
}

// InverseTransform maps codes back to names.
func (e *LabelEncoder) InverseTransform(codes []int) ([]string, error) {
	if e.index == nil {
		return nil, errors.NewNotFittedError("LabelEncoder", "InverseTransform")
	}
	out := make([]string, len(codes))
	for i, c := range codes {
		if c < 0 || c >= len(e.Classes) {
			return nil, errors.NewValueError("LabelEncoder.InverseTransform", fmt.Sprintf("code %d out of range", c))
		}
		out[i] = e.Classes[c]
	}
	return out, nil
}

// CodesMatrix returns codes as an n×1 column, the y shape classifiers expect.
func CodesMatrix(codes []int) *mat.Dense {
	data := make([]float64, len(codes))
	for i, c := range codes {
		data[i] = float64(c)
	}
	return mat.NewDense(len(codes), 1, data)
}

// MatrixCodes reads an n×1 column of class codes.
func MatrixCodes(y mat.Matrix) []int {
	r, _ := y.Dims()
	codes := make([]int, r)
	for i := range codes {
		codes[i] = int(y.At(i, 0))
	}
	return codes
}

// LabelBinarize returns the n×k one-vs-rest indicator matrix for codes.
// Codes outside [0, k) leave their row all zero.
func LabelBinarize(codes []int, k int) *mat.Dense {
	out := mat.NewDense(len(codes), k, nil)
	for i, c := range codes {
		if c >= 0 && c < k {
			out.Set(i, c, 1)
		}
	}
	return out
}
