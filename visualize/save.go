package visualize

import (
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/liverscope/pkg/errors"
)

// Formats lists the file extensions Save accepts.
var Formats = []string{"png", "svg", "pdf", "eps", "jpg", "jpeg", "tif", "tiff"}

// DefaultSize is used by callers that do not pick a size.
const DefaultSize = 5 * vg.Inch

// Format returns the image format implied by path's extension.
func Format(path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	for _, f := range Formats {
		if ext == f {
			return ext, nil
		}
	}
	return "", errors.NewValidationError("plot format", "unsupported file extension", filepath.Ext(path))
}

func prepare(path string) (string, error) {
	format, err := Format(path)
	if err != nil {
		return "", err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", errors.Wrapf(err, "create plot directory %s", dir)
		}
	}
	return format, nil
}

// Save writes p to path with width w and height h. The format is taken from
// the extension.
func Save(p *plot.Plot, path string, w, h vg.Length) error {
	if _, err := prepare(path); err != nil {
		return err
	}
	if err := p.Save(w, h, path); err != nil {
		return errors.Wrapf(err, "save plot %s", path)
	}
	return nil
}
