package dataset

import (
	"os"
	"path/filepath"
	"testing"
)

const (
	expressionTSV = "subject\tg1\tg2\tg3\n" +
		"r01\t1.0\t2.0\t3.0\n" +
		"r02\t1.5\tNA\t2.5\n" +
		"r03\t0.5\t2.2\t3.3\n" +
		"r04\t1.1\t1.9\t2.9\n"

	// clinical rows deliberately out of expression order
	clinicalTSV = "subject\tALT\tAST\n" +
		"r03\t40\t90\n" +
		"r01\t35\t80\n" +
		"r04\t60\t120\n" +
		"r02\t38\t85\n"

	treatmentTSV = "subject\tindividual\tdose\ttime\n" +
		"r02\t2\tLow\t24 hr\n" +
		"r01\t1\tControl\t3 hr\n" +
		"r04\t4\tHigh\t24 hr\n" +
		"r03\t3\tControl\t24 hr\n"

	genesTSV = "column\taccession\ttitle\n" +
		"g1\tNM_001\tCytochrome P450 1A1\n" +
		"g2\tNM_002\tGlutathione S-transferase\n"
)

// writeFixture writes the four tables into a temp directory and returns
// their paths.
func writeFixture(t *testing.T, overrides map[string]string) Files {
	t.Helper()
	dir := t.TempDir()
	files := DefaultFiles(dir)
	contents := map[string]string{
		files.Expression: expressionTSV,
		files.Clinical:   clinicalTSV,
		files.Treatment:  treatmentTSV,
		files.Genes:      genesTSV,
	}
	for name, body := range overrides {
		contents[filepath.Join(dir, name)] = body
	}
	for path, body := range contents {
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	return files
}
