package cluster

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/liverscope/pkg/errors"
)

// ContingencyMatrix counts co-occurrences: entry (i, j) is the number of
// samples with class code i and cluster code j. Codes must lie in
// [0, nClasses) and [0, nClusters).
func ContingencyMatrix(classes, clusters []int, nClasses, nClusters int) (*mat.Dense, error) {
	if len(classes) != len(clusters) {
		return nil, errors.NewDimensionError("ContingencyMatrix", len(classes), len(clusters), 0)
	}
	if len(classes) == 0 || nClasses < 1 || nClusters < 1 {
		return nil, errors.NewModelError("ContingencyMatrix", "empty data", errors.ErrEmptyData)
	}
	table := mat.NewDense(nClasses, nClusters, nil)
	for i := range classes {
		c, k := classes[i], clusters[i]
		if c < 0 || c >= nClasses {
			return nil, errors.NewValidationError("class code", "out of range", c)
		}
		if k < 0 || k >= nClusters {
			return nil, errors.NewValidationError("cluster code", "out of range", k)
		}
		table.Set(c, k, table.At(c, k)+1)
	}
	return table, nil
}

// AdjustedRandIndex measures agreement between two labelings from their
// contingency table: 1 for identical partitions (up to renaming), about 0
// for independent ones.
func AdjustedRandIndex(table mat.Matrix) float64 {
	r, c := table.Dims()
	rowSums := make([]float64, r)
	colSums := make([]float64, c)
	var n, sumCells float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := table.At(i, j)
			rowSums[i] += v
			colSums[j] += v
			n += v
			sumCells += comb2(v)
		}
	}
	var sumRows, sumCols float64
	for _, v := range rowSums {
		sumRows += comb2(v)
	}
	for _, v := range colSums {
		sumCols += comb2(v)
	}
	expected := sumRows * sumCols / comb2(n)
	maxIndex := (sumRows + sumCols) / 2
	if maxIndex == expected {
		// 両方とも単一クラスタ、または全サンプルが別クラスタ
		return 1
	}
	return (sumCells - expected) / (maxIndex - expected)
}

func comb2(v float64) float64 { return v * (v - 1) / 2 }
