package errors

import "math"

// maxReported は NumericalInstabilityError に載せる値の上限
const maxReported = 10

func unstable(v float64) bool { return math.IsNaN(v) || math.IsInf(v, 0) }

// CheckNumericalStability returns a NumericalInstabilityError when values
// holds NaN or ±Inf. iteration is the solver step, or 0 outside a loop.
func CheckNumericalStability(operation string, values []float64, iteration int) error {
	for _, v := range values {
		if unstable(v) {
			return NewNumericalInstabilityError(operation, values, iteration)
		}
	}
	return nil
}

// CheckMatrix scans the top-left rows×cols block of matrix and reports up to
// the first ten non-finite cells.
func CheckMatrix(operation string, matrix interface{ At(int, int) float64 }, rows, cols, iteration int) error {
	var bad []float64
	for i := 0; i < rows && len(bad) < maxReported; i++ {
		for j := 0; j < cols && len(bad) < maxReported; j++ {
			if v := matrix.At(i, j); unstable(v) {
				bad = append(bad, v)
			}
		}
	}
	if len(bad) > 0 {
		return NewNumericalInstabilityError(operation, bad, iteration)
	}
	return nil
}
