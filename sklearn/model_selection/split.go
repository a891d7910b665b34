// Package model_selection splits samples into train and test index sets.
package model_selection

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/liverscope/pkg/errors"
)

// TrainTestSplit shuffles [0, n) with seed and returns sorted train and test
// index sets. testSize is the fraction of samples held out.
//
// When stratify is non-nil (one class code per sample) each class is split
// on its own, so class proportions are kept; a class with two or more
// samples always keeps at least one sample on each side, and a class with a
// single sample goes to train.
func TrainTestSplit(n int, testSize float64, seed int64, stratify []int) (train, test []int, err error) {
	if n < 2 {
		return nil, nil, errors.NewValueError("TrainTestSplit",
			fmt.Sprintf("need at least 2 samples to split, got %d", n))
	}
	if !(testSize > 0 && testSize < 1) {
		return nil, nil, errors.NewValidationError("test_size", "must be in (0, 1)", testSize)
	}
	if stratify != nil && len(stratify) != n {
		return nil, nil, errors.NewDimensionError("TrainTestSplit", n, len(stratify), 0)
	}

	rng := rand.New(rand.NewSource(seed))
	if stratify == nil {
		perm := rng.Perm(n)
		nTest := clamp(int(math.Ceil(testSize*float64(n))), 1, n-1)
		test = append(test, perm[:nTest]...)
		train = append(train, perm[nTest:]...)
	} else {
		byClass := make(map[int][]int)
		var classes []int
		for i, c := range stratify {
			if _, ok := byClass[c]; !ok {
				classes = append(classes, c)
			}
			byClass[c] = append(byClass[c], i)
		}
		sort.Ints(classes)
		for _, c := range classes {
			members := byClass[c]
			rng.Shuffle(len(members), func(i, j int) { members[i], members[j] = members[j], members[i] })
			if len(members) < 2 {
				train = append(train, members...)
				continue
			}
			nTest := clamp(int(math.Round(testSize*float64(len(members)))), 1, len(members)-1)
			test = append(test, members[:nTest]...)
			train = append(train, members[nTest:]...)
		}
	}

	sort.Ints(train)
	sort.Ints(test)
	return train, test, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// TakeRows returns the rows of X at the given indices, in order.
func TakeRows(X mat.Matrix, idx []int) *mat.Dense {
	_, p := X.Dims()
	out := mat.NewDense(len(idx), p, nil)
	for r, i := range idx {
		for j := 0; j < p; j++ {
			out.Set(r, j, X.At(i, j))
		}
	}
	return out
}

// TakeInts returns codes[idx[0]], codes[idx[1]], ...
func TakeInts(codes []int, idx []int) []int {
	out := make([]int, len(idx))
	for r, i := range idx {
		out[r] = codes[i]
	}
	return out
}
