package ml

import (
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// TrainTestSplit shuffles 0..n-1 with seed and returns train and test index
// sets. The test set has ceil(testFrac*n) rows.
func TrainTestSplit(n int, testFrac float64, seed uint64) (train, test []int) {
	nTest := int(math.Ceil(testFrac * float64(n)))
	if nTest > n {
		nTest = n
	}
	perm := rand.New(rand.NewPCG(seed, seed)).Perm(n)
	return perm[nTest:], perm[:nTest]
}

// R2 is the coefficient of determination. With a constant target it is 1
// for a perfect fit and 0 otherwise.
func R2(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	mean := stat.Mean(yTrue, nil)
	var tot float64
	for _, v := range yTrue {
		tot += (v - mean) * (v - mean)
	}
	if tot == 0 {
		if floats.Distance(yTrue, yPred, 2) == 0 {
			return 1
		}
		return 0
	}
	return stat.RSquaredFrom(yPred, yTrue, nil)
}

// MAE is the mean absolute error.
func MAE(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	return floats.Distance(yTrue, yPred, 1) / float64(len(yTrue))
}

// Median averages the two middle values for even lengths. ok is false for
// an empty input.
func Median(xs []float64) (m float64, ok bool) {
	if len(xs) == 0 {
		return 0, false
	}
	s := slices.Clone(xs)
	slices.Sort(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid], true
	}
	return (s[mid-1] + s[mid]) / 2, true
}
