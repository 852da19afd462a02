// Package model_selection partitions datasets for hold-out evaluation.
package model_selection

import (
	"math"
	"math/rand/v2"
	"slices"

	scigoErrors "github.com/ezoic/bikedemand/pkg/errors"
)

// Split holds the row indices of a train/test partition. Both slices are
// sorted ascending, disjoint and together cover 0..n-1.
type Split struct {
	Train []int
	Test  []int
}

// TrainTestSplit partitions n rows into a test set of round(testFraction·n)
// rows and a train set with the rest. The assignment is a random permutation
// seeded by seed, so the same (n, testFraction, seed) always yields the same
// partition.
//
// Errors:
//   - InvalidParameterError: testFraction outside (0, 1), n < 2, or either
//     partition would be empty
func TrainTestSplit(n int, testFraction float64, seed int64) (Split, error) {
	const op = "TrainTestSplit"
	if !(testFraction > 0 && testFraction < 1) {
		return Split{}, scigoErrors.NewInvalidParameterError(op, "test_fraction", "must be in (0, 1)", testFraction)
	}
	if n < 2 {
		return Split{}, scigoErrors.NewInvalidParameterError(op, "n_samples", "need at least 2 samples", n)
	}
	nTest := int(math.Round(testFraction * float64(n)))
	if nTest == 0 || nTest == n {
		return Split{}, scigoErrors.NewInvalidParameterError(op, "test_fraction",
			"leaves an empty train or test partition", testFraction)
	}

	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	perm := rng.Perm(n)

	s := Split{
		Test:  slices.Clone(perm[:nTest]),
		Train: slices.Clone(perm[nTest:]),
	}
	slices.Sort(s.Test)
	slices.Sort(s.Train)
	return s, nil
}
