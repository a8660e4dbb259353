// Package cv provides the seeded k-fold partitioner used by internal
// cross-validation and by the CLI's evaluation harness.
package cv

import (
	"fmt"
	"math/rand"
)

// Partition splits the index range [0,n) into folds disjoint index sets
// whose union covers the range. The permutation is drawn from rng, so a
// fixed seed yields a fixed partition. Fold sizes differ by at most one.
func Partition(n, folds int, rng *rand.Rand) ([][]int, error) {
	if folds < 2 {
		return nil, fmt.Errorf("cv: fold count must be at least 2, got %d", folds)
	}
	if n < folds {
		return nil, fmt.Errorf("cv: %d examples cannot fill %d folds", n, folds)
	}
	if rng == nil {
		return nil, fmt.Errorf("cv: nil rng")
	}
	perm := rng.Perm(n)
	out := make([][]int, folds)
	for i, idx := range perm {
		f := i % folds
		out[f] = append(out[f], idx)
	}
	return out, nil
}

// Complement returns all indices in [0,n) that are not in fold, preserving
// ascending order. Used to build per-fold training sets.
func Complement(n int, fold []int) []int {
	in := make([]bool, n)
	for _, idx := range fold {
		in[idx] = true
	}
	out := make([]int, 0, n-len(fold))
	for i := 0; i < n; i++ {
		if !in[i] {
			out = append(out, i)
		}
	}
	return out
}
