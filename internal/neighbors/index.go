// Package neighbors provides nearest-neighbour search over a training
// dataset under a pluggable metric. The index is brute force: datasets in
// reliability estimation are small relative to the cost of the retraining
// loops around them, so a scan per query is the simplest thing that works.
package neighbors

import (
	"fmt"
	"sort"

	"relest/internal/dataset"
)

// Neighbor is one search hit: a training example and its distance from the
// query point.
type Neighbor struct {
	Example  dataset.Example
	Distance float64
}

// Index answers k-nearest-neighbour queries against a fixed dataset. It is
// immutable after construction and safe for concurrent queries.
type Index struct {
	ds     *dataset.Dataset
	metric Metric
}

// NewIndex builds an index over ds using the given metric.
func NewIndex(ds *dataset.Dataset, metric Metric) (*Index, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, fmt.Errorf("neighbors: empty dataset")
	}
	if metric == nil {
		return nil, fmt.Errorf("neighbors: nil metric")
	}
	return &Index{ds: ds, metric: metric}, nil
}

// Query returns the k nearest examples to the query features, closest
// first. If k exceeds the dataset size, all examples are returned. The
// query must have the indexed feature dimension.
func (ix *Index) Query(features []float64, k int) ([]Neighbor, error) {
	if len(features) != ix.ds.Dim() {
		return nil, fmt.Errorf("neighbors: query has %d features, index has %d", len(features), ix.ds.Dim())
	}
	n := ix.ds.Len()
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil, nil
	}
	all := make([]Neighbor, n)
	for i := 0; i < n; i++ {
		ex := ix.ds.Example(i)
		all[i] = Neighbor{Example: ex, Distance: ix.metric.Distance(features, ex.Features)}
	}
	sort.SliceStable(all, func(a, b int) bool { return all[a].Distance < all[b].Distance })
	return all[:k], nil
}
