package estimate

import (
	"context"
	"fmt"
	"math/rand"

	"relest/internal/dataset"
	"relest/internal/learner"
	"relest/internal/neighbors"
)

// Mahalanobis estimates reliability as the summed Mahalanobis distance to
// the query's k nearest neighbours. It ignores the predicted label
// entirely: it measures how far the query sits from the training
// distribution.
type Mahalanobis struct {
	K int
}

// NewMahalanobis returns the strategy with neighbour count k (reference
// default 3).
func NewMahalanobis(k int) *Mahalanobis {
	if k <= 0 {
		k = 3
	}
	return &Mahalanobis{K: k}
}

func (m *Mahalanobis) Name() string { return "Mahalanobis" }

type mahalInstance struct {
	k     int
	index *neighbors.Index
}

// Build fits a Mahalanobis metric to the training covariance and indexes
// the data under it.
func (m *Mahalanobis) Build(ctx context.Context, ds *dataset.Dataset, _ learner.Learner, _ *rand.Rand) (Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ds.Len() < m.K {
		return nil, fmt.Errorf("mahalanobis: %d neighbours requested from %d training examples", m.K, ds.Len())
	}
	metric, err := neighbors.NewMahalanobis(ds)
	if err != nil {
		return nil, err
	}
	ix, err := neighbors.NewIndex(ds, metric)
	if err != nil {
		return nil, fmt.Errorf("mahalanobis: %w", err)
	}
	return &mahalInstance{k: m.K, index: ix}, nil
}

func (m *mahalInstance) Estimates(ctx context.Context, ex dataset.Example, _ float64) ([]Estimate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	nbrs, err := m.index.Query(ex.Features, m.k)
	if err != nil {
		return nil, fmt.Errorf("mahalanobis: %w", err)
	}
	var sum float64
	for _, nb := range nbrs {
		sum += nb.Distance
	}
	return []Estimate{{Value: sum, Sign: Absolute, Method: MethodMahalAbsolute}}, nil
}
