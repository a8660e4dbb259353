package estimate

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"relest/internal/dataset"
	"relest/internal/learner"
	"relest/internal/neighbors"
)

// CNeighbours (CNK) estimates reliability as the difference between the
// average true label of the query's k nearest neighbours and the base
// prediction. Emitted both signed and as an absolute value.
type CNeighbours struct {
	K int
}

// NewCNeighbours returns the strategy with neighbour count k (reference
// default 5).
func NewCNeighbours(k int) *CNeighbours {
	if k <= 0 {
		k = 5
	}
	return &CNeighbours{K: k}
}

func (c *CNeighbours) Name() string { return "CNeighbours" }

type cnkInstance struct {
	k     int
	index *neighbors.Index
}

// Build constructs its own Euclidean index, independent of any other
// estimator's.
func (c *CNeighbours) Build(ctx context.Context, ds *dataset.Dataset, _ learner.Learner, _ *rand.Rand) (Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ds.Len() < c.K {
		return nil, fmt.Errorf("cnk: %d neighbours requested from %d training examples", c.K, ds.Len())
	}
	ix, err := neighbors.NewIndex(ds, neighbors.Euclidean{})
	if err != nil {
		return nil, fmt.Errorf("cnk: %w", err)
	}
	return &cnkInstance{k: c.K, index: ix}, nil
}

func (c *cnkInstance) Estimates(ctx context.Context, ex dataset.Example, predicted float64) ([]Estimate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	nbrs, err := c.index.Query(ex.Features, c.k)
	if err != nil {
		return nil, fmt.Errorf("cnk: %w", err)
	}
	var cnk float64
	for _, nb := range nbrs {
		cnk += nb.Example.Label
	}
	cnk /= float64(len(nbrs))
	cnk -= predicted

	return []Estimate{
		{Value: cnk, Sign: Signed, Method: MethodCNKSigned},
		{Value: math.Abs(cnk), Sign: Absolute, Method: MethodCNKAbsolute},
	}, nil
}
