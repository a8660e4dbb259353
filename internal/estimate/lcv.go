package estimate

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"relest/internal/dataset"
	"relest/internal/learner"
	"relest/internal/neighbors"
)

// LocalCrossValidation estimates reliability as the distance-weighted
// leave-one-out prediction error within the query's nearest-neighbour set:
// each of the k neighbours is predicted by a model trained on the other
// k-1, and the absolute errors are combined with weights exp(-distance).
type LocalCrossValidation struct {
	K int
}

// NewLocalCrossValidation returns the strategy with neighbour count k
// (reference default 5).
func NewLocalCrossValidation(k int) *LocalCrossValidation {
	if k <= 0 {
		k = 5
	}
	return &LocalCrossValidation{K: k}
}

func (l *LocalCrossValidation) Name() string { return "LocalCrossValidation" }

type lcvInstance struct {
	k       int
	index   *neighbors.Index
	learner learner.Learner
}

// Build constructs a Euclidean neighbour index over the training data,
// reused by every query.
func (l *LocalCrossValidation) Build(ctx context.Context, ds *dataset.Dataset, lr learner.Learner, _ *rand.Rand) (Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ds.Len() < l.K {
		return nil, fmt.Errorf("lcv: %d neighbours requested from %d training examples", l.K, ds.Len())
	}
	ix, err := neighbors.NewIndex(ds, neighbors.Euclidean{})
	if err != nil {
		return nil, fmt.Errorf("lcv: %w", err)
	}
	return &lcvInstance{k: l.K, index: ix, learner: lr}, nil
}

func (l *lcvInstance) Estimates(ctx context.Context, ex dataset.Example, _ float64) ([]Estimate, error) {
	nbrs, err := l.index.Query(ex.Features, l.k)
	if err != nil {
		return nil, fmt.Errorf("lcv: %w", err)
	}
	local := make([]dataset.Example, len(nbrs))
	for i, nb := range nbrs {
		local[i] = nb.Example
	}
	localDS, err := dataset.New(local)
	if err != nil {
		return nil, fmt.Errorf("lcv: %w", err)
	}

	// Errors and weights are collected per index and summed in index order
	// afterwards: float addition is not associative, so accumulating in
	// goroutine completion order would make repeated queries disagree in
	// the last bits.
	errs := make([]float64, len(nbrs))
	weights := make([]float64, len(nbrs))
	g, gctx := errgroup.WithContext(ctx)
	for i := range nbrs {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rest, err := localDS.Drop(i)
			if err != nil {
				return fmt.Errorf("lcv: %w", err)
			}
			model, err := l.learner.Train(rest, nil)
			if err != nil {
				return fmt.Errorf("lcv: leave-one-out retrain: %w", err)
			}
			pred, err := model.Predict(nbrs[i].Example)
			if err != nil {
				return fmt.Errorf("lcv: leave-one-out predict: %w", err)
			}
			errs[i] = math.Abs(nbrs[i].Example.Label - pred)
			weights[i] = math.Exp(-nbrs[i].Distance)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var weightedErr, weightSum float64
	for i := range errs {
		weightedErr += errs[i] * weights[i]
		weightSum += weights[i]
	}

	// Zero weight sum (all neighbours infinitely far) is defined as
	// estimate 0, not a division fault.
	lcv := 0.0
	if weightSum != 0 {
		lcv = weightedErr / weightSum
	}
	return []Estimate{{Value: lcv, Sign: Absolute, Method: MethodLCVAbsolute}}, nil
}
