package estimate

import (
	"context"
	"fmt"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"relest/internal/dataset"
	"relest/internal/learner"
)

// BaggingVariance estimates reliability as the variance of predictions
// across an ensemble of models trained on bootstrap resamples of the
// training data. The ensemble is fixed at build time and shared read-only
// by all queries.
type BaggingVariance struct {
	M int
}

// NewBaggingVariance returns the strategy with ensemble size m (reference
// default 50).
func NewBaggingVariance(m int) *BaggingVariance {
	if m <= 0 {
		m = 50
	}
	return &BaggingVariance{M: m}
}

func (b *BaggingVariance) Name() string { return "BaggingVariance" }

type baggingInstance struct {
	models []learner.Model
}

// Build draws all m bootstrap index sets sequentially from rng, so results
// are reproducible for a fixed seed, then trains the ensemble in parallel.
// Any training failure fails the build as a whole.
func (b *BaggingVariance) Build(ctx context.Context, ds *dataset.Dataset, l learner.Learner, rng *rand.Rand) (Instance, error) {
	if rng == nil {
		return nil, fmt.Errorf("bagging: nil rng")
	}
	n := ds.Len()
	samples := make([][]int, b.M)
	for i := range samples {
		idx := make([]int, n)
		for j := range idx {
			idx[j] = rng.Intn(n)
		}
		samples[i] = idx
	}

	models := make([]learner.Model, b.M)
	g, gctx := errgroup.WithContext(ctx)
	for i := range samples {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			boot, err := ds.Select(samples[i])
			if err != nil {
				return err
			}
			m, err := l.Train(boot, nil)
			if err != nil {
				return fmt.Errorf("bagging: bootstrap model %d: %w", i, err)
			}
			models[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &baggingInstance{models: models}, nil
}

func (b *baggingInstance) Estimates(ctx context.Context, ex dataset.Example, _ float64) ([]Estimate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	preds := make([]float64, len(b.models))
	for i, m := range b.models {
		v, err := m.Predict(ex)
		if err != nil {
			return nil, fmt.Errorf("bagging: bootstrap model %d predict: %w", i, err)
		}
		preds[i] = v
	}

	var mean float64
	for _, v := range preds {
		mean += v
	}
	mean /= float64(len(preds))

	var bagv float64
	for _, v := range preds {
		d := v - mean
		bagv += d * d
	}
	bagv /= float64(len(preds))

	return []Estimate{{Value: bagv, Sign: Absolute, Method: MethodBAGVAbsolute}}, nil
}
