package estimate

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"relest/internal/cv"
	"relest/internal/dataset"
	"relest/internal/learner"
)

// CrossValidate evaluates a reliability configuration over k folds: for
// each fold a fresh model is trained on the remaining folds and predicts
// every held-out example. Folds run in parallel; each is independent. The
// partition is drawn from rng, so a fixed seed fixes the folds.
func CrossValidate(ctx context.Context, ds *dataset.Dataset, l learner.Learner, cfg Config, folds int, rng *rand.Rand) ([]FoldResult, error) {
	return CrossValidateWithMetrics(ctx, ds, l, cfg, folds, rng, nil)
}

// CrossValidateWithMetrics is CrossValidate with an operational metrics
// sink attached to every per-fold model.
func CrossValidateWithMetrics(ctx context.Context, ds *dataset.Dataset, l learner.Learner, cfg Config, folds int, rng *rand.Rand, sink MetricsSink) ([]FoldResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	parts, err := cv.Partition(ds.Len(), folds, rng)
	if err != nil {
		return nil, err
	}

	out := make([]FoldResult, len(parts))
	g, gctx := errgroup.WithContext(ctx)
	for f, held := range parts {
		f, held := f, held
		g.Go(func() error {
			trainDS, err := ds.Select(cv.Complement(ds.Len(), held))
			if err != nil {
				return fmt.Errorf("estimate: fold %d training set: %w", f, err)
			}
			model, err := TrainWithMetrics(gctx, trainDS, l, cfg, sink)
			if err != nil {
				return fmt.Errorf("estimate: fold %d: %w", f, err)
			}
			fr := FoldResult{
				Results: make([]PredictionResult, len(held)),
				Actual:  make([]float64, len(held)),
			}
			for i, idx := range held {
				ex := ds.Example(idx)
				res, err := model.Predict(gctx, ex)
				if err != nil {
					return fmt.Errorf("estimate: fold %d example %d: %w", f, idx, err)
				}
				fr.Results[i] = res
				fr.Actual[i] = ex.Label
			}
			out[f] = fr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// SelectMethod performs internal cross-validation: it cross-validates the
// estimators in cfg.ICVSearch over cfg.Folds folds of the training data,
// averages each method's per-fold correlation with the observed error, and
// returns the method id with the highest average. Methods whose average is
// NaN (degenerate estimate series) can never win. Rejected before any
// training when the fold count is below 2 or the search set is empty.
func SelectMethod(ctx context.Context, ds *dataset.Dataset, l learner.Learner, cfg Config) (MethodID, error) {
	if cfg.Folds < 2 {
		return -1, fmt.Errorf("estimate: ICV fold count must be at least 2, got %d", cfg.Folds)
	}
	if !cfg.ICVSearch.Any() {
		return -1, fmt.Errorf("estimate: ICV search set is empty")
	}

	search := cfg
	search.Use = cfg.ICVSearch
	search.ICV = false

	rng := rand.New(rand.NewSource(cfg.Seed))
	folds, err := CrossValidate(ctx, ds, l, search, cfg.Folds, rng)
	if err != nil {
		return -1, err
	}

	// Sum per-fold correlations per method; summation is commutative, so
	// fold completion order cannot change the outcome.
	sums := make(map[MethodID]float64)
	for _, fold := range folds {
		for pos, est := range fold.Results[0].Estimates {
			r := pearson(estimateSeries(fold.Results, pos), errorSeries(fold.Results, fold.Actual, est.Sign))
			sums[est.Method] += r
		}
	}

	best := MethodID(-1)
	bestAvg := math.Inf(-1)
	for method, sum := range sums {
		avg := sum / float64(len(folds))
		log.Debug().Str("method", method.String()).Float64("avg_r", avg).Msg("ICV candidate")
		if avg > bestAvg {
			best, bestAvg = method, avg
		}
	}
	if best == -1 {
		return -1, fmt.Errorf("estimate: every ICV candidate had degenerate correlation")
	}
	return best, nil
}
