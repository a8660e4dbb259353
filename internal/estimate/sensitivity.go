package estimate

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"relest/internal/dataset"
	"relest/internal/learner"
)

// SensitivityAnalysis estimates reliability from how the prediction shifts
// when the query itself is added to the training data under perturbed
// pseudo-labels. For each epsilon the query is labelled K ± eps*spread,
// where spread is the label spread |lmax - lmin| of the training data, and
// the base learner is retrained from scratch. This costs 2*len(Epsilons)
// full retrains per query, by far the most expensive method here.
type SensitivityAnalysis struct {
	Epsilons []float64
}

// NewSensitivityAnalysis returns the strategy; a nil or empty epsilon list
// falls back to the reference values {0.01, 0.1, 0.5, 1.0, 2.0}.
func NewSensitivityAnalysis(epsilons []float64) *SensitivityAnalysis {
	if len(epsilons) == 0 {
		epsilons = []float64{0.01, 0.1, 0.5, 1.0, 2.0}
	}
	cp := make([]float64, len(epsilons))
	copy(cp, epsilons)
	return &SensitivityAnalysis{Epsilons: cp}
}

func (s *SensitivityAnalysis) Name() string { return "SensitivityAnalysis" }

type sensitivityInstance struct {
	epsilons []float64
	ds       *dataset.Dataset
	learner  learner.Learner
	spread   float64
}

// Build scans the training labels once for their bounds. The perturbation
// range is defined as the non-negative spread lmax-lmin regardless of
// argument order anywhere upstream.
func (s *SensitivityAnalysis) Build(ctx context.Context, ds *dataset.Dataset, l learner.Learner, _ *rand.Rand) (Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lo, hi := ds.LabelBounds()
	return &sensitivityInstance{
		epsilons: s.Epsilons,
		ds:       ds,
		learner:  l,
		spread:   math.Abs(hi - lo),
	}, nil
}

func (s *sensitivityInstance) Estimates(ctx context.Context, ex dataset.Example, predicted float64) ([]Estimate, error) {
	// The query joins the training set once; each perturbation only
	// relabels that final row.
	extended := s.ds.Append(ex)
	queryIdx := extended.Len() - 1

	kPlus := make([]float64, len(s.epsilons))
	kMinus := make([]float64, len(s.epsilons))

	g, gctx := errgroup.WithContext(ctx)
	for i, eps := range s.epsilons {
		i, eps := i, eps
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			up, err := s.perturbed(extended, queryIdx, ex, predicted+eps*s.spread)
			if err != nil {
				return fmt.Errorf("sensitivity +%v: %w", eps, err)
			}
			down, err := s.perturbed(extended, queryIdx, ex, predicted-eps*s.spread)
			if err != nil {
				return fmt.Errorf("sensitivity -%v: %w", eps, err)
			}
			kPlus[i], kMinus[i] = up, down
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var saVar, saBias float64
	for i := range s.epsilons {
		saVar += kPlus[i] - kMinus[i]
		saBias += kPlus[i] + kMinus[i] - 2*predicted
	}
	saVar /= float64(len(s.epsilons))
	saBias /= 2 * float64(len(s.epsilons))

	return []Estimate{
		{Value: saVar, Sign: Absolute, Method: MethodSAVarAbsolute},
		{Value: saBias, Sign: Signed, Method: MethodSABiasSigned},
		{Value: math.Abs(saBias), Sign: Absolute, Method: MethodSABiasAbsolute},
	}, nil
}

// perturbed retrains the base learner with the query row relabelled and
// returns the fresh model's prediction for the query.
func (s *sensitivityInstance) perturbed(extended *dataset.Dataset, queryIdx int, ex dataset.Example, label float64) (float64, error) {
	relabelled, err := extended.Relabel(queryIdx, label)
	if err != nil {
		return 0, err
	}
	model, err := s.learner.Train(relabelled, nil)
	if err != nil {
		return 0, fmt.Errorf("retrain: %w", err)
	}
	return model.Predict(ex)
}
