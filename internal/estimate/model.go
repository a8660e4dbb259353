package estimate

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"relest/internal/dataset"
	"relest/internal/learner"
)

// Model is a trained reliability model: the base model trained on the full
// dataset plus one built instance per configured estimator. It is immutable
// after Train and safe for concurrent Predict calls.
type Model struct {
	base      learner.Model
	instances []Instance
	icv       *icvState
	sink      MetricsSink
	dim       int
}

type icvState struct {
	method   MethodID
	instance Instance
}

// Train builds a reliability model: the base learner is trained once on the
// full dataset, then every estimator selected by cfg.Use is built, each
// receiving the dataset and the learner capability (several retrain
// internally). If cfg.ICV is set, internal cross-validation runs first and
// the winning method becomes the model's ICV estimator. Any estimator build
// failure fails construction as a whole: consumers rely on complete,
// positionally stable estimate lists.
func Train(ctx context.Context, ds *dataset.Dataset, l learner.Learner, cfg Config) (*Model, error) {
	return TrainWithMetrics(ctx, ds, l, cfg, nil)
}

// TrainWithMetrics is Train with an operational metrics sink attached.
func TrainWithMetrics(ctx context.Context, ds *dataset.Dataset, l learner.Learner, cfg Config, sink MetricsSink) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if ds == nil || ds.Len() == 0 {
		return nil, fmt.Errorf("estimate: empty training set")
	}

	counted := countingLearner{inner: l, sink: sink}

	var selected MethodID = -1
	if cfg.ICV {
		id, err := SelectMethod(ctx, ds, l, cfg)
		if err != nil {
			return nil, err
		}
		selected = id
		if sink != nil {
			sink.ICVSelectionSet(id)
		}
		log.Info().Str("method", id.String()).Msg("internal cross-validation selected estimator")
	}

	base, err := counted.Train(ds, nil)
	if err != nil {
		return nil, fmt.Errorf("estimate: base model training: %w", err)
	}

	// Builds run sequentially so the shared rng stream is deterministic
	// for a fixed seed; each build parallelizes internally.
	rng := rand.New(rand.NewSource(cfg.Seed))
	strategies := cfg.strategies(cfg.Use)
	instances := make([]Instance, len(strategies))
	built := make(map[string]Instance, len(strategies))
	for i, s := range strategies {
		inst, err := s.Build(ctx, ds, counted, rng)
		if err != nil {
			return nil, fmt.Errorf("estimate: building %s: %w", s.Name(), err)
		}
		instances[i] = inst
		built[s.Name()] = inst
	}

	m := &Model{base: base, instances: instances, sink: sink, dim: ds.Dim()}
	if cfg.ICV {
		ownerFlags, err := flagsForMethod(selected)
		if err != nil {
			return nil, err
		}
		owner := cfg.strategies(ownerFlags)[0]
		inst, ok := built[owner.Name()]
		if !ok {
			inst, err = owner.Build(ctx, ds, counted, rng)
			if err != nil {
				return nil, fmt.Errorf("estimate: building %s for ICV: %w", owner.Name(), err)
			}
		}
		m.icv = &icvState{method: selected, instance: inst}
	}
	return m, nil
}

// SelectedMethod returns the ICV-chosen method id, if ICV was enabled.
func (m *Model) SelectedMethod() (MethodID, bool) {
	if m.icv == nil {
		return -1, false
	}
	return m.icv.method, true
}

// Predict returns the base prediction for ex with the ordered estimate
// list attached. Estimators run in configured order and each one's internal
// emission order is preserved; when ICV is enabled its estimate is appended
// last, tagged MethodICV and carrying the selected method's value. The call
// mutates nothing on the model.
func (m *Model) Predict(ctx context.Context, ex dataset.Example) (PredictionResult, error) {
	if len(ex.Features) != m.dim {
		return PredictionResult{}, fmt.Errorf("estimate: query has %d features, model was trained on %d", len(ex.Features), m.dim)
	}

	start := time.Now()
	if m.sink != nil {
		defer func() { m.sink.PredictDurationObserve(time.Since(start).Seconds()) }()
		m.sink.PredictionsInc()
	}

	predicted, err := m.base.Predict(ex)
	if err != nil {
		return PredictionResult{}, fmt.Errorf("estimate: base prediction: %w", err)
	}

	result := PredictionResult{Value: predicted, Estimates: []Estimate{}}
	byMethod := make(map[MethodID]Estimate)
	for _, inst := range m.instances {
		ests, err := inst.Estimates(ctx, ex, predicted)
		if err != nil {
			return PredictionResult{}, err
		}
		result.Estimates = append(result.Estimates, ests...)
		for _, e := range ests {
			// First occurrence wins: a method emitted both standalone and
			// inside a composite (BAGV/CNK under BVCK) must resolve to the
			// standalone estimator's value.
			if _, seen := byMethod[e.Method]; !seen {
				byMethod[e.Method] = e
			}
		}
	}

	if m.icv != nil {
		chosen, ok := byMethod[m.icv.method]
		if !ok {
			// Selected method is not among the active estimators; run
			// its own instance for this query.
			ests, err := m.icv.instance.Estimates(ctx, ex, predicted)
			if err != nil {
				return PredictionResult{}, err
			}
			for _, e := range ests {
				if e.Method == m.icv.method {
					chosen, ok = e, true
					break
				}
			}
			if !ok {
				return PredictionResult{}, fmt.Errorf("estimate: ICV estimator did not emit %s", m.icv.method)
			}
		}
		result.Estimates = append(result.Estimates, Estimate{
			Value:  chosen.Value,
			Sign:   chosen.Sign,
			Method: MethodICV,
		})
	}
	return result, nil
}
