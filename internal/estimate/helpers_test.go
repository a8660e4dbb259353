package estimate

import (
	"fmt"
	"math/rand"
	"sync/atomic"

	"relest/internal/dataset"
	"relest/internal/learner"
)

// meanLearner trains a model that always predicts the mean of its training
// labels. Cheap and fully deterministic, which keeps the retraining-heavy
// estimator tests exact.
type meanLearner struct{}

type meanModel struct{ mean float64 }

func (meanLearner) Train(ds *dataset.Dataset, _ []float64) (learner.Model, error) {
	var sum float64
	for _, l := range ds.Labels() {
		sum += l
	}
	return meanModel{mean: sum / float64(ds.Len())}, nil
}

func (m meanModel) Predict(_ dataset.Example) (float64, error) { return m.mean, nil }

// constLearner trains a model that predicts a fixed value regardless of the
// training data.
type constLearner struct{ value float64 }

type constModel struct{ value float64 }

func (c constLearner) Train(_ *dataset.Dataset, _ []float64) (learner.Model, error) {
	return constModel{value: c.value}, nil
}

func (m constModel) Predict(_ dataset.Example) (float64, error) { return m.value, nil }

// failLearner fails every training call.
type failLearner struct{}

func (failLearner) Train(_ *dataset.Dataset, _ []float64) (learner.Model, error) {
	return nil, fmt.Errorf("synthetic training failure")
}

// countingTestLearner wraps another learner and counts trainings.
type countingTestLearner struct {
	inner  learner.Learner
	trains atomic.Int64
}

func (c *countingTestLearner) Train(ds *dataset.Dataset, w []float64) (learner.Model, error) {
	c.trains.Add(1)
	return c.inner.Train(ds, w)
}

// mockSink records metric callbacks, in the manner of a hand-written mock.
type mockSink struct {
	predictions atomic.Int64
	retrains    atomic.Int64
	durations   atomic.Int64
	selected    atomic.Int64
}

func (m *mockSink) PredictionsInc()                  { m.predictions.Add(1) }
func (m *mockSink) RetrainsInc()                     { m.retrains.Add(1) }
func (m *mockSink) PredictDurationObserve(_ float64) { m.durations.Add(1) }
func (m *mockSink) ICVSelectionSet(id MethodID)      { m.selected.Store(int64(id)) }

// lineDataset returns n examples with label = slope*x and two
// non-collinear features, so feature covariance stays regular.
func lineDataset(n int, slope float64) *dataset.Dataset {
	examples := make([]dataset.Example, n)
	for i := 0; i < n; i++ {
		x := float64(i)
		examples[i] = dataset.Example{
			Features: []float64{x, 0.1 * x * x},
			Label:    slope * x,
		}
	}
	ds, err := dataset.New(examples)
	if err != nil {
		panic(err)
	}
	return ds
}

func testRNG() *rand.Rand { return rand.New(rand.NewSource(42)) }
