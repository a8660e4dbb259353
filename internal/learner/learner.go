// Package learner defines the base-learner contract the reliability engine
// builds on, together with a k-nearest-neighbours reference regressor. Any
// regression algorithm satisfying Learner can be wrapped; the engine never
// depends on a concrete implementation.
package learner

import (
	"relest/internal/dataset"
)

// Learner trains a regression model on a dataset. Weights may be nil; when
// present it must have one entry per example and implementations are free
// to ignore it if they do not support weighted training.
type Learner interface {
	Train(ds *dataset.Dataset, weights []float64) (Model, error)
}

// Model is a trained regression model. Predict must be safe for concurrent
// use: the reliability estimators query shared models from parallel
// goroutines.
type Model interface {
	Predict(ex dataset.Example) (float64, error)
}
