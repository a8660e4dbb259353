// Package estimate implements per-prediction reliability estimation for
// regression models. A reliability Model wraps any base learner and attaches
// to every prediction an ordered list of scalar estimates describing how
// trustworthy that single prediction is, independent of the model's
// aggregate accuracy.
//
// The estimation methods follow Bosnic & Kononenko, "Comparison of
// approaches for estimating reliability of individual regression
// predictions" (2008): sensitivity analysis (SAvar/SAbias), bagging
// variance (BAGV), local cross-validation (LCV), nearest-neighbour label
// difference (CNK), Mahalanobis distance, and the BAGV/CNK composite
// (BVCK). Internal cross-validation (ICV) selects the best of these
// automatically on held-out folds of the training data.
package estimate

import (
	"context"
	"fmt"
	"math/rand"

	"relest/internal/dataset"
	"relest/internal/learner"
)

// Sign says how an estimate relates to prediction error: a Signed estimate
// tracks the signed error, an Absolute estimate tracks its magnitude.
type Sign int

const (
	Signed Sign = iota
	Absolute
)

func (s Sign) String() string {
	if s == Signed {
		return "signed"
	}
	return "absolute"
}

// MethodID identifies one reliability estimation method. The values are
// stable, never reused, and shared with every serialized report.
type MethodID int

const (
	MethodSAVarAbsolute  MethodID = 0
	MethodSABiasSigned   MethodID = 1
	MethodSABiasAbsolute MethodID = 2
	MethodBAGVAbsolute   MethodID = 3
	MethodCNKSigned      MethodID = 4
	MethodCNKAbsolute    MethodID = 5
	MethodLCVAbsolute    MethodID = 6
	MethodBVCKAbsolute   MethodID = 7
	MethodMahalAbsolute  MethodID = 8
	MethodICV            MethodID = 10
)

var methodNames = map[MethodID]string{
	MethodSAVarAbsolute:  "SAvar absolute",
	MethodSABiasSigned:   "SAbias signed",
	MethodSABiasAbsolute: "SAbias absolute",
	MethodBAGVAbsolute:   "BAGV absolute",
	MethodCNKSigned:      "CNK signed",
	MethodCNKAbsolute:    "CNK absolute",
	MethodLCVAbsolute:    "LCV absolute",
	MethodBVCKAbsolute:   "BVCK absolute",
	MethodMahalAbsolute:  "Mahalanobis absolute",
	MethodICV:            "ICV",
}

// String returns the human-readable method name. Looking up an id that is
// not in the registry is a programming error and panics.
func (m MethodID) String() string {
	name, ok := methodNames[m]
	if !ok {
		panic(fmt.Sprintf("estimate: unknown method id %d", int(m)))
	}
	return name
}

// KnownMethod reports whether id is in the registry.
func KnownMethod(id MethodID) bool {
	_, ok := methodNames[id]
	return ok
}

// Estimate is one reliability score attached to one prediction.
type Estimate struct {
	Value  float64
	Sign   Sign
	Method MethodID
}

// PredictionResult is a base prediction together with its ordered estimate
// list. The list ordering equals the configured estimator order and is
// identical for every query under a fixed configuration.
type PredictionResult struct {
	Value     float64
	Estimates []Estimate
}

// FoldResult collects the predictions of one held-out fold with their
// ground-truth labels. Consumed by the correlation diagnostics and ICV.
type FoldResult struct {
	Results []PredictionResult
	Actual  []float64
}

// Strategy builds estimator instances. Build receives the full training
// dataset and the base learner capability rather than a trained model,
// because several methods retrain the learner internally. rng is the only
// source of randomness a strategy may use.
type Strategy interface {
	Name() string
	Build(ctx context.Context, ds *dataset.Dataset, l learner.Learner, rng *rand.Rand) (Instance, error)
}

// Instance is a built estimator. Estimates must be side-effect-free on the
// instance: queries are independent and may run concurrently.
type Instance interface {
	Estimates(ctx context.Context, ex dataset.Example, predicted float64) ([]Estimate, error)
}

// MetricsSink receives operational metrics from the engine. Implementations
// must be safe for concurrent use; a nil sink disables collection.
type MetricsSink interface {
	PredictionsInc()
	RetrainsInc()
	PredictDurationObserve(seconds float64)
	ICVSelectionSet(method MethodID)
}

// countingLearner wraps a base learner so every retraining performed by the
// estimators is visible to the metrics sink.
type countingLearner struct {
	inner learner.Learner
	sink  MetricsSink
}

func (c countingLearner) Train(ds *dataset.Dataset, weights []float64) (learner.Model, error) {
	if c.sink != nil {
		c.sink.RetrainsInc()
	}
	return c.inner.Train(ds, weights)
}
