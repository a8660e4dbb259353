// Package metrics provides Prometheus metrics for the reliability
// estimation engine: base-learner retraining volume, prediction latency,
// and internal cross-validation outcomes. The Metrics struct satisfies the
// engine's metrics-sink contract and can be registered on the default or a
// custom registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"relest/internal/estimate"
)

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	Predictions     prometheus.Counter   // Reliability predictions served
	Retrains        prometheus.Counter   // Base-learner trainings, including every estimator retrain
	PredictDuration prometheus.Histogram // End-to-end latency of one prediction with estimates
	ICVSelected     prometheus.Gauge     // Method id chosen by the last ICV run
	DatasetExamples prometheus.Gauge     // Size of the training dataset in use
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics on a custom registry, which keeps tests
// isolated from the global state.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		Predictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "relest_predictions_total",
			Help: "Total number of reliability predictions served",
		}),
		Retrains: factory.NewCounter(prometheus.CounterOpts{
			Name: "relest_base_retrains_total",
			Help: "Total number of base-learner trainings, including estimator-internal retrains",
		}),
		PredictDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "relest_predict_duration_seconds",
			Help:    "Latency of one prediction with all estimates attached",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 12),
		}),
		ICVSelected: factory.NewGauge(prometheus.GaugeOpts{
			Name: "relest_icv_selected_method",
			Help: "Method id selected by the most recent internal cross-validation",
		}),
		DatasetExamples: factory.NewGauge(prometheus.GaugeOpts{
			Name: "relest_dataset_examples",
			Help: "Number of examples in the training dataset",
		}),
	}
}

// PredictionsInc implements estimate.MetricsSink.
func (m *Metrics) PredictionsInc() { m.Predictions.Inc() }

// RetrainsInc implements estimate.MetricsSink.
func (m *Metrics) RetrainsInc() { m.Retrains.Inc() }

// PredictDurationObserve implements estimate.MetricsSink.
func (m *Metrics) PredictDurationObserve(seconds float64) { m.PredictDuration.Observe(seconds) }

// ICVSelectionSet implements estimate.MetricsSink.
func (m *Metrics) ICVSelectionSet(method estimate.MethodID) { m.ICVSelected.Set(float64(method)) }
