package estimate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relest/internal/dataset"
)

func allEstimators() EstimatorFlags {
	return EstimatorFlags{
		SensitivityAnalysis: true,
		BaggingVariance:     true,
		LocalCV:             true,
		CNeighbours:         true,
		BVCK:                true,
		Mahalanobis:         true,
	}
}

func testConfig() Config {
	cfg := Default()
	cfg.Use = allEstimators()
	cfg.BaggingSize = 5
	cfg.LCVNeighbors = 3
	cfg.CNKNeighbors = 3
	cfg.MahalNeighbors = 2
	cfg.Epsilons = []float64{0.5, 1.0}
	return cfg
}

func TestModel_EstimateOrderIsStable(t *testing.T) {
	t.Parallel()
	ds := lineDataset(20, 1.5)
	model, err := Train(context.Background(), ds, meanLearner{}, testConfig())
	require.NoError(t, err)

	query := dataset.Example{Features: []float64{7.3, 5.3}}
	first, err := model.Predict(context.Background(), query)
	require.NoError(t, err)
	second, err := model.Predict(context.Background(), query)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	// Fixed configured order: SA (3 estimates), BAGV, LCV, CNK (2),
	// BVCK (4: composite + BAGV + CNK), Mahalanobis.
	want := []MethodID{
		MethodSAVarAbsolute, MethodSABiasSigned, MethodSABiasAbsolute,
		MethodBAGVAbsolute,
		MethodLCVAbsolute,
		MethodCNKSigned, MethodCNKAbsolute,
		MethodBVCKAbsolute, MethodBAGVAbsolute, MethodCNKSigned, MethodCNKAbsolute,
		MethodMahalAbsolute,
	}
	got := make([]MethodID, len(first.Estimates))
	for i, e := range first.Estimates {
		got[i] = e.Method
	}
	assert.Equal(t, want, got)
}

func TestModel_SubsetConfiguration(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.Use = EstimatorFlags{CNeighbours: true, Mahalanobis: true}
	cfg.CNKNeighbors = 3
	cfg.MahalNeighbors = 2

	ds := lineDataset(15, 1)
	model, err := Train(context.Background(), ds, meanLearner{}, cfg)
	require.NoError(t, err)

	res, err := model.Predict(context.Background(), ds.Example(5))
	require.NoError(t, err)
	require.Len(t, res.Estimates, 3)
	assert.Equal(t, MethodCNKSigned, res.Estimates[0].Method)
	assert.Equal(t, MethodCNKAbsolute, res.Estimates[1].Method)
	assert.Equal(t, MethodMahalAbsolute, res.Estimates[2].Method)
}

func TestTrain_BuildFailureFailsWholeModel(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.Use = EstimatorFlags{BaggingVariance: true}
	cfg.BaggingSize = 3

	_, err := Train(context.Background(), lineDataset(10, 1), failLearner{}, cfg)
	require.Error(t, err)
}

func TestTrain_RejectsInvalidConfig(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no estimators", func(c *Config) { c.Use = EstimatorFlags{}; c.ICV = false }},
		{"negative epsilon", func(c *Config) { c.Epsilons = []float64{-0.1} }},
		{"icv folds too small", func(c *Config) { c.ICV = true; c.Folds = 1 }},
		{"lcv k too small", func(c *Config) { c.LCVNeighbors = 1 }},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := testConfig()
			tc.mutate(&cfg)
			_, err := Train(context.Background(), lineDataset(20, 1), meanLearner{}, cfg)
			require.Error(t, err)
		})
	}
}

func TestTrain_CancelledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Train(ctx, lineDataset(20, 1), meanLearner{}, testConfig())
	require.Error(t, err)
}

func TestModel_MetricsSink(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.Use = EstimatorFlags{BaggingVariance: true}
	cfg.BaggingSize = 4

	sink := &mockSink{}
	ds := lineDataset(12, 1)
	model, err := TrainWithMetrics(context.Background(), ds, meanLearner{}, cfg, sink)
	require.NoError(t, err)

	// Base training plus 4 bootstrap trainings.
	assert.Equal(t, int64(5), sink.retrains.Load())

	_, err = model.Predict(context.Background(), ds.Example(0))
	require.NoError(t, err)
	assert.Equal(t, int64(1), sink.predictions.Load())
	assert.Equal(t, int64(1), sink.durations.Load())
}

func TestModel_ICVReusesStandaloneEstimatorValue(t *testing.T) {
	t.Parallel()
	// The standalone BAGV estimator and BVCK's internal one are built from
	// different RNG draws and can disagree. The ICV estimate must carry
	// the standalone value, which is emitted first.
	standalone := stubInstance{ests: []Estimate{
		{Value: 1.0, Sign: Absolute, Method: MethodBAGVAbsolute},
	}}
	composite := stubInstance{ests: []Estimate{
		{Value: 9.0, Sign: Absolute, Method: MethodBVCKAbsolute},
		{Value: 2.0, Sign: Absolute, Method: MethodBAGVAbsolute},
	}}
	model := &Model{
		base:      constModel{value: 0},
		instances: []Instance{standalone, composite},
		icv:       &icvState{method: MethodBAGVAbsolute, instance: standalone},
		dim:       1,
	}

	res, err := model.Predict(context.Background(), dataset.Example{Features: []float64{0}})
	require.NoError(t, err)
	last := res.Estimates[len(res.Estimates)-1]
	require.Equal(t, MethodICV, last.Method)
	assert.Equal(t, 1.0, last.Value)
}

func TestModel_RejectsWrongQueryDimension(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.Use = EstimatorFlags{CNeighbours: true}
	cfg.CNKNeighbors = 3

	ds := lineDataset(15, 1)
	model, err := Train(context.Background(), ds, meanLearner{}, cfg)
	require.NoError(t, err)

	_, err = model.Predict(context.Background(), dataset.Example{Features: []float64{1, 2, 3}})
	require.Error(t, err)
	_, err = model.Predict(context.Background(), dataset.Example{Features: []float64{1}})
	require.Error(t, err)
}

func TestMethodRegistry(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "SAvar absolute", MethodSAVarAbsolute.String())
	assert.Equal(t, "ICV", MethodICV.String())
	assert.True(t, KnownMethod(MethodBVCKAbsolute))
	assert.False(t, KnownMethod(MethodID(9)))

	assert.Panics(t, func() { _ = MethodID(99).String() })
}
