package cfg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Environment variables are process-global, so these tests do not run in
// parallel; t.Setenv enforces that.

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "DATASET_PATH", "LABEL_COLUMN", "DATA_PATH", "METRICS_PORT",
		"KNN_NEIGHBORS", "EVAL_FOLDS", "SEED", "SA_EPSILONS", "BAGGING_SIZE",
		"LCV_NEIGHBORS", "CNK_NEIGHBORS", "MAHAL_NEIGHBORS", "ICV_ENABLED", "ICV_FOLDS",
		"USE_SENSITIVITY", "USE_BAGGING", "USE_LCV", "USE_CNK", "USE_BVCK", "USE_MAHALANOBIS",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("DATASET_PATH", "housing.csv")
	t.Setenv("KNN_NEIGHBORS", "7")
	t.Setenv("EVAL_FOLDS", "5")
	t.Setenv("SEED", "99")
	t.Setenv("BAGGING_SIZE", "25")
	t.Setenv("USE_BVCK", "true")
	t.Setenv("ICV_ENABLED", "true")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "housing.csv", s.DatasetPath)
	assert.Equal(t, -1, s.LabelColumn)
	assert.Equal(t, 7, s.KNNNeighbors)
	assert.Equal(t, 5, s.Folds)
	assert.Equal(t, int64(99), s.Seed)
	assert.Equal(t, int64(99), s.Estimation.Seed)
	assert.Equal(t, 25, s.Estimation.BaggingSize)
	assert.True(t, s.Estimation.Use.BVCK)
	assert.True(t, s.Estimation.ICV)
	assert.Equal(t, 10, s.Estimation.Folds)
}

func TestLoad_FromYAML(t *testing.T) {
	clearConfigEnv(t)
	content := `
dataset:
  path: data/prostate.csv
  labelColumn: 0
learner:
  knnNeighbors: 9
estimators:
  sensitivityAnalysis: false
  epsilons: [0.1, 1.0]
  baggingSize: 30
icv:
  enabled: true
  folds: 4
evaluation:
  folds: 8
  seed: 42
system:
  dataPath: /tmp/relest
  metricsPort: 9100
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("CONFIG_FILE", path)

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "data/prostate.csv", s.DatasetPath)
	assert.Equal(t, 0, s.LabelColumn)
	assert.Equal(t, 9, s.KNNNeighbors)
	assert.Equal(t, 8, s.Folds)
	assert.Equal(t, int64(42), s.Seed)
	assert.False(t, s.Estimation.Use.SensitivityAnalysis)
	assert.True(t, s.Estimation.Use.BaggingVariance)
	assert.Equal(t, []float64{0.1, 1.0}, s.Estimation.Epsilons)
	assert.Equal(t, 30, s.Estimation.BaggingSize)
	assert.True(t, s.Estimation.ICV)
	assert.Equal(t, 4, s.Estimation.Folds)
	assert.Equal(t, "/tmp/relest", s.DataPath)
	assert.Equal(t, 9100, s.MetricsPort)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	clearConfigEnv(t)
	content := `
dataset:
  path: from-yaml.csv
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DATASET_PATH", "from-env.csv")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env.csv", s.DatasetPath)
}

func TestLoad_MissingDatasetPath(t *testing.T) {
	clearConfigEnv(t)
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataset path")
}

func TestLoad_BadConfigFile(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	require.Error(t, err)
}
