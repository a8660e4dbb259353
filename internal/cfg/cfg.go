// Package cfg loads and validates the CLI configuration. A YAML file named
// by CONFIG_FILE is preferred; every value can also come from (or be
// overridden by) environment variables, so containerized runs need no file
// at all.
package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"relest/internal/estimate"
)

// Settings is the resolved, validated runtime configuration.
type Settings struct {
	DatasetPath string
	LabelColumn int // negative means last column
	DataPath    string
	MetricsPort int

	KNNNeighbors int
	Folds        int
	Seed         int64

	Estimation estimate.Config
}

// ConfigFile mirrors the YAML layout.
type ConfigFile struct {
	Dataset struct {
		Path        string `yaml:"path"`
		LabelColumn *int   `yaml:"labelColumn"`
	} `yaml:"dataset"`

	Learner struct {
		KNNNeighbors int `yaml:"knnNeighbors"`
	} `yaml:"learner"`

	Estimators struct {
		SensitivityAnalysis *bool     `yaml:"sensitivityAnalysis"`
		BaggingVariance     *bool     `yaml:"baggingVariance"`
		LocalCV             *bool     `yaml:"localCV"`
		CNeighbours         *bool     `yaml:"cNeighbours"`
		BVCK                *bool     `yaml:"bvck"`
		Mahalanobis         *bool     `yaml:"mahalanobis"`
		Epsilons            []float64 `yaml:"epsilons"`
		BaggingSize         int       `yaml:"baggingSize"`
		LCVNeighbors        int       `yaml:"lcvNeighbors"`
		CNKNeighbors        int       `yaml:"cnkNeighbors"`
		MahalNeighbors      int       `yaml:"mahalNeighbors"`
	} `yaml:"estimators"`

	ICV struct {
		Enabled bool `yaml:"enabled"`
		Folds   int  `yaml:"folds"`
	} `yaml:"icv"`

	Evaluation struct {
		Folds int   `yaml:"folds"`
		Seed  int64 `yaml:"seed"`
	} `yaml:"evaluation"`

	System struct {
		DataPath    string `yaml:"dataPath"`
		MetricsPort int    `yaml:"metricsPort"`
	} `yaml:"system"`
}

// Load resolves settings from the YAML file named by CONFIG_FILE, falling
// back to environment variables only.
func Load() (Settings, error) {
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromYAML(configPath)
	}
	return buildSettings(ConfigFile{})
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	return buildSettings(config)
}

func buildSettings(config ConfigFile) (Settings, error) {
	est := estimate.Default()
	est.Use.SensitivityAnalysis = boolFromEnvOrConfig("USE_SENSITIVITY", config.Estimators.SensitivityAnalysis, est.Use.SensitivityAnalysis)
	est.Use.BaggingVariance = boolFromEnvOrConfig("USE_BAGGING", config.Estimators.BaggingVariance, est.Use.BaggingVariance)
	est.Use.LocalCV = boolFromEnvOrConfig("USE_LCV", config.Estimators.LocalCV, est.Use.LocalCV)
	est.Use.CNeighbours = boolFromEnvOrConfig("USE_CNK", config.Estimators.CNeighbours, est.Use.CNeighbours)
	est.Use.BVCK = boolFromEnvOrConfig("USE_BVCK", config.Estimators.BVCK, est.Use.BVCK)
	est.Use.Mahalanobis = boolFromEnvOrConfig("USE_MAHALANOBIS", config.Estimators.Mahalanobis, est.Use.Mahalanobis)
	est.ICVSearch = est.Use

	if eps := epsilonsFromEnv("SA_EPSILONS"); eps != nil {
		est.Epsilons = eps
	} else if len(config.Estimators.Epsilons) > 0 {
		est.Epsilons = config.Estimators.Epsilons
	}
	est.BaggingSize = intFromEnvOrConfig("BAGGING_SIZE", config.Estimators.BaggingSize, est.BaggingSize)
	est.LCVNeighbors = intFromEnvOrConfig("LCV_NEIGHBORS", config.Estimators.LCVNeighbors, est.LCVNeighbors)
	est.CNKNeighbors = intFromEnvOrConfig("CNK_NEIGHBORS", config.Estimators.CNKNeighbors, est.CNKNeighbors)
	est.MahalNeighbors = intFromEnvOrConfig("MAHAL_NEIGHBORS", config.Estimators.MahalNeighbors, est.MahalNeighbors)

	est.ICV = boolFromEnvOrConfig("ICV_ENABLED", &config.ICV.Enabled, false)
	est.Folds = intFromEnvOrConfig("ICV_FOLDS", config.ICV.Folds, est.Folds)

	seed := int64(intFromEnvOrConfig("SEED", int(config.Evaluation.Seed), 1))
	est.Seed = seed

	labelCol := -1
	if config.Dataset.LabelColumn != nil {
		labelCol = *config.Dataset.LabelColumn
	}
	if v := os.Getenv("LABEL_COLUMN"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			labelCol = i
		}
	}

	settings := Settings{
		DatasetPath:  stringFromEnvOrConfig("DATASET_PATH", config.Dataset.Path),
		LabelColumn:  labelCol,
		DataPath:     stringFromEnvOrConfig("DATA_PATH", config.System.DataPath),
		MetricsPort:  intFromEnvOrConfig("METRICS_PORT", config.System.MetricsPort, 0),
		KNNNeighbors: intFromEnvOrConfig("KNN_NEIGHBORS", config.Learner.KNNNeighbors, 5),
		Folds:        intFromEnvOrConfig("EVAL_FOLDS", config.Evaluation.Folds, 10),
		Seed:         seed,
		Estimation:   est,
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func validateSettings(settings *Settings) error {
	if settings.DatasetPath == "" {
		return fmt.Errorf("dataset path is required (dataset.path or DATASET_PATH)")
	}
	if settings.KNNNeighbors < 1 || settings.KNNNeighbors > 1000 {
		return fmt.Errorf("kNN neighbour count must be between 1 and 1000, got %d", settings.KNNNeighbors)
	}
	if settings.Folds < 2 || settings.Folds > 1000 {
		return fmt.Errorf("evaluation fold count must be between 2 and 1000, got %d", settings.Folds)
	}
	if settings.MetricsPort != 0 && (settings.MetricsPort < 1024 || settings.MetricsPort > 65535) {
		return fmt.Errorf("metrics port must be 0 (disabled) or between 1024 and 65535, got %d", settings.MetricsPort)
	}
	if err := settings.Estimation.Validate(); err != nil {
		return err
	}
	return nil
}

func stringFromEnvOrConfig(key, configValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return configValue
}

func intFromEnvOrConfig(key string, configValue, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	if configValue != 0 {
		return configValue
	}
	return def
}

func boolFromEnvOrConfig(key string, configValue *bool, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	if configValue != nil {
		return *configValue
	}
	return def
}

func epsilonsFromEnv(key string) []float64 {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil
		}
		out = append(out, f)
	}
	return out
}
