package estimate

import (
	"fmt"
)

// EstimatorFlags selects which estimation methods are active. One set
// chooses the methods run at inference time, a second independent set
// chooses the methods ICV searches over.
type EstimatorFlags struct {
	SensitivityAnalysis bool
	BaggingVariance     bool
	LocalCV             bool
	CNeighbours         bool
	BVCK                bool
	Mahalanobis         bool
}

// Any reports whether at least one method is selected.
func (f EstimatorFlags) Any() bool {
	return f.SensitivityAnalysis || f.BaggingVariance || f.LocalCV ||
		f.CNeighbours || f.BVCK || f.Mahalanobis
}

// Config is the immutable configuration of a reliability model. Values are
// fixed at Train time; the model never consults process-wide state.
type Config struct {
	// Use selects the estimators run on every prediction, in the fixed
	// order SA, BAGV, LCV, CNK, BVCK, Mahalanobis.
	Use EstimatorFlags

	// ICV enables internal cross-validation; ICVSearch selects the
	// estimators it considers.
	ICV       bool
	ICVSearch EstimatorFlags

	// Sensitivity-analysis perturbation magnitudes, applied to the label
	// spread |lmax - lmin| of the training data.
	Epsilons []float64

	// BaggingSize is the bootstrap ensemble size m.
	BaggingSize int

	LCVNeighbors   int
	CNKNeighbors   int
	MahalNeighbors int

	// Folds is the ICV fold count.
	Folds int

	// Seed drives all bootstrap resampling and fold partitioning.
	Seed int64
}

// Default returns the reference configuration: all estimators except BVCK
// active, ICV off, hyperparameters as in the literature.
func Default() Config {
	return Config{
		Use: EstimatorFlags{
			SensitivityAnalysis: true,
			BaggingVariance:     true,
			LocalCV:             true,
			CNeighbours:         true,
			Mahalanobis:         true,
		},
		ICVSearch: EstimatorFlags{
			SensitivityAnalysis: true,
			BaggingVariance:     true,
			LocalCV:             true,
			CNeighbours:         true,
			Mahalanobis:         true,
		},
		Epsilons:       []float64{0.01, 0.1, 0.5, 1.0, 2.0},
		BaggingSize:    50,
		LCVNeighbors:   5,
		CNKNeighbors:   5,
		MahalNeighbors: 3,
		Folds:          10,
		Seed:           1,
	}
}

// Validate rejects configurations the engine cannot honor. It is called by
// Train before any work starts.
func (c Config) Validate() error {
	if !c.Use.Any() && !c.ICV {
		return fmt.Errorf("estimate: no estimators enabled")
	}
	if c.ICV && !c.ICVSearch.Any() {
		return fmt.Errorf("estimate: ICV enabled with empty search set")
	}
	if c.ICV && c.Folds < 2 {
		return fmt.Errorf("estimate: ICV fold count must be at least 2, got %d", c.Folds)
	}
	needsSA := c.Use.SensitivityAnalysis || (c.ICV && c.ICVSearch.SensitivityAnalysis)
	if needsSA {
		if len(c.Epsilons) == 0 {
			return fmt.Errorf("estimate: sensitivity analysis requires at least one epsilon")
		}
		for _, e := range c.Epsilons {
			if e <= 0 {
				return fmt.Errorf("estimate: sensitivity epsilon must be positive, got %v", e)
			}
		}
	}
	needsBAGV := c.Use.BaggingVariance || c.Use.BVCK || (c.ICV && (c.ICVSearch.BaggingVariance || c.ICVSearch.BVCK))
	if needsBAGV && c.BaggingSize < 1 {
		return fmt.Errorf("estimate: bagging ensemble size must be at least 1, got %d", c.BaggingSize)
	}
	needsLCV := c.Use.LocalCV || (c.ICV && c.ICVSearch.LocalCV)
	if needsLCV && c.LCVNeighbors < 2 {
		return fmt.Errorf("estimate: LCV neighbour count must be at least 2, got %d", c.LCVNeighbors)
	}
	needsCNK := c.Use.CNeighbours || c.Use.BVCK || (c.ICV && (c.ICVSearch.CNeighbours || c.ICVSearch.BVCK))
	if needsCNK && c.CNKNeighbors < 1 {
		return fmt.Errorf("estimate: CNK neighbour count must be at least 1, got %d", c.CNKNeighbors)
	}
	needsMahal := c.Use.Mahalanobis || (c.ICV && c.ICVSearch.Mahalanobis)
	if needsMahal && c.MahalNeighbors < 1 {
		return fmt.Errorf("estimate: Mahalanobis neighbour count must be at least 1, got %d", c.MahalNeighbors)
	}
	return nil
}

// strategies returns the strategy list selected by flags, in the fixed
// configured order.
func (c Config) strategies(flags EstimatorFlags) []Strategy {
	var out []Strategy
	if flags.SensitivityAnalysis {
		out = append(out, NewSensitivityAnalysis(c.Epsilons))
	}
	if flags.BaggingVariance {
		out = append(out, NewBaggingVariance(c.BaggingSize))
	}
	if flags.LocalCV {
		out = append(out, NewLocalCrossValidation(c.LCVNeighbors))
	}
	if flags.CNeighbours {
		out = append(out, NewCNeighbours(c.CNKNeighbors))
	}
	if flags.BVCK {
		out = append(out, NewBVCK(c.BaggingSize, c.CNKNeighbors))
	}
	if flags.Mahalanobis {
		out = append(out, NewMahalanobis(c.MahalNeighbors))
	}
	return out
}

// methodFlag maps a method id to the flag set that would produce it.
// Used to locate the strategy owning an ICV-selected method.
func flagsForMethod(id MethodID) (EstimatorFlags, error) {
	switch id {
	case MethodSAVarAbsolute, MethodSABiasSigned, MethodSABiasAbsolute:
		return EstimatorFlags{SensitivityAnalysis: true}, nil
	case MethodBAGVAbsolute:
		return EstimatorFlags{BaggingVariance: true}, nil
	case MethodLCVAbsolute:
		return EstimatorFlags{LocalCV: true}, nil
	case MethodCNKSigned, MethodCNKAbsolute:
		return EstimatorFlags{CNeighbours: true}, nil
	case MethodBVCKAbsolute:
		return EstimatorFlags{BVCK: true}, nil
	case MethodMahalAbsolute:
		return EstimatorFlags{Mahalanobis: true}, nil
	}
	return EstimatorFlags{}, fmt.Errorf("estimate: method %d has no owning estimator", int(id))
}
