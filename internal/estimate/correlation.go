package estimate

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat"
)

// Correlation reports how well one estimate position tracks the observed
// prediction error: Pearson r with its two-tailed p-value.
type Correlation struct {
	Method MethodID
	Sign   Sign
	R      float64
	P      float64
}

// rEpsilon guards the t transform against r = +-1.
const rEpsilon = 1e-30

// PearsonR returns the Pearson correlation between two equal-length series
// with its two-tailed p-value. A degenerate input (zero variance in either
// series, or fewer than three points) yields (NaN, NaN); that is the
// documented result for constant estimate series, not a failure.
func PearsonR(xs, ys []float64) (r, p float64) {
	r = pearson(xs, ys)
	return r, PValue(r, len(xs))
}

func pearson(xs, ys []float64) float64 {
	if len(xs) != len(ys) || len(xs) < 3 {
		return math.NaN()
	}
	// Detect the degenerate case explicitly rather than relying on the
	// 0/0 inside the correlation.
	if stat.Variance(xs, nil) == 0 || stat.Variance(ys, nil) == 0 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}

// PValue derives the two-tailed p-value for a Pearson coefficient over n
// samples via the t-distribution transform and the regularized incomplete
// beta function. NaN in, NaN out.
func PValue(r float64, n int) float64 {
	df := float64(n - 2)
	if math.IsNaN(r) || df <= 0 {
		return math.NaN()
	}
	t := r * math.Sqrt(df/((1-r+rEpsilon)*(1+r+rEpsilon)))
	return mathext.RegIncBeta(df/2, 0.5, df/(df+t*t))
}

// errorSeries extracts the per-example prediction error matching an
// estimate sign: signed error actual-predicted for Signed estimates, its
// magnitude for Absolute ones.
func errorSeries(results []PredictionResult, actual []float64, sign Sign) []float64 {
	out := make([]float64, len(results))
	for i, res := range results {
		e := actual[i] - res.Value
		if sign == Absolute {
			e = math.Abs(e)
		}
		out[i] = e
	}
	return out
}

// estimateSeries extracts the values at estimate position pos.
func estimateSeries(results []PredictionResult, pos int) []float64 {
	out := make([]float64, len(results))
	for i, res := range results {
		out[i] = res.Estimates[pos].Value
	}
	return out
}

// Diagnose computes, for every estimate position, the Pearson correlation
// between the estimate series and the corresponding error series over a
// collection of predictions with known labels. The estimate lists must all
// share the configuration that produced results[0].
func Diagnose(results []PredictionResult, actual []float64) ([]Correlation, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("estimate: no results to diagnose")
	}
	if len(results) != len(actual) {
		return nil, fmt.Errorf("estimate: %d results but %d labels", len(results), len(actual))
	}
	out := make([]Correlation, len(results[0].Estimates))
	for pos, est := range results[0].Estimates {
		r, p := PearsonR(estimateSeries(results, pos), errorSeries(results, actual, est.Sign))
		out[pos] = Correlation{Method: est.Method, Sign: est.Sign, R: r, P: p}
	}
	return out, nil
}

// DiagnoseByFolds computes the correlation per fold and averages the r
// values across folds; one p-value is then derived from the averaged r and
// the total example count.
func DiagnoseByFolds(folds []FoldResult) ([]Correlation, error) {
	if len(folds) == 0 {
		return nil, fmt.Errorf("estimate: no folds to diagnose")
	}
	for i, fold := range folds {
		if len(fold.Results) == 0 {
			return nil, fmt.Errorf("estimate: fold %d has no results", i)
		}
	}
	nEstimates := len(folds[0].Results[0].Estimates)
	sums := make([]float64, nEstimates)
	total := 0
	for _, fold := range folds {
		total += len(fold.Results)
		for pos, est := range fold.Results[0].Estimates {
			r := pearson(estimateSeries(fold.Results, pos), errorSeries(fold.Results, fold.Actual, est.Sign))
			sums[pos] += r
		}
	}
	out := make([]Correlation, nEstimates)
	for pos, est := range folds[0].Results[0].Estimates {
		r := sums[pos] / float64(len(folds))
		out[pos] = Correlation{Method: est.Method, Sign: est.Sign, R: r, P: PValue(r, total)}
	}
	return out, nil
}
