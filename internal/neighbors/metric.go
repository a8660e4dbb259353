package neighbors

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"relest/internal/dataset"
)

// Metric computes the distance between two feature vectors of equal length.
type Metric interface {
	Distance(a, b []float64) float64
}

// Euclidean is the standard L2 metric.
type Euclidean struct{}

func (Euclidean) Distance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Mahalanobis measures distance under the inverse covariance of a training
// dataset, so correlated and differently-scaled features are weighted
// consistently.
type Mahalanobis struct {
	chol mat.Cholesky
}

// NewMahalanobis estimates the feature covariance of ds and factorizes it.
// Singular covariance (constant or linearly dependent features) is handled
// by adding increasing diagonal jitter before giving up.
func NewMahalanobis(ds *dataset.Dataset) (*Mahalanobis, error) {
	n, d := ds.Len(), ds.Dim()
	x := mat.NewDense(n, d, nil)
	for i := 0; i < n; i++ {
		x.SetRow(i, ds.Example(i).Features)
	}
	cov := mat.NewSymDense(d, nil)
	stat.CovarianceMatrix(cov, x, nil)

	m := &Mahalanobis{}
	jitter := 1e-10
	for attempt := 0; attempt < 8; attempt++ {
		if m.chol.Factorize(cov) {
			return m, nil
		}
		for i := 0; i < d; i++ {
			cov.SetSym(i, i, cov.At(i, i)+jitter)
		}
		jitter *= 10
	}
	return nil, fmt.Errorf("mahalanobis: covariance not positive definite after regularization")
}

func (m *Mahalanobis) Distance(a, b []float64) float64 {
	return stat.Mahalanobis(mat.NewVecDense(len(a), a), mat.NewVecDense(len(b), b), &m.chol)
}
