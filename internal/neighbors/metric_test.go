package neighbors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relest/internal/dataset"
)

func TestMahalanobis_IdenticalPointsAreZero(t *testing.T) {
	t.Parallel()
	ds, err := dataset.New([]dataset.Example{
		{Features: []float64{0, 1}},
		{Features: []float64{2, 5}},
		{Features: []float64{4, 2}},
		{Features: []float64{6, 9}},
		{Features: []float64{1, 7}},
	})
	require.NoError(t, err)

	m, err := NewMahalanobis(ds)
	require.NoError(t, err)

	assert.InDelta(t, 0.0, m.Distance([]float64{2, 5}, []float64{2, 5}), 1e-12)
}

func TestMahalanobis_SymmetricAndPositive(t *testing.T) {
	t.Parallel()
	ds, err := dataset.New([]dataset.Example{
		{Features: []float64{0, 1}},
		{Features: []float64{2, 5}},
		{Features: []float64{4, 2}},
		{Features: []float64{6, 9}},
		{Features: []float64{1, 7}},
	})
	require.NoError(t, err)

	m, err := NewMahalanobis(ds)
	require.NoError(t, err)

	a, b := []float64{0, 0}, []float64{3, 3}
	assert.InDelta(t, m.Distance(a, b), m.Distance(b, a), 1e-12)
	assert.Positive(t, m.Distance(a, b))
}

func TestMahalanobis_SingularCovarianceRegularized(t *testing.T) {
	t.Parallel()
	// Second feature is an exact multiple of the first, so the sample
	// covariance is singular; the jitter fallback must still produce a
	// usable metric.
	ds, err := dataset.New([]dataset.Example{
		{Features: []float64{1, 2}},
		{Features: []float64{2, 4}},
		{Features: []float64{3, 6}},
		{Features: []float64{4, 8}},
	})
	require.NoError(t, err)

	m, err := NewMahalanobis(ds)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, m.Distance([]float64{1, 2}, []float64{1, 2}), 1e-12)
}
