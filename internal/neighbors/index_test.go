package neighbors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relest/internal/dataset"
)

func grid(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.New([]dataset.Example{
		{Features: []float64{0, 0}, Label: 0},
		{Features: []float64{1, 0}, Label: 1},
		{Features: []float64{0, 2}, Label: 2},
		{Features: []float64{3, 4}, Label: 3},
	})
	require.NoError(t, err)
	return ds
}

func TestIndex_QueryOrdering(t *testing.T) {
	t.Parallel()
	ix, err := NewIndex(grid(t), Euclidean{})
	require.NoError(t, err)

	nbrs, err := ix.Query([]float64{0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, nbrs, 3)
	assert.Equal(t, 0.0, nbrs[0].Distance)
	assert.Equal(t, 1.0, nbrs[1].Distance)
	assert.Equal(t, 2.0, nbrs[2].Distance)
	assert.Equal(t, 0.0, nbrs[0].Example.Label)
	assert.Equal(t, 1.0, nbrs[1].Example.Label)
	assert.Equal(t, 2.0, nbrs[2].Example.Label)
}

func TestIndex_KClampedToDatasetSize(t *testing.T) {
	t.Parallel()
	ix, err := NewIndex(grid(t), Euclidean{})
	require.NoError(t, err)

	all, err := ix.Query([]float64{0, 0}, 100)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	none, err := ix.Query([]float64{0, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestIndex_RejectsWrongQueryDimension(t *testing.T) {
	t.Parallel()
	ix, err := NewIndex(grid(t), Euclidean{})
	require.NoError(t, err)

	_, err = ix.Query([]float64{0, 0, 0}, 2)
	require.Error(t, err)
	_, err = ix.Query([]float64{0}, 2)
	require.Error(t, err)
}

func TestNewIndex_Validation(t *testing.T) {
	t.Parallel()
	_, err := NewIndex(nil, Euclidean{})
	require.Error(t, err)

	_, err = NewIndex(grid(t), nil)
	require.Error(t, err)
}

func TestEuclidean_KnownDistances(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 5.0, Euclidean{}.Distance([]float64{0, 0}, []float64{3, 4}))
	assert.Equal(t, 0.0, Euclidean{}.Distance([]float64{1, 1}, []float64{1, 1}))
}
