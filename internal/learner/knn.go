package learner

import (
	"fmt"
	"math"
	"sort"

	"relest/internal/dataset"
)

// KNNRegressor predicts the (optionally weighted) mean label of the K
// nearest training examples under squared Euclidean distance. It is the
// reference base learner used by the CLI and the test suite.
type KNNRegressor struct {
	K int
}

// NewKNN returns a KNNRegressor with the given neighbour count.
func NewKNN(k int) *KNNRegressor {
	if k <= 0 {
		k = 5
	}
	return &KNNRegressor{K: k}
}

type knnModel struct {
	k       int
	ds      *dataset.Dataset
	weights []float64
}

// Train stores the training snapshot; kNN is lazy.
func (l *KNNRegressor) Train(ds *dataset.Dataset, weights []float64) (Model, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, fmt.Errorf("knn: empty training set")
	}
	if weights != nil && len(weights) != ds.Len() {
		return nil, fmt.Errorf("knn: %d weights for %d examples", len(weights), ds.Len())
	}
	return &knnModel{k: l.K, ds: ds, weights: weights}, nil
}

func (m *knnModel) Predict(ex dataset.Example) (float64, error) {
	if len(ex.Features) != m.ds.Dim() {
		return 0, fmt.Errorf("knn: query has %d features, model was trained on %d", len(ex.Features), m.ds.Dim())
	}
	type pair struct {
		d float64
		i int
	}
	k := m.k
	if k > m.ds.Len() {
		k = m.ds.Len()
	}
	nbrs := make([]pair, 0, k+1)
	for i := 0; i < m.ds.Len(); i++ {
		d := euclidSquared(ex.Features, m.ds.Example(i).Features)
		if len(nbrs) < k {
			nbrs = append(nbrs, pair{d, i})
			sort.Slice(nbrs, func(a, b int) bool { return nbrs[a].d < nbrs[b].d })
		} else if d < nbrs[len(nbrs)-1].d {
			nbrs[len(nbrs)-1] = pair{d, i}
			sort.Slice(nbrs, func(a, b int) bool { return nbrs[a].d < nbrs[b].d })
		}
	}

	var sum, wsum float64
	for _, p := range nbrs {
		w := 1.0
		if m.weights != nil {
			w = m.weights[p.i]
		}
		sum += w * m.ds.Example(p.i).Label
		wsum += w
	}
	if wsum == 0 || math.IsNaN(wsum) {
		return 0, fmt.Errorf("knn: degenerate neighbour weights")
	}
	return sum / wsum, nil
}

// euclidSquared avoids the square root; only the ordering matters here.
func euclidSquared(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
