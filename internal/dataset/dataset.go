// Package dataset provides the immutable training-data types shared by the
// base learners and all reliability estimators. A Dataset is a snapshot:
// once built it never changes, so estimators can hold references to it and
// query it concurrently without locking.
package dataset

import (
	"fmt"
	"math"
)

// Example is a single observation: a feature vector and its continuous label.
type Example struct {
	Features []float64
	Label    float64
}

// Dataset is an ordered, immutable collection of examples.
type Dataset struct {
	examples []Example
}

// New builds a dataset from the given examples. The slice is copied, so the
// caller keeps ownership of its argument. All examples must share the same
// feature dimension.
func New(examples []Example) (*Dataset, error) {
	if len(examples) == 0 {
		return nil, fmt.Errorf("dataset must contain at least one example")
	}
	dim := len(examples[0].Features)
	for i, ex := range examples {
		if len(ex.Features) != dim {
			return nil, fmt.Errorf("example %d has %d features, expected %d", i, len(ex.Features), dim)
		}
	}
	cp := make([]Example, len(examples))
	copy(cp, examples)
	return &Dataset{examples: cp}, nil
}

// Len returns the number of examples.
func (d *Dataset) Len() int { return len(d.examples) }

// Dim returns the feature dimension.
func (d *Dataset) Dim() int { return len(d.examples[0].Features) }

// Example returns the example at index i.
func (d *Dataset) Example(i int) Example { return d.examples[i] }

// Labels returns a fresh copy of all labels, in dataset order.
func (d *Dataset) Labels() []float64 {
	out := make([]float64, len(d.examples))
	for i, ex := range d.examples {
		out[i] = ex.Label
	}
	return out
}

// LabelBounds returns the minimum and maximum label over the dataset.
func (d *Dataset) LabelBounds() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, ex := range d.examples {
		lo = math.Min(lo, ex.Label)
		hi = math.Max(hi, ex.Label)
	}
	return lo, hi
}

// Select returns a new dataset containing the examples at the given indices,
// in the given order. Used by bootstrap resampling and fold partitioning.
func (d *Dataset) Select(indices []int) (*Dataset, error) {
	if len(indices) == 0 {
		return nil, fmt.Errorf("selection must contain at least one index")
	}
	out := make([]Example, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(d.examples) {
			return nil, fmt.Errorf("selection index %d out of range [0,%d)", idx, len(d.examples))
		}
		out[i] = d.examples[idx]
	}
	return &Dataset{examples: out}, nil
}

// Drop returns a new dataset with the example at index i removed.
func (d *Dataset) Drop(i int) (*Dataset, error) {
	if len(d.examples) < 2 {
		return nil, fmt.Errorf("cannot drop from a dataset of %d examples", len(d.examples))
	}
	if i < 0 || i >= len(d.examples) {
		return nil, fmt.Errorf("drop index %d out of range [0,%d)", i, len(d.examples))
	}
	out := make([]Example, 0, len(d.examples)-1)
	out = append(out, d.examples[:i]...)
	out = append(out, d.examples[i+1:]...)
	return &Dataset{examples: out}, nil
}

// Append returns a new dataset with ex added at the end. The receiver is
// unchanged; the two datasets share no mutable state.
func (d *Dataset) Append(ex Example) *Dataset {
	out := make([]Example, 0, len(d.examples)+1)
	out = append(out, d.examples...)
	out = append(out, ex)
	return &Dataset{examples: out}
}

// Relabel returns a new dataset identical to the receiver except that the
// label of the example at index i is replaced. Feature slices are shared:
// they are never written to.
func (d *Dataset) Relabel(i int, label float64) (*Dataset, error) {
	if i < 0 || i >= len(d.examples) {
		return nil, fmt.Errorf("relabel index %d out of range [0,%d)", i, len(d.examples))
	}
	out := make([]Example, len(d.examples))
	copy(out, d.examples)
	out[i].Label = label
	return &Dataset{examples: out}, nil
}
