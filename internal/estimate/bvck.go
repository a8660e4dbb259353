package estimate

import (
	"context"
	"fmt"
	"math/rand"

	"relest/internal/dataset"
	"relest/internal/learner"
)

// BVCK composes BaggingVariance and CNeighbours: its estimate is the
// average of the BAGV and absolute CNK values. For traceability it emits
// the composite first, then the full output of both sub-estimators.
type BVCK struct {
	Bagging *BaggingVariance
	CNK     *CNeighbours
}

// NewBVCK returns the composite with the given bagging ensemble size and
// CNK neighbour count.
func NewBVCK(baggingSize, cnkNeighbors int) *BVCK {
	return &BVCK{
		Bagging: NewBaggingVariance(baggingSize),
		CNK:     NewCNeighbours(cnkNeighbors),
	}
}

func (b *BVCK) Name() string { return "BVCK" }

type bvckInstance struct {
	bagging Instance
	cnk     Instance
}

// Build builds both sub-estimators under their own contracts.
func (b *BVCK) Build(ctx context.Context, ds *dataset.Dataset, l learner.Learner, rng *rand.Rand) (Instance, error) {
	bagging, err := b.Bagging.Build(ctx, ds, l, rng)
	if err != nil {
		return nil, fmt.Errorf("bvck: %w", err)
	}
	cnk, err := b.CNK.Build(ctx, ds, l, rng)
	if err != nil {
		return nil, fmt.Errorf("bvck: %w", err)
	}
	return &bvckInstance{bagging: bagging, cnk: cnk}, nil
}

func (b *bvckInstance) Estimates(ctx context.Context, ex dataset.Example, predicted float64) ([]Estimate, error) {
	bagv, err := b.bagging.Estimates(ctx, ex, predicted)
	if err != nil {
		return nil, err
	}
	cnk, err := b.cnk.Estimates(ctx, ex, predicted)
	if err != nil {
		return nil, err
	}
	// bagv[0] is BAGV absolute, cnk[1] is CNK absolute.
	bvck := (bagv[0].Value + cnk[1].Value) / 2

	out := make([]Estimate, 0, 1+len(bagv)+len(cnk))
	out = append(out, Estimate{Value: bvck, Sign: Absolute, Method: MethodBVCKAbsolute})
	out = append(out, bagv...)
	out = append(out, cnk...)
	return out, nil
}
