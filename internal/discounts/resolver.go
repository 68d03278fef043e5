package discounts

import (
	"context"
	"fmt"
	"time"

	pkgerrors "github.com/gethsun1/solmarket-backend/pkg/errors"
)

// Resolver answers "what percent off does this product get right now".
// Overlapping discounts collapse to the highest active percent; a product
// with no active discount resolves to zero.
type Resolver interface {
	// ResolveForProducts returns the effective percent per product id at the
	// given instant. Products without an active discount are absent from the
	// result map.
	ResolveForProducts(ctx context.Context, productIDs []int64, at time.Time) (map[int64]int, error)
}

type resolver struct {
	repo DiscountRepository
}

// NewResolver builds a discount resolver backed by the provided repository.
func NewResolver(repo DiscountRepository) (Resolver, error) {
	if repo == nil {
		return nil, fmt.Errorf("discount repository required")
	}
	return &resolver{repo: repo}, nil
}

func (r *resolver) ResolveForProducts(ctx context.Context, productIDs []int64, at time.Time) (map[int64]int, error) {
	if len(productIDs) == 0 {
		return map[int64]int{}, nil
	}

	rows, err := r.repo.ListActiveForProducts(ctx, productIDs, at)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active discounts")
	}

	effective := make(map[int64]int, len(rows))
	for _, row := range rows {
		if row.Percent <= 0 {
			continue
		}
		if current, ok := effective[row.ProductID]; !ok || row.Percent > current {
			effective[row.ProductID] = row.Percent
		}
	}
	return effective, nil
}

// ApplyPercent returns the discounted per-unit price. The discounted price
// is floored so the buyer never pays a fractional lamport up.
func ApplyPercent(priceLamports int64, percent int) int64 {
	if percent <= 0 {
		return priceLamports
	}
	if percent >= 100 {
		return 0
	}
	return priceLamports * int64(100-percent) / 100
}
