package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atelierhq/atelier-backend/pkg/enums"
	pkgerrors "github.com/atelierhq/atelier-backend/pkg/errors"
	"github.com/atelierhq/atelier-backend/pkg/logger"
	"github.com/atelierhq/atelier-backend/pkg/metrics"
	"github.com/atelierhq/atelier-backend/pkg/types"
)

// ItemInput is the buyer-supplied view of one cart line before the catalog
// confirms it.
type ItemInput struct {
	ItemID   uuid.UUID
	ItemType enums.ItemKind
	Name     string
	Quantity int
	Price    decimal.Decimal
}

// Resolver turns raw cart lines into priced order items. Catalog data wins
// over the client payload; when a lookup fails the client values are kept so
// checkout is not blocked by a stale or missing listing.
type Resolver struct {
	repo    Repository
	logg    *logger.Logger
	metrics *metrics.CheckoutMetrics
}

// NewResolver builds the catalog resolver.
func NewResolver(repo Repository, logg *logger.Logger, m *metrics.CheckoutMetrics) (*Resolver, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Resolver{repo: repo, logg: logg, metrics: m}, nil
}

// Resolve looks up every cart line concurrently and returns order item
// snapshots in the input order.
func (r *Resolver) Resolve(ctx context.Context, items []ItemInput) ([]types.OrderItem, error) {
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
	}

	for _, item := range items {
		if !item.ItemType.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown item type %q", item.ItemType))
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
	}

	resolved := make([]types.OrderItem, len(items))
	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(idx int, input ItemInput) {
			defer wg.Done()
			resolved[idx] = r.resolveOne(ctx, input)
		}(i, item)
	}
	wg.Wait()

	return resolved, nil
}

func (r *Resolver) resolveOne(ctx context.Context, input ItemInput) types.OrderItem {
	item := types.OrderItem{
		ItemID:   input.ItemID,
		ItemType: input.ItemType,
		Name:     input.Name,
		Quantity: input.Quantity,
		Price:    input.Price,
	}

	switch input.ItemType {
	case enums.ItemKindProduct:
		product, err := r.repo.FindProduct(ctx, input.ItemID)
		if err != nil {
			r.logLookupMiss(ctx, input, err)
			return item
		}
		item.Name = product.Name
		item.Price = product.Price
		sellerID := product.SellerID
		item.SellerID = &sellerID
		if product.Seller != nil {
			name := product.Seller.Name
			item.SellerName = &name
		}
	case enums.ItemKindCourse:
		course, err := r.repo.FindCourse(ctx, input.ItemID)
		if err != nil {
			r.logLookupMiss(ctx, input, err)
			return item
		}
		item.Name = course.Name
		item.Price = course.Price
		item.SellerID = course.SellerID
		if course.Seller != nil {
			name := course.Seller.Name
			item.SellerName = &name
		}
	case enums.ItemKindWorkshop:
		workshop, err := r.repo.FindWorkshop(ctx, input.ItemID)
		if err != nil {
			r.logLookupMiss(ctx, input, err)
			return item
		}
		item.Name = workshop.Name
		item.Price = workshop.Price
		item.SellerID = workshop.SellerID
		if workshop.Seller != nil {
			name := workshop.Seller.Name
			item.SellerName = &name
		}
	}

	return item
}

func (r *Resolver) logLookupMiss(ctx context.Context, input ItemInput, err error) {
	r.metrics.IncCatalogMiss(input.ItemType.String())
	logCtx := r.logg.WithFields(ctx, map[string]any{
		"item_id":   input.ItemID.String(),
		"item_type": input.ItemType.String(),
	})
	logCtx = r.logg.WithField(logCtx, "error", err.Error())
	r.logg.Warn(logCtx, "catalog lookup failed, keeping client-provided line")
}
