package shipping

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/atelierhq/atelier-backend/internal/checkout/helpers"
	"github.com/atelierhq/atelier-backend/pkg/db/models"
	"github.com/atelierhq/atelier-backend/pkg/enums"
	"github.com/atelierhq/atelier-backend/pkg/logger"
	"github.com/atelierhq/atelier-backend/pkg/metrics"
	"github.com/atelierhq/atelier-backend/pkg/types"
)

// PlatformPolicy is the default shipping rule for platform-fulfilled groups
// and the fallback when a seller's configuration cannot be resolved.
type PlatformPolicy struct {
	FreeThreshold decimal.Decimal
	FlatRate      decimal.Decimal
}

// Resolver prices shipping per seller group against the destination country.
type Resolver struct {
	repo    Repository
	logg    *logger.Logger
	metrics *metrics.CheckoutMetrics
	policy  PlatformPolicy
}

// NewResolver builds the shipping resolver.
func NewResolver(repo Repository, logg *logger.Logger, m *metrics.CheckoutMetrics, policy PlatformPolicy) (*Resolver, error) {
	if repo == nil {
		return nil, fmt.Errorf("shipping repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Resolver{repo: repo, logg: logg, metrics: m, policy: policy}, nil
}

// ResolveGroup returns the shipping line for one seller group. Groups without
// a physical item ship nothing and cost zero. Resolution failures never fail
// the checkout; the platform policy is applied instead and flagged on the
// line.
func (r *Resolver) ResolveGroup(ctx context.Context, group helpers.SellerGroup, destinationCountry string) types.SellerShippingLine {
	line := types.SellerShippingLine{
		SellerKey:  group.Key,
		SellerID:   group.SellerID,
		SellerName: group.SellerName,
		ItemsTotal: helpers.GroupTotal(group.Items),
	}

	if !helpers.HasPhysicalItems(group.Items) {
		line.RateType = enums.ShippingRateFree
		line.Cost = decimal.Zero
		return line
	}

	if group.SellerID == nil {
		r.applyPlatformPolicy(&line, false)
		return line
	}

	profile, err := r.repo.FindProfileForSeller(ctx, *group.SellerID)
	if err != nil {
		r.warnFallback(ctx, group, "shipping profile lookup failed", err)
		r.applyPlatformPolicy(&line, true)
		return line
	}

	zone := matchZone(profile.Zones, destinationCountry)
	if zone == nil {
		r.warnFallback(ctx, group, "no shipping zone matches destination", nil)
		r.applySafeDefault(&line)
		return line
	}
	line.ZoneName = zone.Name

	rate := matchRate(zone.Rates, line.ItemsTotal)
	if rate == nil {
		r.warnFallback(ctx, group, "no shipping rate matches basket total", nil)
		r.applySafeDefault(&line)
		return line
	}

	line.RateType = rate.Type
	switch rate.Type {
	case enums.ShippingRateFree:
		line.Cost = decimal.Zero
	case enums.ShippingRateWeightBased:
		// Weight tiers are not priced yet; the configured amount stands in.
		logCtx := r.logg.WithField(ctx, "seller_key", group.Key)
		r.logg.Warn(logCtx, "weight based shipping rate matched, charging configured amount")
		line.Cost = rate.Amount
	default:
		line.Cost = rate.Amount
	}
	return line
}

func (r *Resolver) applyPlatformPolicy(line *types.SellerShippingLine, fallback bool) {
	line.Fallback = fallback
	if fallback && r.metrics != nil {
		r.metrics.IncShippingFallback()
	}
	if line.ItemsTotal.GreaterThan(r.policy.FreeThreshold) {
		line.RateType = enums.ShippingRateFree
		line.Cost = decimal.Zero
		return
	}
	line.RateType = enums.ShippingRateFlat
	line.Cost = r.policy.FlatRate
}

// applySafeDefault charges the flat platform rate when a profile exists but
// no zone or rate admits the destination.
func (r *Resolver) applySafeDefault(line *types.SellerShippingLine) {
	line.Fallback = true
	if r.metrics != nil {
		r.metrics.IncShippingFallback()
	}
	line.RateType = enums.ShippingRateFlat
	line.Cost = r.policy.FlatRate
}

func (r *Resolver) warnFallback(ctx context.Context, group helpers.SellerGroup, msg string, err error) {
	logCtx := r.logg.WithField(ctx, "seller_key", group.Key)
	if err != nil {
		logCtx = r.logg.WithField(logCtx, "error", err.Error())
	}
	r.logg.Warn(logCtx, msg+", falling back to platform rates")
}

// restOfWorldZoneName is matched literally, independent of the flag, so
// legacy profiles that only carry the magic zone name still resolve.
const restOfWorldZoneName = "Rest of World"

// matchZone picks the first zone listing the destination country, then the
// first rest-of-world zone.
func matchZone(zones []models.ShippingZone, destinationCountry string) *models.ShippingZone {
	dest := strings.TrimSpace(destinationCountry)
	for i := range zones {
		for _, country := range zones[i].Countries {
			if strings.EqualFold(strings.TrimSpace(country), dest) {
				return &zones[i]
			}
		}
	}
	for i := range zones {
		if zones[i].RestOfWorld || zones[i].Name == restOfWorldZoneName {
			return &zones[i]
		}
	}
	return nil
}

// matchRate returns the first rate whose condition holds. Free and flat
// rates always match. Price based rates bound the basket total, with open
// bounds defaulting to zero and infinity. Weight based rates are a declared
// but unpriced condition that always matches.
func matchRate(rates []models.ShippingRate, basketTotal decimal.Decimal) *models.ShippingRate {
	for i := range rates {
		rate := &rates[i]
		switch rate.Type {
		case enums.ShippingRateFree, enums.ShippingRateFlat, enums.ShippingRateWeightBased:
			return rate
		case enums.ShippingRatePriceBased:
			if rate.MinOrderValue != nil && basketTotal.LessThan(*rate.MinOrderValue) {
				continue
			}
			if rate.MaxOrderValue != nil && basketTotal.GreaterThan(*rate.MaxOrderValue) {
				continue
			}
			return rate
		}
	}
	return nil
}
