package promo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atelierhq/atelier-backend/pkg/db/models"
	"github.com/atelierhq/atelier-backend/pkg/enums"
	pkgerrors "github.com/atelierhq/atelier-backend/pkg/errors"
	"github.com/atelierhq/atelier-backend/pkg/logger"
	"github.com/atelierhq/atelier-backend/pkg/metrics"
	"github.com/atelierhq/atelier-backend/pkg/types"
)

var oneHundred = decimal.NewFromInt(100)

// Evaluation pairs the applied promo snapshot with the row it came from so
// the checkout transaction can consume a usage slot.
type Evaluation struct {
	Applied types.AppliedPromo
	Promo   *models.PromoCode
}

// Evaluator validates promo codes against the order subtotal.
type Evaluator struct {
	repo    Repository
	logg    *logger.Logger
	metrics *metrics.CheckoutMetrics
	now     func() time.Time
}

// NewEvaluator builds the promo evaluator.
func NewEvaluator(repo Repository, logg *logger.Logger, m *metrics.CheckoutMetrics) (*Evaluator, error) {
	if repo == nil {
		return nil, fmt.Errorf("promo repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Evaluator{repo: repo, logg: logg, metrics: m, now: time.Now}, nil
}

// Evaluate resolves the code and computes the discount against the subtotal.
// The discount never exceeds the subtotal and percentage discounts honor the
// configured cap.
func (e *Evaluator) Evaluate(ctx context.Context, code string, subtotal decimal.Decimal) (*Evaluation, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promo code is empty")
	}

	promo, err := e.repo.FindByCode(ctx, normalized)
	if err != nil {
		e.reject("not_found")
		return nil, err
	}

	now := e.now().UTC()
	if !promo.IsActive {
		e.reject("inactive")
		return nil, pkgerrors.New(pkgerrors.CodePromoInvalid, "promo code is inactive")
	}
	if now.Before(promo.StartsAt) || now.After(promo.EndsAt) {
		e.reject("outside_window")
		return nil, pkgerrors.New(pkgerrors.CodePromoInvalid, "promo code is not active right now")
	}
	if promo.UsageLimit > 0 && promo.UsedCount >= promo.UsageLimit {
		e.reject("limit_reached")
		return nil, pkgerrors.New(pkgerrors.CodePromoLimit, "promo code usage limit reached")
	}

	discount := computeDiscount(promo, subtotal)
	applied := types.AppliedPromo{
		Code:         promo.Code,
		DiscountType: promo.DiscountType,
		Value:        promo.Value,
		MaxDiscount:  promo.MaxDiscount,
		Discount:     discount,
	}

	logCtx := e.logg.WithFields(ctx, map[string]any{
		"promo_code": promo.Code,
		"discount":   discount.String(),
	})
	e.logg.Info(logCtx, "promo code applied")

	return &Evaluation{Applied: applied, Promo: promo}, nil
}

func (e *Evaluator) reject(reason string) {
	if e.metrics != nil {
		e.metrics.IncPromoRejected(reason)
	}
}

func computeDiscount(promo *models.PromoCode, subtotal decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch promo.DiscountType {
	case enums.DiscountTypePercentage:
		discount = subtotal.Mul(promo.Value).Div(oneHundred)
		if promo.MaxDiscount != nil && discount.GreaterThan(*promo.MaxDiscount) {
			discount = *promo.MaxDiscount
		}
	case enums.DiscountTypeFlat:
		discount = promo.Value
	default:
		return decimal.Zero
	}

	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	if discount.IsNegative() {
		return decimal.Zero
	}
	return discount.Round(2)
}
