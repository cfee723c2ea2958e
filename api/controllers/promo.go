package controllers

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/atelierhq/atelier-backend/api/responses"
	"github.com/atelierhq/atelier-backend/api/validators"
	"github.com/atelierhq/atelier-backend/internal/promo"
	pkgerrors "github.com/atelierhq/atelier-backend/pkg/errors"
	"github.com/atelierhq/atelier-backend/pkg/logger"
)

type promoEvaluator interface {
	Evaluate(ctx context.Context, code string, subtotal decimal.Decimal) (*promo.Evaluation, error)
}

// ValidatePromo previews a promo code against a hypothetical subtotal
// without consuming a usage slot.
func ValidatePromo(evaluator promoEvaluator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if evaluator == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promo evaluator unavailable"))
			return
		}

		var payload promoValidateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		subtotal, err := decimal.NewFromString(payload.Subtotal)
		if err != nil || subtotal.IsNegative() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "subtotal must be a non-negative decimal"))
			return
		}

		evaluation, err := evaluator.Evaluate(r.Context(), payload.Code, subtotal)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		applied := evaluation.Applied
		responses.WriteSuccess(w, map[string]any{
			"code":          applied.Code,
			"discount_type": string(applied.DiscountType),
			"discount":      applied.Discount.StringFixed(2),
		})
	}
}

type promoValidateRequest struct {
	Code     string `json:"code" validate:"required,max=64"`
	Subtotal string `json:"subtotal" validate:"required"`
}
