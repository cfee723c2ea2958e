package types

import (
	"github.com/shopspring/decimal"

	"github.com/atelierhq/atelier-backend/pkg/enums"
)

// AppliedPromo snapshots the promo code terms and the discount granted at
// checkout time.
type AppliedPromo struct {
	Code         string             `json:"code"`
	DiscountType enums.DiscountType `json:"discount_type"`
	Value        decimal.Decimal    `json:"value"`
	MaxDiscount  *decimal.Decimal   `json:"max_discount,omitempty"`
	Discount     decimal.Decimal    `json:"discount"`
}
