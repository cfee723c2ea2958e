package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Totals is the money breakdown for one order. Every field is rounded to
// two decimal places.
type Totals struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// Calculator applies the tax rate and folds the components into the grand
// total.
type Calculator struct {
	taxRate decimal.Decimal
}

// NewCalculator builds a calculator for the given tax rate, expressed as a
// fraction (0.08 for eight percent).
func NewCalculator(taxRate decimal.Decimal) (*Calculator, error) {
	if taxRate.IsNegative() {
		return nil, fmt.Errorf("tax rate must not be negative, got %s", taxRate)
	}
	return &Calculator{taxRate: taxRate}, nil
}

// Tax returns the tax on the subtotal. Shipping and discounts do not enter
// the taxable base.
func (c *Calculator) Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(c.taxRate).Round(2)
}

// Totalize computes tax from the subtotal and folds everything together.
// The grand total never goes below zero.
func (c *Calculator) Totalize(subtotal, shipping, discount decimal.Decimal) Totals {
	tax := c.Tax(subtotal)
	total := subtotal.Add(shipping).Add(tax).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return Totals{
		Subtotal: subtotal.Round(2),
		Shipping: shipping.Round(2),
		Tax:      tax,
		Discount: discount.Round(2),
		Total:    total.Round(2),
	}
}
