package types

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atelierhq/atelier-backend/pkg/enums"
)

// OrderItem is the per-line snapshot persisted with the order. Price is the
// unit price in effect when the order was placed, after any catalog
// re-pricing.
type OrderItem struct {
	ItemID     uuid.UUID       `json:"item_id"`
	ItemType   enums.ItemKind  `json:"item_type"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	SellerID   *uuid.UUID      `json:"seller_id,omitempty"`
	SellerName *string         `json:"seller_name,omitempty"`
}

// LineTotal returns unit price times quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
