package types

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atelierhq/atelier-backend/pkg/enums"
)

// SellerShippingLine records the shipping charge resolved for one seller
// group, kept on the order for auditability.
type SellerShippingLine struct {
	SellerKey  string                 `json:"seller_key"`
	SellerID   *uuid.UUID             `json:"seller_id,omitempty"`
	SellerName string                 `json:"seller_name"`
	ItemsTotal decimal.Decimal        `json:"items_total"`
	Cost       decimal.Decimal        `json:"cost"`
	RateType   enums.ShippingRateType `json:"rate_type"`
	ZoneName   string                 `json:"zone_name,omitempty"`
	Fallback   bool                   `json:"fallback,omitempty"`
}
