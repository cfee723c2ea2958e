package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderCreatedEvent is published when a pending order row is written.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID       `json:"orderId"`
	OrderNumber string          `json:"orderNumber"`
	UserID      uuid.UUID       `json:"userId"`
	Currency    string          `json:"currency"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Shipping    decimal.Decimal `json:"shipping"`
	Tax         decimal.Decimal `json:"tax"`
	Discount    decimal.Decimal `json:"discount"`
	Total       decimal.Decimal `json:"total"`
	ItemCount   int             `json:"itemCount"`
	PromoCode   *string         `json:"promoCode,omitempty"`
}

// OrderPaymentAttachedEvent is published once the gateway order is bound to
// the pending order.
type OrderPaymentAttachedEvent struct {
	OrderID        uuid.UUID `json:"orderId"`
	OrderNumber    string    `json:"orderNumber"`
	UserID         uuid.UUID `json:"userId"`
	GatewayOrderID string    `json:"gatewayOrderId"`
	Amount         int64     `json:"amount"`
	Currency       string    `json:"currency"`
}

// OrderAbandonedEvent is published when the sweep expires a stale pending
// order.
type OrderAbandonedEvent struct {
	OrderID     uuid.UUID `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	UserID      uuid.UUID `json:"userId"`
	AbandonedAt time.Time `json:"abandonedAt"`
}

// PromoRedeemedEvent is published when a promo code usage is consumed at
// checkout.
type PromoRedeemedEvent struct {
	PromoCodeID uuid.UUID       `json:"promoCodeId"`
	Code        string          `json:"code"`
	OrderID     uuid.UUID       `json:"orderId"`
	UserID      uuid.UUID       `json:"userId"`
	Discount    decimal.Decimal `json:"discount"`
}
