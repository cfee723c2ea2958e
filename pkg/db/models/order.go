package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atelierhq/atelier-backend/pkg/enums"
	"github.com/atelierhq/atelier-backend/pkg/types"
)

// Order is the persisted checkout result. Items, shipping lines, promo and
// payment details are immutable jsonb snapshots taken at order time.
type Order struct {
	ID              uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber     string                     `gorm:"column:order_number;not null;uniqueIndex:idx_orders_order_number"`
	UserID          uuid.UUID                  `gorm:"column:user_id;type:uuid;not null"`
	Status          enums.OrderStatus          `gorm:"column:status;type:order_status;not null;default:'pending'"`
	Currency        enums.Currency             `gorm:"column:currency;type:text;not null;default:'INR'"`
	Items           []types.OrderItem          `gorm:"column:items;type:jsonb;serializer:json;not null"`
	ShippingAddress types.ShippingAddress      `gorm:"column:shipping_address;type:jsonb;serializer:json;not null"`
	ShippingLines   []types.SellerShippingLine `gorm:"column:shipping_lines;type:jsonb;serializer:json"`
	Promo           *types.AppliedPromo        `gorm:"column:promo;type:jsonb;serializer:json"`
	Subtotal        decimal.Decimal            `gorm:"column:subtotal;type:numeric(12,2);not null"`
	ShippingTotal   decimal.Decimal            `gorm:"column:shipping_total;type:numeric(12,2);not null;default:0"`
	TaxTotal        decimal.Decimal            `gorm:"column:tax_total;type:numeric(12,2);not null;default:0"`
	DiscountTotal   decimal.Decimal            `gorm:"column:discount_total;type:numeric(12,2);not null;default:0"`
	Total           decimal.Decimal            `gorm:"column:total;type:numeric(12,2);not null"`
	Payment         *types.PaymentDetails      `gorm:"column:payment;type:jsonb;serializer:json"`
	CreatedAt       time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}
