package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atelierhq/atelier-backend/pkg/enums"
)

// PromoCode is a redeemable discount. Code is stored uppercase and matched
// case-insensitively. UsedCount is advanced atomically during checkout so
// concurrent redemptions cannot exceed UsageLimit.
type PromoCode struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code         string             `gorm:"column:code;not null;uniqueIndex:idx_promo_codes_code"`
	DiscountType enums.DiscountType `gorm:"column:discount_type;type:discount_type;not null"`
	Value        decimal.Decimal    `gorm:"column:value;type:numeric(12,2);not null"`
	MaxDiscount  *decimal.Decimal   `gorm:"column:max_discount;type:numeric(12,2)"`
	StartsAt     time.Time          `gorm:"column:starts_at;not null"`
	EndsAt       time.Time          `gorm:"column:ends_at;not null"`
	UsageLimit   int                `gorm:"column:usage_limit;not null;default:0"`
	UsedCount    int                `gorm:"column:used_count;not null;default:0"`
	IsActive     bool               `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
