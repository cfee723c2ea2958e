package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/atelierhq/atelier-backend/pkg/enums"
)

// ShippingProfile groups the zones a seller ships to.
type ShippingProfile struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID  uuid.UUID      `gorm:"column:seller_id;type:uuid;not null"`
	Name      string         `gorm:"column:name;not null"`
	Zones     []ShippingZone `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// ShippingZone lists the destination countries a set of rates applies to.
// RestOfWorld zones match any country and act as the fallback when no
// explicit zone lists the destination.
type ShippingZone struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProfileID   uuid.UUID      `gorm:"column:profile_id;type:uuid;not null"`
	Name        string         `gorm:"column:name;not null"`
	Countries   pq.StringArray `gorm:"column:countries;type:text[];not null;default:ARRAY[]::text[]"`
	RestOfWorld bool           `gorm:"column:rest_of_world;not null;default:false"`
	Position    int            `gorm:"column:position;not null;default:0"`
	Rates       []ShippingRate `gorm:"foreignKey:ZoneID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// ShippingRate is one candidate charge within a zone. Rates are evaluated in
// Position order and the first match wins. MinOrderValue and MaxOrderValue
// bound the seller's basket total for price_based rates; nil means unbounded.
type ShippingRate struct {
	ID            uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ZoneID        uuid.UUID              `gorm:"column:zone_id;type:uuid;not null"`
	Name          string                 `gorm:"column:name;not null"`
	Type          enums.ShippingRateType `gorm:"column:type;type:shipping_rate_type;not null"`
	Amount        decimal.Decimal        `gorm:"column:amount;type:numeric(12,2);not null;default:0"`
	MinOrderValue *decimal.Decimal       `gorm:"column:min_order_value;type:numeric(12,2)"`
	MaxOrderValue *decimal.Decimal       `gorm:"column:max_order_value;type:numeric(12,2)"`
	Position      int                    `gorm:"column:position;not null;default:0"`
	CreatedAt     time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
