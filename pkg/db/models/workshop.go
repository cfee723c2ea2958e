package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Workshop is a scheduled live session listing. Like courses it ships
// nothing and may be platform-authored.
type Workshop struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID    *uuid.UUID      `gorm:"column:seller_id;type:uuid"`
	Seller      *Seller         `gorm:"foreignKey:SellerID"`
	Name        string          `gorm:"column:name;not null"`
	Description *string         `gorm:"column:description"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	StartsAt    *time.Time      `gorm:"column:starts_at"`
	Capacity    int             `gorm:"column:capacity;not null;default:0"`
	IsActive    bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
