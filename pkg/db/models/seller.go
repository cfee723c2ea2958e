package models

import (
	"time"

	"github.com/google/uuid"
)

// Seller represents a marketplace vendor who lists items and may carry a
// shipping profile for physical goods.
type Seller struct {
	ID                uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name              string           `gorm:"column:name;not null"`
	Email             *string          `gorm:"column:email"`
	Country           string           `gorm:"column:country;not null"`
	IsActive          bool             `gorm:"column:is_active;not null;default:true"`
	ShippingProfileID *uuid.UUID       `gorm:"column:shipping_profile_id;type:uuid"`
	ShippingProfile   *ShippingProfile `gorm:"foreignKey:ShippingProfileID"`
	CreatedAt         time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
