package shipping

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atelierhq/atelier-backend/internal/repo"
	"github.com/atelierhq/atelier-backend/pkg/db/models"
	pkgerrors "github.com/atelierhq/atelier-backend/pkg/errors"
)

// Repository loads seller shipping configuration.
type Repository interface {
	FindProfileForSeller(ctx context.Context, sellerID uuid.UUID) (*models.ShippingProfile, error)
}

type gormRepository struct {
	repo.Base
}

// NewRepository builds a shipping repository backed by the provided GORM handle.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(db)}
}

func (r *gormRepository) FindProfileForSeller(ctx context.Context, sellerID uuid.UUID) (*models.ShippingProfile, error) {
	var seller models.Seller
	if err := r.DB(ctx).Where("id = ?", sellerID).First(&seller).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "seller not found")
		}
		return nil, err
	}
	if seller.ShippingProfileID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "seller has no shipping profile")
	}

	var profile models.ShippingProfile
	err := r.DB(ctx).
		Preload("Zones", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Zones.Rates", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", *seller.ShippingProfileID).
		First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipping profile not found")
		}
		return nil, err
	}
	return &profile, nil
}
