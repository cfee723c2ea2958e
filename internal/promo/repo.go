package promo

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atelierhq/atelier-backend/internal/repo"
	"github.com/atelierhq/atelier-backend/pkg/db/models"
	pkgerrors "github.com/atelierhq/atelier-backend/pkg/errors"
)

// Repository exposes promo code persistence.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*models.PromoCode, error)
	ConsumeUsage(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type gormRepository struct {
	repo.Base
}

// NewRepository builds a promo repository backed by the provided GORM handle.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(db)}
}

func (r *gormRepository) FindByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	var promo models.PromoCode
	err := r.DB(ctx).Where("code = ?", normalized).First(&promo).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodePromoInvalid, "promo code not found")
		}
		return nil, err
	}
	return &promo, nil
}

// ConsumeUsage advances used_count atomically. The guard keeps concurrent
// checkouts from blowing past the usage limit.
func (r *gormRepository) ConsumeUsage(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	result := tx.WithContext(ctx).Model(&models.PromoCode{}).
		Where("id = ? AND (usage_limit = 0 OR used_count < usage_limit)", id).
		Update("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodePromoLimit, "promo code usage limit reached")
	}
	return nil
}
