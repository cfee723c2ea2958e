package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atelierhq/atelier-backend/internal/repo"
	"github.com/atelierhq/atelier-backend/pkg/db/models"
	pkgerrors "github.com/atelierhq/atelier-backend/pkg/errors"
)

// Repository exposes catalog lookups for the three listing kinds.
type Repository interface {
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindCourse(ctx context.Context, id uuid.UUID) (*models.Course, error)
	FindWorkshop(ctx context.Context, id uuid.UUID) (*models.Workshop, error)
}

type gormRepository struct {
	repo.Base
}

// NewRepository builds a catalog repository backed by the provided GORM handle.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(db)}
}

func (r *gormRepository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.DB(ctx).
		Preload("Seller").
		Where("id = ? AND is_active = TRUE", id).
		First(&product).Error
	if err != nil {
		return nil, translateNotFound(err, "product not found")
	}
	return &product, nil
}

func (r *gormRepository) FindCourse(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	var course models.Course
	err := r.DB(ctx).
		Preload("Seller").
		Where("id = ? AND is_active = TRUE", id).
		First(&course).Error
	if err != nil {
		return nil, translateNotFound(err, "course not found")
	}
	return &course, nil
}

func (r *gormRepository) FindWorkshop(ctx context.Context, id uuid.UUID) (*models.Workshop, error) {
	var workshop models.Workshop
	err := r.DB(ctx).
		Preload("Seller").
		Where("id = ? AND is_active = TRUE", id).
		First(&workshop).Error
	if err != nil {
		return nil, translateNotFound(err, "workshop not found")
	}
	return &workshop, nil
}

func translateNotFound(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, message)
	}
	return err
}
