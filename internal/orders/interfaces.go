package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atelierhq/atelier-backend/pkg/db/models"
	"github.com/atelierhq/atelier-backend/pkg/pagination"
	"github.com/atelierhq/atelier-backend/pkg/types"
)

// Repository defines persistence operations for orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	NextOrderNumber(ctx context.Context) (string, error)
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	AttachPaymentDetails(ctx context.Context, orderID uuid.UUID, details *types.PaymentDetails) error
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindByIDAndUser(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
	FindPendingBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error)
	MarkAbandoned(ctx context.Context, orderID uuid.UUID) error
}

// OrderList is one cursor page of a user's orders.
type OrderList struct {
	Orders     []models.Order
	NextCursor string
	HasMore    bool
}
