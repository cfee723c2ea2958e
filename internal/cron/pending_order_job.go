package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/atelierhq/atelier-backend/internal/orders"
	"github.com/atelierhq/atelier-backend/pkg/db/models"
	"github.com/atelierhq/atelier-backend/pkg/enums"
	"github.com/atelierhq/atelier-backend/pkg/logger"
	"github.com/atelierhq/atelier-backend/pkg/outbox"
	"github.com/atelierhq/atelier-backend/pkg/outbox/payloads"
)

const defaultPendingOrderTTL = time.Hour

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type outboxExistenceChecker interface {
	Exists(ctx context.Context, eventType enums.OutboxEventType, aggregateType enums.OutboxAggregateType, aggregateID uuid.UUID) (bool, error)
}

type pendingOrderReader interface {
	FindPendingBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error)
}

type transactionalOrderRepo interface {
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	MarkAbandoned(ctx context.Context, orderID uuid.UUID) error
}

type transactionalRepoFactory func(tx *gorm.DB) transactionalOrderRepo

func defaultTransactionalRepo(tx *gorm.DB) transactionalOrderRepo {
	return orders.NewRepository(tx)
}

// PendingOrderJobParams configure the stale pending order sweep.
type PendingOrderJobParams struct {
	Logger                   *logger.Logger
	DB                       txRunner
	PendingReader            pendingOrderReader
	Outbox                   outboxEmitter
	OutboxRepo               outboxExistenceChecker
	TransactionalRepoFactory transactionalRepoFactory
	TTL                      time.Duration
}

// NewPendingOrderJob builds the cron job that abandons orders whose payment
// was never attached or completed.
func NewPendingOrderJob(params PendingOrderJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.PendingReader == nil {
		return nil, fmt.Errorf("pending orders reader required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if params.OutboxRepo == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	repoFactory := params.TransactionalRepoFactory
	if repoFactory == nil {
		repoFactory = defaultTransactionalRepo
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultPendingOrderTTL
	}
	return &pendingOrderJob{
		logg:          params.Logger,
		db:            params.DB,
		pendingReader: params.PendingReader,
		outbox:        params.Outbox,
		outboxRepo:    params.OutboxRepo,
		repoFactory:   repoFactory,
		ttl:           ttl,
		now:           time.Now,
	}, nil
}

type pendingOrderJob struct {
	logg          *logger.Logger
	db            txRunner
	pendingReader pendingOrderReader
	outbox        outboxEmitter
	outboxRepo    outboxExistenceChecker
	repoFactory   transactionalRepoFactory
	ttl           time.Duration
	now           func() time.Time
}

func (j *pendingOrderJob) Name() string { return "pending-order-sweep" }

func (j *pendingOrderJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	stale, err := j.pendingReader.FindPendingBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("query stale pending orders: %w", err)
	}

	var errs []error
	count := 0
	for _, order := range stale {
		if err := j.abandonOrder(ctx, order); err != nil {
			errs = append(errs, err)
			continue
		}
		count++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":    cutoff,
		"abandoned": count,
	})
	j.logg.Info(logCtx, "pending order sweep complete")
	return multierr.Combine(errs...)
}

func (j *pendingOrderJob) abandonOrder(ctx context.Context, order models.Order) error {
	exists, err := j.outboxRepo.Exists(ctx, enums.EventOrderAbandoned, enums.AggregateOrder, order.ID)
	if err != nil {
		return fmt.Errorf("check abandoned event existence: %w", err)
	}
	if exists {
		return nil
	}
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := j.repoFactory(tx)
		current, err := repo.FindByID(ctx, order.ID)
		if err != nil {
			return err
		}
		if current.Status != enums.OrderStatusPending {
			return nil
		}
		if err := repo.MarkAbandoned(ctx, order.ID); err != nil {
			return err
		}
		now := j.now().UTC()
		event := outbox.DomainEvent{
			EventType:     enums.EventOrderAbandoned,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.OrderAbandonedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				UserID:      order.UserID,
				AbandonedAt: now,
			},
		}
		return j.outbox.Emit(ctx, tx, event)
	})
}
