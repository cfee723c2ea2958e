package cron

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atelierhq/atelier-backend/pkg/db/models"
	"github.com/atelierhq/atelier-backend/pkg/enums"
	"github.com/atelierhq/atelier-backend/pkg/logger"
	"github.com/atelierhq/atelier-backend/pkg/outbox"
	"github.com/atelierhq/atelier-backend/pkg/outbox/payloads"
)

func TestPendingOrderJob_abandonsStaleOrder(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	order := models.Order{
		ID:          uuid.New(),
		OrderNumber: "ORD-000007-TEST",
		UserID:      uuid.New(),
		Status:      enums.OrderStatusPending,
	}
	helper := newPendingOrderJobTest(t, &fakePendingOrderReader{orders: []models.Order{order}})
	helper.job.now = func() time.Time { return now }

	if err := helper.job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantCutoff := now.UTC().Add(-helper.job.ttl)
	if !helper.reader.cutoff.Equal(wantCutoff) {
		t.Fatalf("expected cutoff %s, got %s", wantCutoff, helper.reader.cutoff)
	}
	if len(helper.repo.abandoned) != 1 || helper.repo.abandoned[0] != order.ID {
		t.Fatalf("expected order %s abandoned, got %v", order.ID, helper.repo.abandoned)
	}
	if len(helper.outboxSvc.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(helper.outboxSvc.events))
	}
	event := helper.outboxSvc.events[0]
	if event.EventType != enums.EventOrderAbandoned {
		t.Fatalf("unexpected event type: %s", event.EventType)
	}
	payload, ok := event.Data.(payloads.OrderAbandonedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", event.Data)
	}
	if payload.OrderID != order.ID {
		t.Fatalf("unexpected order id: %s", payload.OrderID)
	}
	if payload.OrderNumber != order.OrderNumber {
		t.Fatalf("unexpected order number: %s", payload.OrderNumber)
	}
	if !payload.AbandonedAt.Equal(now) {
		t.Fatalf("unexpected abandoned time: %s", payload.AbandonedAt)
	}
}

func TestPendingOrderJob_skipsWhenEventAlreadyEmitted(t *testing.T) {
	order := models.Order{
		ID:          uuid.New(),
		OrderNumber: "ORD-000008-TEST",
		UserID:      uuid.New(),
		Status:      enums.OrderStatusPending,
	}
	helper := newPendingOrderJobTest(t, &fakePendingOrderReader{orders: []models.Order{order}})
	helper.outboxRepo.exists = true

	if err := helper.job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(helper.repo.abandoned) != 0 {
		t.Fatalf("expected no abandon calls, got %v", helper.repo.abandoned)
	}
	if len(helper.outboxSvc.events) != 0 {
		t.Fatalf("expected no events, got %d", len(helper.outboxSvc.events))
	}
}

func TestPendingOrderJob_skipsOrdersNoLongerPending(t *testing.T) {
	order := models.Order{
		ID:          uuid.New(),
		OrderNumber: "ORD-000009-TEST",
		UserID:      uuid.New(),
		Status:      enums.OrderStatusPending,
	}
	helper := newPendingOrderJobTest(t, &fakePendingOrderReader{orders: []models.Order{order}})
	// The order was paid between the sweep query and the transaction.
	helper.repo.statusOverride = enums.OrderStatusPaid

	if err := helper.job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(helper.repo.abandoned) != 0 {
		t.Fatalf("expected no abandon calls, got %v", helper.repo.abandoned)
	}
	if len(helper.outboxSvc.events) != 0 {
		t.Fatalf("expected no events, got %d", len(helper.outboxSvc.events))
	}
}

func TestPendingOrderJob_aggregatesPartialFailures(t *testing.T) {
	failing := models.Order{
		ID:          uuid.New(),
		OrderNumber: "ORD-000010-TEST",
		UserID:      uuid.New(),
		Status:      enums.OrderStatusPending,
	}
	healthy := models.Order{
		ID:          uuid.New(),
		OrderNumber: "ORD-000011-TEST",
		UserID:      uuid.New(),
		Status:      enums.OrderStatusPending,
	}
	helper := newPendingOrderJobTest(t, &fakePendingOrderReader{orders: []models.Order{failing, healthy}})
	helper.repo.failFor = failing.ID

	err := helper.job.Run(context.Background())
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	if len(helper.repo.abandoned) != 1 || helper.repo.abandoned[0] != healthy.ID {
		t.Fatalf("expected only %s abandoned, got %v", healthy.ID, helper.repo.abandoned)
	}
	if len(helper.outboxSvc.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(helper.outboxSvc.events))
	}
}

type pendingOrderJobTestHelper struct {
	job        *pendingOrderJob
	reader     *fakePendingOrderReader
	repo       *fakeAbandonRepo
	outboxSvc  *fakeOutboxEmitter
	outboxRepo *fakeOutboxExistence
}

func newPendingOrderJobTest(t *testing.T, reader *fakePendingOrderReader) *pendingOrderJobTestHelper {
	t.Helper()
	outboxSvc := &fakeOutboxEmitter{}
	outboxRepo := &fakeOutboxExistence{}
	repo := &fakeAbandonRepo{}
	jobIface, err := NewPendingOrderJob(PendingOrderJobParams{
		Logger:        logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		DB:            fakeJobTxRunner{},
		PendingReader: reader,
		Outbox:        outboxSvc,
		OutboxRepo:    outboxRepo,
		TTL:           time.Hour,
	})
	if err != nil {
		t.Fatalf("NewPendingOrderJob: %v", err)
	}
	job, ok := jobIface.(*pendingOrderJob)
	if !ok {
		t.Fatalf("expected pendingOrderJob, got %T", jobIface)
	}
	job.repoFactory = func(tx *gorm.DB) transactionalOrderRepo { return repo }
	return &pendingOrderJobTestHelper{
		job:        job,
		reader:     reader,
		repo:       repo,
		outboxSvc:  outboxSvc,
		outboxRepo: outboxRepo,
	}
}

type fakeJobTxRunner struct{}

func (fakeJobTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type fakePendingOrderReader struct {
	cutoff time.Time
	orders []models.Order
}

func (f *fakePendingOrderReader) FindPendingBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error) {
	f.cutoff = cutoff
	return f.orders, nil
}

type fakeOutboxEmitter struct {
	events []outbox.DomainEvent
}

func (f *fakeOutboxEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

type fakeOutboxExistence struct {
	exists bool
}

func (f *fakeOutboxExistence) Exists(ctx context.Context, eventType enums.OutboxEventType, aggregateType enums.OutboxAggregateType, aggregateID uuid.UUID) (bool, error) {
	return f.exists, nil
}

type fakeAbandonRepo struct {
	statusOverride enums.OrderStatus
	failFor        uuid.UUID
	abandoned      []uuid.UUID
	found          map[uuid.UUID]models.Order
}

func (f *fakeAbandonRepo) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order := models.Order{ID: orderID, Status: enums.OrderStatusPending}
	if stored, ok := f.found[orderID]; ok {
		order = stored
	}
	if f.statusOverride != "" {
		order.Status = f.statusOverride
	}
	return &order, nil
}

func (f *fakeAbandonRepo) MarkAbandoned(ctx context.Context, orderID uuid.UUID) error {
	if f.failFor == orderID {
		return fmt.Errorf("abandon %s: connection reset", orderID)
	}
	f.abandoned = append(f.abandoned, orderID)
	return nil
}
