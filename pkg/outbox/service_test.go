package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atelierhq/atelier-backend/pkg/db/models"
	"github.com/atelierhq/atelier-backend/pkg/enums"
)

type fakeEventStore struct {
	inserted  []models.OutboxEvent
	insertErr error
	exists    bool
	existsErr error
}

func (f *fakeEventStore) Insert(tx *gorm.DB, event models.OutboxEvent) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, event)
	return nil
}

func (f *fakeEventStore) ExistsTx(tx *gorm.DB, eventType enums.OutboxEventType, aggregateType enums.OutboxAggregateType, aggregateID uuid.UUID) (bool, error) {
	return f.exists, f.existsErr
}

type testEventData struct {
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
}

func TestServiceEmitWrapsPayloadInEnvelope(t *testing.T) {
	store := &fakeEventStore{}
	svc := NewService(store, nil)
	occurredAt := time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC)
	aggregateID := uuid.New()
	actorID := uuid.New()

	err := svc.Emit(context.Background(), &gorm.DB{}, DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   aggregateID,
		Actor:         &ActorRef{UserID: actorID, Role: "buyer"},
		Data:          testEventData{OrderID: "o-1", OrderNumber: "ORD-000001-TEST"},
		Version:       1,
		OccurredAt:    occurredAt,
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(store.inserted) != 1 {
		t.Fatalf("expected 1 row, got %d", len(store.inserted))
	}

	row := store.inserted[0]
	if row.EventType != enums.EventOrderCreated {
		t.Fatalf("unexpected event type: %s", row.EventType)
	}
	if row.AggregateType != enums.AggregateOrder {
		t.Fatalf("unexpected aggregate type: %s", row.AggregateType)
	}
	if row.AggregateID != aggregateID {
		t.Fatalf("unexpected aggregate id: %s", row.AggregateID)
	}

	var envelope PayloadEnvelope
	if err := json.Unmarshal(row.Payload, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Version != 1 {
		t.Fatalf("unexpected envelope version: %d", envelope.Version)
	}
	if _, err := uuid.Parse(envelope.EventID); err != nil {
		t.Fatalf("event id is not a uuid: %q", envelope.EventID)
	}
	if !envelope.OccurredAt.Equal(occurredAt) {
		t.Fatalf("unexpected occurred at: %s", envelope.OccurredAt)
	}
	if envelope.Actor == nil || envelope.Actor.UserID != actorID || envelope.Actor.Role != "buyer" {
		t.Fatalf("actor did not round-trip: %+v", envelope.Actor)
	}

	var data testEventData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.OrderID != "o-1" || data.OrderNumber != "ORD-000001-TEST" {
		t.Fatalf("payload data did not round-trip: %+v", data)
	}
}

func TestServiceEmitStampsOccurredAtWhenMissing(t *testing.T) {
	store := &fakeEventStore{}
	svc := NewService(store, nil)

	before := time.Now()
	err := svc.Emit(context.Background(), &gorm.DB{}, DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Data:          testEventData{OrderID: "o-2"},
		Version:       1,
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}

	var envelope PayloadEnvelope
	if err := json.Unmarshal(store.inserted[0].Payload, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.OccurredAt.Before(before) {
		t.Fatalf("occurred at was not stamped: %s", envelope.OccurredAt)
	}
}

func TestServiceEmitRequiresTransaction(t *testing.T) {
	svc := NewService(&fakeEventStore{}, nil)
	event := DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
	}
	if err := svc.Emit(context.Background(), nil, event); err == nil {
		t.Fatal("expected transaction error from Emit")
	}
	if err := svc.EmitIfNotExists(context.Background(), nil, event); err == nil {
		t.Fatal("expected transaction error from EmitIfNotExists")
	}
}

func TestServiceEmitIfNotExistsSkipsDuplicates(t *testing.T) {
	store := &fakeEventStore{exists: true}
	svc := NewService(store, nil)

	err := svc.EmitIfNotExists(context.Background(), &gorm.DB{}, DomainEvent{
		EventType:     enums.EventOrderAbandoned,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Data:          testEventData{OrderID: "o-3"},
		Version:       1,
	})
	if err != nil {
		t.Fatalf("emit if not exists: %v", err)
	}
	if len(store.inserted) != 0 {
		t.Fatalf("expected no insert, got %d", len(store.inserted))
	}
}

func TestServiceEmitIfNotExistsInsertsWhenMissing(t *testing.T) {
	store := &fakeEventStore{}
	svc := NewService(store, nil)

	err := svc.EmitIfNotExists(context.Background(), &gorm.DB{}, DomainEvent{
		EventType:     enums.EventOrderAbandoned,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Data:          testEventData{OrderID: "o-4"},
		Version:       1,
	})
	if err != nil {
		t.Fatalf("emit if not exists: %v", err)
	}
	if len(store.inserted) != 1 {
		t.Fatalf("expected 1 insert, got %d", len(store.inserted))
	}
}

func TestServiceEmitIfNotExistsSwallowsInsertRace(t *testing.T) {
	// A concurrent writer can insert the same event between the existence
	// check and the insert; the unique index turns that into a no-op.
	store := &fakeEventStore{
		insertErr: errors.New(`duplicate key value violates unique constraint "ux_outbox_events_event_aggregate"`),
	}
	svc := NewService(store, nil)

	err := svc.EmitIfNotExists(context.Background(), &gorm.DB{}, DomainEvent{
		EventType:     enums.EventOrderAbandoned,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Data:          testEventData{OrderID: "o-5"},
		Version:       1,
	})
	if err != nil {
		t.Fatalf("expected race to be swallowed, got: %v", err)
	}
}
