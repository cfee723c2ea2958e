package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	pkgerrors "github.com/atelierhq/atelier-backend/pkg/errors"
	"github.com/atelierhq/atelier-backend/pkg/types"
)

type fakeIdempotencyStore struct {
	data     map[string]string
	setCalls int
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{data: map[string]string{}}
}

func (f *fakeIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := f.data[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (f *fakeIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.setCalls++
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = value.(string)
	return true, nil
}

func (f *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "atl:idempotency:" + scope + ":" + id
}

func (f *fakeIdempotencyStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func requestWithPattern(method, pattern, body string) *http.Request {
	req := httptest.NewRequest(method, pattern, strings.NewReader(body))
	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{pattern}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestIdempotencyRouteTTLSelection(t *testing.T) {
	table := []struct {
		name    string
		method  string
		pattern string
		wantTTL time.Duration
		wantOK  bool
	}{
		{name: "promo validate", method: http.MethodPost, pattern: "/api/v1/promo/validate", wantTTL: defaultIdempotencyTTL, wantOK: true},
		{name: "checkout orders", method: http.MethodPost, pattern: "/api/v1/checkout/orders", wantTTL: criticalIdempotencyTTL, wantOK: true},
		{name: "wrong method", method: http.MethodGet, pattern: "/api/v1/checkout/orders", wantOK: false},
		{name: "unmatched route", method: http.MethodPost, pattern: "/api/v1/orders", wantOK: false},
		{name: "empty pattern", method: http.MethodPost, pattern: "", wantOK: false},
	}

	for _, tt := range table {
		t.Run(tt.name, func(t *testing.T) {
			ttl, ok := routeTTL(tt.method, tt.pattern)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if ok && ttl != tt.wantTTL {
				t.Fatalf("expected ttl %s, got %s", tt.wantTTL, ttl)
			}
		})
	}
}

func TestIdempotencyRequiresHeader(t *testing.T) {
	store := newFakeIdempotencyStore()
	calls := 0
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithPattern(http.MethodPost, "/api/v1/checkout/orders", `{"items":[]}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if calls != 0 {
		t.Fatalf("handler must not run without the header, got %d calls", calls)
	}
}

func TestIdempotencyIgnoresUnmatchedRoutes(t *testing.T) {
	store := newFakeIdempotencyStore()
	calls := 0
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithPattern(http.MethodGet, "/api/v1/orders", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected pass-through, got %d", rec.Code)
	}
	if calls != 1 {
		t.Fatalf("expected handler call without a key, got %d", calls)
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newFakeIdempotencyStore()
	calls := 0
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"orderNumber":"ORD-000001-ABC"}}`))
	}))

	body := `{"items":[{"itemId":"x"}]}`
	first := httptest.NewRecorder()
	req := requestWithPattern(http.MethodPost, "/api/v1/checkout/orders", body)
	req.Header.Set("Idempotency-Key", "key-1")
	handler.ServeHTTP(first, req)

	if first.Code != http.StatusCreated {
		t.Fatalf("first request failed with %d", first.Code)
	}
	if store.setCalls != 1 {
		t.Fatalf("expected the response to be stored once, got %d", store.setCalls)
	}

	second := httptest.NewRecorder()
	replay := requestWithPattern(http.MethodPost, "/api/v1/checkout/orders", body)
	replay.Header.Set("Idempotency-Key", "key-1")
	handler.ServeHTTP(second, replay)

	if calls != 1 {
		t.Fatalf("replay must not hit the handler, got %d calls", calls)
	}
	if second.Code != http.StatusCreated {
		t.Fatalf("expected stored status, got %d", second.Code)
	}
	if second.Body.String() != first.Body.String() {
		t.Fatalf("replayed body differs: %s vs %s", second.Body.String(), first.Body.String())
	}
	if ct := second.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected stored content type, got %q", ct)
	}
}

func TestIdempotencyRejectsBodyChange(t *testing.T) {
	store := newFakeIdempotencyStore()
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{}}`))
	}))

	first := httptest.NewRecorder()
	req := requestWithPattern(http.MethodPost, "/api/v1/checkout/orders", `{"items":[1]}`)
	req.Header.Set("Idempotency-Key", "key-2")
	handler.ServeHTTP(first, req)

	second := httptest.NewRecorder()
	conflicting := requestWithPattern(http.MethodPost, "/api/v1/checkout/orders", `{"items":[2]}`)
	conflicting.Header.Set("Idempotency-Key", "key-2")
	handler.ServeHTTP(second, conflicting)

	if second.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", second.Code)
	}
	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(second.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeIdempotency) {
		t.Fatalf("expected code %s, got %s", pkgerrors.CodeIdempotency, envelope.Error.Code)
	}
}
