package catalog

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierhq/atelier-backend/pkg/db/models"
	"github.com/atelierhq/atelier-backend/pkg/enums"
	pkgerrors "github.com/atelierhq/atelier-backend/pkg/errors"
	"github.com/atelierhq/atelier-backend/pkg/logger"
)

type stubCatalogRepo struct {
	mu        sync.Mutex
	lookups   int
	products  map[uuid.UUID]*models.Product
	courses   map[uuid.UUID]*models.Course
	workshops map[uuid.UUID]*models.Workshop
}

func (s *stubCatalogRepo) countLookup() {
	s.mu.Lock()
	s.lookups++
	s.mu.Unlock()
}

func (s *stubCatalogRepo) lookupCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookups
}

func (s *stubCatalogRepo) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	s.countLookup()
	if p, ok := s.products[id]; ok {
		return p, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func (s *stubCatalogRepo) FindCourse(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	s.countLookup()
	if c, ok := s.courses[id]; ok {
		return c, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "course not found")
}

func (s *stubCatalogRepo) FindWorkshop(ctx context.Context, id uuid.UUID) (*models.Workshop, error) {
	s.countLookup()
	if w, ok := s.workshops[id]; ok {
		return w, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "workshop not found")
}

func newStubRepo() *stubCatalogRepo {
	return &stubCatalogRepo{
		products:  map[uuid.UUID]*models.Product{},
		courses:   map[uuid.UUID]*models.Course{},
		workshops: map[uuid.UUID]*models.Workshop{},
	}
}

func newTestResolver(t *testing.T, repo Repository) *Resolver {
	t.Helper()
	r, err := NewResolver(repo, logger.New(logger.Options{Output: io.Discard}), nil)
	require.NoError(t, err)
	return r
}

func TestResolveOverridesClientValuesFromCatalog(t *testing.T) {
	repo := newStubRepo()
	seller := &models.Seller{ID: uuid.New(), Name: "Studio A"}
	productID := uuid.New()
	repo.products[productID] = &models.Product{
		ID:       productID,
		SellerID: seller.ID,
		Seller:   seller,
		Name:     "Ceramic Vase",
		Price:    decimal.RequireFromString("75"),
	}
	r := newTestResolver(t, repo)

	items, err := r.Resolve(context.Background(), []ItemInput{{
		ItemID:   productID,
		ItemType: enums.ItemKindProduct,
		Name:     "stale client name",
		Quantity: 2,
		Price:    decimal.RequireFromString("1"),
	}})
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Equal(t, "Ceramic Vase", items[0].Name)
	assert.True(t, items[0].Price.Equal(decimal.RequireFromString("75")))
	require.NotNil(t, items[0].SellerID)
	assert.Equal(t, seller.ID, *items[0].SellerID)
	require.NotNil(t, items[0].SellerName)
	assert.Equal(t, "Studio A", *items[0].SellerName)
}

func TestResolveKeepsClientValuesOnLookupMiss(t *testing.T) {
	r := newTestResolver(t, newStubRepo())

	items, err := r.Resolve(context.Background(), []ItemInput{{
		ItemID:   uuid.New(),
		ItemType: enums.ItemKindCourse,
		Name:     "Intro to Throwing",
		Quantity: 1,
		Price:    decimal.RequireFromString("50"),
	}})
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Equal(t, "Intro to Throwing", items[0].Name)
	assert.True(t, items[0].Price.Equal(decimal.RequireFromString("50")))
	assert.Nil(t, items[0].SellerID)
}

func TestResolvePreservesInputOrder(t *testing.T) {
	repo := newStubRepo()
	ids := make([]uuid.UUID, 5)
	for i := range ids {
		ids[i] = uuid.New()
		repo.courses[ids[i]] = &models.Course{
			ID:    ids[i],
			Name:  "Course",
			Price: decimal.NewFromInt(int64(i + 1)),
		}
	}
	r := newTestResolver(t, repo)

	inputs := make([]ItemInput, len(ids))
	for i, id := range ids {
		inputs[i] = ItemInput{ItemID: id, ItemType: enums.ItemKindCourse, Quantity: 1}
	}

	items, err := r.Resolve(context.Background(), inputs)
	require.NoError(t, err)
	require.Len(t, items, len(ids))
	for i := range ids {
		assert.Equal(t, ids[i], items[i].ItemID)
		assert.True(t, items[i].Price.Equal(decimal.NewFromInt(int64(i+1))))
	}
}

func TestResolveValidatesInput(t *testing.T) {
	r := newTestResolver(t, newStubRepo())

	_, err := r.Resolve(context.Background(), nil)
	require.Error(t, err)

	_, err = r.Resolve(context.Background(), []ItemInput{{
		ItemID:   uuid.New(),
		ItemType: enums.ItemKind("gadget"),
		Quantity: 1,
	}})
	require.Error(t, err)

	_, err = r.Resolve(context.Background(), []ItemInput{{
		ItemID:   uuid.New(),
		ItemType: enums.ItemKindProduct,
		Quantity: 0,
	}})
	require.Error(t, err)
}

func TestResolveRejectsBeforeAnyLookup(t *testing.T) {
	repo := newStubRepo()
	productID := uuid.New()
	repo.products[productID] = &models.Product{
		ID:    productID,
		Name:  "Print",
		Price: decimal.RequireFromString("20"),
	}
	r := newTestResolver(t, repo)

	// The valid line comes first; the bad one must still stop the whole
	// cart before any repository call is issued.
	_, err := r.Resolve(context.Background(), []ItemInput{
		{ItemID: productID, ItemType: enums.ItemKindProduct, Quantity: 1},
		{ItemID: uuid.New(), ItemType: enums.ItemKindProduct, Quantity: 0},
	})
	require.Error(t, err)
	assert.Equal(t, 0, repo.lookupCount())
}
