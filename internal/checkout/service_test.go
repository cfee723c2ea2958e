package checkout

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/atelierhq/atelier-backend/internal/catalog"
	"github.com/atelierhq/atelier-backend/internal/checkout/helpers"
	"github.com/atelierhq/atelier-backend/internal/orders"
	"github.com/atelierhq/atelier-backend/internal/pricing"
	"github.com/atelierhq/atelier-backend/internal/promo"
	"github.com/atelierhq/atelier-backend/pkg/db/models"
	"github.com/atelierhq/atelier-backend/pkg/enums"
	pkgerrors "github.com/atelierhq/atelier-backend/pkg/errors"
	"github.com/atelierhq/atelier-backend/pkg/logger"
	"github.com/atelierhq/atelier-backend/pkg/outbox"
	"github.com/atelierhq/atelier-backend/pkg/pagination"
	"github.com/atelierhq/atelier-backend/pkg/razorpay"
	"github.com/atelierhq/atelier-backend/pkg/types"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubCatalog struct {
	items []types.OrderItem
	err   error
}

func (s *stubCatalog) Resolve(ctx context.Context, items []catalog.ItemInput) ([]types.OrderItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.items, nil
}

type stubShipping struct {
	cost decimal.Decimal
}

func (s *stubShipping) ResolveGroup(ctx context.Context, group helpers.SellerGroup, destinationCountry string) types.SellerShippingLine {
	line := types.SellerShippingLine{
		SellerKey:  group.Key,
		SellerID:   group.SellerID,
		ItemsTotal: helpers.GroupTotal(group.Items),
	}
	if !helpers.HasPhysicalItems(group.Items) {
		line.RateType = enums.ShippingRateFree
		line.Cost = decimal.Zero
		return line
	}
	line.RateType = enums.ShippingRateFlat
	line.Cost = s.cost
	return line
}

type stubPromoEvaluator struct {
	evaluation *promo.Evaluation
	err        error
}

func (s *stubPromoEvaluator) Evaluate(ctx context.Context, code string, subtotal decimal.Decimal) (*promo.Evaluation, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.evaluation, nil
}

type stubPromoConsumer struct {
	consumed []uuid.UUID
	err      error
}

func (s *stubPromoConsumer) ConsumeUsage(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	if s.err != nil {
		return s.err
	}
	s.consumed = append(s.consumed, id)
	return nil
}

type stubOrdersRepo struct {
	created  []*models.Order
	attached map[uuid.UUID]*types.PaymentDetails
	number   int
}

func newStubOrdersRepo() *stubOrdersRepo {
	return &stubOrdersRepo{attached: map[uuid.UUID]*types.PaymentDetails{}}
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) orders.Repository { return s }

func (s *stubOrdersRepo) NextOrderNumber(ctx context.Context) (string, error) {
	s.number++
	return "ORD-000001-TEST", nil
}

func (s *stubOrdersRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	s.created = append(s.created, order)
	return order, nil
}

func (s *stubOrdersRepo) AttachPaymentDetails(ctx context.Context, orderID uuid.UUID, details *types.PaymentDetails) error {
	s.attached[orderID] = details
	return nil
}

func (s *stubOrdersRepo) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (s *stubOrdersRepo) FindByIDAndUser(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (s *stubOrdersRepo) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*orders.OrderList, error) {
	return &orders.OrderList{}, nil
}

func (s *stubOrdersRepo) FindPendingBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error) {
	return nil, nil
}

func (s *stubOrdersRepo) MarkAbandoned(ctx context.Context, orderID uuid.UUID) error {
	return nil
}

type stubGateway struct {
	lastRequest *razorpay.OrderRequest
	err         error
}

func (s *stubGateway) KeyID() string { return "rzp_test_key" }

func (s *stubGateway) CreateOrder(ctx context.Context, params razorpay.OrderRequest) (*razorpay.OrderResponse, error) {
	s.lastRequest = &params
	if s.err != nil {
		return nil, s.err
	}
	return &razorpay.OrderResponse{
		ID:       "order_gw_1",
		Entity:   "order",
		Amount:   params.Amount,
		Currency: params.Currency,
		Receipt:  params.Receipt,
		Status:   "created",
	}, nil
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type serviceFixture struct {
	svc       Service
	ordersRep *stubOrdersRepo
	gateway   *stubGateway
	outbox    *stubOutbox
	consumer  *stubPromoConsumer
}

func newServiceFixture(t *testing.T, cat *stubCatalog, ship *stubShipping, eval *stubPromoEvaluator) *serviceFixture {
	t.Helper()
	calc, err := pricing.NewCalculator(decimal.RequireFromString("0.08"))
	require.NoError(t, err)

	fixture := &serviceFixture{
		ordersRep: newStubOrdersRepo(),
		gateway:   &stubGateway{},
		outbox:    &stubOutbox{},
		consumer:  &stubPromoConsumer{},
	}
	svc, err := NewService(ServiceParams{
		TX:              stubTxRunner{},
		Logger:          logger.New(logger.Options{Output: io.Discard}),
		Catalog:         cat,
		Shipping:        ship,
		Promo:           eval,
		PromoRepo:       fixture.consumer,
		OrdersRepo:      fixture.ordersRep,
		Pricing:         calc,
		Gateway:         fixture.gateway,
		Outbox:          fixture.outbox,
		DefaultCurrency: enums.CurrencyINR,
	})
	require.NoError(t, err)
	fixture.svc = svc
	return fixture
}

func courseItem(price string) types.OrderItem {
	return types.OrderItem{
		ItemID:   uuid.New(),
		ItemType: enums.ItemKindCourse,
		Name:     "Course",
		Quantity: 1,
		Price:    decimal.RequireFromString(price),
	}
}

func productItem(price string, qty int, sellerID *uuid.UUID) types.OrderItem {
	return types.OrderItem{
		ItemID:   uuid.New(),
		ItemType: enums.ItemKindProduct,
		Name:     "Product",
		Quantity: qty,
		Price:    decimal.RequireFromString(price),
		SellerID: sellerID,
	}
}

func basicInput() CheckoutInput {
	return CheckoutInput{
		Items: []catalog.ItemInput{{ItemID: uuid.New(), ItemType: enums.ItemKindCourse, Quantity: 1}},
		ShippingAddress: types.ShippingAddress{
			Name:       "Asha",
			Line1:      "1 Pottery Lane",
			City:       "Pune",
			State:      "MH",
			PostalCode: "411001",
			Country:    "India",
		},
		UserEmail: "asha@example.com",
	}
}

func TestCreateOrderDigitalOnly(t *testing.T) {
	f := newServiceFixture(t,
		&stubCatalog{items: []types.OrderItem{courseItem("50")}},
		&stubShipping{cost: decimal.RequireFromString("15")},
		&stubPromoEvaluator{},
	)

	order, err := f.svc.CreateOrder(context.Background(), uuid.New(), basicInput())
	require.NoError(t, err)

	assert.Equal(t, "50.00", order.Subtotal.StringFixed(2))
	assert.Equal(t, "0.00", order.ShippingTotal.StringFixed(2))
	assert.Equal(t, "4.00", order.TaxTotal.StringFixed(2))
	assert.Equal(t, "54.00", order.Total.StringFixed(2))
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.Equal(t, "ORD-000001-TEST", order.OrderNumber)

	// Gateway amount is in the smallest currency unit.
	require.NotNil(t, f.gateway.lastRequest)
	assert.Equal(t, int64(5400), f.gateway.lastRequest.Amount)
	assert.Equal(t, "INR", f.gateway.lastRequest.Currency)
	assert.Equal(t, order.OrderNumber, f.gateway.lastRequest.Receipt)
	assert.Equal(t, order.UserID.String(), f.gateway.lastRequest.Notes["userId"])
	assert.Equal(t, order.ID.String(), f.gateway.lastRequest.Notes["dbOrderId"])
	assert.Equal(t, "asha@example.com", f.gateway.lastRequest.Notes["userEmail"])

	require.NotNil(t, order.Payment)
	assert.Equal(t, "order_gw_1", order.Payment.GatewayOrderID)
	assert.Equal(t, "rzp_test_key", order.Payment.KeyID)
	assert.Equal(t, enums.PaymentStatusPending, order.Payment.Status)
	assert.Equal(t, enums.PaymentMethodRazorpay, order.Payment.Method)

	// order.created plus payment attached, no promo events.
	require.Len(t, f.outbox.events, 2)
	assert.Equal(t, enums.EventOrderCreated, f.outbox.events[0].EventType)
	assert.Equal(t, enums.EventOrderPaymentAttached, f.outbox.events[1].EventType)
	assert.Empty(t, f.consumer.consumed)
}

func TestCreateOrderChargesFlatShipping(t *testing.T) {
	sellerID := uuid.New()
	f := newServiceFixture(t,
		&stubCatalog{items: []types.OrderItem{productItem("60", 1, &sellerID)}},
		&stubShipping{cost: decimal.RequireFromString("15")},
		&stubPromoEvaluator{},
	)

	order, err := f.svc.CreateOrder(context.Background(), uuid.New(), basicInput())
	require.NoError(t, err)

	assert.Equal(t, "60.00", order.Subtotal.StringFixed(2))
	assert.Equal(t, "15.00", order.ShippingTotal.StringFixed(2))
	assert.Equal(t, "4.80", order.TaxTotal.StringFixed(2))
	assert.Equal(t, "79.80", order.Total.StringFixed(2))
	assert.Equal(t, int64(7980), f.gateway.lastRequest.Amount)
	require.Len(t, order.ShippingLines, 1)
}

func TestCreateOrderAppliesPromo(t *testing.T) {
	promoID := uuid.New()
	evaluation := &promo.Evaluation{
		Applied: types.AppliedPromo{
			Code:         "WELCOME20",
			DiscountType: enums.DiscountTypePercentage,
			Value:        decimal.RequireFromString("20"),
			Discount:     decimal.RequireFromString("10"),
		},
		Promo: &models.PromoCode{ID: promoID, Code: "WELCOME20"},
	}
	f := newServiceFixture(t,
		&stubCatalog{items: []types.OrderItem{courseItem("200")}},
		&stubShipping{cost: decimal.Zero},
		&stubPromoEvaluator{evaluation: evaluation},
	)

	input := basicInput()
	input.PromoCode = "welcome20"
	order, err := f.svc.CreateOrder(context.Background(), uuid.New(), input)
	require.NoError(t, err)

	assert.Equal(t, "10.00", order.DiscountTotal.StringFixed(2))
	assert.Equal(t, "206.00", order.Total.StringFixed(2))
	require.NotNil(t, order.Promo)
	assert.Equal(t, "WELCOME20", order.Promo.Code)
	assert.Equal(t, "WELCOME20", f.gateway.lastRequest.Notes["promoCode"])

	require.Equal(t, []uuid.UUID{promoID}, f.consumer.consumed)
	require.Len(t, f.outbox.events, 3)
	assert.Equal(t, enums.EventPromoRedeemed, f.outbox.events[0].EventType)
	assert.Equal(t, enums.EventOrderCreated, f.outbox.events[1].EventType)
	assert.Equal(t, enums.EventOrderPaymentAttached, f.outbox.events[2].EventType)
}

func TestCreateOrderPromoRejectionAborts(t *testing.T) {
	f := newServiceFixture(t,
		&stubCatalog{items: []types.OrderItem{courseItem("100")}},
		&stubShipping{cost: decimal.Zero},
		&stubPromoEvaluator{err: pkgerrors.New(pkgerrors.CodePromoLimit, "promo code usage limit reached")},
	)

	input := basicInput()
	input.PromoCode = "DEAD"
	_, err := f.svc.CreateOrder(context.Background(), uuid.New(), input)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodePromoLimit, typed.Code())
	assert.Empty(t, f.ordersRep.created)
	assert.Nil(t, f.gateway.lastRequest)
}

func TestCreateOrderGatewayFailureKeepsPendingOrder(t *testing.T) {
	f := newServiceFixture(t,
		&stubCatalog{items: []types.OrderItem{courseItem("50")}},
		&stubShipping{cost: decimal.Zero},
		&stubPromoEvaluator{},
	)
	f.gateway.err = pkgerrors.New(pkgerrors.CodeDependency, "razorpay order creation failed")

	_, err := f.svc.CreateOrder(context.Background(), uuid.New(), basicInput())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDependency, typed.Code())

	// The pending order survives for reconciliation; no payment is attached.
	require.Len(t, f.ordersRep.created, 1)
	assert.Equal(t, enums.OrderStatusPending, f.ordersRep.created[0].Status)
	assert.Empty(t, f.ordersRep.attached)

	// Only the created event was staged.
	require.Len(t, f.outbox.events, 1)
	assert.Equal(t, enums.EventOrderCreated, f.outbox.events[0].EventType)
}

func TestCreateOrderValidatesInput(t *testing.T) {
	f := newServiceFixture(t,
		&stubCatalog{items: []types.OrderItem{courseItem("50")}},
		&stubShipping{cost: decimal.Zero},
		&stubPromoEvaluator{},
	)

	_, err := f.svc.CreateOrder(context.Background(), uuid.Nil, basicInput())
	require.Error(t, err)

	input := basicInput()
	input.Currency = "XYZ"
	_, err = f.svc.CreateOrder(context.Background(), uuid.New(), input)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestCreateOrderTotalNeverNegative(t *testing.T) {
	promoID := uuid.New()
	evaluation := &promo.Evaluation{
		Applied: types.AppliedPromo{
			Code:         "BIG",
			DiscountType: enums.DiscountTypeFlat,
			Value:        decimal.RequireFromString("500"),
			Discount:     decimal.RequireFromString("50"),
		},
		Promo: &models.PromoCode{ID: promoID, Code: "BIG"},
	}
	f := newServiceFixture(t,
		&stubCatalog{items: []types.OrderItem{courseItem("50")}},
		&stubShipping{cost: decimal.Zero},
		&stubPromoEvaluator{evaluation: evaluation},
	)

	input := basicInput()
	input.PromoCode = "BIG"
	order, err := f.svc.CreateOrder(context.Background(), uuid.New(), input)
	require.NoError(t, err)
	assert.False(t, order.Total.IsNegative())
	assert.Equal(t, "4.00", order.Total.StringFixed(2))
}
