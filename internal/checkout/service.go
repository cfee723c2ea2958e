package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
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
	"github.com/atelierhq/atelier-backend/pkg/metrics"
	"github.com/atelierhq/atelier-backend/pkg/outbox"
	"github.com/atelierhq/atelier-backend/pkg/outbox/payloads"
	"github.com/atelierhq/atelier-backend/pkg/razorpay"
	"github.com/atelierhq/atelier-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type catalogResolver interface {
	Resolve(ctx context.Context, items []catalog.ItemInput) ([]types.OrderItem, error)
}

type shippingResolver interface {
	ResolveGroup(ctx context.Context, group helpers.SellerGroup, destinationCountry string) types.SellerShippingLine
}

type promoEvaluator interface {
	Evaluate(ctx context.Context, code string, subtotal decimal.Decimal) (*promo.Evaluation, error)
}

type promoUsageConsumer interface {
	ConsumeUsage(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type paymentGateway interface {
	KeyID() string
	CreateOrder(ctx context.Context, params razorpay.OrderRequest) (*razorpay.OrderResponse, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service executes checkout orchestration.
type Service interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*models.Order, error)
}

// CheckoutInput is the buyer's cart plus everything needed to price and
// collect payment for it.
type CheckoutInput struct {
	Items           []catalog.ItemInput
	ShippingAddress types.ShippingAddress
	PromoCode       string
	Currency        string
	UserEmail       string
	UserPhone       string
}

// ServiceParams wire the checkout dependencies.
type ServiceParams struct {
	TX              txRunner
	Logger          *logger.Logger
	Catalog         catalogResolver
	Shipping        shippingResolver
	Promo           promoEvaluator
	PromoRepo       promoUsageConsumer
	OrdersRepo      orders.Repository
	Pricing         *pricing.Calculator
	Gateway         paymentGateway
	Outbox          outboxPublisher
	Metrics         *metrics.CheckoutMetrics
	DefaultCurrency enums.Currency
}

type service struct {
	tx              txRunner
	logg            *logger.Logger
	catalog         catalogResolver
	shipping        shippingResolver
	promo           promoEvaluator
	promoRepo       promoUsageConsumer
	ordersRepo      orders.Repository
	pricing         *pricing.Calculator
	gateway         paymentGateway
	outbox          outboxPublisher
	metrics         *metrics.CheckoutMetrics
	defaultCurrency enums.Currency
	now             func() time.Time
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.TX == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog resolver required")
	}
	if params.Shipping == nil {
		return nil, fmt.Errorf("shipping resolver required")
	}
	if params.Promo == nil {
		return nil, fmt.Errorf("promo evaluator required")
	}
	if params.PromoRepo == nil {
		return nil, fmt.Errorf("promo repository required")
	}
	if params.OrdersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Pricing == nil {
		return nil, fmt.Errorf("pricing calculator required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	currency := params.DefaultCurrency
	if !currency.IsValid() {
		currency = enums.CurrencyINR
	}
	return &service{
		tx:              params.TX,
		logg:            params.Logger,
		catalog:         params.Catalog,
		shipping:        params.Shipping,
		promo:           params.Promo,
		promoRepo:       params.PromoRepo,
		ordersRepo:      params.OrdersRepo,
		pricing:         params.Pricing,
		gateway:         params.Gateway,
		outbox:          params.Outbox,
		metrics:         params.Metrics,
		defaultCurrency: currency,
		now:             time.Now,
	}, nil
}

func (s *service) CreateOrder(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*models.Order, error) {
	started := s.now()
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	currency, err := s.resolveCurrency(input.Currency)
	if err != nil {
		return nil, err
	}

	items, err := s.catalog.Resolve(ctx, input.Items)
	if err != nil {
		return nil, err
	}
	subtotal := helpers.SubtotalOf(items)

	groups := helpers.GroupItemsBySeller(items)
	destination := input.ShippingAddress.NormalizedCountry()
	shippingLines := make([]types.SellerShippingLine, 0, len(groups))
	shippingTotal := decimal.Zero
	for _, group := range groups {
		line := s.shipping.ResolveGroup(ctx, group, destination)
		shippingLines = append(shippingLines, line)
		shippingTotal = shippingTotal.Add(line.Cost)
	}

	var evaluation *promo.Evaluation
	var appliedPromo *types.AppliedPromo
	discount := decimal.Zero
	if input.PromoCode != "" {
		evaluation, err = s.promo.Evaluate(ctx, input.PromoCode, subtotal)
		if err != nil {
			return nil, err
		}
		applied := evaluation.Applied
		appliedPromo = &applied
		discount = applied.Discount
	}

	totals := s.pricing.Totalize(subtotal, shippingTotal, discount)

	order := &models.Order{
		UserID:          userID,
		Status:          enums.OrderStatusPending,
		Currency:        currency,
		Items:           items,
		ShippingAddress: input.ShippingAddress,
		ShippingLines:   shippingLines,
		Promo:           appliedPromo,
		Subtotal:        totals.Subtotal,
		ShippingTotal:   totals.Shipping,
		TaxTotal:        totals.Tax,
		DiscountTotal:   totals.Discount,
		Total:           totals.Total,
	}

	if err := s.persistPendingOrder(ctx, order, evaluation, userID); err != nil {
		s.metrics.IncOrderCreated("failed")
		return nil, err
	}

	details, err := s.createGatewayOrder(ctx, order, input)
	if err != nil {
		s.metrics.IncGatewayFailure()
		s.metrics.IncOrderCreated("gateway_failed")
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		s.logg.Error(logCtx, "gateway order creation failed, order left pending", err)
		return nil, err
	}

	if err := s.attachPayment(ctx, order, details); err != nil {
		s.metrics.IncOrderCreated("failed")
		return nil, err
	}
	order.Payment = details

	s.metrics.IncOrderCreated("created")
	s.metrics.ObserveCheckoutDuration(s.now().Sub(started))

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":     order.ID.String(),
		"order_number": order.OrderNumber,
		"total":        order.Total.String(),
	})
	s.logg.Info(logCtx, "order created")
	return order, nil
}

func (s *service) resolveCurrency(raw string) (enums.Currency, error) {
	if raw == "" {
		return s.defaultCurrency, nil
	}
	currency, err := enums.ParseCurrency(raw)
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	return currency, nil
}

// persistPendingOrder writes the order, consumes the promo usage slot, and
// stages the created event in one transaction. The usage guard re-checks the
// limit so two concurrent checkouts cannot both redeem the final slot.
func (s *service) persistPendingOrder(ctx context.Context, order *models.Order, evaluation *promo.Evaluation, userID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.ordersRepo.WithTx(tx)

		number, err := repo.NextOrderNumber(ctx)
		if err != nil {
			return err
		}
		order.OrderNumber = number

		if _, err := repo.Create(ctx, order); err != nil {
			return err
		}

		if evaluation != nil {
			if err := s.promoRepo.ConsumeUsage(ctx, tx, evaluation.Promo.ID); err != nil {
				return err
			}
			redeemed := outbox.DomainEvent{
				EventType:     enums.EventPromoRedeemed,
				AggregateType: enums.AggregatePromoCode,
				AggregateID:   evaluation.Promo.ID,
				Version:       1,
				Data: payloads.PromoRedeemedEvent{
					PromoCodeID: evaluation.Promo.ID,
					Code:        evaluation.Promo.Code,
					OrderID:     order.ID,
					UserID:      userID,
					Discount:    evaluation.Applied.Discount,
				},
			}
			if err := s.outbox.Emit(ctx, tx, redeemed); err != nil {
				return err
			}
		}

		var promoCode *string
		if order.Promo != nil {
			code := order.Promo.Code
			promoCode = &code
		}
		created := outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: payloads.OrderCreatedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				UserID:      order.UserID,
				Currency:    order.Currency.String(),
				Subtotal:    order.Subtotal,
				Shipping:    order.ShippingTotal,
				Tax:         order.TaxTotal,
				Discount:    order.DiscountTotal,
				Total:       order.Total,
				ItemCount:   len(order.Items),
				PromoCode:   promoCode,
			},
		}
		return s.outbox.Emit(ctx, tx, created)
	})
}

// createGatewayOrder registers the order with the gateway. The amount is
// converted to the smallest currency unit; the total is already rounded to
// two places so the conversion is exact.
func (s *service) createGatewayOrder(ctx context.Context, order *models.Order, input CheckoutInput) (*types.PaymentDetails, error) {
	notes := map[string]string{
		"userId":    order.UserID.String(),
		"userEmail": input.UserEmail,
		"dbOrderId": order.ID.String(),
	}
	if order.Promo != nil {
		notes["promoCode"] = order.Promo.Code
	}

	amount := order.Total.Mul(decimal.NewFromInt(100)).IntPart()
	gatewayOrder, err := s.gateway.CreateOrder(ctx, razorpay.OrderRequest{
		Amount:   amount,
		Currency: order.Currency.String(),
		Receipt:  order.OrderNumber,
		Notes:    notes,
	})
	if err != nil {
		return nil, err
	}

	return &types.PaymentDetails{
		GatewayOrderID: gatewayOrder.ID,
		Amount:         gatewayOrder.Amount,
		Currency:       order.Currency,
		Receipt:        gatewayOrder.Receipt,
		KeyID:          s.gateway.KeyID(),
		Status:         enums.PaymentStatusPending,
		Method:         enums.PaymentMethodRazorpay,
		Prefill: types.PaymentPrefill{
			Name:    order.ShippingAddress.Name,
			Email:   input.UserEmail,
			Contact: input.UserPhone,
		},
		Notes:     notes,
		CreatedAt: s.now().UTC(),
	}, nil
}

func (s *service) attachPayment(ctx context.Context, order *models.Order, details *types.PaymentDetails) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.ordersRepo.WithTx(tx)
		if err := repo.AttachPaymentDetails(ctx, order.ID, details); err != nil {
			return err
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventOrderPaymentAttached,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: payloads.OrderPaymentAttachedEvent{
				OrderID:        order.ID,
				OrderNumber:    order.OrderNumber,
				UserID:         order.UserID,
				GatewayOrderID: details.GatewayOrderID,
				Amount:         details.Amount,
				Currency:       order.Currency.String(),
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
}
