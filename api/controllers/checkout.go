package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atelierhq/atelier-backend/api/middleware"
	"github.com/atelierhq/atelier-backend/api/responses"
	"github.com/atelierhq/atelier-backend/api/validators"
	"github.com/atelierhq/atelier-backend/internal/catalog"
	checkoutsvc "github.com/atelierhq/atelier-backend/internal/checkout"
	"github.com/atelierhq/atelier-backend/pkg/db/models"
	"github.com/atelierhq/atelier-backend/pkg/enums"
	pkgerrors "github.com/atelierhq/atelier-backend/pkg/errors"
	"github.com/atelierhq/atelier-backend/pkg/logger"
	"github.com/atelierhq/atelier-backend/pkg/types"
)

// CreateOrder prices the submitted cart and opens a gateway order for it.
func CreateOrder(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]catalog.ItemInput, 0, len(payload.Items))
		for _, item := range payload.Items {
			items = append(items, catalog.ItemInput{
				ItemID:   item.ItemID,
				ItemType: enums.ItemKind(item.ItemType),
				Name:     item.Name,
				Quantity: item.Quantity,
				Price:    item.Price,
			})
		}

		phone := ""
		if payload.ShippingAddress.Phone != nil {
			phone = *payload.ShippingAddress.Phone
		}

		order, err := svc.CreateOrder(r.Context(), userID, checkoutsvc.CheckoutInput{
			Items:           items,
			ShippingAddress: payload.ShippingAddress.toAddress(),
			PromoCode:       payload.PromoCode,
			Currency:        payload.Currency,
			UserEmail:       middleware.UserEmailFromContext(r.Context()),
			UserPhone:       phone,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}

type checkoutRequest struct {
	Items           []checkoutItemRequest  `json:"items" validate:"required,min=1,dive"`
	ShippingAddress shippingAddressRequest `json:"shipping_address" validate:"required"`
	PromoCode       string                 `json:"promo_code,omitempty" validate:"omitempty,max=64"`
	Currency        string                 `json:"currency,omitempty" validate:"omitempty,len=3"`
}

type checkoutItemRequest struct {
	ItemID   uuid.UUID       `json:"item_id" validate:"required"`
	ItemType string          `json:"item_type" validate:"required,oneof=product course workshop"`
	Name     string          `json:"name,omitempty" validate:"omitempty,max=256"`
	Quantity int             `json:"quantity" validate:"required,min=1"`
	Price    decimal.Decimal `json:"price"`
}

type shippingAddressRequest struct {
	Name       string  `json:"name" validate:"required,max=128"`
	Line1      string  `json:"line1" validate:"required,max=256"`
	Line2      *string `json:"line2,omitempty" validate:"omitempty,max=256"`
	City       string  `json:"city" validate:"required,max=128"`
	State      string  `json:"state" validate:"required,max=128"`
	PostalCode string  `json:"postal_code" validate:"required,max=16"`
	Country    string  `json:"country" validate:"required,max=64"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,max=20"`
}

func (a shippingAddressRequest) toAddress() types.ShippingAddress {
	return types.ShippingAddress{
		Name:       a.Name,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Phone:      a.Phone,
	}
}

type orderResponse struct {
	OrderID       uuid.UUID                  `json:"order_id"`
	OrderNumber   string                     `json:"order_number"`
	Status        string                     `json:"status"`
	Currency      string                     `json:"currency"`
	Items         []types.OrderItem          `json:"items"`
	ShippingLines []types.SellerShippingLine `json:"shipping_lines"`
	Promo         *types.AppliedPromo        `json:"promo,omitempty"`
	Subtotal      string                     `json:"subtotal"`
	ShippingTotal string                     `json:"shipping_total"`
	TaxTotal      string                     `json:"tax_total"`
	DiscountTotal string                     `json:"discount_total"`
	Total         string                     `json:"total"`
	Payment       *types.PaymentDetails      `json:"payment,omitempty"`
}

func newOrderResponse(order *models.Order) orderResponse {
	if order == nil {
		return orderResponse{}
	}
	return orderResponse{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Status:        string(order.Status),
		Currency:      string(order.Currency),
		Items:         order.Items,
		ShippingLines: order.ShippingLines,
		Promo:         order.Promo,
		Subtotal:      order.Subtotal.StringFixed(2),
		ShippingTotal: order.ShippingTotal.StringFixed(2),
		TaxTotal:      order.TaxTotal.StringFixed(2),
		DiscountTotal: order.DiscountTotal.StringFixed(2),
		Total:         order.Total.StringFixed(2),
		Payment:       order.Payment,
	}
}

func userIDFromContext(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user context")
	}
	return userID, nil
}
