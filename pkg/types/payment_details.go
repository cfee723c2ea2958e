package types

import (
	"time"

	"github.com/atelierhq/atelier-backend/pkg/enums"
)

// PaymentPrefill carries the buyer contact fields handed to the gateway
// checkout widget.
type PaymentPrefill struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Contact string `json:"contact,omitempty"`
}

// PaymentDetails is the gateway envelope attached to an order after the
// gateway order is created. Amount is in the currency's smallest unit.
type PaymentDetails struct {
	GatewayOrderID string              `json:"gateway_order_id"`
	Amount         int64               `json:"amount"`
	Currency       enums.Currency      `json:"currency"`
	Receipt        string              `json:"receipt"`
	KeyID          string              `json:"key_id"`
	Status         enums.PaymentStatus `json:"status"`
	Method         enums.PaymentMethod `json:"method"`
	Prefill        PaymentPrefill      `json:"prefill"`
	Notes          map[string]string   `json:"notes,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
}
