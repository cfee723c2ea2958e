package types

import "strings"

// ShippingAddress is the buyer-provided destination stored as jsonb on the
// order. Country carries the full name ("India", "United States") and drives
// shipping zone matching.
type ShippingAddress struct {
	Name       string  `json:"name"`
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
	Phone      *string `json:"phone,omitempty"`
}

// NormalizedCountry returns the country trimmed for zone comparison.
func (a ShippingAddress) NormalizedCountry() string {
	return strings.TrimSpace(a.Country)
}
