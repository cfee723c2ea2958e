package enums

import "fmt"

// ShippingRateType tags the rate variants a shipping zone can carry.
type ShippingRateType string

const (
	ShippingRateFree        ShippingRateType = "free"
	ShippingRateFlat        ShippingRateType = "flat"
	ShippingRatePriceBased  ShippingRateType = "price_based"
	ShippingRateWeightBased ShippingRateType = "weight_based"
)

var validShippingRateTypes = []ShippingRateType{
	ShippingRateFree,
	ShippingRateFlat,
	ShippingRatePriceBased,
	ShippingRateWeightBased,
}

// String implements fmt.Stringer.
func (t ShippingRateType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known ShippingRateType.
func (t ShippingRateType) IsValid() bool {
	for _, candidate := range validShippingRateTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseShippingRateType converts raw input into a ShippingRateType.
func ParseShippingRateType(value string) (ShippingRateType, error) {
	for _, candidate := range validShippingRateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipping rate type %q", value)
}
