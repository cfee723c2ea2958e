package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCalculator(t *testing.T) *Calculator {
	t.Helper()
	calc, err := NewCalculator(decimal.RequireFromString("0.08"))
	require.NoError(t, err)
	return calc
}

func TestNewCalculatorRejectsNegativeRate(t *testing.T) {
	_, err := NewCalculator(decimal.RequireFromString("-0.01"))
	require.Error(t, err)
}

func TestTotalize(t *testing.T) {
	calc := newTestCalculator(t)

	cases := []struct {
		name     string
		subtotal string
		shipping string
		discount string
		wantTax  string
		want     string
	}{
		{
			name:     "digital only order",
			subtotal: "50",
			shipping: "0",
			discount: "0",
			wantTax:  "4",
			want:     "54",
		},
		{
			name:     "free shipping above threshold",
			subtotal: "200",
			shipping: "0",
			discount: "0",
			wantTax:  "16",
			want:     "216",
		},
		{
			name:     "flat shipping below threshold",
			subtotal: "60",
			shipping: "15",
			discount: "0",
			wantTax:  "4.8",
			want:     "79.8",
		},
		{
			name:     "capped percentage discount",
			subtotal: "200",
			shipping: "0",
			discount: "10",
			wantTax:  "16",
			want:     "206",
		},
		{
			name:     "total never goes negative",
			subtotal: "5",
			shipping: "0",
			discount: "50",
			wantTax:  "0.4",
			want:     "0",
		},
		{
			name:     "fractional tax rounds to two places",
			subtotal: "33.33",
			shipping: "0",
			discount: "0",
			wantTax:  "2.67",
			want:     "36",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			totals := calc.Totalize(
				decimal.RequireFromString(tc.subtotal),
				decimal.RequireFromString(tc.shipping),
				decimal.RequireFromString(tc.discount),
			)
			assert.True(t, totals.Tax.Equal(decimal.RequireFromString(tc.wantTax)),
				"tax: want %s got %s", tc.wantTax, totals.Tax)
			assert.True(t, totals.Total.Equal(decimal.RequireFromString(tc.want)),
				"total: want %s got %s", tc.want, totals.Total)
		})
	}
}

func TestTotalizeFormatsTwoDecimalPlaces(t *testing.T) {
	calc := newTestCalculator(t)
	totals := calc.Totalize(
		decimal.RequireFromString("60"),
		decimal.RequireFromString("15"),
		decimal.Zero,
	)
	assert.Equal(t, "79.80", totals.Total.StringFixed(2))
	assert.Equal(t, "4.80", totals.Tax.StringFixed(2))
}
