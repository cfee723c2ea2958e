package helpers

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierhq/atelier-backend/pkg/enums"
	"github.com/atelierhq/atelier-backend/pkg/types"
)

func item(kind enums.ItemKind, price string, qty int, sellerID *uuid.UUID, sellerName string) types.OrderItem {
	it := types.OrderItem{
		ItemID:   uuid.New(),
		ItemType: kind,
		Name:     "test item",
		Quantity: qty,
		Price:    decimal.RequireFromString(price),
		SellerID: sellerID,
	}
	if sellerName != "" {
		it.SellerName = &sellerName
	}
	return it
}

func TestGroupItemsBySeller(t *testing.T) {
	sellerA := uuid.New()
	sellerB := uuid.New()

	items := []types.OrderItem{
		item(enums.ItemKindProduct, "40", 1, &sellerA, "Studio A"),
		item(enums.ItemKindCourse, "25", 1, nil, ""),
		item(enums.ItemKindProduct, "10", 2, &sellerB, "Studio B"),
		item(enums.ItemKindWorkshop, "15", 1, &sellerA, "Studio A"),
	}

	groups := GroupItemsBySeller(items)
	require.Len(t, groups, 3)

	// First appearance order is preserved.
	assert.Equal(t, sellerA.String(), groups[0].Key)
	assert.Equal(t, PlatformSellerKey, groups[1].Key)
	assert.Equal(t, sellerB.String(), groups[2].Key)

	assert.Len(t, groups[0].Items, 2)
	assert.Len(t, groups[1].Items, 1)
	assert.Len(t, groups[2].Items, 1)

	assert.Equal(t, "Studio A", groups[0].SellerName)
	assert.Equal(t, PlatformSellerName, groups[1].SellerName)
	assert.Nil(t, groups[1].SellerID)
}

func TestGroupTotalIncludesDigitalLines(t *testing.T) {
	sellerA := uuid.New()
	items := []types.OrderItem{
		item(enums.ItemKindProduct, "40", 2, &sellerA, ""),
		item(enums.ItemKindCourse, "25", 1, &sellerA, ""),
	}
	total := GroupTotal(items)
	assert.True(t, total.Equal(decimal.RequireFromString("105")), "got %s", total)
}

func TestHasPhysicalItems(t *testing.T) {
	sellerA := uuid.New()
	digital := []types.OrderItem{
		item(enums.ItemKindCourse, "25", 1, &sellerA, ""),
		item(enums.ItemKindWorkshop, "30", 1, &sellerA, ""),
	}
	assert.False(t, HasPhysicalItems(digital))

	mixed := append(digital, item(enums.ItemKindProduct, "10", 1, &sellerA, ""))
	assert.True(t, HasPhysicalItems(mixed))
}

func TestSubtotalOf(t *testing.T) {
	items := []types.OrderItem{
		item(enums.ItemKindCourse, "19.99", 3, nil, ""),
	}
	assert.True(t, SubtotalOf(items).Equal(decimal.RequireFromString("59.97")))
}
