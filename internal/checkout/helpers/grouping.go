package helpers

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atelierhq/atelier-backend/pkg/enums"
	"github.com/atelierhq/atelier-backend/pkg/types"
)

// PlatformSellerKey is the synthetic group key for items without seller
// attribution. The platform itself fulfils these lines.
const PlatformSellerKey = "platform"

// PlatformSellerName labels the synthetic platform group in shipping lines.
const PlatformSellerName = "Atelier"

// SellerGroup is one seller's slice of the cart.
type SellerGroup struct {
	Key        string
	SellerID   *uuid.UUID
	SellerName string
	Items      []types.OrderItem
}

// GroupItemsBySeller partitions order items by seller, in order of first
// appearance. Unattributed items collapse into the platform group.
func GroupItemsBySeller(items []types.OrderItem) []SellerGroup {
	var groups []SellerGroup
	index := make(map[string]int, len(items))

	for _, item := range items {
		key := PlatformSellerKey
		if item.SellerID != nil {
			key = item.SellerID.String()
		}
		pos, ok := index[key]
		if !ok {
			group := SellerGroup{Key: key, SellerName: PlatformSellerName}
			if item.SellerID != nil {
				id := *item.SellerID
				group.SellerID = &id
				group.SellerName = ""
			}
			groups = append(groups, group)
			pos = len(groups) - 1
			index[key] = pos
		}
		if groups[pos].SellerName == "" && item.SellerName != nil {
			groups[pos].SellerName = *item.SellerName
		}
		groups[pos].Items = append(groups[pos].Items, item)
	}

	return groups
}

// GroupTotal sums line totals across every item in the group, digital lines
// included. Shipping thresholds are judged against this full basket value.
func GroupTotal(items []types.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// HasPhysicalItems reports whether the group contains at least one line that
// needs shipping.
func HasPhysicalItems(items []types.OrderItem) bool {
	for _, item := range items {
		if item.ItemType.IsPhysical() {
			return true
		}
	}
	return false
}

// SubtotalOf sums line totals across all items in the order.
func SubtotalOf(items []types.OrderItem) decimal.Decimal {
	return GroupTotal(items)
}

// CountByKind tallies items per kind, mostly for logging.
func CountByKind(items []types.OrderItem) map[enums.ItemKind]int {
	counts := make(map[enums.ItemKind]int)
	for _, item := range items {
		counts[item.ItemType] += item.Quantity
	}
	return counts
}
