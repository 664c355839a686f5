package model

import (
	"github.com/shopspring/decimal"
)

// =====================================================
// CALCULATION HELPERS
// =====================================================

// ItemsSubtotal sums price_at_time x quantity over items
func ItemsSubtotal(items []OrderItem) decimal.Decimal {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.LineTotal())
	}
	return subtotal
}

// ApplyDiscount returns subtotal - discount floored at zero
func ApplyDiscount(subtotal, discount decimal.Decimal) decimal.Decimal {
	total := subtotal.Sub(discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// ItemsPoints sums the points cost of redeemed items
func ItemsPoints(items []OrderItem) int {
	total := 0
	for _, it := range items {
		total += it.LinePoints()
	}
	return total
}
