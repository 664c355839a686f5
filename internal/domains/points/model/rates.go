package model

import (
	"github.com/shopspring/decimal"
)

// RateTier converts exactly Points points into a coupon worth Discount
type RateTier struct {
	Points   int             `json:"points"`
	Discount decimal.Decimal `json:"discount"`
}

// RateTable is the only source of exchange rates. Bump Version when tiers change.
type RateTable struct {
	Version string
	Tiers   []RateTier
}

var DefaultRateTable = RateTable{
	Version: "2024-01",
	Tiers: []RateTier{
		{Points: 100, Discount: decimal.NewFromInt(5)},
		{Points: 200, Discount: decimal.NewFromInt(10)},
		{Points: 300, Discount: decimal.NewFromInt(15)},
	},
}

// Lookup returns the tier whose cost is exactly points
func (t RateTable) Lookup(points int) (RateTier, bool) {
	for _, tier := range t.Tiers {
		if tier.Points == points {
			return tier, true
		}
	}
	return RateTier{}, false
}

// Amounts lists the accepted exchange amounts
func (t RateTable) Amounts() []interface{} {
	out := make([]interface{}, len(t.Tiers))
	for i, tier := range t.Tiers {
		out[i] = tier.Points
	}
	return out
}
