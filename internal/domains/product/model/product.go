package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID           uuid.UUID       `json:"id"`
	CategoryID   *uuid.UUID      `json:"category_id"`
	CategoryName string          `json:"category_name,omitempty"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	PointsPrice  *int            `json:"points_price"`
	PointsReward *int            `json:"points_reward"`
	Stock        int             `json:"stock"`
	ImageURL     *string         `json:"image_url"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Redeemable reports whether the product can be paid for with points
func (p *Product) Redeemable() bool {
	return p.PointsPrice != nil && *p.PointsPrice > 0
}

// RedeemCost is the points price of qty units, 0 when not redeemable
func (p *Product) RedeemCost(qty int) int {
	if !p.Redeemable() {
		return 0
	}
	return *p.PointsPrice * qty
}

// RewardFor is the points earned buying qty units with currency
func (p *Product) RewardFor(qty int) int {
	if p.PointsReward == nil || *p.PointsReward <= 0 {
		return 0
	}
	return *p.PointsReward * qty
}

type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
}
