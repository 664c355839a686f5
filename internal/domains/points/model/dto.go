package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// EXCHANGE COUPON
// =====================================================
type ExchangeCouponRequest struct {
	PointsAmount int `json:"points_amount"`
}

// Validate checks the amount against the rate table the service uses
func (req ExchangeCouponRequest) Validate(table RateTable) error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.PointsAmount,
			validation.Required.Error("points_amount is required"),
			validation.In(table.Amounts()...).Error("points_amount must be one of the exchange tiers"),
		),
	)
}

type ExchangeCouponResponse struct {
	CouponID        uuid.UUID       `json:"coupon_id"`
	PointsUsed      int             `json:"points_used"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	RemainingPoints int             `json:"remaining_points"`
}

// =====================================================
// READ MODELS
// =====================================================
type BalanceResponse struct {
	Points  int             `json:"points"`
	Balance decimal.Decimal `json:"balance"`
}

type CouponRate struct {
	Points    int             `json:"points"`
	Discount  decimal.Decimal `json:"discount"`
	Available bool            `json:"available"`
}

type CouponRatesResponse struct {
	Version string       `json:"version"`
	Rates   []CouponRate `json:"rates"`
}

// TransactionFilter pages and bounds the ledger, newest first.
// Limit 0 means no limit.
type TransactionFilter struct {
	Limit  int        `form:"limit"`
	Offset int        `form:"offset"`
	From   *time.Time `form:"from" time_format:"2006-01-02"`
	To     *time.Time `form:"to" time_format:"2006-01-02"`
}

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
	MaxExportRows    = 10000
)

// Normalize clamps paging for the JSON listing
func (f *TransactionFilter) Normalize() {
	if f.Limit <= 0 || f.Limit > MaxPageLimit {
		f.Limit = DefaultPageLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}
