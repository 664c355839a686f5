package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionEarned TransactionType = "earned"
	TransactionUsed   TransactionType = "used"
)

// =====================================================
// COUPON
// =====================================================
type Coupon struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"user_id"`
	PointsUsed     int             `json:"points_used"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	IsUsed         bool            `json:"is_used"`
	UsedAt         *time.Time      `json:"used_at,omitempty"`
	OrderID        *uuid.UUID      `json:"order_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// UsableBy reports whether userID may apply this coupon to an order
func (c *Coupon) UsableBy(userID uuid.UUID) bool {
	return c != nil && c.UserID == userID && !c.IsUsed
}

// =====================================================
// POINTS LEDGER
// =====================================================

// PointsTransaction is one append-only ledger row.
// PointsAmount is stored positive, the type carries the sign.
type PointsTransaction struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	OrderID         *uuid.UUID      `json:"order_id,omitempty"`
	CouponID        *uuid.UUID      `json:"coupon_id,omitempty"`
	PointsAmount    int             `json:"points_amount"`
	TransactionType TransactionType `json:"transaction_type"`
	Description     string          `json:"description"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Signed returns +amount for earned entries and -amount for used entries
func (t PointsTransaction) Signed() int {
	if t.TransactionType == TransactionUsed {
		return -t.PointsAmount
	}
	return t.PointsAmount
}

// NewEarned builds an earned ledger entry
func NewEarned(userID uuid.UUID, amount int, description string) *PointsTransaction {
	return &PointsTransaction{
		ID:              uuid.New(),
		UserID:          userID,
		PointsAmount:    amount,
		TransactionType: TransactionEarned,
		Description:     description,
		CreatedAt:       time.Now(),
	}
}

// NewUsed builds a used ledger entry
func NewUsed(userID uuid.UUID, amount int, description string) *PointsTransaction {
	return &PointsTransaction{
		ID:              uuid.New(),
		UserID:          userID,
		PointsAmount:    amount,
		TransactionType: TransactionUsed,
		Description:     description,
		CreatedAt:       time.Now(),
	}
}

// TransactionView is a ledger row joined with its order, if any
type TransactionView struct {
	PointsTransaction
	Points        int              `json:"points"`
	OrderTotal    *decimal.Decimal `json:"order_total"`
	OrderStatus   *string          `json:"order_status"`
	PaymentStatus *string          `json:"payment_status"`
}

// LedgerDrift is a user whose stored points disagree with the ledger
type LedgerDrift struct {
	UserID       uuid.UUID `json:"user_id"`
	StoredPoints int       `json:"stored_points"`
	LedgerPoints int       `json:"ledger_points"`
}

func (d LedgerDrift) Delta() int {
	return d.StoredPoints - d.LedgerPoints
}
