package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"pointshop-backend/internal/domains/points/model"
)

// =====================================================
// POINTS REPOSITORY INTERFACE
// =====================================================
type PointsRepository interface {
	// Coupons
	CreateCouponWithTx(ctx context.Context, tx pgx.Tx, coupon *model.Coupon) error
	// GetCouponForUpdateWithTx locks the coupon row until the transaction ends
	GetCouponForUpdateWithTx(ctx context.Context, tx pgx.Tx, couponID uuid.UUID) (*model.Coupon, error)
	// MarkCouponUsedWithTx flips is_used once. A coupon already used returns ErrCouponNotFound.
	MarkCouponUsedWithTx(ctx context.Context, tx pgx.Tx, couponID, orderID uuid.UUID, usedAt time.Time) error
	ListUnusedCoupons(ctx context.Context, userID uuid.UUID) ([]model.Coupon, error)

	// Ledger
	CreateTransactionWithTx(ctx context.Context, tx pgx.Tx, t *model.PointsTransaction) error
	ListTransactions(ctx context.Context, userID uuid.UUID, filter model.TransactionFilter) ([]model.TransactionView, error)
	// ListLedgerDrift returns users whose stored points differ from their ledger sum
	ListLedgerDrift(ctx context.Context, limit int) ([]model.LedgerDrift, error)
}
