package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"pointshop-backend/internal/domains/points/model"
	productModel "pointshop-backend/internal/domains/product/model"
)

// =====================================================
// POINTS SERVICE INTERFACE
// =====================================================
type PointsService interface {
	GetBalance(ctx context.Context, userID uuid.UUID) (*model.BalanceResponse, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, filter model.TransactionFilter) ([]model.TransactionView, error)
	// ExportTransactions builds an XLSX audit sheet of the user's ledger
	ExportTransactions(ctx context.Context, userID uuid.UUID, filter model.TransactionFilter) (*excelize.File, error)
	ListRedeemableProducts(ctx context.Context) ([]productModel.Product, error)

	// Coupons
	CouponRates(ctx context.Context, userID uuid.UUID) (*model.CouponRatesResponse, error)
	ExchangeCoupon(ctx context.Context, userID uuid.UUID, req model.ExchangeCouponRequest) (*model.ExchangeCouponResponse, error)
	ListCoupons(ctx context.Context, userID uuid.UUID) ([]model.Coupon, error)

	// Reconcile reports users whose stored points differ from their ledger
	Reconcile(ctx context.Context, limit int) ([]model.LedgerDrift, error)
}
