package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"pointshop-backend/internal/domains/points/model"
	"pointshop-backend/internal/domains/points/repository"
	productModel "pointshop-backend/internal/domains/product/model"
	productRepo "pointshop-backend/internal/domains/product/repository"
	userModel "pointshop-backend/internal/domains/user/model"
	userRepo "pointshop-backend/internal/domains/user/repository"
	"pointshop-backend/pkg/database"
	"pointshop-backend/pkg/logger"
)

type pointsService struct {
	txm         database.TxManager
	pointsRepo  repository.PointsRepository
	userRepo    userRepo.UserRepository
	productRepo productRepo.ProductRepository
	rates       model.RateTable
}

func NewPointsService(
	txm database.TxManager,
	pointsRepo repository.PointsRepository,
	userRepo userRepo.UserRepository,
	productRepo productRepo.ProductRepository,
	rates model.RateTable,
) PointsService {
	return &pointsService{
		txm:         txm,
		pointsRepo:  pointsRepo,
		userRepo:    userRepo,
		productRepo: productRepo,
		rates:       rates,
	}
}

// =====================================================
// BALANCE & LEDGER
// =====================================================

func (s *pointsService) GetBalance(ctx context.Context, userID uuid.UUID) (*model.BalanceResponse, error) {
	u, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &model.BalanceResponse{Points: u.Points, Balance: u.Balance}, nil
}

func (s *pointsService) ListTransactions(ctx context.Context, userID uuid.UUID, filter model.TransactionFilter) ([]model.TransactionView, error) {
	filter.Normalize()
	return s.pointsRepo.ListTransactions(ctx, userID, filter)
}

func (s *pointsService) ListRedeemableProducts(ctx context.Context) ([]productModel.Product, error) {
	return s.productRepo.ListRedeemable(ctx)
}

func (s *pointsService) findUser(ctx context.Context, userID uuid.UUID) (*userModel.User, error) {
	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, userModel.ErrUserNotFound) {
			return nil, model.NewPointsError(model.ErrCodeUserNotFound, "User not found", err)
		}
		return nil, err
	}
	return u, nil
}

// =====================================================
// COUPONS
// =====================================================

func (s *pointsService) CouponRates(ctx context.Context, userID uuid.UUID) (*model.CouponRatesResponse, error) {
	u, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	rates := make([]model.CouponRate, len(s.rates.Tiers))
	for i, tier := range s.rates.Tiers {
		rates[i] = model.CouponRate{
			Points:    tier.Points,
			Discount:  tier.Discount,
			Available: u.Points >= tier.Points,
		}
	}
	return &model.CouponRatesResponse{Version: s.rates.Version, Rates: rates}, nil
}

// ExchangeCoupon turns exactly one rate tier worth of points into an unused coupon
func (s *pointsService) ExchangeCoupon(ctx context.Context, userID uuid.UUID, req model.ExchangeCouponRequest) (*model.ExchangeCouponResponse, error) {
	// Step 1: amount must be a tier, checked before any DB work
	if err := req.Validate(s.rates); err != nil {
		return nil, model.NewPointsError(model.ErrCodeInvalidExchangeAmount, "Invalid points amount", err)
	}
	tier, ok := s.rates.Lookup(req.PointsAmount)
	if !ok {
		return nil, model.NewPointsError(model.ErrCodeInvalidExchangeAmount, "Invalid points amount", model.ErrInvalidExchangeAmount)
	}

	// Step 2: lock the user, check, then write coupon + wallet + ledger together
	return database.WithTxResult(ctx, s.txm, func(tx pgx.Tx) (*model.ExchangeCouponResponse, error) {
		u, err := s.userRepo.GetForUpdateWithTx(ctx, tx, userID)
		if err != nil {
			if errors.Is(err, userModel.ErrUserNotFound) {
				return nil, model.NewPointsError(model.ErrCodeUserNotFound, "User not found", err)
			}
			return nil, err
		}
		if u.Points < tier.Points {
			return nil, model.NewPointsError(model.ErrCodeInsufficientPoints,
				fmt.Sprintf("Not enough points: need %d, have %d", tier.Points, u.Points), model.ErrInsufficientPoints)
		}

		now := time.Now()
		coupon := &model.Coupon{
			ID:             uuid.New(),
			UserID:         userID,
			PointsUsed:     tier.Points,
			DiscountAmount: tier.Discount,
			CreatedAt:      now,
		}
		if err := s.pointsRepo.CreateCouponWithTx(ctx, tx, coupon); err != nil {
			return nil, err
		}

		wallet, err := s.userRepo.ApplyWalletDeltaWithTx(ctx, tx, userID, decimal.Zero, -tier.Points)
		if err != nil {
			if errors.Is(err, userModel.ErrWalletUnderflow) {
				return nil, model.NewPointsError(model.ErrCodeInsufficientPoints, "Not enough points", model.ErrInsufficientPoints)
			}
			return nil, fmt.Errorf("deduct points: %w", err)
		}

		entry := model.NewUsed(userID, tier.Points, fmt.Sprintf("Exchanged for %s coupon", tier.Discount.StringFixed(2)))
		entry.CouponID = &coupon.ID
		entry.CreatedAt = now
		if err := s.pointsRepo.CreateTransactionWithTx(ctx, tx, entry); err != nil {
			return nil, err
		}

		logger.Info("Points exchanged for coupon", map[string]interface{}{
			"user_id":   userID.String(),
			"coupon_id": coupon.ID.String(),
			"points":    tier.Points,
			"rates":     s.rates.Version,
		})

		return &model.ExchangeCouponResponse{
			CouponID:        coupon.ID,
			PointsUsed:      tier.Points,
			DiscountAmount:  tier.Discount,
			RemainingPoints: wallet.Points,
		}, nil
	})
}

func (s *pointsService) ListCoupons(ctx context.Context, userID uuid.UUID) ([]model.Coupon, error) {
	return s.pointsRepo.ListUnusedCoupons(ctx, userID)
}

// =====================================================
// RECONCILIATION
// =====================================================

func (s *pointsService) Reconcile(ctx context.Context, limit int) ([]model.LedgerDrift, error) {
	if limit <= 0 {
		limit = 500
	}

	drift, err := s.pointsRepo.ListLedgerDrift(ctx, limit)
	if err != nil {
		return nil, err
	}

	for _, d := range drift {
		logger.ErrorWithFields("Points ledger drift", errors.New("stored points differ from ledger"), map[string]interface{}{
			"user_id":       d.UserID.String(),
			"stored_points": d.StoredPoints,
			"ledger_points": d.LedgerPoints,
			"delta":         d.Delta(),
		})
	}
	return drift, nil
}
