package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pointshop-backend/internal/domains/points/model"
	productModel "pointshop-backend/internal/domains/product/model"
	userModel "pointshop-backend/internal/domains/user/model"
	"pointshop-backend/internal/shared"
	"pointshop-backend/internal/testutil/memstore"
)

func setup(t *testing.T, points int) (*memstore.Store, PointsService, uuid.UUID) {
	t.Helper()

	store := memstore.New()
	id := uuid.New()
	store.PutUser(userModel.User{
		ID:       id,
		Username: "saver",
		Email:    "saver@example.com",
		Role:     shared.RoleUser,
		Points:   points,
		Balance:  decimal.NewFromInt(20),
	})
	if points > 0 {
		store.PutTransaction(*model.NewEarned(id, points, "seed"))
	}

	svc := NewPointsService(store, store.Points(), store.Users(), store.Products(), model.DefaultRateTable)
	return store, svc, id
}

func requirePointsCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var pointsErr *model.PointsError
	require.True(t, errors.As(err, &pointsErr), "expected PointsError, got %v", err)
	assert.Equal(t, code, pointsErr.Code)
}

func TestExchangeCoupon_SpendsExactlyOneTier(t *testing.T) {
	store, svc, userID := setup(t, 100)

	resp, err := svc.ExchangeCoupon(context.Background(), userID, model.ExchangeCouponRequest{PointsAmount: 100})
	require.NoError(t, err)

	assert.Equal(t, 100, resp.PointsUsed)
	assert.True(t, decimal.NewFromInt(5).Equal(resp.DiscountAmount))
	assert.Equal(t, 0, resp.RemainingPoints)

	coupon, ok := store.Coupon(resp.CouponID)
	require.True(t, ok)
	assert.False(t, coupon.IsUsed)
	assert.Equal(t, userID, coupon.UserID)

	ledger := store.Ledger(userID)
	require.Len(t, ledger, 2)
	last := ledger[1]
	assert.Equal(t, model.TransactionUsed, last.TransactionType)
	require.NotNil(t, last.CouponID)
	assert.Equal(t, resp.CouponID, *last.CouponID)

	u, _ := store.User(userID)
	assert.Equal(t, 0, u.Points)
	assert.Equal(t, u.Points, store.LedgerSum(userID))

	coupons, err := svc.ListCoupons(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, coupons, 1)
	assert.Equal(t, resp.CouponID, coupons[0].ID)
}

func TestExchangeCoupon_RejectsNonTierAmounts(t *testing.T) {
	store, svc, userID := setup(t, 1000)

	for _, amount := range []int{0, -100, 150, 400} {
		_, err := svc.ExchangeCoupon(context.Background(), userID, model.ExchangeCouponRequest{PointsAmount: amount})
		requirePointsCode(t, err, model.ErrCodeInvalidExchangeAmount)
	}

	assert.Equal(t, 0, store.Transactions())
	u, _ := store.User(userID)
	assert.Equal(t, 1000, u.Points)
}

func TestExchangeCoupon_InsufficientPoints(t *testing.T) {
	store, svc, userID := setup(t, 150)

	_, err := svc.ExchangeCoupon(context.Background(), userID, model.ExchangeCouponRequest{PointsAmount: 200})
	requirePointsCode(t, err, model.ErrCodeInsufficientPoints)

	u, _ := store.User(userID)
	assert.Equal(t, 150, u.Points)
	assert.Len(t, store.Ledger(userID), 1)
}

func TestExchangeCoupon_UnknownUser(t *testing.T) {
	_, svc, _ := setup(t, 0)

	_, err := svc.ExchangeCoupon(context.Background(), uuid.New(), model.ExchangeCouponRequest{PointsAmount: 100})
	requirePointsCode(t, err, model.ErrCodeUserNotFound)
}

func TestExchangeCoupon_LedgerFailureRollsBack(t *testing.T) {
	store, svc, userID := setup(t, 300)
	store.FailOn("points.CreateTransactionWithTx", errors.New("disk full"))

	_, err := svc.ExchangeCoupon(context.Background(), userID, model.ExchangeCouponRequest{PointsAmount: 300})
	require.Error(t, err)

	u, _ := store.User(userID)
	assert.Equal(t, 300, u.Points)
	coupons, err := svc.ListCoupons(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, coupons)
}

func TestCouponRates_FlagsAffordableTiers(t *testing.T) {
	_, svc, userID := setup(t, 250)

	resp, err := svc.CouponRates(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, model.DefaultRateTable.Version, resp.Version)
	require.Len(t, resp.Rates, 3)
	assert.True(t, resp.Rates[0].Available)
	assert.True(t, resp.Rates[1].Available)
	assert.False(t, resp.Rates[2].Available)
}

func TestGetBalance(t *testing.T) {
	_, svc, userID := setup(t, 42)

	resp, err := svc.GetBalance(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 42, resp.Points)
	assert.Equal(t, "20.00", resp.Balance.StringFixed(2))

	_, err = svc.GetBalance(context.Background(), uuid.New())
	requirePointsCode(t, err, model.ErrCodeUserNotFound)
}

func TestListTransactions_SignedNewestFirst(t *testing.T) {
	store, svc, userID := setup(t, 0)

	earned := model.NewEarned(userID, 30, "Order reward")
	earned.CreatedAt = time.Now().Add(-2 * time.Hour)
	used := model.NewUsed(userID, 10, "Redeemed")
	used.CreatedAt = time.Now().Add(-time.Hour)
	store.PutTransaction(*earned)
	store.PutTransaction(*used)

	views, err := svc.ListTransactions(context.Background(), userID, model.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, -10, views[0].Points)
	assert.Equal(t, 30, views[1].Points)
}

func TestListRedeemableProducts(t *testing.T) {
	store, svc, _ := setup(t, 0)
	cost := 40
	store.PutProduct(productModel.Product{ID: uuid.New(), Name: "Mug", Price: decimal.NewFromInt(8), PointsPrice: &cost, Stock: 3})
	store.PutProduct(productModel.Product{ID: uuid.New(), Name: "Pen", Price: decimal.NewFromInt(2), Stock: 3})

	products, err := svc.ListRedeemableProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Mug", products[0].Name)
}

func TestReconcile_ReportsDrift(t *testing.T) {
	store, svc, consistent := setup(t, 100)

	drifting := uuid.New()
	store.PutUser(userModel.User{ID: drifting, Username: "drift", Email: "drift@example.com", Points: 70})
	store.PutTransaction(*model.NewEarned(drifting, 50, "seed"))

	drift, err := svc.Reconcile(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, drift, 1)
	assert.Equal(t, drifting, drift[0].UserID)
	assert.Equal(t, 20, drift[0].Delta())
	assert.NotEqual(t, consistent, drift[0].UserID)
}

func TestExportTransactions_WritesLedgerSheet(t *testing.T) {
	store, svc, userID := setup(t, 200)

	resp, err := svc.ExchangeCoupon(context.Background(), userID, model.ExchangeCouponRequest{PointsAmount: 100})
	require.NoError(t, err)

	f, err := svc.ExportTransactions(context.Background(), userID, model.TransactionFilter{Limit: 1})
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(ledgerSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus every entry, paging is ignored")
	assert.Equal(t, ledgerHeaders[0], rows[0][0])
	assert.Equal(t, "Points", rows[0][3])

	var couponRow []string
	for _, r := range rows[1:] {
		if r[2] == string(model.TransactionUsed) {
			couponRow = r
		}
	}
	require.NotNil(t, couponRow)
	assert.Equal(t, "-100", couponRow[3])
	assert.Equal(t, resp.CouponID.String(), couponRow[len(ledgerHeaders)-1])

	assert.Len(t, store.Ledger(userID), 2)
}
