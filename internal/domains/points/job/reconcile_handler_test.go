package job

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"pointshop-backend/internal/domains/points/model"
	productModel "pointshop-backend/internal/domains/product/model"
	"pointshop-backend/internal/shared"
)

type mockPointsService struct {
	mock.Mock
}

func (m *mockPointsService) GetBalance(ctx context.Context, userID uuid.UUID) (*model.BalanceResponse, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(*model.BalanceResponse), args.Error(1)
}

func (m *mockPointsService) ListTransactions(ctx context.Context, userID uuid.UUID, filter model.TransactionFilter) ([]model.TransactionView, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).([]model.TransactionView), args.Error(1)
}

func (m *mockPointsService) ExportTransactions(ctx context.Context, userID uuid.UUID, filter model.TransactionFilter) (*excelize.File, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).(*excelize.File), args.Error(1)
}

func (m *mockPointsService) ListRedeemableProducts(ctx context.Context) ([]productModel.Product, error) {
	args := m.Called(ctx)
	return args.Get(0).([]productModel.Product), args.Error(1)
}

func (m *mockPointsService) CouponRates(ctx context.Context, userID uuid.UUID) (*model.CouponRatesResponse, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(*model.CouponRatesResponse), args.Error(1)
}

func (m *mockPointsService) ExchangeCoupon(ctx context.Context, userID uuid.UUID, req model.ExchangeCouponRequest) (*model.ExchangeCouponResponse, error) {
	args := m.Called(ctx, userID, req)
	return args.Get(0).(*model.ExchangeCouponResponse), args.Error(1)
}

func (m *mockPointsService) ListCoupons(ctx context.Context, userID uuid.UUID) ([]model.Coupon, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]model.Coupon), args.Error(1)
}

func (m *mockPointsService) Reconcile(ctx context.Context, limit int) ([]model.LedgerDrift, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]model.LedgerDrift), args.Error(1)
}

func reconcileTask(t *testing.T, payload interface{}) *asynq.Task {
	t.Helper()
	if payload == nil {
		return asynq.NewTask(shared.TypePointsReconcile, nil)
	}
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(shared.TypePointsReconcile, b)
}

func TestReconcileHandler_UsesPayloadLimit(t *testing.T) {
	svc := new(mockPointsService)
	svc.On("Reconcile", mock.Anything, 25).
		Return([]model.LedgerDrift{{UserID: uuid.New(), StoredPoints: 10, LedgerPoints: 4}}, nil).Once()

	h := NewReconcileHandler(svc, 500)
	require.NoError(t, h.ProcessTask(context.Background(), reconcileTask(t, shared.ReconcilePayload{Limit: 25})))
	svc.AssertExpectations(t)
}

func TestReconcileHandler_DefaultLimitForEmptyPayload(t *testing.T) {
	svc := new(mockPointsService)
	svc.On("Reconcile", mock.Anything, 500).Return([]model.LedgerDrift{}, nil).Once()

	h := NewReconcileHandler(svc, 500)
	require.NoError(t, h.ProcessTask(context.Background(), reconcileTask(t, nil)))
	svc.AssertExpectations(t)
}

func TestReconcileHandler_BadPayloadSkipsRetry(t *testing.T) {
	svc := new(mockPointsService)
	h := NewReconcileHandler(svc, 500)

	err := h.ProcessTask(context.Background(), asynq.NewTask(shared.TypePointsReconcile, []byte("{")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
	svc.AssertNotCalled(t, "Reconcile", mock.Anything, mock.Anything)
}

func TestReconcileHandler_ServiceErrorIsRetried(t *testing.T) {
	svc := new(mockPointsService)
	svc.On("Reconcile", mock.Anything, 500).Return([]model.LedgerDrift(nil), errors.New("db down")).Once()

	h := NewReconcileHandler(svc, 500)
	err := h.ProcessTask(context.Background(), reconcileTask(t, nil))
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}
