package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pointshop-backend/internal/domains/order/model"
	pointsModel "pointshop-backend/internal/domains/points/model"
	productModel "pointshop-backend/internal/domains/product/model"
	userModel "pointshop-backend/internal/domains/user/model"
	"pointshop-backend/internal/shared"
	"pointshop-backend/internal/testutil/memstore"
)

// fakeQueue records enqueued task types
type fakeQueue struct {
	mu    sync.Mutex
	types []string
	err   error
}

func (q *fakeQueue) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return nil, q.err
	}
	q.types = append(q.types, task.Type())
	return &asynq.TaskInfo{ID: uuid.NewString(), Type: task.Type()}, nil
}

func (q *fakeQueue) count(taskType string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, t := range q.types {
		if t == taskType {
			n++
		}
	}
	return n
}

type fixture struct {
	store *memstore.Store
	queue *fakeQueue
	svc   OrderService
	user  userModel.User
}

func newFixture(t *testing.T, balance string, points int) *fixture {
	t.Helper()

	store := memstore.New()
	q := &fakeQueue{}

	u := userModel.User{
		ID:       uuid.New(),
		Username: "buyer",
		Email:    "buyer@example.com",
		Role:     shared.RoleUser,
		Points:   points,
		Balance:  decimal.RequireFromString(balance),
	}
	store.PutUser(u)
	if points > 0 {
		store.PutTransaction(*pointsModel.NewEarned(u.ID, points, "seed"))
	}

	svc := NewOrderService(store, store.Orders(), store.Users(), store.Products(), store.Points(), q, 5)
	return &fixture{store: store, queue: q, svc: svc, user: u}
}

func (f *fixture) product(t *testing.T, price string, stock int, opts ...func(*productModel.Product)) productModel.Product {
	t.Helper()
	p := productModel.Product{
		ID:    uuid.New(),
		Name:  "Product " + uuid.NewString()[:8],
		Price: decimal.RequireFromString(price),
		Stock: stock,
	}
	for _, opt := range opts {
		opt(&p)
	}
	f.store.PutProduct(p)
	return p
}

func withPointsPrice(n int) func(*productModel.Product) {
	return func(p *productModel.Product) { p.PointsPrice = &n }
}

func withReward(n int) func(*productModel.Product) {
	return func(p *productModel.Product) { p.PointsReward = &n }
}

func (f *fixture) coupon(owner uuid.UUID, discount string) pointsModel.Coupon {
	c := pointsModel.Coupon{
		ID:             uuid.New(),
		UserID:         owner,
		PointsUsed:     300,
		DiscountAmount: decimal.RequireFromString(discount),
		CreatedAt:      time.Now(),
	}
	f.store.PutCoupon(c)
	return c
}

func (f *fixture) wallet(t *testing.T) userModel.User {
	t.Helper()
	u, ok := f.store.User(f.user.ID)
	require.True(t, ok)
	return u
}

func stock(t *testing.T, s *memstore.Store, id uuid.UUID) int {
	t.Helper()
	p, ok := s.Product(id)
	require.True(t, ok)
	return p.Stock
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var orderErr *model.OrderError
	require.True(t, errors.As(err, &orderErr), "expected OrderError, got %v", err)
	assert.Equal(t, code, orderErr.Code)
}

func item(id uuid.UUID, qty int) model.CreateOrderItem {
	return model.CreateOrderItem{ProductID: id, Quantity: qty}
}

// =====================================================
// SETTLEMENT
// =====================================================

func TestCreateOrder_CouponAndBalance(t *testing.T) {
	f := newFixture(t, "40.00", 0)
	p := f.product(t, "25.00", 10)
	c := f.coupon(f.user.ID, "15.00")

	resp, err := f.svc.CreateOrder(context.Background(), f.user.ID, model.CreateOrderRequest{
		Items:    []model.CreateOrderItem{item(p.ID, 2)},
		CouponID: &c.ID,
	})
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(35).Equal(resp.TotalAmount), "total %s", resp.TotalAmount)
	assert.True(t, decimal.NewFromInt(15).Equal(resp.CouponAmount))
	assert.True(t, decimal.NewFromInt(5).Equal(resp.UserBalance), "balance %s", resp.UserBalance)
	assert.Equal(t, model.OrderStatusPaid, resp.Status)
	assert.Equal(t, model.PaymentStatusCompleted, resp.PaymentStatus)

	assert.True(t, decimal.NewFromInt(5).Equal(f.wallet(t).Balance))
	assert.Equal(t, 8, stock(t, f.store, p.ID))

	used, _ := f.store.Coupon(c.ID)
	assert.True(t, used.IsUsed)
	require.NotNil(t, used.OrderID)
	assert.Equal(t, resp.OrderID, *used.OrderID)

	items := f.store.OrderItems(resp.OrderID)
	require.Len(t, items, 1)
	assert.True(t, p.Price.Equal(items[0].PriceAtTime))
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, p.Name, items[0].ProductName)

	assert.Equal(t, 1, f.queue.count(shared.TypeSendOrderConfirmation))
}

func TestCreateOrder_TotalMatchesItems(t *testing.T) {
	f := newFixture(t, "500.00", 0)
	a := f.product(t, "12.50", 10)
	b := f.product(t, "3.99", 10)

	resp, err := f.svc.CreateOrder(context.Background(), f.user.ID, model.CreateOrderRequest{
		Items: []model.CreateOrderItem{item(a.ID, 3), item(b.ID, 4)},
	})
	require.NoError(t, err)

	items := f.store.OrderItems(resp.OrderID)
	assert.True(t, model.ItemsSubtotal(items).Equal(resp.TotalAmount))
	assert.Equal(t, "53.46", resp.TotalAmount.StringFixed(2))
	assert.Equal(t, "446.54", f.wallet(t).Balance.StringFixed(2))
}

func TestCreateOrder_DiscountFlooredAtZero(t *testing.T) {
	f := newFixture(t, "0.00", 0)
	p := f.product(t, "5.00", 3)
	c := f.coupon(f.user.ID, "15.00")

	resp, err := f.svc.CreateOrder(context.Background(), f.user.ID, model.CreateOrderRequest{
		Items:    []model.CreateOrderItem{item(p.ID, 1)},
		CouponID: &c.ID,
	})
	require.NoError(t, err)

	assert.True(t, resp.TotalAmount.IsZero())
	assert.True(t, resp.UserBalance.IsZero())
	assert.Equal(t, 2, stock(t, f.store, p.ID))
}

func TestCreateOrder_RejectsBeforeAnyDBWork(t *testing.T) {
	f := newFixture(t, "100.00", 0)
	p := f.product(t, "1.00", 5)

	_, err := f.svc.CreateOrder(context.Background(), f.user.ID, model.CreateOrderRequest{})
	requireCode(t, err, model.ErrCodeEmptyCart)

	_, err = f.svc.CreateOrder(context.Background(), f.user.ID, model.CreateOrderRequest{
		Items: []model.CreateOrderItem{item(p.ID, 1), item(p.ID, 0)},
	})
	requireCode(t, err, model.ErrCodeInvalidQuantity)

	_, err = f.svc.CreateOrder(context.Background(), f.user.ID, model.CreateOrderRequest{
		Items: []model.CreateOrderItem{item(p.ID, -2)},
	})
	requireCode(t, err, model.ErrCodeInvalidQuantity)

	assert.Equal(t, 0, f.store.Transactions())
}

func TestCreateOrder_UnknownProduct(t *testing.T) {
	f := newFixture(t, "100.00", 0)

	_, err := f.svc.CreateOrder(context.Background(), f.user.ID, model.CreateOrderRequest{
		Items: []model.CreateOrderItem{item(uuid.New(), 1)},
	})
	requireCode(t, err, model.ErrCodeProductNotFound)
	assert.Equal(t, 0, f.store.OrderCount())
}

func TestCreateOrder_OutOfStockLeavesNoTrace(t *testing.T) {
	f := newFixture(t, "100.00", 0)
	a := f.product(t, "1.00", 5)
	b := f.product(t, "1.00", 1)

	_, err := f.svc.CreateOrder(context.Background(), f.user.ID, model.CreateOrderRequest{
		Items: []model.CreateOrderItem{item(a.ID, 2), item(b.ID, 2)},
	})
	requireCode(t, err, model.ErrCodeOutOfStock)

	assert.Equal(t, 5, stock(t, f.store, a.ID))
	assert.Equal(t, 1, stock(t, f.store, b.ID))
	assert.Equal(t, "100.00", f.wallet(t).Balance.StringFixed(2))
	assert.Equal(t, 0, f.store.OrderCount())
	assert.Equal(t, 0, f.queue.count(shared.TypeSendOrderConfirmation))
}

func TestCreateOrder_DuplicateLinesAreMerged(t *testing.T) {
	f := newFixture(t, "100.00", 0)
	p := f.product(t, "2.00", 2)

	resp, err := f.svc.CreateOrder(context.Background(), f.user.ID, model.CreateOrderRequest{
		Items: []model.CreateOrderItem{item(p.ID, 1), item(p.ID, 1)},
	})
	require.NoError(t, err)
	items := f.store.OrderItems(resp.OrderID)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, 0, stock(t, f.store, p.ID))

	q := f.product(t, "2.00", 1)
	_, err = f.svc.CreateOrder(context.Background(), f.user.ID, model.CreateOrderRequest{
		Items: []model.CreateOrderItem{item(q.ID, 1), item(q.ID, 1)},
	})
	requireCode(t, err, model.ErrCodeOutOfStock)
	assert.Equal(t, 1, stock(t, f.store, q.ID))
}

func TestCreateOrder_MergedQuantityMustFitColumn(t *testing.T) {
	f := newFixture(t, "10.00", 0)
	p := f.product(t, "1.00", 2, withPointsPrice(1))

	cases := map[string][]model.CreateOrderItem{
		"wraps int":   {item(p.ID, math.MaxInt), item(p.ID, math.MaxInt)},
		"single line": {item(p.ID, math.MaxInt32+1)},
		"split lines": {item(p.ID, math.MaxInt32), item(p.ID, 1)},
		"mixed payment": {
			item(p.ID, math.MaxInt32),
			{ProductID: p.ID, Quantity: 1, RedeemWithPoints: true},
		},
	}
	for name, items := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.CreateOrder(context.Background(), f.user.ID, model.CreateOrderRequest{Items: items})
			requireCode(t, err, model.ErrCodeInvalidQuantity)
		})
	}

	assert.Equal(t, 0, f.store.Transactions())
	assert.Equal(t, 2, stock(t, f.store, p.ID))
	assert.Equal(t, "10.00", f.wallet(t).Balance.StringFixed(2))
	assert.Equal(t, 0, f.store.OrderCount())
}

func TestCreateOrder_InsufficientFundsLeavesNoTrace(t *testing.T) {
	f := newFixture(t, "10.00", 0)
	p := f.product(t, "25.00", 4, withReward(10))
	c := f.coupon(f.user.ID, "5.00")

	_, err := f.svc.CreateOrder(context.Background(), f.user.ID, model.CreateOrderRequest{
		Items:    []model.CreateOrderItem{item(p.ID, 1)},
		CouponID: &c.ID,
	})
	requireCode(t, err, model.ErrCodeInsufficientFunds)

	assert.Equal(t, "10.00", f.wallet(t).Balance.StringFixed(2))
	assert.Equal(t, 0, f.wallet(t).Points)
	assert.Equal(t, 4, stock(t, f.store, p.ID))
	coupon, _ := f.store.Coupon(c.ID)
	assert.False(t, coupon.IsUsed)
	assert.Empty(t, f.store.Ledger(f.user.ID))
	assert.Equal(t, 0, f.store.OrderCount())
}

func TestCreateOrder_InvalidCoupons(t *testing.T) {
	f := newFixture(t, "100.00", 0)
	p := f.product(t, "1.00", 10)
	other := f.coupon(uuid.New(), "5.00")

	_, err := f.svc.CreateOrder(context.Background(), f.user.ID, model.CreateOrderRequest{
		Items:    []model.CreateOrderItem{item(p.ID, 1)},
		CouponID: &other.ID,
	})
	requireCode(t, err, model.ErrCodeInvalidCoupon)

	missing := uuid.New()
	_, err = f.svc.CreateOrder(context.Background(), f.user.ID, model.CreateOrderRequest{
		Items:    []model.CreateOrderItem{item(p.ID, 1)},
		CouponID: &missing,
	})
	requireCode(t, err, model.ErrCodeInvalidCoupon)

	assert.Equal(t, 10, stock(t, f.store, p.ID))
}

func TestCreateOrder_CouponIsSingleUse(t *testing.T) {
	f := newFixture(t, "100.00", 0)
	p := f.product(t, "20.00", 10)
	c := f.coupon(f.user.ID, "10.00")

	req := model.CreateOrderRequest{Items: []model.CreateOrderItem{item(p.ID, 1)}, CouponID: &c.ID}

	_, err := f.svc.CreateOrder(context.Background(), f.user.ID, req)
	require.NoError(t, err)

	_, err = f.svc.CreateOrder(context.Background(), f.user.ID, req)
	requireCode(t, err, model.ErrCodeInvalidCoupon)

	assert.Equal(t, "90.00", f.wallet(t).Balance.StringFixed(2))
	assert.Equal(t, 9, stock(t, f.store, p.ID))
}

func TestCreateOrder_RedeemWithPoints(t *testing.T) {
	f := newFixture(t, "0.00", 120)
	p := f.product(t, "30.00", 5, withPointsPrice(50), withReward(7))

	resp, err := f.svc.CreateOrder(context.Background(), f.user.ID, model.CreateOrderRequest{
		Items: []model.CreateOrderItem{{ProductID: p.ID, Quantity: 2, RedeemWithPoints: true}},
	})
	require.NoError(t, err)

	assert.True(t, resp.TotalAmount.IsZero())
	assert.Equal(t, 100, resp.PointsUsed)
	assert.Equal(t, 0, resp.PointsEarned, "redeemed items earn nothing")
	assert.Equal(t, 20, resp.UserPoints)

	items := f.store.OrderItems(resp.OrderID)
	require.Len(t, items, 1)
	assert.True(t, items[0].PriceAtTime.IsZero())
	assert.Equal(t, 50, items[0].PointsPriceAtTime)

	u := f.wallet(t)
	assert.Equal(t, 20, u.Points)
	assert.Equal(t, u.Points, f.store.LedgerSum(f.user.ID))
}

func TestCreateOrder_RedeemFailures(t *testing.T) {
	f := newFixture(t, "100.00", 40)
	plain := f.product(t, "3.00", 5)
	pricey := f.product(t, "3.00", 5, withPointsPrice(50))

	_, err := f.svc.CreateOrder(context.Background(), f.user.ID, model.CreateOrderRequest{
		Items: []model.CreateOrderItem{{ProductID: plain.ID, Quantity: 1, RedeemWithPoints: true}},
	})
	requireCode(t, err, model.ErrCodeNotRedeemable)

	_, err = f.svc.CreateOrder(context.Background(), f.user.ID, model.CreateOrderRequest{
		Items: []model.CreateOrderItem{{ProductID: pricey.ID, Quantity: 1, RedeemWithPoints: true}},
	})
	requireCode(t, err, model.ErrCodeInsufficientPoints)

	assert.Equal(t, 40, f.wallet(t).Points)
	assert.Equal(t, 5, stock(t, f.store, pricey.ID))
}

func TestCreateOrder_RewardPointsHitTheLedger(t *testing.T) {
	f := newFixture(t, "100.00", 0)
	p := f.product(t, "10.00", 10, withReward(10))

	resp, err := f.svc.CreateOrder(context.Background(), f.user.ID, model.CreateOrderRequest{
		Items: []model.CreateOrderItem{item(p.ID, 3)},
	})
	require.NoError(t, err)

	assert.Equal(t, 30, resp.PointsEarned)
	assert.Equal(t, 30, resp.UserPoints)

	ledger := f.store.Ledger(f.user.ID)
	require.Len(t, ledger, 1)
	assert.Equal(t, pointsModel.TransactionEarned, ledger[0].TransactionType)
	require.NotNil(t, ledger[0].OrderID)
	assert.Equal(t, resp.OrderID, *ledger[0].OrderID)
	assert.Equal(t, f.wallet(t).Points, f.store.LedgerSum(f.user.ID))
}

func TestCreateOrder_WriteFailureRollsBackEverything(t *testing.T) {
	f := newFixture(t, "100.00", 0)
	p := f.product(t, "10.00", 10, withReward(5))
	c := f.coupon(f.user.ID, "5.00")
	f.store.FailOn("points.CreateTransactionWithTx", errors.New("connection reset"))

	_, err := f.svc.CreateOrder(context.Background(), f.user.ID, model.CreateOrderRequest{
		Items:    []model.CreateOrderItem{item(p.ID, 2)},
		CouponID: &c.ID,
	})
	require.Error(t, err)
	var orderErr *model.OrderError
	assert.False(t, errors.As(err, &orderErr), "infrastructure failures are not business errors")

	assert.Equal(t, "100.00", f.wallet(t).Balance.StringFixed(2))
	assert.Equal(t, 0, f.wallet(t).Points)
	assert.Equal(t, 10, stock(t, f.store, p.ID))
	coupon, _ := f.store.Coupon(c.ID)
	assert.False(t, coupon.IsUsed)
	assert.Equal(t, 0, f.store.OrderCount())
	assert.Equal(t, 0, f.queue.count(shared.TypeSendOrderConfirmation))
}

// memstore runs one transaction at a time, so this covers the locked
// re-read of stock inside the transaction, not the FOR UPDATE row locks.
// Those are asserted on the SQL in the product and user repository tests.
func TestCreateOrder_LastUnitGoesToOneBuyer(t *testing.T) {
	f := newFixture(t, "100.00", 0)
	p := f.product(t, "10.00", 1)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.CreateOrder(context.Background(), f.user.ID, model.CreateOrderRequest{
				Items: []model.CreateOrderItem{item(p.ID, 1)},
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		requireCode(t, err, model.ErrCodeOutOfStock)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 0, stock(t, f.store, p.ID))
	assert.Equal(t, "90.00", f.wallet(t).Balance.StringFixed(2))
	assert.Equal(t, 1, f.store.OrderCount())
}

func TestCreateOrder_LowStockAlert(t *testing.T) {
	f := newFixture(t, "100.00", 0)
	p := f.product(t, "1.00", 6)
	plenty := f.product(t, "1.00", 50)

	_, err := f.svc.CreateOrder(context.Background(), f.user.ID, model.CreateOrderRequest{
		Items: []model.CreateOrderItem{item(p.ID, 2), item(plenty.ID, 1)},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, f.queue.count(shared.TypeProductLowStock))
}

func TestCreateOrder_EnqueueFailureDoesNotFailCheckout(t *testing.T) {
	f := newFixture(t, "100.00", 0)
	f.queue.err = errors.New("redis down")
	p := f.product(t, "1.00", 1)

	resp, err := f.svc.CreateOrder(context.Background(), f.user.ID, model.CreateOrderRequest{
		Items: []model.CreateOrderItem{item(p.ID, 1)},
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, resp.OrderID)
	assert.Equal(t, 1, f.store.OrderCount())
}

// =====================================================
// READS & STATUS
// =====================================================

func TestGetOrderDetail_OwnerOnly(t *testing.T) {
	f := newFixture(t, "100.00", 0)
	p := f.product(t, "4.00", 5)

	resp, err := f.svc.CreateOrder(context.Background(), f.user.ID, model.CreateOrderRequest{
		Items: []model.CreateOrderItem{item(p.ID, 1)},
	})
	require.NoError(t, err)

	order, err := f.svc.GetOrderDetail(context.Background(), resp.OrderID, f.user.ID)
	require.NoError(t, err)
	assert.Len(t, order.Items, 1)
	assert.NotNil(t, order.PaidAt)

	_, err = f.svc.GetOrderDetail(context.Background(), resp.OrderID, uuid.New())
	requireCode(t, err, model.ErrCodeOrderNotFound)

	orders, err := f.svc.ListOrders(context.Background(), f.user.ID, model.ListOrdersRequest{})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Len(t, orders[0].Items, 1)
}

func TestUpdateOrderStatus_StateMachine(t *testing.T) {
	f := newFixture(t, "100.00", 0)
	p := f.product(t, "4.00", 5)

	resp, err := f.svc.CreateOrder(context.Background(), f.user.ID, model.CreateOrderRequest{
		Items: []model.CreateOrderItem{item(p.ID, 1)},
	})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = f.svc.UpdateOrderStatus(ctx, resp.OrderID, f.user.ID, model.UpdateOrderStatusRequest{Status: model.OrderStatusCancelled})
	requireCode(t, err, model.ErrCodeInvalidStatusTransition)

	out, err := f.svc.UpdateOrderStatus(ctx, resp.OrderID, f.user.ID, model.UpdateOrderStatusRequest{Status: model.OrderStatusShipped})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusShipped, out.Status)

	_, err = f.svc.UpdateOrderStatus(ctx, resp.OrderID, f.user.ID, model.UpdateOrderStatusRequest{Status: model.OrderStatusShipped})
	requireCode(t, err, model.ErrCodeInvalidStatusTransition)

	out, err = f.svc.UpdateOrderStatus(ctx, resp.OrderID, f.user.ID, model.UpdateOrderStatusRequest{Status: model.OrderStatusDelivered})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusDelivered, out.Status)
	assert.Equal(t, model.PaymentStatusCompleted, out.PaymentStatus)

	_, err = f.svc.UpdateOrderStatus(ctx, resp.OrderID, f.user.ID, model.UpdateOrderStatusRequest{Status: "refunded"})
	requireCode(t, err, model.ErrCodeValidation)

	_, err = f.svc.UpdateOrderStatus(ctx, uuid.New(), f.user.ID, model.UpdateOrderStatusRequest{Status: model.OrderStatusShipped})
	requireCode(t, err, model.ErrCodeOrderNotFound)
}
