package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"pointshop-backend/internal/domains/order/model"
	"pointshop-backend/internal/domains/order/repository"
	pointsModel "pointshop-backend/internal/domains/points/model"
	pointsRepo "pointshop-backend/internal/domains/points/repository"
	productModel "pointshop-backend/internal/domains/product/model"
	productRepo "pointshop-backend/internal/domains/product/repository"
	userModel "pointshop-backend/internal/domains/user/model"
	userRepo "pointshop-backend/internal/domains/user/repository"
	"pointshop-backend/internal/infrastructure/queue"
	"pointshop-backend/internal/shared"
	"pointshop-backend/pkg/database"
	"pointshop-backend/pkg/logger"
)

// =====================================================
// ORDER SERVICE IMPLEMENTATION
// =====================================================
type orderService struct {
	txm         database.TxManager
	orderRepo   repository.OrderRepository
	userRepo    userRepo.UserRepository
	productRepo productRepo.ProductRepository
	pointsRepo  pointsRepo.PointsRepository
	asynq       queue.TaskEnqueuer // post-commit jobs, may be nil

	lowStockThreshold int
	now               func() time.Time
}

// NewOrderService creates a new order service
func NewOrderService(
	txm database.TxManager,
	orderRepo repository.OrderRepository,
	userRepo userRepo.UserRepository,
	productRepo productRepo.ProductRepository,
	pointsRepo pointsRepo.PointsRepository,
	asynq queue.TaskEnqueuer,
	lowStockThreshold int,
) OrderService {
	return &orderService{
		txm:               txm,
		orderRepo:         orderRepo,
		userRepo:          userRepo,
		productRepo:       productRepo,
		pointsRepo:        pointsRepo,
		asynq:             asynq,
		lowStockThreshold: lowStockThreshold,
		now:               time.Now,
	}
}

// settlement is what a committed checkout hands to the post-commit steps
type settlement struct {
	order    *model.Order
	user     *userModel.User
	wallet   *userModel.Wallet
	lowStock []shared.LowStockPayload
	bought   []uuid.UUID
}

// =====================================================
// CREATE ORDER - SETTLEMENT
// =====================================================

func (s *orderService) CreateOrder(ctx context.Context, userID uuid.UUID, req model.CreateOrderRequest) (*model.CreateOrderResponse, error) {
	// Step 1: reject bad carts before touching the database
	if len(req.Items) == 0 {
		return nil, model.NewOrderError(model.ErrCodeEmptyCart, "Cart is empty", model.ErrEmptyCart)
	}
	if err := req.Validate(); err != nil {
		return nil, model.NewOrderError(model.ErrCodeValidation, "Invalid request", err)
	}
	lines, err := mergeLines(req.Items)
	if err != nil {
		return nil, err
	}

	// Step 2: one transaction, lock then validate then write
	result, err := database.WithTxResult(ctx, s.txm, func(tx pgx.Tx) (*settlement, error) {
		return s.settle(ctx, tx, userID, lines, req.CouponID)
	})
	if err != nil {
		return nil, err
	}

	// Step 3: best effort follow ups, the order is already committed
	s.afterCommit(ctx, result)

	o := result.order
	return &model.CreateOrderResponse{
		OrderID:       o.ID,
		TotalAmount:   o.TotalAmount,
		CouponAmount:  o.DiscountAmount,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		UserBalance:   result.wallet.Balance,
		UserPoints:    result.wallet.Points,
		PointsUsed:    o.PointsUsed,
		PointsEarned:  o.PointsEarned,
	}, nil
}

// maxQuantity is the largest quantity a product may reach across one order,
// the range of the INTEGER stock and quantity columns.
const maxQuantity = math.MaxInt32

// mergeLines folds duplicate products paid the same way into one line and
// rejects non positive quantities. A product's total across all its lines
// must stay within maxQuantity. First appearance order is kept.
func mergeLines(items []model.CreateOrderItem) ([]model.CartLine, error) {
	type key struct {
		id     uuid.UUID
		points bool
	}

	index := make(map[key]int, len(items))
	totals := make(map[uuid.UUID]int, len(items))
	lines := make([]model.CartLine, 0, len(items))

	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, model.NewOrderError(model.ErrCodeInvalidQuantity,
				fmt.Sprintf("Quantity for product %s must be positive", it.ProductID), model.ErrInvalidQuantity)
		}
		// totals never exceed maxQuantity, so the subtraction cannot wrap
		if it.Quantity > maxQuantity-totals[it.ProductID] {
			return nil, model.NewOrderError(model.ErrCodeInvalidQuantity,
				fmt.Sprintf("Quantity for product %s is too large", it.ProductID), model.ErrInvalidQuantity)
		}
		totals[it.ProductID] += it.Quantity

		k := key{id: it.ProductID, points: it.RedeemWithPoints}
		if i, ok := index[k]; ok {
			lines[i].Quantity += it.Quantity
			continue
		}
		index[k] = len(lines)
		lines = append(lines, model.CartLine{
			ProductID:        it.ProductID,
			Quantity:         it.Quantity,
			RedeemWithPoints: it.RedeemWithPoints,
		})
	}
	return lines, nil
}

func (s *orderService) settle(
	ctx context.Context,
	tx pgx.Tx,
	userID uuid.UUID,
	lines []model.CartLine,
	couponID *uuid.UUID,
) (*settlement, error) {
	now := s.now()

	// ==================== PHASE 1: LOCK & VALIDATE ====================
	// Lock order is fixed: user, products by id, coupon.

	user, err := s.userRepo.GetForUpdateWithTx(ctx, tx, userID)
	if err != nil {
		if errors.Is(err, userModel.ErrUserNotFound) {
			return nil, model.NewOrderError(model.ErrCodeUnauthorized, "User not found", err)
		}
		return nil, err
	}

	wanted := make(map[uuid.UUID]int, len(lines))
	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		if _, ok := wanted[l.ProductID]; !ok {
			ids = append(ids, l.ProductID)
		}
		wanted[l.ProductID] += l.Quantity
	}

	locked, err := s.productRepo.GetForUpdateWithTx(ctx, tx, ids)
	if err != nil {
		return nil, err
	}
	products := make(map[uuid.UUID]*productModel.Product, len(locked))
	for i := range locked {
		products[locked[i].ID] = &locked[i]
	}

	for _, id := range ids {
		p, ok := products[id]
		if !ok {
			return nil, model.NewOrderError(model.ErrCodeProductNotFound,
				fmt.Sprintf("Product %s not found", id), productModel.ErrProductNotFound)
		}
		if wanted[id] > p.Stock {
			return nil, model.NewOrderError(model.ErrCodeOutOfStock,
				fmt.Sprintf("Insufficient stock for %s: requested %d, available %d", p.Name, wanted[id], p.Stock),
				model.ErrOutOfStock)
		}
	}

	order := model.NewOrder(userID, now)
	items := make([]model.OrderItem, 0, len(lines))
	pointsEarned := 0

	for _, l := range lines {
		p := products[l.ProductID]
		item := model.OrderItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    l.Quantity,
			// Price always comes from the locked row
			PriceAtTime: p.Price,
		}

		if l.RedeemWithPoints {
			if !p.Redeemable() {
				return nil, model.NewOrderError(model.ErrCodeNotRedeemable,
					fmt.Sprintf("%s cannot be redeemed with points", p.Name), model.ErrNotRedeemable)
			}
			item.PriceAtTime = decimal.Zero
			item.PointsPriceAtTime = *p.PointsPrice
		} else {
			pointsEarned += p.RewardFor(l.Quantity)
		}

		items = append(items, item)
	}

	pointsUsed := model.ItemsPoints(items)
	if pointsUsed > user.Points {
		return nil, model.NewOrderError(model.ErrCodeInsufficientPoints,
			fmt.Sprintf("Not enough points: need %d, have %d", pointsUsed, user.Points), model.ErrInsufficientPoints)
	}

	subtotal := model.ItemsSubtotal(items)
	discount := decimal.Zero

	if couponID != nil {
		coupon, err := s.pointsRepo.GetCouponForUpdateWithTx(ctx, tx, *couponID)
		if err != nil && !errors.Is(err, pointsModel.ErrCouponNotFound) {
			return nil, err
		}
		if !coupon.UsableBy(userID) {
			return nil, model.NewOrderError(model.ErrCodeInvalidCoupon, "Coupon is invalid or already used", model.ErrInvalidCoupon)
		}
		discount = coupon.DiscountAmount
		order.CouponID = couponID
	}

	total := model.ApplyDiscount(subtotal, discount)
	if total.IsPositive() && user.Balance.LessThan(total) {
		return nil, model.NewOrderError(model.ErrCodeInsufficientFunds,
			fmt.Sprintf("Insufficient balance: need %s, have %s", total.StringFixed(2), user.Balance.StringFixed(2)),
			model.ErrInsufficientFunds)
	}

	order.Subtotal = subtotal
	order.DiscountAmount = discount
	order.TotalAmount = total
	order.PointsUsed = pointsUsed
	order.PointsEarned = pointsEarned
	order.Items = items

	// The wallet debit below is the payment
	if err := order.TransitionTo(model.OrderStatusPaid, now); err != nil {
		return nil, err
	}

	// ==================== PHASE 2: WRITE ====================

	wallet, err := s.userRepo.ApplyWalletDeltaWithTx(ctx, tx, userID, total.Neg(), pointsEarned-pointsUsed)
	if err != nil {
		if errors.Is(err, userModel.ErrWalletUnderflow) {
			return nil, model.NewOrderError(model.ErrCodeInsufficientFunds, "Insufficient balance", model.ErrInsufficientFunds)
		}
		return nil, fmt.Errorf("debit wallet: %w", err)
	}

	if err := s.orderRepo.CreateOrderWithTx(ctx, tx, order); err != nil {
		return nil, err
	}
	if err := s.orderRepo.CreateOrderItemsWithTx(ctx, tx, items); err != nil {
		return nil, err
	}

	if couponID != nil {
		if err := s.pointsRepo.MarkCouponUsedWithTx(ctx, tx, *couponID, order.ID, now); err != nil {
			if errors.Is(err, pointsModel.ErrCouponNotFound) {
				return nil, model.NewOrderError(model.ErrCodeInvalidCoupon, "Coupon is invalid or already used", model.ErrInvalidCoupon)
			}
			return nil, fmt.Errorf("mark coupon used: %w", err)
		}
	}

	var lowStock []shared.LowStockPayload
	for _, id := range ids {
		remaining, err := s.productRepo.DecrementStockWithTx(ctx, tx, id, wanted[id])
		if err != nil {
			if errors.Is(err, productModel.ErrInsufficientStock) {
				return nil, model.NewOrderError(model.ErrCodeOutOfStock, "Insufficient stock", model.ErrOutOfStock)
			}
			return nil, fmt.Errorf("decrement stock: %w", err)
		}
		if remaining <= s.lowStockThreshold {
			lowStock = append(lowStock, shared.LowStockPayload{
				ProductID:   id.String(),
				ProductName: products[id].Name,
				Stock:       remaining,
				Threshold:   s.lowStockThreshold,
			})
		}
	}

	if err := s.writeLedger(ctx, tx, order); err != nil {
		return nil, err
	}

	return &settlement{
		order:    order,
		user:     user,
		wallet:   wallet,
		lowStock: lowStock,
		bought:   ids,
	}, nil
}

// writeLedger records points redeemed and earned by the order
func (s *orderService) writeLedger(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	orderID := order.ID

	if order.PointsUsed > 0 {
		entry := pointsModel.NewUsed(order.UserID, order.PointsUsed, fmt.Sprintf("Redeemed on order %s", orderID))
		entry.OrderID = &orderID
		entry.CreatedAt = order.CreatedAt
		if err := s.pointsRepo.CreateTransactionWithTx(ctx, tx, entry); err != nil {
			return fmt.Errorf("record redeemed points: %w", err)
		}
	}

	if order.PointsEarned > 0 {
		entry := pointsModel.NewEarned(order.UserID, order.PointsEarned, fmt.Sprintf("Reward for order %s", orderID))
		entry.OrderID = &orderID
		entry.CreatedAt = order.CreatedAt
		if err := s.pointsRepo.CreateTransactionWithTx(ctx, tx, entry); err != nil {
			return fmt.Errorf("record earned points: %w", err)
		}
	}
	return nil
}

func (s *orderService) afterCommit(ctx context.Context, r *settlement) {
	s.productRepo.InvalidateCache(ctx, r.bought...)

	o := r.order
	confirmation := shared.OrderConfirmationPayload{
		OrderID:      o.ID.String(),
		UserID:       o.UserID.String(),
		Email:        r.user.Email,
		Username:     r.user.Username,
		TotalAmount:  o.TotalAmount.StringFixed(2),
		CouponAmount: o.DiscountAmount.StringFixed(2),
		PointsUsed:   o.PointsUsed,
		PointsEarned: o.PointsEarned,
		ItemCount:    len(o.Items),
	}
	if err := queue.EnqueueJSON(ctx, s.asynq, shared.TypeSendOrderConfirmation, confirmation,
		asynq.Queue(shared.QueueOrder), asynq.MaxRetry(3)); err != nil {
		logger.Error("Failed to enqueue order confirmation", err)
	}

	for _, p := range r.lowStock {
		if err := queue.EnqueueJSON(ctx, s.asynq, shared.TypeProductLowStock, p,
			asynq.Queue(shared.QueueInventory), asynq.MaxRetry(3)); err != nil {
			logger.Error("Failed to enqueue low stock alert", err)
		}
	}

	logger.Info("Order settled", map[string]interface{}{
		"order_id":      o.ID.String(),
		"user_id":       o.UserID.String(),
		"total_amount":  o.TotalAmount.String(),
		"points_used":   o.PointsUsed,
		"points_earned": o.PointsEarned,
		"items":         len(o.Items),
	})
}

// =====================================================
// READS
// =====================================================

func (s *orderService) GetOrderDetail(ctx context.Context, orderID uuid.UUID, userID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetOrderByIDAndUserID(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, model.ErrOrderNotFound) {
			return nil, model.NewOrderError(model.ErrCodeOrderNotFound, "Order not found", err)
		}
		return nil, err
	}

	items, err := s.orderRepo.ListItemsByOrderIDs(ctx, []uuid.UUID{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, userID uuid.UUID, req model.ListOrdersRequest) ([]model.Order, error) {
	req.Normalize()

	orders, _, err := s.orderRepo.ListOrdersByUserID(ctx, userID, req.Limit, req.Offset)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]uuid.UUID, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
	}
	items, err := s.orderRepo.ListItemsByOrderIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

// =====================================================
// STATUS TRANSITIONS
// =====================================================

func (s *orderService) UpdateOrderStatus(
	ctx context.Context,
	orderID uuid.UUID,
	userID uuid.UUID,
	req model.UpdateOrderStatusRequest,
) (*model.OrderStatusResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, model.NewOrderError(model.ErrCodeValidation, "Invalid status", err)
	}

	order, err := database.WithTxResult(ctx, s.txm, func(tx pgx.Tx) (*model.Order, error) {
		order, err := s.orderRepo.GetForUpdateWithTx(ctx, tx, orderID, userID)
		if err != nil {
			if errors.Is(err, model.ErrOrderNotFound) {
				return nil, model.NewOrderError(model.ErrCodeOrderNotFound, "Order not found", err)
			}
			return nil, err
		}

		from := order.Status
		if err := order.TransitionTo(req.Status, s.now()); err != nil {
			return nil, model.NewOrderError(model.ErrCodeInvalidStatusTransition,
				fmt.Sprintf("Cannot change status from %s to %s", from, req.Status), err)
		}

		if err := s.orderRepo.UpdateStatusWithTx(ctx, tx, order); err != nil {
			return nil, err
		}
		return order, nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Order status updated", map[string]interface{}{
		"order_id": order.ID.String(),
		"status":   string(order.Status),
	})

	return &model.OrderStatusResponse{
		OrderID:       order.ID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		PaidAt:        order.PaidAt,
		UpdatedAt:     order.UpdatedAt,
	}, nil
}
