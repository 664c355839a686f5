package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents order status
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// PaymentStatus represents payment status
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// allowedTransitions is the order state machine
var allowedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:    {OrderStatusShipped},
	OrderStatusShipped: {OrderStatusDelivered},
}

func CanTransition(from, to OrderStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// =====================================================
// ORDER ENTITY
// =====================================================
type Order struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"user_id"`
	CouponID       *uuid.UUID      `json:"coupon_id,omitempty"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PointsUsed     int             `json:"points_used"`
	PointsEarned   int             `json:"points_earned"`
	Status         OrderStatus     `json:"status"`
	PaymentStatus  PaymentStatus   `json:"payment_status"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	Items []OrderItem `json:"items,omitempty"`
}

// NewOrder starts an order in pending/pending, nothing is assumed paid
func NewOrder(userID uuid.UUID, now time.Time) *Order {
	return &Order{
		ID:             uuid.New(),
		UserID:         userID,
		Subtotal:       decimal.Zero,
		DiscountAmount: decimal.Zero,
		TotalAmount:    decimal.Zero,
		Status:         OrderStatusPending,
		PaymentStatus:  PaymentStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// TransitionTo moves the order through the state machine and keeps
// payment status in step with it
func (o *Order) TransitionTo(to OrderStatus, now time.Time) error {
	if !CanTransition(o.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, o.Status, to)
	}

	switch to {
	case OrderStatusPaid:
		o.PaymentStatus = PaymentStatusCompleted
		o.PaidAt = &now
	case OrderStatusCancelled:
		o.PaymentStatus = PaymentStatusCancelled
	}

	o.Status = to
	o.UpdatedAt = now
	return nil
}

// =====================================================
// ORDER ITEM
// =====================================================

// OrderItem snapshots the product at purchase time.
// Items redeemed with points carry PriceAtTime 0 and a non zero PointsPriceAtTime.
type OrderItem struct {
	ID                uuid.UUID       `json:"id"`
	OrderID           uuid.UUID       `json:"order_id"`
	ProductID         uuid.UUID       `json:"product_id"`
	ProductName       string          `json:"product_name"`
	Quantity          int             `json:"quantity"`
	PriceAtTime       decimal.Decimal `json:"price_at_time"`
	PointsPriceAtTime int             `json:"points_price_at_time"`
}

func (oi OrderItem) LineTotal() decimal.Decimal {
	return oi.PriceAtTime.Mul(decimal.NewFromInt(int64(oi.Quantity)))
}

func (oi OrderItem) LinePoints() int {
	return oi.PointsPriceAtTime * oi.Quantity
}

func (oi OrderItem) RedeemedWithPoints() bool {
	return oi.PointsPriceAtTime > 0
}
