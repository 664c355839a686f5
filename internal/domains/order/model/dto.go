package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// CREATE ORDER REQUEST
// =====================================================
type CreateOrderRequest struct {
	Items    []CreateOrderItem `json:"items"`
	CouponID *uuid.UUID        `json:"coupon_id,omitempty"`
}

type CreateOrderItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	// RedeemWithPoints pays for this line with the product's points price
	RedeemWithPoints bool `json:"redeem_with_points,omitempty"`
}

// Validate checks request shape. Empty carts and bad quantities are
// reported by the service with their own codes.
func (req CreateOrderRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Items, validation.Length(0, 100)),
		validation.Field(&req.CouponID, validation.By(notNilUUID)),
	)
}

func (it CreateOrderItem) Validate() error {
	return validation.ValidateStruct(&it,
		validation.Field(&it.ProductID, validation.By(notNilUUID)),
	)
}

// notNilUUID rejects the zero uuid. validation.Required cannot, uuid.Nil is a non empty array.
func notNilUUID(value interface{}) error {
	switch v := value.(type) {
	case uuid.UUID:
		if v == uuid.Nil {
			return validation.ErrRequired
		}
	case *uuid.UUID:
		if v != nil && *v == uuid.Nil {
			return validation.ErrRequired
		}
	}
	return nil
}

// CartLine is a request item after duplicate products are merged
type CartLine struct {
	ProductID        uuid.UUID
	Quantity         int
	RedeemWithPoints bool
}

// =====================================================
// CREATE ORDER RESPONSE
// =====================================================
type CreateOrderResponse struct {
	OrderID       uuid.UUID       `json:"order_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	CouponAmount  decimal.Decimal `json:"coupon_amount"`
	Status        OrderStatus     `json:"status"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	UserBalance   decimal.Decimal `json:"user_balance"`
	UserPoints    int             `json:"user_points"`
	PointsUsed    int             `json:"points_used"`
	PointsEarned  int             `json:"points_earned"`
}

// =====================================================
// ORDER STATUS / LISTING
// =====================================================
type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status"`
}

func (req UpdateOrderStatusRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Status, validation.Required, validation.In(
			OrderStatusPaid,
			OrderStatusShipped,
			OrderStatusDelivered,
			OrderStatusCancelled,
		)),
	)
}

type ListOrdersRequest struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

func (r *ListOrdersRequest) Normalize() {
	if r.Limit <= 0 || r.Limit > 100 {
		r.Limit = 20
	}
	if r.Offset < 0 {
		r.Offset = 0
	}
}

type OrderStatusResponse struct {
	OrderID       uuid.UUID     `json:"order_id"`
	Status        OrderStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
