package model

import "errors"

// =====================================================
// CUSTOM ERROR CODES
// =====================================================
const (
	ErrCodeOrderNotFound           = "NotFound"
	ErrCodeProductNotFound         = "NotFound"
	ErrCodeOutOfStock              = "OutOfStock"
	ErrCodeInvalidCoupon           = "InvalidCoupon"
	ErrCodeInsufficientFunds       = "InsufficientFunds"
	ErrCodeInsufficientPoints      = "InsufficientPoints"
	ErrCodeNotRedeemable           = "NotRedeemable"
	ErrCodeEmptyCart               = "EmptyCart"
	ErrCodeInvalidQuantity         = "InvalidQuantity"
	ErrCodeInvalidStatusTransition = "InvalidStatusTransition"
	ErrCodeValidation              = "ValidationError"
	ErrCodeUnauthorized            = "Unauthorized"
)

// =====================================================
// ERROR DEFINITIONS
// =====================================================
var (
	ErrOrderNotFound           = errors.New("order not found")
	ErrOutOfStock              = errors.New("out of stock")
	ErrInvalidCoupon           = errors.New("invalid coupon")
	ErrInsufficientFunds       = errors.New("insufficient funds")
	ErrInsufficientPoints      = errors.New("insufficient points")
	ErrNotRedeemable           = errors.New("product cannot be redeemed with points")
	ErrEmptyCart               = errors.New("cart is empty")
	ErrInvalidQuantity         = errors.New("quantity must be positive")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)

// =====================================================
// CUSTOM ERROR TYPE
// =====================================================
type OrderError struct {
	Code    string
	Message string
	Err     error
}

func (e *OrderError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *OrderError) Unwrap() error {
	return e.Err
}

// NewOrderError creates a new OrderError
func NewOrderError(code, message string, err error) *OrderError {
	return &OrderError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
