package model

import "errors"

// =====================================================
// ERROR CODES
// =====================================================
const (
	ErrCodeInvalidExchangeAmount = "InvalidExchangeAmount"
	ErrCodeInsufficientPoints    = "InsufficientPoints"
	ErrCodeUserNotFound          = "NotFound"
	ErrCodeValidation            = "ValidationError"
)

var (
	ErrInvalidExchangeAmount = errors.New("points amount is not an exchange tier")
	ErrInsufficientPoints    = errors.New("insufficient points")
	ErrCouponNotFound        = errors.New("coupon not found")
)

// =====================================================
// POINTS ERROR
// =====================================================
type PointsError struct {
	Code    string
	Message string
	Err     error
}

func (e *PointsError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *PointsError) Unwrap() error {
	return e.Err
}

func NewPointsError(code, message string, err error) *PointsError {
	return &PointsError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
