package model

import "errors"

const (
	ErrCodeProductNotFound  = "NotFound"
	ErrCodeCategoryNotFound = "CategoryNotFound"
	ErrCodeValidation       = "ValidationError"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	// ErrInsufficientStock is returned by guarded stock decrements
	ErrInsufficientStock = errors.New("insufficient stock")
)

type ProductError struct {
	Code    string
	Message string
	Err     error
}

func (e *ProductError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ProductError) Unwrap() error {
	return e.Err
}

func NewProductError(code, message string, err error) *ProductError {
	return &ProductError{Code: code, Message: message, Err: err}
}
