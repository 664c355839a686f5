package model

import "errors"

const (
	ErrCodeUserNotFound       = "NotFound"
	ErrCodeInvalidCredentials = "InvalidCredentials"
	ErrCodeEmailTaken         = "EmailTaken"
	ErrCodeUsernameTaken      = "UsernameTaken"
	ErrCodeValidation         = "ValidationError"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already exists")
	ErrUsernameTaken      = errors.New("username already exists")
	// ErrWalletUnderflow is returned when a wallet delta would make balance or points negative
	ErrWalletUnderflow = errors.New("wallet would go negative")
)

type UserError struct {
	Code    string
	Message string
	Err     error
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *UserError) Unwrap() error {
	return e.Err
}

func NewUserError(code, message string, err error) *UserError {
	return &UserError{Code: code, Message: message, Err: err}
}
