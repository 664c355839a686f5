package model

import (
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req RegisterRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Username, validation.Required, validation.Length(3, 50), validation.Match(usernamePattern)),
		validation.Field(&req.Email, validation.Required, is.EmailFormat, validation.Length(0, 255)),
		validation.Field(&req.Password, validation.Required, validation.Length(6, 72)),
	)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req LoginRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Email, validation.Required, is.EmailFormat),
		validation.Field(&req.Password, validation.Required),
	)
}

// UpdateProfileRequest changes only the fields that are set
type UpdateProfileRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
}

func (req UpdateProfileRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Username, validation.NilOrNotEmpty, validation.Length(3, 50), validation.Match(usernamePattern)),
		validation.Field(&req.Email, validation.NilOrNotEmpty, is.EmailFormat, validation.Length(0, 255)),
	)
}

type UserResponse struct {
	ID        uuid.UUID       `json:"id"`
	Username  string          `json:"username"`
	Email     string          `json:"email"`
	Role      string          `json:"role"`
	Points    int             `json:"points"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresIn int64        `json:"expires_in"`
	User      UserResponse `json:"user"`
	Message   string       `json:"message,omitempty"`
}
