package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	pointsModel "pointshop-backend/internal/domains/points/model"
	pointsRepo "pointshop-backend/internal/domains/points/repository"
	"pointshop-backend/internal/domains/user/model"
	"pointshop-backend/internal/domains/user/repository"
	"pointshop-backend/internal/shared"
	"pointshop-backend/internal/shared/utils"
	"pointshop-backend/pkg/database"
	"pointshop-backend/pkg/logger"
)

// Service is the account business logic
type Service interface {
	Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error)
	Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*model.UserResponse, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req model.UpdateProfileRequest) (*model.UserResponse, error)
}

// TokenIssuer signs access tokens, implemented by pkg/jwt.Manager
type TokenIssuer interface {
	GenerateAccessToken(userID, email, role string) (string, error)
	AccessTTL() time.Duration
}

// SignupBonus is credited to every new account
type SignupBonus struct {
	Points  int
	Balance decimal.Decimal
}

type userService struct {
	txm        database.TxManager
	repo       repository.UserRepository
	pointsRepo pointsRepo.PointsRepository
	tokens     TokenIssuer
	bonus      SignupBonus
	bcryptCost int
}

func NewUserService(
	txm database.TxManager,
	repo repository.UserRepository,
	pointsRepo pointsRepo.PointsRepository,
	tokens TokenIssuer,
	bonus SignupBonus,
) Service {
	return &userService{
		txm:        txm,
		repo:       repo,
		pointsRepo: pointsRepo,
		tokens:     tokens,
		bonus:      bonus,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// ========================================
// AUTHENTICATION
// ========================================

// Register creates the account and credits the signup bonus in one transaction
func (s *userService) Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = utils.NormalizeEmail(req.Email)

	if err := req.Validate(); err != nil {
		return nil, model.NewUserError(model.ErrCodeValidation, "Validation failed", err)
	}

	if err := s.checkAvailable(ctx, req.Email, req.Username, uuid.Nil); err != nil {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	u := &model.User{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(passwordHash),
		Role:         shared.RoleUser,
		Points:       s.bonus.Points,
		Balance:      s.bonus.Balance,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.txm.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.repo.CreateWithTx(ctx, tx, u); err != nil {
			return err
		}
		if s.bonus.Points <= 0 {
			return nil
		}
		// The bonus goes through the ledger like any other credit
		entry := pointsModel.NewEarned(u.ID, s.bonus.Points, "Signup bonus")
		entry.CreatedAt = now
		return s.pointsRepo.CreateTransactionWithTx(ctx, tx, entry)
	})
	if err != nil {
		return nil, mapConflict(err)
	}

	logger.Info("User registered", map[string]interface{}{
		"user_id":  u.ID.String(),
		"username": u.Username,
	})

	resp, err := s.authResponse(u)
	if err != nil {
		return nil, err
	}
	resp.Message = "User registered successfully"
	return resp, nil
}

// Login verifies the password and issues an access token.
// Unknown email and wrong password look the same to the caller.
func (s *userService) Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error) {
	req.Email = utils.NormalizeEmail(req.Email)
	if err := req.Validate(); err != nil {
		return nil, model.NewUserError(model.ErrCodeValidation, "Validation failed", err)
	}

	u, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, model.NewUserError(model.ErrCodeInvalidCredentials, "Invalid credentials", model.ErrInvalidCredentials)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, model.NewUserError(model.ErrCodeInvalidCredentials, "Invalid credentials", model.ErrInvalidCredentials)
	}

	return s.authResponse(u)
}

func (s *userService) authResponse(u *model.User) (*model.AuthResponse, error) {
	token, err := s.tokens.GenerateAccessToken(u.ID.String(), u.Email, u.Role)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	return &model.AuthResponse{
		Token:     token,
		ExpiresIn: int64(s.tokens.AccessTTL().Seconds()),
		User:      u.ToResponse(),
	}, nil
}

// ========================================
// PROFILE
// ========================================

func (s *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*model.UserResponse, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, model.NewUserError(model.ErrCodeUserNotFound, "User not found", err)
		}
		return nil, err
	}
	resp := u.ToResponse()
	return &resp, nil
}

// UpdateProfile changes username and/or email, keeping the other as is
func (s *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, req model.UpdateProfileRequest) (*model.UserResponse, error) {
	if req.Username != nil {
		trimmed := strings.TrimSpace(*req.Username)
		req.Username = &trimmed
	}
	if req.Email != nil {
		normalized := utils.NormalizeEmail(*req.Email)
		req.Email = &normalized
	}
	if err := req.Validate(); err != nil {
		return nil, model.NewUserError(model.ErrCodeValidation, "Validation failed", err)
	}

	current, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, model.NewUserError(model.ErrCodeUserNotFound, "User not found", err)
		}
		return nil, err
	}

	username, email := current.Username, current.Email
	if req.Username != nil {
		username = *req.Username
	}
	if req.Email != nil {
		email = *req.Email
	}

	if err := s.checkAvailable(ctx, email, username, userID); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateProfile(ctx, userID, username, email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, model.NewUserError(model.ErrCodeUserNotFound, "User not found", err)
		}
		return nil, mapConflict(err)
	}

	resp := updated.ToResponse()
	return &resp, nil
}

// checkAvailable fails with a conflict when email or username belongs to someone else
func (s *userService) checkAvailable(ctx context.Context, email, username string, self uuid.UUID) error {
	emailTaken, usernameTaken, err := s.repo.ExistsByEmailOrUsername(ctx, email, username, self)
	if err != nil {
		return err
	}
	if emailTaken {
		return model.NewUserError(model.ErrCodeEmailTaken, "Email already exists", model.ErrEmailTaken)
	}
	if usernameTaken {
		return model.NewUserError(model.ErrCodeUsernameTaken, "Username already exists", model.ErrUsernameTaken)
	}
	return nil
}

// mapConflict covers the race where another request took the email or username
// between checkAvailable and the write
func mapConflict(err error) error {
	switch {
	case errors.Is(err, model.ErrEmailTaken):
		return model.NewUserError(model.ErrCodeEmailTaken, "Email already exists", err)
	case errors.Is(err, model.ErrUsernameTaken):
		return model.NewUserError(model.ErrCodeUsernameTaken, "Username already exists", err)
	}
	return err
}
