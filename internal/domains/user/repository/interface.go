package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"pointshop-backend/internal/domains/user/model"
)

type UserRepository interface {
	CreateWithTx(ctx context.Context, tx pgx.Tx, u *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// ExistsByEmailOrUsername ignores the row with excludeID, pass uuid.Nil to check everyone
	ExistsByEmailOrUsername(ctx context.Context, email, username string, excludeID uuid.UUID) (emailTaken, usernameTaken bool, err error)
	UpdateProfile(ctx context.Context, id uuid.UUID, username, email string) (*model.User, error)

	// Settlement
	GetForUpdateWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.User, error)
	// ApplyWalletDeltaWithTx adds the deltas atomically and fails with ErrWalletUnderflow
	// rather than letting balance or points go negative
	ApplyWalletDeltaWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, balanceDelta decimal.Decimal, pointsDelta int) (*model.Wallet, error)
}
