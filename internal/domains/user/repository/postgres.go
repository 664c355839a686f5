package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"pointshop-backend/internal/domains/user/model"
	"pointshop-backend/internal/shared/utils"
)

const userColumns = `id, username, email, password_hash, role, points, balance, created_at, updated_at`

// postgresRepository is the pgx implementation of UserRepository
type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) UserRepository {
	return &postgresRepository{pool: pool}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role,
		&u.Points, &u.Balance, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// mapUniqueViolation turns a unique constraint failure into the matching sentinel
func mapUniqueViolation(err error) error {
	constraint, ok := utils.IsUniqueViolation(err)
	if !ok {
		return err
	}
	if strings.Contains(constraint, "username") {
		return model.ErrUsernameTaken
	}
	return model.ErrEmailTaken
}

// ========================================
// BASIC CRUD OPERATIONS
// ========================================

func (r *postgresRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, u *model.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := tx.Exec(ctx, query,
		u.ID, u.Username, u.Email, u.PasswordHash, u.Role,
		u.Points, u.Balance, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if mapped := mapUniqueViolation(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *postgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil && !errors.Is(err, model.ErrUserNotFound) {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, err
}

func (r *postgresRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil && !errors.Is(err, model.ErrUserNotFound) {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return u, err
}

func (r *postgresRepository) ExistsByEmailOrUsername(ctx context.Context, email, username string, excludeID uuid.UUID) (bool, bool, error) {
	query := `
		SELECT
			COALESCE(BOOL_OR(email = $1), FALSE),
			COALESCE(BOOL_OR(username = $2), FALSE)
		FROM users
		WHERE (email = $1 OR username = $2) AND id <> $3
	`
	var emailTaken, usernameTaken bool
	if err := r.pool.QueryRow(ctx, query, email, username, excludeID).Scan(&emailTaken, &usernameTaken); err != nil {
		return false, false, fmt.Errorf("check user uniqueness: %w", err)
	}
	return emailTaken, usernameTaken, nil
}

func (r *postgresRepository) UpdateProfile(ctx context.Context, id uuid.UUID, username, email string) (*model.User, error) {
	query := `
		UPDATE users SET username = $2, email = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	u, err := scanUser(r.pool.QueryRow(ctx, query, id, username, email))
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, err
		}
		if mapped := mapUniqueViolation(err); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return u, nil
}

// ========================================
// SETTLEMENT
// ========================================

func (r *postgresRepository) GetForUpdateWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.User, error) {
	u, err := scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
	if err != nil && !errors.Is(err, model.ErrUserNotFound) {
		return nil, fmt.Errorf("lock user: %w", err)
	}
	return u, err
}

func (r *postgresRepository) ApplyWalletDeltaWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, balanceDelta decimal.Decimal, pointsDelta int) (*model.Wallet, error) {
	query := `
		UPDATE users
		SET balance = balance + $2, points = points + $3, updated_at = NOW()
		WHERE id = $1 AND balance + $2 >= 0 AND points + $3 >= 0
		RETURNING balance, points
	`
	var w model.Wallet
	err := tx.QueryRow(ctx, query, id, balanceDelta, pointsDelta).Scan(&w.Balance, &w.Points)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrWalletUnderflow
		}
		return nil, fmt.Errorf("apply wallet delta: %w", err)
	}
	return &w, nil
}
