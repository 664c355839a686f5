package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WithTransaction:
//     Begin a transaction on a pooled connection
//     Rollback when fn returns an error or panics
//     Commit otherwise
// The connection goes back to the pool on every exit path.

// TxFunc is executed inside a transaction
type TxFunc func(pgx.Tx) error

// TxManager runs a unit of work inside one database transaction.
// Services depend on this instead of the pool so tests can swap it.
type TxManager interface {
	WithTx(ctx context.Context, fn TxFunc) error
}

// PgxTxManager is the pgxpool backed TxManager
type PgxTxManager struct {
	pool *pgxpool.Pool
	opts pgx.TxOptions
}

// NewTxManager returns a TxManager running READ COMMITTED transactions.
// Callers take row locks (SELECT ... FOR UPDATE) for the rows they mutate.
func NewTxManager(pool *pgxpool.Pool) *PgxTxManager {
	return &PgxTxManager{
		pool: pool,
		opts: pgx.TxOptions{IsoLevel: pgx.ReadCommitted},
	}
}

func (m *PgxTxManager) WithTx(ctx context.Context, fn TxFunc) error {
	return WithTransactionOptions(ctx, m.pool, m.opts, fn)
}

// WithTransaction wraps fn in a transaction with default options
func WithTransaction(ctx context.Context, pool *pgxpool.Pool, fn TxFunc) error {
	return WithTransactionOptions(ctx, pool, pgx.TxOptions{}, fn)
}

// WithTransactionOptions wraps fn in a transaction.
// Auto rollback on error or panic, auto commit on success.
func WithTransactionOptions(ctx context.Context, pool *pgxpool.Pool, opts pgx.TxOptions, fn TxFunc) (err error) {
	tx, err := pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
		if err != nil {
			// Rollback after a failed commit reports ErrTxClosed, nothing to do then
			if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// WithTxResult runs fn through a TxManager and hands back its result
func WithTxResult[T any](ctx context.Context, m TxManager, fn func(pgx.Tx) (T, error)) (T, error) {
	var result T

	err := m.WithTx(ctx, func(tx pgx.Tx) error {
		var fnErr error
		result, fnErr = fn(tx)
		return fnErr
	})

	if err != nil {
		var zero T
		return zero, err
	}

	return result, nil
}
