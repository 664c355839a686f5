package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	userModel "pointshop-backend/internal/domains/user/model"
)

func seededStore(t *testing.T) (*Store, uuid.UUID) {
	t.Helper()
	s := New()
	id := uuid.New()
	s.PutUser(userModel.User{ID: id, Email: "a@b.com", Points: 10, Balance: decimal.NewFromInt(10)})
	return s, id
}

func debit(s *Store, id uuid.UUID) func(pgx.Tx) error {
	return func(tx pgx.Tx) error {
		_, err := s.Users().ApplyWalletDeltaWithTx(context.Background(), tx, id, decimal.NewFromInt(-4), -4)
		return err
	}
}

func TestWithTx_CommitKeepsWrites(t *testing.T) {
	s, id := seededStore(t)

	require.NoError(t, s.WithTx(context.Background(), debit(s, id)))

	u, _ := s.User(id)
	assert.Equal(t, 6, u.Points)
}

func TestWithTx_ErrorRestoresSnapshot(t *testing.T) {
	s, id := seededStore(t)
	boom := errors.New("boom")

	err := s.WithTx(context.Background(), func(tx pgx.Tx) error {
		if err := debit(s, id)(tx); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	u, _ := s.User(id)
	assert.Equal(t, 10, u.Points)
	assert.Equal(t, "10", u.Balance.String())
}

func TestWithTx_PanicRestoresSnapshotAndRepanics(t *testing.T) {
	s, id := seededStore(t)

	assert.PanicsWithValue(t, "boom", func() {
		_ = s.WithTx(context.Background(), func(tx pgx.Tx) error {
			if err := debit(s, id)(tx); err != nil {
				return err
			}
			panic("boom")
		})
	})

	u, _ := s.User(id)
	assert.Equal(t, 10, u.Points)

	// the store is still usable after the panic
	require.NoError(t, s.WithTx(context.Background(), debit(s, id)))
	u, _ = s.User(id)
	assert.Equal(t, 6, u.Points)
}
