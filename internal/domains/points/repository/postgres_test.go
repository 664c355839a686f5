package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pointshop-backend/internal/domains/points/model"
	"pointshop-backend/internal/testutil/sqlrec"
)

func TestGetCouponForUpdateWithTx_LocksCouponRow(t *testing.T) {
	repo := NewPostgresPointsRepository(nil)
	tx := &sqlrec.Tx{}

	_, err := repo.GetCouponForUpdateWithTx(context.Background(), tx, uuid.New())
	require.ErrorIs(t, err, model.ErrCouponNotFound)

	queries := tx.Queries()
	require.Len(t, queries, 1)
	assert.Contains(t, queries[0], "FOR UPDATE")
}
