package utils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStringToUUID(t *testing.T) {
	id := uuid.New()
	assert.Equal(t, id, ParseStringToUUID(id.String()))
	assert.Equal(t, uuid.Nil, ParseStringToUUID(""))
	assert.Equal(t, uuid.Nil, ParseStringToUUID("not-a-uuid"))
}

func TestUnmarshalTask(t *testing.T) {
	var dst struct {
		Limit int `json:"limit"`
	}
	require.NoError(t, UnmarshalTask(asynq.NewTask("x", []byte(`{"limit":7}`)), &dst))
	assert.Equal(t, 7, dst.Limit)

	require.NoError(t, UnmarshalTask(asynq.NewTask("x", nil), &dst))
	assert.Error(t, UnmarshalTask(asynq.NewTask("x", []byte(`{`)), &dst))
}

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert user: %w", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	name, ok := IsUniqueViolation(err)
	assert.True(t, ok)
	assert.Equal(t, "users_email_key", name)

	_, ok = IsUniqueViolation(errors.New("boom"))
	assert.False(t, ok)

	assert.True(t, IsCheckViolation(&pgconn.PgError{Code: "23514"}))
	assert.True(t, IsForeignKeyViolation(fmt.Errorf("delete: %w", &pgconn.PgError{Code: "23503"})))
	assert.False(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23505"}))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@b.com", NormalizeEmail("  A@B.Com "))
}
