package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/architrack/internal/store"
)

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError("noop", nil))

	err := mapError("update project", pgx.ErrNoRows)
	assert.ErrorIs(t, err, store.ErrNotFound)

	fk := &pgconn.PgError{
		Code:    "23503",
		Message: `update or delete on table "projects" violates foreign key constraint`,
		Detail:  `Key (id)=(p1) is still referenced from table "work_logs".`,
	}
	err = mapError("delete project", fmt.Errorf("exec: %w", fk))
	assert.True(t, store.IsForeignKeyViolation(err))
	var se *store.Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, fk.Detail, se.Details)
	assert.Contains(t, err.Error(), "delete project: ")

	plain := errors.New("connection reset")
	err = mapError("list projects", plain)
	assert.ErrorIs(t, err, plain)
	assert.False(t, store.IsForeignKeyViolation(err))
}
