package database

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetsy/meetsy/internal/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIsTransientConflict(t *testing.T) {
	assert.True(t, IsTransientConflict(&pgconn.PgError{Code: "40001"}))
	assert.True(t, IsTransientConflict(&pgconn.PgError{Code: "40P01"}))
	assert.True(t, IsTransientConflict(&pgconn.PgError{Code: "55P03"}))
	assert.True(t, IsTransientConflict(&pgconn.PgError{Code: "42P05"}))

	assert.False(t, IsTransientConflict(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsTransientConflict(errors.New("plain error")))
	assert.False(t, IsTransientConflict(nil))

	wrapped := errors.Join(errors.New("context"), &pgconn.PgError{Code: "40001"})
	assert.True(t, IsTransientConflict(wrapped))
}

func TestWithRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("first attempt succeeds", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, testLogger(), "op", func(ctx context.Context) error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("transient conflict is retried until success", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, testLogger(), "op", func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return &pgconn.PgError{Code: "40001"}
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("attempt budget is bounded", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, testLogger(), "op", func(ctx context.Context) error {
			calls++
			return &pgconn.PgError{Code: "40P01"}
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, types.ErrStoreConflict)
		assert.Equal(t, writeAttempts, calls)
	})

	t.Run("permanent errors are not retried", func(t *testing.T) {
		calls := 0
		boom := errors.New("constraint violation")
		err := WithRetry(ctx, testLogger(), "op", func(ctx context.Context) error {
			calls++
			return boom
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, types.ErrStoreConflict)
		assert.Equal(t, 1, calls)
	})
}
