package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/meetsy/meetsy/internal/types"
)

// writeAttempts bounds retries of transient store conflicts: 3 attempts
// total, with increasing backoff between them.
const writeAttempts = 3

// IsTransientConflict reports whether err is a storage error that is safe to
// retry: serialization failures, deadlocks, lock timeouts and the
// duplicate-prepared-statement collision seen under pooled connections.
func IsTransientConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "40001", // serialization_failure
		"40P01", // deadlock_detected
		"55P03", // lock_not_available
		"42P05": // duplicate_prepared_statement
		return true
	}
	return false
}

// WithRetry runs fn, retrying transient conflicts with increasing backoff.
// Any other error class is returned immediately. Exhausting the attempt
// budget wraps the last error in types.ErrStoreConflict.
func WithRetry(ctx context.Context, logger *slog.Logger, op string, fn func(ctx context.Context) error) error {
	attempt := 0
	operation := func() error {
		attempt++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !IsTransientConflict(err) {
			return backoff.Permanent(err)
		}
		logger.WarnContext(ctx, "Transient store conflict, will retry",
			slog.String("op", op),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxInterval = time.Second

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, writeAttempts-1), ctx))
	if err == nil {
		return nil
	}
	if IsTransientConflict(err) {
		return fmt.Errorf("%s: %w: %v", op, types.ErrStoreConflict, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
