package services

import (
	"context"
	"database/sql/driver"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const retryBackoff = 50 * time.Millisecond

// isTransient reports whether err is a storage failure that is safe to retry
// for an operation that re-reads all of its state.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", // serialization_failure
			"40P01", // deadlock_detected
			"55P03": // lock_not_available
			return true
		}
		return strings.HasPrefix(pgErr.Code, "08") // connection exceptions
	}
	return pgconn.SafeToRetry(err)
}

// withRetry runs fn up to attempts+1 times while it fails with a transient error.
// Callers must only pass functions that re-check their preconditions each time.
func withRetry(ctx context.Context, attempts int, op string, fn func() error) error {
	var err error
	for i := 0; ; i++ {
		err = fn()
		if err == nil || !isTransient(err) || i >= attempts {
			return err
		}
		slog.Warn("transient store error, retrying", "action", op, "attempt", i+1, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(i+1) * retryBackoff):
		}
	}
}
