package storage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	defaultRetryAttempts  = 5
	defaultRetryBaseDelay = 50 * time.Millisecond
)

// retrier reruns a unit of store work while it fails with transient lock
// contention. Any other failure, or exhaustion of the attempt budget,
// propagates immediately. The delay before attempt n (1-based retries) is
// baseDelay * (1 + n*0.7).
type retrier struct {
	attempts  int
	baseDelay time.Duration
	retryable func(error) bool
	logger    *slog.Logger
}

func newRetrier(logger *slog.Logger) retrier {
	return retrier{
		attempts:  defaultRetryAttempts,
		baseDelay: defaultRetryBaseDelay,
		retryable: isBusy,
		logger:    logger,
	}
}

func (rt retrier) Do(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 0; attempt < rt.attempts; attempt++ {
		if attempt > 0 {
			delay := time.Duration(float64(rt.baseDelay) * (1 + float64(attempt)*0.7))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err = fn()
		if err == nil {
			return nil
		}
		if !rt.retryable(err) {
			return err
		}
		if rt.logger != nil {
			rt.logger.Debug("store busy, retrying",
				slog.String("op", op),
				slog.Int("attempt", attempt+1),
			)
		}
	}
	return err
}

func retryValue[T any](ctx context.Context, rt retrier, op string, fn func() (T, error)) (T, error) {
	var out T
	err := rt.Do(ctx, op, func() error {
		var innerErr error
		out, innerErr = fn()
		return innerErr
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// isBusy reports whether err is SQLite lock contention (SQLITE_BUSY or
// SQLITE_LOCKED, including their extended codes).
func isBusy(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}

// IsUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY
// constraint failure. Callers of allocate-then-insert use it to decide
// that the whole sequence, not just the insert, must be retried.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, ErrVoucherIDTaken) || errors.Is(err, ErrDuplicateEntry) {
		return true
	}
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
}
