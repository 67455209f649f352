package dbretry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/uptrace/bun/driver/pgdriver"
)

var (
	maxElapsedTime  = 30 * time.Second
	initialInterval = 250 * time.Millisecond
	maxInterval     = 5 * time.Second
	maxRetries      = uint64(5)
)

// transientClasses are the PostgreSQL SQLSTATE classes that indicate a retryable condition.
//
//nolint:gochecknoglobals // -
var transientClasses = []string{
	"08", // connection_exception
	"40", // transaction_rollback (serialization_failure, deadlock_detected)
	"53", // insufficient_resources
	"57", // operator_intervention
}

// transientCodes are individual SQLSTATE codes outside the transient classes that are worth retrying.
//
//nolint:gochecknoglobals // -
var transientCodes = []string{
	"55006", // object_in_use
	"55P03", // lock_not_available
}

// transientMessages match driver errors that carry no SQLSTATE.
//
//nolint:gochecknoglobals // -
var transientMessages = []string{
	"connection reset by peer",
	"broken pipe",
	"connection refused",
	"no connection",
	"i/o timeout",
	"database is locked", // SQLITE_BUSY
	"EOF",
}

// IsRetryableError checks if the given error is retryable.
// Context cancellation is never retried since the caller has given up.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pgerr pgdriver.Error
	if errors.As(err, &pgerr) {
		code := pgerr.Field('C')
		for _, class := range transientClasses {
			if strings.HasPrefix(code, class) {
				return true
			}
		}
		for _, c := range transientCodes {
			if code == c {
				return true
			}
		}
		return false
	}

	errMsg := err.Error()
	for _, msg := range transientMessages {
		if strings.Contains(errMsg, msg) {
			return true
		}
	}

	return false
}

// newBackOff builds the retry policy shared by all database operations.
func newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithMaxElapsedTime(maxElapsedTime),
		backoff.WithInitialInterval(initialInterval),
		backoff.WithMaxInterval(maxInterval),
	), maxRetries)

	return backoff.WithContext(b, ctx)
}

// Operation wraps a database operation with retry logic.
func Operation[T any](ctx context.Context, operation func(context.Context) (T, error)) (T, error) {
	var result T
	var lastErr error

	err := backoff.Retry(func() error {
		var err error
		result, err = operation(ctx)
		if err != nil {
			if !IsRetryableError(err) {
				return backoff.Permanent(err)
			}
			lastErr = err
			return err
		}
		return nil
	}, newBackOff(ctx))
	if err != nil {
		if lastErr != nil {
			return result, fmt.Errorf("database operation failed after retries: %w", err)
		}
		return result, err
	}

	return result, nil
}

// NoResult wraps a database operation that doesn't return a result.
func NoResult(ctx context.Context, operation func(context.Context) error) error {
	_, err := Operation(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, operation(ctx)
	})
	return err
}
