// Package retry implements exponential backoff, adapted from the teacher's
// RetryOperation in main.go: attempt the operation, and on failure sleep
// with a doubling delay (capped) before the next attempt.
package retry

import (
	"context"
	"time"

	"faceworker/internal/asynclog"
)

// Config mirrors the teacher's RetryConfig.
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// nonRetryable is implemented by errors that should stop the retry loop
// immediately rather than burn through the remaining attempts.
type nonRetryable interface {
	NonRetryable() bool
}

// Do runs operation up to cfg.MaxAttempts times with exponential backoff
// between attempts, stopping early if ctx is cancelled or operation returns
// an error implementing nonRetryable. Returns the last error if every
// attempt failed (or the non-retryable error, if that's what stopped it).
func Do(ctx context.Context, operation func() error, cfg Config, operationName string, log *asynclog.Logger) error {
	var lastErr error
	delay := cfg.BaseDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := operation()
		if err == nil {
			if attempt > 1 {
				log.Infof("retry: operation %q succeeded on attempt %d", operationName, attempt)
			}
			return nil
		}

		lastErr = err

		if nr, ok := err.(nonRetryable); ok && nr.NonRetryable() {
			return lastErr
		}

		log.Warnf("retry: operation %q failed on attempt %d/%d: %v", operationName, attempt, cfg.MaxAttempts, err)

		if attempt == cfg.MaxAttempts {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}

		delay *= 2
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return lastErr
}
