// Package retry bounds repeated attempts at operations that may fail.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrExhausted is returned once every allowed attempt has failed.
var ErrExhausted = errors.New("retry: attempts exhausted")

// Attempts runs op at most n times back to back and stops at the first
// success. The attempt number, starting at 1, is passed to op. When all
// attempts fail the returned error wraps both ErrExhausted and the last
// failure.
func Attempts(n int, op func(attempt int) error) error {
	if n < 1 {
		return fmt.Errorf("retry: attempt bound must be positive, got %d", n)
	}
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		return op(attempt)
	}, backoff.WithMaxRetries(&backoff.ZeroBackOff{}, uint64(n-1)))
	if err != nil {
		return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempt, err)
	}
	return nil
}

// Exponential retries op with exponential spacing starting at initial, at
// most n times, and gives up early when ctx is done.
func Exponential(ctx context.Context, n int, initial time.Duration, op func() error) error {
	if n < 1 {
		n = 1
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, uint64(n-1)), ctx))
}
