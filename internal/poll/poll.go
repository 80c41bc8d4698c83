// Package poll waits for a remote operation to reach a terminal state.
package poll

import (
	"context"
	"errors"
	"time"
)

// ErrExhausted is returned when every attempt ran without reaching a terminal state.
var ErrExhausted = errors.New("max attempts reached")

// Policy bounds a wait: at most MaxAttempts checks, Interval apart.
type Policy struct {
	MaxAttempts int
	Interval    time.Duration
}

// CheckFunc inspects the remote operation once. done reports a terminal state.
// A non-nil error stops the wait immediately; it is not retried.
type CheckFunc[T any] func(ctx context.Context, attempt int) (value T, done bool, err error)

// Until calls check until it reports done, fails, or the policy is used up.
// On exhaustion the last observed value is returned together with ErrExhausted.
func Until[T any](ctx context.Context, p Policy, check CheckFunc[T]) (T, error) {
	var last T
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for i := 1; i <= attempts; i++ {
		v, done, err := check(ctx, i)
		if err != nil {
			return v, err
		}
		last = v
		if done {
			return v, nil
		}
		if i == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-time.After(p.Interval):
		}
	}

	return last, ErrExhausted
}
