// Package wait turns conditions on a live page into blocking calls with a
// deadline. Polling is bounded: every call ends by the condition holding, the
// condition failing, or the timeout elapsing.
package wait

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultInterval is the poll frequency of a webdriver explicit wait.
const DefaultInterval = 500 * time.Millisecond

var errNotYet = errors.New("condition not met")

// TimeoutError is returned when a condition did not hold within its budget.
type TimeoutError struct {
	What    string
	Timeout time.Duration
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for %s (timeout %s)", e.Elapsed.Round(time.Millisecond), e.What, e.Timeout)
}

// IsTimeout reports whether err is, or wraps, a *TimeoutError.
func IsTimeout(err error) bool {
	var timeout *TimeoutError
	return errors.As(err, &timeout)
}

type options struct {
	interval time.Duration
}

type Option func(*options)

// WithInterval overrides the poll interval.
func WithInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.interval = d
		}
	}
}

// Condition is evaluated once per poll. It reports done=true with the value
// to return, done=false to keep polling, or a non-nil error to stop polling
// and return that error as is.
type Condition[T any] func() (value T, done bool, err error)

// Until polls cond until it is done or timeout elapses. The first evaluation
// happens immediately.
func Until[T any](ctx context.Context, what string, timeout time.Duration, cond Condition[T], opts ...Option) (T, error) {
	o := options{interval: DefaultInterval}
	for _, opt := range opts {
		opt(&o)
	}

	start := time.Now()
	deadline, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	operation := func() (T, error) {
		value, done, err := cond()
		if err != nil {
			return value, backoff.Permanent(err)
		}
		if !done {
			return value, errNotYet
		}
		return value, nil
	}

	b := backoff.WithContext(backoff.NewConstantBackOff(o.interval), deadline)
	value, err := backoff.RetryWithData(operation, b)
	if err == nil {
		return value, nil
	}

	// the parent context ending is not a timeout of this wait
	if ctx.Err() != nil {
		return value, fmt.Errorf("waiting for %s: %w", what, ctx.Err())
	}

	if errors.Is(err, errNotYet) || errors.Is(err, context.DeadlineExceeded) {
		return value, &TimeoutError{What: what, Timeout: timeout, Elapsed: time.Since(start)}
	}

	return value, err
}
