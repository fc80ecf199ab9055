// Package poll re-evaluates a condition at a fixed interval until it holds or a deadline passes.
package poll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Probe evaluates a condition once. It returns the value it observed, whether the
// condition holds, and an error that aborts the wait.
type Probe[T any] func(ctx context.Context) (T, bool, error)

// errPending marks an attempt whose condition did not hold yet.
var errPending = errors.New("condition not met")

type settings struct {
	notify func(attempt int, wait time.Duration)
}

// Option configures Until.
type Option func(*settings)

// WithNotify registers fn to be called before every wait between attempts.
func WithNotify(fn func(attempt int, wait time.Duration)) Option {
	return func(s *settings) {
		s.notify = fn
	}
}

// Until calls probe until it reports true, returns an error, or timeout elapses.
//
// On success it returns the observation of the successful attempt and true. When the
// timeout elapses it returns the last observation and false with a nil error; the caller
// decides whether that is fatal. A probe error or context cancellation is returned as is.
// A timeout <= 0 evaluates the probe exactly once.
func Until[T any](ctx context.Context, probe Probe[T], timeout, interval time.Duration, opts ...Option) (T, bool, error) {
	var last T
	if timeout > 0 && interval <= 0 {
		return last, false, fmt.Errorf("poll interval must be positive, got %s", interval)
	}

	s := &settings{}
	for _, opt := range opts {
		opt(s)
	}

	attempt := 0
	operation := func() (T, error) {
		attempt++
		value, ok, err := probe(ctx)
		last = value
		if err != nil {
			return value, backoff.Permanent(err)
		}
		if !ok {
			return value, errPending
		}
		return value, nil
	}

	retryOpts := []backoff.RetryOption{
		backoff.WithBackOff(backoff.NewConstantBackOff(interval)),
	}
	if timeout <= 0 {
		retryOpts = append(retryOpts, backoff.WithMaxTries(1))
	} else {
		retryOpts = append(retryOpts, backoff.WithMaxElapsedTime(timeout))
	}
	if s.notify != nil {
		retryOpts = append(retryOpts, backoff.WithNotify(func(_ error, wait time.Duration) {
			s.notify(attempt, wait)
		}))
	}

	value, err := backoff.Retry(ctx, operation, retryOpts...)
	if err == nil {
		return value, true, nil
	}
	if errors.Is(err, errPending) {
		return last, false, nil
	}

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Unwrap()
	}
	return last, false, err
}
