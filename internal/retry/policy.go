// Package retry decides how often and how long to wait before repeating a
// failed network call.
package retry

import (
	"context"
	"time"

	ferrors "git.home.luguber.info/inful/bang/internal/foundation/errors"
)

// Mode selects how the delay grows between attempts.
type Mode string

const (
	Fixed       Mode = "fixed"
	Linear      Mode = "linear"
	Exponential Mode = "exponential"
)

// Policy is an immutable retry schedule.
type Policy struct {
	Mode       Mode
	Initial    time.Duration
	Max        time.Duration
	MaxRetries int // retries after the first attempt
}

// DefaultPolicy retries twice with exponential delays from 500ms up to 5s.
func DefaultPolicy() Policy {
	return Policy{Mode: Exponential, Initial: 500 * time.Millisecond, Max: 5 * time.Second, MaxRetries: 2}
}

// NewPolicy fills zero or unknown fields from DefaultPolicy. A negative
// maxRetries keeps the default.
func NewPolicy(mode Mode, initial, maxDelay time.Duration, maxRetries int) Policy {
	p := DefaultPolicy()
	switch mode {
	case Fixed, Linear, Exponential:
		p.Mode = mode
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDelay > 0 {
		p.Max = maxDelay
	}
	if maxRetries >= 0 {
		p.MaxRetries = maxRetries
	}
	if p.Initial > p.Max {
		p.Initial = p.Max
	}
	return p
}

// Delay returns the wait before retry n (1-based).
func (p Policy) Delay(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	var d time.Duration
	switch p.Mode {
	case Fixed:
		d = p.Initial
	case Linear:
		d = time.Duration(n) * p.Initial
	default:
		d = p.Initial << (n - 1)
	}
	if d > p.Max || d <= 0 {
		return p.Max
	}
	return d
}

// Do calls fn until it succeeds, returns an error that is not retryable,
// the retries are used up, or ctx is done. Errors are retryable when they
// are classified with a backoff or immediate retry strategy.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		ce, ok := ferrors.AsClassified(err)
		if !ok || !ce.CanRetry() || attempt >= p.MaxRetries {
			return err
		}
		t := time.NewTimer(p.Delay(attempt + 1))
		select {
		case <-ctx.Done():
			t.Stop()
			return ferrors.WrapError(ctx.Err(), ferrors.CategoryRuntime, "retry canceled").
				WithContext("last_error", err.Error()).
				Build()
		case <-t.C:
		}
	}
}
