// Package retry runs network operations with a bounded number of retries and
// exponential backoff, and classifies failures for diagnostics.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultBaseDelay is the delay before the first retry. Each later retry
// doubles it: 1s, 2s, 4s, ...
const DefaultBaseDelay = time.Second

// ErrExhausted is matched by errors.Is when every attempt has failed.
var ErrExhausted = errors.New("retries exhausted")

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Event describes a failed attempt that is about to be retried.
type Event struct {
	// Attempt is the 1-based number of the attempt that failed.
	Attempt int
	// Of is the total number of attempts allowed.
	Of    int
	Delay time.Duration
	Err   error
	Kind  Kind
}

// Policy bounds how an operation is retried.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt, so an
	// operation runs at most MaxRetries+1 times.
	MaxRetries int
	// BaseDelay defaults to DefaultBaseDelay when zero.
	BaseDelay time.Duration
	// Sleep replaces the backoff timer, so tests do not wait. It should
	// return early once ctx is done.
	Sleep SleepFunc
	// OnRetry is called before each backoff sleep.
	OnRetry func(Event)
}

// Delay returns the backoff before retrying after the given 0-based attempt:
// BaseDelay * 2^attempt.
func (p Policy) Delay(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}
	return base << uint(attempt)
}

// Attempts returns the maximum number of times an operation runs.
func (p Policy) Attempts() int {
	if p.MaxRetries < 0 {
		return 1
	}
	return p.MaxRetries + 1
}

// Do runs op until it succeeds, returns a Permanent error, the context is
// done, or the attempts are used up.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	_, err := DoValue(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// DoValue is Do for operations that produce a value.
func DoValue[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	attempts := p.Attempts()

	var (
		value     T
		attempt   int
		permanent bool
	)
	operation := func() error {
		attempt++
		v, err := op(ctx)
		if err != nil {
			var perm *backoff.PermanentError
			permanent = errors.As(err, &perm)
			return err
		}
		value = v
		return nil
	}
	notify := func(err error, next time.Duration) {
		if p.OnRetry != nil {
			p.OnRetry(Event{
				Attempt: attempt,
				Of:      attempts,
				Delay:   next,
				Err:     err,
				Kind:    Classify(err),
			})
		}
	}

	var timer backoff.Timer
	if p.Sleep != nil {
		timer = &sleepTimer{ctx: ctx, sleep: p.Sleep}
	}

	err := backoff.RetryNotifyWithTimer(operation, p.backOff(ctx, attempts), notify, timer)
	switch {
	case err == nil:
		return value, nil
	case permanent:
		return value, err
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		return value, err
	default:
		return value, &ExhaustedError{Attempts: attempts, Err: err}
	}
}

// backOff is the exponential schedule with no jitter and no elapsed-time
// cap, limited to attempts-1 retries and stopped by ctx.
func (p Policy) backOff(ctx context.Context, attempts int) backoff.BackOff {
	exp := &backoff.ExponentialBackOff{
		InitialInterval:     p.Delay(0),
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         p.Delay(maxDoublings),
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(attempts-1)), ctx)
}

// maxDoublings caps the interval growth well past any configurable retry
// count.
const maxDoublings = 20

// sleepTimer adapts a SleepFunc to backoff.Timer. The channel only fires
// when the sleep ended with ctx still live.
type sleepTimer struct {
	ctx   context.Context
	sleep SleepFunc
	c     chan time.Time
}

func (t *sleepTimer) Start(d time.Duration) {
	t.c = make(chan time.Time, 1)
	_ = t.sleep(t.ctx, d)
	if t.ctx.Err() == nil {
		t.c <- time.Now()
	}
}

func (t *sleepTimer) Stop() {}

func (t *sleepTimer) C() <-chan time.Time { return t.c }

// ExhaustedError is returned when every attempt failed. It wraps the last
// failure.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("giving up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrExhausted) true.
func (e *ExhaustedError) Is(target error) bool { return target == ErrExhausted }

// Permanent marks err as not worth retrying. Do returns the wrapped error
// unchanged.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}
