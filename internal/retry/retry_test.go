package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordSleep returns a SleepFunc that records requested delays without
// waiting.
func recordSleep(delays *[]time.Duration) SleepFunc {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestPolicy_Delay(t *testing.T) {
	p := Policy{}
	assert.Equal(t, 1*time.Second, p.Delay(0))
	assert.Equal(t, 2*time.Second, p.Delay(1))
	assert.Equal(t, 4*time.Second, p.Delay(2))
	assert.Equal(t, 8*time.Second, p.Delay(3))

	p.BaseDelay = 10 * time.Millisecond
	assert.Equal(t, 40*time.Millisecond, p.Delay(2))
}

func TestDo_SucceedsAfterFailures(t *testing.T) {
	var delays []time.Duration
	calls := 0
	p := Policy{MaxRetries: 3, Sleep: recordSleep(&delays)}

	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays)
}

func TestDo_Exhausted(t *testing.T) {
	var delays []time.Duration
	calls := 0
	boom := errors.New("boom")
	p := Policy{MaxRetries: 3, Sleep: recordSleep(&delays)}

	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return boom
	})

	assert.Equal(t, 4, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, delays)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.ErrorIs(t, err, boom)

	var ex *ExhaustedError
	require.ErrorAs(t, err, &ex)
	assert.Equal(t, 4, ex.Attempts)
}

func TestDo_ZeroRetriesRunsOnce(t *testing.T) {
	var delays []time.Duration
	calls := 0
	p := Policy{MaxRetries: 0, Sleep: recordSleep(&delays)}

	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("nope")
	})

	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 1, calls)
	assert.Empty(t, delays)
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	calls := 0
	notFound := errors.New("not found")
	p := Policy{MaxRetries: 5, Sleep: recordSleep(new([]time.Duration))}

	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return Permanent(fmt.Errorf("fetching: %w", notFound))
	})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, notFound)
	assert.NotErrorIs(t, err, ErrExhausted)
}

func TestDo_ContextCanceledDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	p := Policy{
		MaxRetries: 3,
		Sleep: func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		},
	}

	err := p.Do(ctx, func(context.Context) error {
		calls++
		return errors.New("down")
	})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDo_OnRetryReportsAttempts(t *testing.T) {
	var events []Event
	p := Policy{
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		Sleep:      recordSleep(new([]time.Duration)),
		OnRetry:    func(e Event) { events = append(events, e) },
	}

	_ = p.Do(context.Background(), func(context.Context) error {
		return context.DeadlineExceeded
	})

	require.Len(t, events, 2)
	assert.Equal(t, 1, events[0].Attempt)
	assert.Equal(t, 3, events[0].Of)
	assert.Equal(t, time.Millisecond, events[0].Delay)
	assert.Equal(t, 2, events[1].Attempt)
	assert.Equal(t, 2*time.Millisecond, events[1].Delay)
	assert.Equal(t, KindTimeout, events[1].Kind)
}

func TestDoValue_ReturnsValue(t *testing.T) {
	calls := 0
	p := Policy{MaxRetries: 1, Sleep: recordSleep(new([]time.Duration))}

	got, err := DoValue(context.Background(), p, func(context.Context) ([]byte, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("first try fails")
		}
		return []byte("payload"), nil
	})

	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))
}

func TestDo_DefaultTimerRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxRetries: 3, BaseDelay: time.Hour}

	start := time.Now()
	err := p.Do(ctx, func(context.Context) error {
		cancel()
		return errors.New("down")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrExhausted)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDo_PermanentAfterRetry(t *testing.T) {
	calls := 0
	gone := errors.New("gone")
	p := Policy{MaxRetries: 5, Sleep: recordSleep(new([]time.Duration))}

	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("flaky")
		}
		return Permanent(gone)
	})

	assert.Equal(t, 2, calls)
	assert.ErrorIs(t, err, gone)
	assert.NotErrorIs(t, err, ErrExhausted)
}

type codeErr int

func (c codeErr) Error() string   { return fmt.Sprintf("status %d", int(c)) }
func (c codeErr) StatusCode() int { return int(c) }

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"deadline", fmt.Errorf("get: %w", context.DeadlineExceeded), KindTimeout},
		{"net timeout", &net.OpError{Op: "dial", Err: timeoutErr{}}, KindTimeout},
		{"dns", &net.DNSError{Err: "no such host", Name: "example.invalid", IsNotFound: true}, KindDNS},
		{"status", fmt.Errorf("fetch: %w", codeErr(503)), KindStatus},
		{"transport", errors.New("connection reset by peer"), KindTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "request timed out", KindTimeout.String())
	assert.Equal(t, "could not resolve host", KindDNS.String())
	assert.Equal(t, "error", KindUnknown.String())
}
