package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/bang/internal/foundation/errors"
)

func TestDelay(t *testing.T) {
	tests := []struct {
		mode Mode
		want []time.Duration
	}{
		{Fixed, []time.Duration{0, 10 * time.Millisecond, 10 * time.Millisecond, 10 * time.Millisecond}},
		{Linear, []time.Duration{0, 10 * time.Millisecond, 20 * time.Millisecond, 25 * time.Millisecond}},
		{Exponential, []time.Duration{0, 10 * time.Millisecond, 20 * time.Millisecond, 25 * time.Millisecond}},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			p := NewPolicy(tt.mode, 10*time.Millisecond, 25*time.Millisecond, 3)
			for n, want := range tt.want {
				require.Equal(t, want, p.Delay(n), "retry %d", n)
			}
		})
	}
}

func TestNewPolicyDefaults(t *testing.T) {
	p := NewPolicy("bogus", 0, 0, -1)
	require.Equal(t, DefaultPolicy(), p)

	p = NewPolicy(Fixed, time.Minute, time.Second, 0)
	require.Equal(t, time.Second, p.Initial)
	require.Zero(t, p.MaxRetries)
}

func TestDoRetriesRetryableErrors(t *testing.T) {
	p := NewPolicy(Fixed, time.Millisecond, time.Millisecond, 2)
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return ferrors.NetworkError("flaky").Build()
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestDoGivesUp(t *testing.T) {
	p := NewPolicy(Fixed, time.Millisecond, time.Millisecond, 1)
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return ferrors.NetworkError("down").Build()
	})
	require.Error(t, err)
	require.Equal(t, 2, calls)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	p := NewPolicy(Fixed, time.Millisecond, time.Millisecond, 5)
	calls := 0
	boom := errors.New("boom")
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, calls)
}

func TestDoHonoursCancel(t *testing.T) {
	p := NewPolicy(Fixed, time.Hour, time.Hour, 5)
	ctx, cancel := context.WithCancel(context.Background())
	err := p.Do(ctx, func(context.Context) error {
		cancel()
		return ferrors.NetworkError("down").Build()
	})
	require.ErrorIs(t, err, context.Canceled)
}
