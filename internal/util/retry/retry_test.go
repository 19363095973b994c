package retry

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_FirstAttemptSucceeds(t *testing.T) {
	t.Parallel()
	attempts := 0
	start := time.Now()

	got, err := Do(context.Background(), func(_ context.Context) (string, error) {
		attempts++
		return "ok", nil
	}, WithInterval(time.Second))

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 1, attempts)
	assert.Less(t, time.Since(start), 500*time.Millisecond, "first success must not wait")
}

func TestDo_SuccessAfterRetries(t *testing.T) {
	t.Parallel()
	attempts := 0

	got, err := Do(context.Background(), func(_ context.Context) (int, error) {
		attempts++
		if attempts < 3 {
			return 0, errors.New("temporary error")
		}
		return attempts, nil
	}, WithInterval(time.Millisecond))

	require.NoError(t, err)
	assert.Equal(t, 3, got)
	assert.Equal(t, 3, attempts)
}

func TestDo_ExhaustionReturnsLastError(t *testing.T) {
	t.Parallel()
	attempts := 0
	var last error

	_, err := Do(context.Background(), func(_ context.Context) (struct{}, error) {
		attempts++
		last = fmt.Errorf("failure %d", attempts)
		return struct{}{}, last
	}, WithMaxRetries(2), WithInterval(time.Millisecond))

	require.Error(t, err)
	assert.Equal(t, 3, attempts, "1 initial attempt + 2 retries")
	assert.ErrorIs(t, err, last)
	assert.Contains(t, err.Error(), "failure 3")
}

func TestDo_NegativeRetriesRunsOnce(t *testing.T) {
	t.Parallel()
	attempts := 0

	err := Run(context.Background(), func(_ context.Context) error {
		attempts++
		return errors.New("nope")
	}, WithMaxRetries(-3), WithInterval(time.Millisecond))

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_FatalErrorStopsImmediately(t *testing.T) {
	t.Parallel()
	attempts := 0

	err := Run(context.Background(), func(_ context.Context) error {
		attempts++
		return Fatal(errors.New("fatal error"))
	}, WithInterval(time.Millisecond))

	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.Equal(t, 1, attempts)
}

func TestDo_ContextCancellation(t *testing.T) {
	t.Parallel()
	attempts := 0
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Run(ctx, func(_ context.Context) error {
		attempts++
		return errors.New("error")
	}, WithInterval(10*time.Millisecond))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestDo_AttemptsNeverOverlap(t *testing.T) {
	t.Parallel()
	var running, maxRunning atomic.Int32

	_ = Run(context.Background(), func(_ context.Context) error {
		n := running.Add(1)
		defer running.Add(-1)
		if n > maxRunning.Load() {
			maxRunning.Store(n)
		}
		time.Sleep(time.Millisecond)
		return errors.New("again")
	}, WithMaxRetries(4), WithInterval(time.Millisecond))

	assert.Equal(t, int32(1), maxRunning.Load())
}

func TestDo_BackoffMultiplierCapped(t *testing.T) {
	t.Parallel()
	cfg := newConfig([]Option{WithInterval(10 * time.Millisecond), WithMultiplier(2), WithMaxDelay(25 * time.Millisecond)})

	d := cfg.Interval
	d = nextDelay(cfg, d)
	assert.Equal(t, 20*time.Millisecond, d)
	d = nextDelay(cfg, d)
	assert.Equal(t, 25*time.Millisecond, d)
}

func TestPoll(t *testing.T) {
	t.Parallel()

	t.Run("done after pending answers", func(t *testing.T) {
		t.Parallel()
		calls := 0
		err := Poll(context.Background(), func(_ context.Context) (bool, error) {
			calls++
			return calls == 3, nil
		}, WithMaxRetries(5), WithInterval(time.Millisecond))
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("never ready yields ErrExhausted", func(t *testing.T) {
		t.Parallel()
		calls := 0
		err := Poll(context.Background(), func(_ context.Context) (bool, error) {
			calls++
			return false, nil
		}, WithMaxRetries(2), WithInterval(time.Millisecond))
		require.ErrorIs(t, err, ErrExhausted)
		assert.Equal(t, 3, calls)
	})

	t.Run("captured error wins over exhaustion", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("status unavailable")
		err := Poll(context.Background(), func(_ context.Context) (bool, error) {
			return false, boom
		}, WithMaxRetries(1), WithInterval(time.Millisecond))
		require.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrExhausted)
	})

	t.Run("earlier error survives trailing pending answers", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("status unavailable")
		calls := 0
		err := Poll(context.Background(), func(_ context.Context) (bool, error) {
			calls++
			if calls == 1 {
				return false, boom
			}
			return false, nil
		}, WithMaxRetries(2), WithInterval(time.Millisecond))
		require.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, errNotReady)
		assert.NotErrorIs(t, err, ErrExhausted)
		assert.Equal(t, 3, calls)
	})
}

func TestBudget(t *testing.T) {
	t.Parallel()
	b := Budget{MaxRetries: 2, Interval: time.Millisecond}
	assert.Equal(t, 3, b.Attempts())
	assert.Equal(t, 1, Budget{MaxRetries: -1}.Attempts())

	cfg := newConfig(b.Options())
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, time.Millisecond, cfg.Interval)
}

func TestFatal(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Fatal(nil))

	sentinel := errors.New("sentinel error")
	err := fmt.Errorf("context: %w", Fatal(sentinel))
	assert.True(t, IsFatal(err))
	assert.ErrorIs(t, err, sentinel)
	assert.False(t, IsFatal(sentinel))
	assert.Equal(t, sentinel, errors.Unwrap(Fatal(sentinel)))
}
