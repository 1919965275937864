package poll

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/entrhq/uirunner/pkg/failure"
	"github.com/entrhq/uirunner/pkg/poll/polltest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoll_AcceptsFirstValueWithoutSleeping(t *testing.T) {
	clock := polltest.NewClock()
	calls := 0

	got, err := Poll(Spec[int]{
		Produce:  func() (int, error) { calls++; return 5, nil },
		Accept:   func(v int) bool { return v == 5 },
		Timeout:  2 * time.Second,
		Interval: 100 * time.Millisecond,
		Clock:    clock,
	})

	require.NoError(t, err)
	assert.Equal(t, 5, got)
	assert.Equal(t, 1, calls)
	assert.Empty(t, clock.Sleeps())
}

func TestPoll_NotFoundUntilTimeout(t *testing.T) {
	clock := polltest.NewClock()

	_, err := Poll(Spec[string]{
		Produce:   func() (string, error) { return "", failure.ErrNoSuchElement },
		Accept:    func(string) bool { return false },
		Timeout:   300 * time.Millisecond,
		Interval:  100 * time.Millisecond,
		Operation: "find #grid",
		Clock:     clock,
	})

	var tf *failure.TimeoutFailure
	require.ErrorAs(t, err, &tf)
	assert.Equal(t, 300*time.Millisecond, tf.Elapsed)
	assert.Equal(t, 4, tf.Attempts)
	assert.ErrorIs(t, err, failure.ErrNoSuchElement)
	assert.Equal(t, "find #grid", tf.Operation)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 100 * time.Millisecond, 100 * time.Millisecond}, clock.Sleeps())
}

func TestPoll_EarlyExitOnNthAttempt(t *testing.T) {
	clock := polltest.NewClock()
	calls := 0

	got, err := Poll(Spec[int]{
		Produce:  func() (int, error) { calls++; return calls, nil },
		Accept:   func(v int) bool { return v == 3 },
		Timeout:  10 * time.Second,
		Interval: 50 * time.Millisecond,
		Clock:    clock,
	})

	require.NoError(t, err)
	assert.Equal(t, 3, got)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 100*time.Millisecond, clock.Slept(), "no sleep after the accepted evaluation")
}

func TestPoll_GenuineErrorPropagatesImmediately(t *testing.T) {
	clock := polltest.NewClock()
	calls := 0
	bad := fmt.Errorf("compile selector: %w", failure.ErrInvalidLocator)

	_, err := Poll(Spec[int]{
		Produce: func() (int, error) {
			calls++
			if calls == 1 {
				return 0, failure.ErrStaleElement
			}
			return 0, bad
		},
		Timeout:  time.Second,
		Interval: 10 * time.Millisecond,
		Clock:    clock,
	})

	assert.Same(t, bad, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, clock.Sleeps(), 1)
}

func TestPoll_MaxAttemptsBound(t *testing.T) {
	clock := polltest.NewClock()
	calls := 0

	_, err := Poll(Spec[int]{
		Produce:     func() (int, error) { calls++; return calls, nil },
		Accept:      func(int) bool { return false },
		MaxAttempts: 3,
		Timeout:     time.Hour,
		Interval:    10 * time.Millisecond,
		Clock:       clock,
	})

	var tf *failure.TimeoutFailure
	require.ErrorAs(t, err, &tf)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, tf.LastValue)
	assert.Len(t, clock.Sleeps(), 2)
}

func TestPoll_OnExhaustedDecidesOutcome(t *testing.T) {
	clock := polltest.NewClock()

	t.Run("default value", func(t *testing.T) {
		got, err := Poll(Spec[string]{
			Produce:     func() (string, error) { return "loading", nil },
			Accept:      func(v string) bool { return v == "ready" },
			MaxAttempts: 2,
			OnExhausted: func(ex Exhaustion[string]) (string, error) {
				assert.Equal(t, "loading", ex.Last)
				assert.True(t, ex.HasValue)
				return "fallback", nil
			},
			Clock: clock,
		})
		require.NoError(t, err)
		assert.Equal(t, "fallback", got)
	})

	t.Run("typed error", func(t *testing.T) {
		sentinel := errors.New("grid never loaded")
		_, err := Poll(Spec[string]{
			Produce:     func() (string, error) { return "", failure.ErrNotReady },
			MaxAttempts: 2,
			OnExhausted: func(ex Exhaustion[string]) (string, error) {
				assert.False(t, ex.HasValue)
				assert.ErrorIs(t, ex.LastErr, failure.ErrNotReady)
				return "", sentinel
			},
			Clock: clock,
		})
		assert.Same(t, sentinel, err)
	})
}

func TestPoll_Unbounded(t *testing.T) {
	called := false
	_, err := Poll(Spec[int]{
		Produce: func() (int, error) { called = true; return 0, nil },
	})
	assert.ErrorIs(t, err, ErrUnbounded)
	assert.False(t, called)
}

func TestPoll_OnWaitReportsSleeps(t *testing.T) {
	clock := polltest.NewClock()
	var waited time.Duration

	_, _ = Poll(Spec[int]{
		Produce:     func() (int, error) { return 0, nil },
		Accept:      func(int) bool { return false },
		MaxAttempts: 4,
		Interval:    20 * time.Millisecond,
		OnWait:      func(d time.Duration) { waited += d },
		Clock:       clock,
	})

	assert.Equal(t, 60*time.Millisecond, waited)
}

func TestUntil_BoundedWallClock(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping wall-clock test in short mode")
	}

	timeout := 300 * time.Millisecond
	interval := 100 * time.Millisecond
	start := time.Now()

	_, err := Until(
		func() (int, error) { return 0, failure.ErrNoSuchElement },
		func(int) bool { return false },
		timeout,
		interval,
	)

	elapsed := time.Since(start)
	var tf *failure.TimeoutFailure
	require.ErrorAs(t, err, &tf)
	assert.GreaterOrEqual(t, elapsed, timeout)
	assert.Less(t, elapsed, timeout+interval+150*time.Millisecond)
}
