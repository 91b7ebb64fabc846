package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() *Config {
	return &Config{
		MaxRetries: 3,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
		Multiplier: 2.0,
	}
}

func TestExecutor_SucceedsFirstTry(t *testing.T) {
	e := NewExecutor(fastConfig())

	calls := 0
	err := e.Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestExecutor_RetriesThenSucceeds(t *testing.T) {
	e := NewExecutor(fastConfig())

	calls := 0
	err := e.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestExecutor_ExhaustsRetries(t *testing.T) {
	e := NewExecutor(fastConfig())

	sentinel := errors.New("still broken")
	calls := 0
	err := e.Do(context.Background(), func(context.Context) error {
		calls++
		return sentinel
	}, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	assert.Contains(t, err.Error(), "4 attempts")
	assert.Equal(t, 4, calls) // 1 initial + 3 retries
}

func TestExecutor_NonRetryableStopsImmediately(t *testing.T) {
	e := NewExecutor(fastConfig())

	fatal := errors.New("fatal")
	calls := 0
	err := e.Do(context.Background(), func(context.Context) error {
		calls++
		return fatal
	}, func(err error) bool { return !errors.Is(err, fatal) })

	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}

func TestExecutor_CancelDuringBackoff(t *testing.T) {
	e := NewExecutor(&Config{
		MaxRetries: 5,
		BaseDelay:  time.Hour, // must never actually elapse
		MaxDelay:   time.Hour,
		Multiplier: 2.0,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := e.Do(ctx, func(context.Context) error {
		return errors.New("transient")
	}, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestExecutor_CounterResetsBetweenOperations(t *testing.T) {
	e := NewExecutor(fastConfig())

	// First operation burns all retries.
	_ = e.Do(context.Background(), func(context.Context) error {
		return errors.New("broken")
	}, nil)

	// Second operation gets a fresh budget.
	calls := 0
	err := e.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 4 {
			return errors.New("transient")
		}
		return nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 4, calls)
}

func TestKeepAlive_FiresMarksOnce(t *testing.T) {
	var keepAlives, warnings int

	k := NewKeepAlive(KeepAliveConfig{
		Interval:       time.Millisecond,
		KeepAliveMarks: []int{4},
		WarningMarks:   []int{25},
		MaxLength:      time.Hour,
	}, KeepAliveHooks{
		OnKeepAlive: func(time.Duration) { keepAlives++ },
		OnWarning:   func(time.Duration) { warnings++ },
	}, nil)

	// Drive tick directly to avoid waiting on wall-clock minutes.
	k.tick(5 * time.Minute)
	k.tick(6 * time.Minute)
	assert.Equal(t, 1, keepAlives, "keep-alive mark fires exactly once")
	assert.Equal(t, 0, warnings)

	k.tick(26 * time.Minute)
	k.tick(27 * time.Minute)
	assert.Equal(t, 1, warnings, "warning mark fires exactly once")
}

func TestKeepAlive_TimeoutStopsScheduler(t *testing.T) {
	var timeouts int
	k := NewKeepAlive(KeepAliveConfig{
		Interval:  time.Millisecond,
		MaxLength: 30 * time.Minute,
	}, KeepAliveHooks{
		OnTimeout: func(time.Duration) { timeouts++ },
	}, nil)

	stop := k.tick(31 * time.Minute)
	assert.True(t, stop)
	assert.Equal(t, 1, timeouts)
}

func TestKeepAlive_StopIsIdempotent(t *testing.T) {
	k := NewKeepAlive(KeepAliveConfig{
		Interval:  time.Millisecond,
		MaxLength: time.Hour,
	}, KeepAliveHooks{}, nil)

	k.Start(context.Background(), time.Now())
	k.Stop()
	k.Stop() // second stop must not panic or block
}
