// Package retry provides the generic exponential-backoff executor and the
// keep-alive scheduler used by session correlation and the voice-session
// keep-alive concern.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Config configures retry behavior.
type Config struct {
	// MaxRetries is the maximum number of retry attempts after the first
	// try. Default: 3.
	MaxRetries int

	// BaseDelay is the initial backoff duration. Default: 100ms.
	BaseDelay time.Duration

	// MaxDelay caps the backoff duration. Default: 30s.
	MaxDelay time.Duration

	// Multiplier is the exponential backoff multiplier. Default: 2.
	Multiplier float64
}

// DefaultConfig returns the default retry configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries: 3,
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   30 * time.Second,
		Multiplier: 2.0,
	}
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.MaxRetries == 0 {
		c.MaxRetries = defaults.MaxRetries
	}
	if c.BaseDelay == 0 {
		c.BaseDelay = defaults.BaseDelay
	}
	if c.MaxDelay == 0 {
		c.MaxDelay = defaults.MaxDelay
	}
	if c.Multiplier == 0 {
		c.Multiplier = defaults.Multiplier
	}
}

// Executor retries operations with exponential backoff. The attempt counter
// resets on every success, so a long-lived executor can be reused across
// independent operations.
type Executor struct {
	config Config
}

// NewExecutor creates an executor from config; nil selects defaults.
func NewExecutor(cfg *Config) *Executor {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.ApplyDefaults()
	return &Executor{config: *cfg}
}

// Do runs op, retrying failures for which shouldRetry returns true, backing
// off min(BaseDelay × Multiplier^(attempt−1), MaxDelay) between attempts.
// Waits are cancellable: ctx cancellation stops the loop cleanly. Once
// retries are exhausted the last error is returned, annotated with the
// attempt count.
func (e *Executor) Do(ctx context.Context, op func(ctx context.Context) error, shouldRetry func(error) bool) error {
	if shouldRetry == nil {
		shouldRetry = func(error) bool { return true }
	}

	var lastErr error
	backoff := e.config.BaseDelay

	for attempt := 0; attempt <= e.config.MaxRetries; attempt++ {
		if err := op(ctx); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if !shouldRetry(lastErr) {
			return lastErr
		}
		if attempt == e.config.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("operation canceled: %w", ctx.Err())
		case <-time.After(backoff):
			next := time.Duration(float64(backoff) * e.config.Multiplier)
			if next > e.config.MaxDelay {
				next = e.config.MaxDelay
			}
			backoff = next
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", e.config.MaxRetries+1, lastErr)
}
