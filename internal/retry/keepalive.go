package retry

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/coachd/internal/logging"
)

// KeepAliveConfig configures the keep-alive scheduler.
type KeepAliveConfig struct {
	// Interval is the poll interval. Default: 15s.
	Interval time.Duration

	// KeepAliveMarks are elapsed-minute marks at which OnKeepAlive fires,
	// chosen just before known provider idle-timeout thresholds.
	KeepAliveMarks []int

	// WarningMarks are elapsed-minute marks at which OnWarning fires.
	WarningMarks []int

	// MaxLength is the maximum session duration. When elapsed time
	// reaches it, OnTimeout fires once and the scheduler stops itself.
	MaxLength time.Duration
}

// KeepAliveHooks are the callbacks fired at scheduled marks. Nil hooks are
// skipped.
type KeepAliveHooks struct {
	OnKeepAlive func(elapsed time.Duration)
	OnWarning   func(elapsed time.Duration)
	OnTimeout   func(elapsed time.Duration)
}

// KeepAlive polls session elapsed time and fires keep-alive, warning, and
// timeout callbacks at configured marks. It is a cancellable scheduled task
// tied to the owning session's lifetime: Stop (or parent context
// cancellation) deterministically ends it, and each mark fires at most
// once.
type KeepAlive struct {
	config KeepAliveConfig
	hooks  KeepAliveHooks
	logger *logging.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	fired   map[int]bool
	started bool
}

// NewKeepAlive creates a keep-alive scheduler. A nil logger is allowed.
func NewKeepAlive(cfg KeepAliveConfig, hooks KeepAliveHooks, logger *logging.Logger) *KeepAlive {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Second
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &KeepAlive{
		config: cfg,
		hooks:  hooks,
		logger: logger.Named("keepalive"),
		fired:  make(map[int]bool),
	}
}

// Start begins polling against the given session-start timestamp. Starting
// an already started scheduler is a no-op.
func (k *KeepAlive) Start(ctx context.Context, sessionStart time.Time) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.started {
		return
	}
	k.started = true

	ctx, cancel := context.WithCancel(ctx)
	k.cancel = cancel
	k.done = make(chan struct{})

	go k.run(ctx, sessionStart)
}

// Stop cancels the scheduler and waits for the poll loop to exit. It is
// idempotent and safe to call from session abandon.
func (k *KeepAlive) Stop() {
	k.mu.Lock()
	cancel := k.cancel
	done := k.done
	k.cancel = nil
	k.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (k *KeepAlive) run(ctx context.Context, sessionStart time.Time) {
	defer close(k.done)

	ticker := time.NewTicker(k.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if k.tick(time.Since(sessionStart)) {
				return
			}
		}
	}
}

// tick evaluates elapsed marks and reports whether the scheduler should
// stop.
func (k *KeepAlive) tick(elapsed time.Duration) bool {
	if k.config.MaxLength > 0 && elapsed >= k.config.MaxLength {
		k.logger.Info("session reached maximum length",
			zap.Duration("elapsed", elapsed),
		)
		if k.hooks.OnTimeout != nil {
			k.hooks.OnTimeout(elapsed)
		}
		return true
	}

	minutes := int(elapsed.Minutes())
	for _, mark := range k.config.KeepAliveMarks {
		if minutes >= mark && !k.markFired(mark) {
			k.logger.Debug("firing keep-alive", zap.Int("mark_minutes", mark))
			if k.hooks.OnKeepAlive != nil {
				k.hooks.OnKeepAlive(elapsed)
			}
		}
	}
	// Warning marks are offset so they never collide with keep-alives.
	for _, mark := range k.config.WarningMarks {
		if minutes >= mark && !k.markFired(-mark) {
			k.logger.Info("session length warning",
				zap.Int("mark_minutes", mark),
				zap.Duration("elapsed", elapsed),
			)
			if k.hooks.OnWarning != nil {
				k.hooks.OnWarning(elapsed)
			}
		}
	}
	return false
}

// markFired records a mark the first time it is seen and reports whether it
// had already fired. Warning marks are stored negated.
func (k *KeepAlive) markFired(mark int) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.fired[mark] {
		return true
	}
	k.fired[mark] = true
	return false
}
