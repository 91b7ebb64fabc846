// Package registry tracks which local session an external voice
// conversation belongs to.
//
// Registration (triggered by client connect) and correlation lookups
// (triggered by the partner webhook) arrive on independent, unordered
// asynchronous paths, so resolution retries with backoff and falls back to
// a single shared "latest" pointer. The in-memory map is a cache over the
// storage adapter, not a second source of truth: on cache miss the registry
// reloads from storage and repopulates the cache.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/coachd/internal/logging"
	"github.com/fyrsmithlabs/coachd/internal/retry"
	"github.com/fyrsmithlabs/coachd/internal/storage"
	"github.com/fyrsmithlabs/coachd/internal/telemetry"
)

const (
	sessionKeyPrefix = "sessions/"
	latestKey        = "sessions/latest"
	messageKeyPrefix = "messages/"

	// DefaultCleanupAfter is the inactivity threshold for the cleanup
	// sweep.
	DefaultCleanupAfter = 60 * time.Minute

	// DefaultResolveRetries bounds correlation lookups before giving up.
	DefaultResolveRetries = 3
)

// errNoSession marks a resolution attempt that found no latest pointer. It
// stays internal: exhausted resolution surfaces as (nil, nil), not an
// error.
var errNoSession = errors.New("no registered session yet")

// Entry is the correlation metadata tracked per session.
type Entry struct {
	SessionID      string    `json:"session_id"`
	ConversationID string    `json:"conversation_id"`
	TherapistID    string    `json:"therapist_id"`
	RegisteredAt   time.Time `json:"registered_at"`
	LastActivity   time.Time `json:"last_activity"`
}

// SessionStore tracks session correlation metadata over a storage adapter.
//
// The cache and the latest pointer are shared mutable state with no
// cross-process coordination: concurrent Register calls from different
// sessions race on the latest key and last-writer-wins. That window is an
// accepted limitation of the single-pointer correlation scheme.
type SessionStore struct {
	store   storage.Store
	logger  *logging.Logger
	metrics *telemetry.Metrics

	mu    sync.RWMutex
	cache map[string]*Entry
}

// NewSessionStore creates a session store over the given storage adapter.
// Logger and metrics may be nil.
func NewSessionStore(store storage.Store, logger *logging.Logger, metrics *telemetry.Metrics) *SessionStore {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &SessionStore{
		store:   store,
		logger:  logger.Named("registry"),
		metrics: metrics,
		cache:   make(map[string]*Entry),
	}
}

// Register writes the entry under its own key and under the shared latest
// key. The dual write makes the session findable both by id and as the
// best-effort correlation fallback.
func (s *SessionStore) Register(ctx context.Context, entry *Entry) error {
	if entry == nil || entry.SessionID == "" {
		return fmt.Errorf("entry with session id is required")
	}
	if entry.RegisteredAt.IsZero() {
		entry.RegisteredAt = time.Now().UTC()
	}
	if entry.LastActivity.IsZero() {
		entry.LastActivity = entry.RegisteredAt
	}

	if err := s.store.Save(ctx, sessionKeyPrefix+entry.SessionID, entry); err != nil {
		return fmt.Errorf("failed to save session %s: %w", entry.SessionID, err)
	}
	if err := s.store.Save(ctx, latestKey, entry); err != nil {
		return fmt.Errorf("failed to update latest pointer: %w", err)
	}

	s.mu.Lock()
	s.cache[entry.SessionID] = entry
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SessionsRegistered.Inc()
	}
	s.logger.Info("registered session",
		zap.String("session_id", entry.SessionID),
		zap.String("conversation_id", entry.ConversationID),
		zap.String("therapist_id", entry.TherapistID),
	)
	return nil
}

// Get looks a session up by id: cache first, then storage, repopulating
// the cache on a storage hit. A missing session is (nil, nil).
func (s *SessionStore) Get(ctx context.Context, sessionID string) (*Entry, error) {
	s.mu.RLock()
	entry, ok := s.cache[sessionID]
	s.mu.RUnlock()
	if ok {
		return entry, nil
	}

	var loaded Entry
	found, err := s.store.Load(ctx, sessionKeyPrefix+sessionID, &loaded)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	if !found {
		return nil, nil
	}

	s.mu.Lock()
	s.cache[sessionID] = &loaded
	s.mu.Unlock()
	return &loaded, nil
}

// Latest reads the shared latest pointer directly, without retry. A missing
// pointer is (nil, nil).
func (s *SessionStore) Latest(ctx context.Context) (*Entry, error) {
	var entry Entry
	found, err := s.store.Load(ctx, latestKey, &entry)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest pointer: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &entry, nil
}

// ResolveWithRetry attempts Latest with exponential backoff, covering the
// window where a webhook can arrive before registration completes.
//
// A nil result after exhausting retries is a first-class outcome, not an
// error: callers must surface "could not determine session" rather than
// defaulting to a stale one. A storage error on the final attempt
// propagates.
func (s *SessionStore) ResolveWithRetry(ctx context.Context, maxRetries int) (*Entry, error) {
	if maxRetries <= 0 {
		maxRetries = DefaultResolveRetries
	}

	executor := retry.NewExecutor(&retry.Config{
		MaxRetries: maxRetries,
		BaseDelay:  100 * time.Millisecond,
		Multiplier: 2.0,
	})

	var resolved *Entry
	err := executor.Do(ctx, func(ctx context.Context) error {
		entry, err := s.Latest(ctx)
		if err != nil {
			return err
		}
		if entry == nil {
			return errNoSession
		}
		resolved = entry
		return nil
	}, nil)

	if err != nil {
		if errors.Is(err, errNoSession) {
			if s.metrics != nil {
				s.metrics.SessionsResolved.WithLabelValues("unresolved").Inc()
			}
			s.logger.Warn("could not resolve session after retries",
				zap.Int("max_retries", maxRetries),
			)
			return nil, nil
		}
		if s.metrics != nil {
			s.metrics.SessionsResolved.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.SessionsResolved.WithLabelValues("resolved").Inc()
	}
	s.logger.Debug("resolved session", zap.String("session_id", resolved.SessionID))
	return resolved, nil
}

// Touch bumps the session's last-activity timestamp in cache and storage.
func (s *SessionStore) Touch(ctx context.Context, sessionID string) error {
	entry, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("session not found: %s", sessionID)
	}

	entry.LastActivity = time.Now().UTC()
	if err := s.store.Save(ctx, sessionKeyPrefix+sessionID, entry); err != nil {
		return fmt.Errorf("failed to touch session %s: %w", sessionID, err)
	}

	s.mu.Lock()
	s.cache[sessionID] = entry
	s.mu.Unlock()
	return nil
}

// Cleanup sweeps sessions whose last activity predates the cutoff,
// removing the cache entry and the persisted session and message records.
// It returns the number of sessions removed.
func (s *SessionStore) Cleanup(ctx context.Context, olderThan time.Duration) (int, error) {
	if olderThan <= 0 {
		olderThan = DefaultCleanupAfter
	}
	cutoff := time.Now().UTC().Add(-olderThan)

	s.mu.Lock()
	var stale []string
	for id, entry := range s.cache {
		if entry.LastActivity.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		delete(s.cache, id)
	}
	s.mu.Unlock()

	removed := 0
	for _, id := range stale {
		if err := s.store.Delete(ctx, sessionKeyPrefix+id); err != nil {
			return removed, fmt.Errorf("failed to delete session %s: %w", id, err)
		}
		if err := s.store.Delete(ctx, messageKeyPrefix+id); err != nil {
			return removed, fmt.Errorf("failed to delete messages for %s: %w", id, err)
		}
		removed++
	}

	if removed > 0 {
		if s.metrics != nil {
			s.metrics.SessionsCleaned.Add(float64(removed))
		}
		s.logger.Info("cleanup sweep removed stale sessions",
			zap.Int("removed", removed),
			zap.Duration("older_than", olderThan),
		)
	}
	return removed, nil
}
