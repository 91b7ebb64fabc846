package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/coachd/internal/storage"
)

func newTestStore(t *testing.T) *SessionStore {
	t.Helper()
	return NewSessionStore(storage.NewMemoryStore(), nil, nil)
}

func TestSessionStore_RegisterAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	entry := &Entry{
		SessionID:      "sess-1",
		ConversationID: "conv-1",
		TherapistID:    "coach-a",
	}
	require.NoError(t, s.Register(ctx, entry))
	assert.False(t, entry.RegisteredAt.IsZero())
	assert.False(t, entry.LastActivity.IsZero())

	got, err := s.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "conv-1", got.ConversationID)

	// Missing session is nil, not an error.
	got, err = s.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionStore_Register_RequiresSessionID(t *testing.T) {
	s := newTestStore(t)
	assert.Error(t, s.Register(context.Background(), &Entry{}))
	assert.Error(t, s.Register(context.Background(), nil))
}

func TestSessionStore_CacheMissFallsBackToStorage(t *testing.T) {
	ctx := context.Background()
	backing := storage.NewMemoryStore()

	first := NewSessionStore(backing, nil, nil)
	require.NoError(t, first.Register(ctx, &Entry{SessionID: "sess-1", TherapistID: "coach-a"}))

	// A different registry instance over the same storage sees the entry
	// and repopulates its own cache.
	second := NewSessionStore(backing, nil, nil)
	got, err := second.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "coach-a", got.TherapistID)

	// Cached now: deleting from backing storage no longer hides it.
	require.NoError(t, backing.Delete(ctx, "sessions/sess-1"))
	got, err = second.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestSessionStore_LatestCrossInstance(t *testing.T) {
	ctx := context.Background()
	backing := storage.NewMemoryStore()

	first := NewSessionStore(backing, nil, nil)
	require.NoError(t, first.Register(ctx, &Entry{SessionID: "sess-9"}))

	second := NewSessionStore(backing, nil, nil)
	got, err := second.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "sess-9", got.SessionID)
}

func TestSessionStore_LatestIsLastWriterWins(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Register(ctx, &Entry{SessionID: "sess-1"}))
	require.NoError(t, s.Register(ctx, &Entry{SessionID: "sess-2"}))

	got, err := s.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "sess-2", got.SessionID)
}

// delayedStore returns not-found for the first n Load calls on the latest
// key, then delegates.
type delayedStore struct {
	storage.Store
	missesLeft int
	loads      int
}

func (d *delayedStore) Load(ctx context.Context, key string, out any) (bool, error) {
	d.loads++
	if d.missesLeft > 0 {
		d.missesLeft--
		return false, nil
	}
	return d.Store.Load(ctx, key, out)
}

func TestResolveWithRetry_SucceedsOnThirdAttempt(t *testing.T) {
	ctx := context.Background()
	backing := storage.NewMemoryStore()

	seed := NewSessionStore(backing, nil, nil)
	require.NoError(t, seed.Register(ctx, &Entry{SessionID: "sess-42"}))

	delayed := &delayedStore{Store: backing, missesLeft: 2}
	s := NewSessionStore(delayed, nil, nil)

	got, err := s.ResolveWithRetry(ctx, 3)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "sess-42", got.SessionID)
	// 2 misses + 1 hit: retries stop early on success.
	assert.Equal(t, 3, delayed.loads)
}

func TestResolveWithRetry_NilAfterExhaustion(t *testing.T) {
	s := newTestStore(t)

	got, err := s.ResolveWithRetry(context.Background(), 2)
	require.NoError(t, err, "exhausted resolution is an expected outcome, not an error")
	assert.Nil(t, got)
}

// failingStore errors on every Load.
type failingStore struct {
	storage.Store
}

func (f *failingStore) Load(context.Context, string, any) (bool, error) {
	return false, errors.New("disk on fire")
}

func TestResolveWithRetry_StorageErrorPropagates(t *testing.T) {
	s := NewSessionStore(&failingStore{Store: storage.NewMemoryStore()}, nil, nil)

	_, err := s.ResolveWithRetry(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestSessionStore_Touch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	entry := &Entry{
		SessionID:    "sess-1",
		RegisteredAt: time.Now().Add(-time.Hour),
		LastActivity: time.Now().Add(-time.Hour),
	}
	require.NoError(t, s.Register(ctx, entry))
	require.NoError(t, s.Touch(ctx, "sess-1"))

	got, err := s.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), got.LastActivity, time.Minute)

	assert.Error(t, s.Touch(ctx, "missing"))
}

func TestSessionStore_Cleanup(t *testing.T) {
	ctx := context.Background()
	backing := storage.NewMemoryStore()
	s := NewSessionStore(backing, nil, nil)

	stale := &Entry{
		SessionID:    "stale",
		RegisteredAt: time.Now().Add(-2 * time.Hour),
		LastActivity: time.Now().Add(-2 * time.Hour),
	}
	fresh := &Entry{SessionID: "fresh"}
	require.NoError(t, s.Register(ctx, stale))
	require.NoError(t, s.Register(ctx, fresh))
	require.NoError(t, backing.Save(ctx, "messages/stale", []string{"hi"}))

	removed, err := s.Cleanup(ctx, 60*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	// Stale session and its messages are gone from cache and storage.
	got, err := s.Get(ctx, "stale")
	require.NoError(t, err)
	assert.Nil(t, got)
	exists, err := backing.Exists(ctx, "messages/stale")
	require.NoError(t, err)
	assert.False(t, exists)

	// Fresh session survives.
	got, err = s.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.NotNil(t, got)
}
