package notebook

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/coachd/internal/extract"
	"github.com/fyrsmithlabs/coachd/internal/logging"
	"github.com/fyrsmithlabs/coachd/internal/retry"
	"github.com/fyrsmithlabs/coachd/internal/storage"
)

const notebookKeyPrefix = "notebooks/"

const defaultAutoSaveDelay = 2 * time.Second

// ManagerConfig tunes the notebook manager.
type ManagerConfig struct {
	// AutoSaveDelay is the debounce window for auto-saves: rapid appends
	// within the window collapse into one write.
	AutoSaveDelay time.Duration
}

// Manager persists notebooks over a storage.Store and owns the session
// lifecycle around them: restore-or-create, debounced auto-save, and the
// terminal transitions that release a session's keep-alive.
type Manager struct {
	store  storage.Store
	logger *logging.Logger
	delay  time.Duration

	mu         sync.Mutex
	handles    map[string]*Notebook
	timers     map[string]*time.Timer
	keepAlives map[string]*retry.KeepAlive
}

// NewManager creates a manager. Logger may be nil.
func NewManager(store storage.Store, logger *logging.Logger, cfg ManagerConfig) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	if cfg.AutoSaveDelay <= 0 {
		cfg.AutoSaveDelay = defaultAutoSaveDelay
	}
	return &Manager{
		store:      store,
		logger:     logger.Named("notebook"),
		delay:      cfg.AutoSaveDelay,
		handles:    make(map[string]*Notebook),
		timers:     make(map[string]*time.Timer),
		keepAlives: make(map[string]*retry.KeepAlive),
	}
}

// handle returns the live in-memory aggregate for an open session, so all
// callers mutate the same notebook between saves.
func (m *Manager) handle(id string) *Notebook {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handles[id]
}

func (m *Manager) storeHandle(nb *Notebook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handles[nb.ID] = nb
}

func (m *Manager) releaseHandle(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.handles, id)
}

func notebookKey(id string) string { return notebookKeyPrefix + id }

// CreateOrRestore returns the therapist's most recently updated active
// notebook for the named client, or a freshly persisted one when none
// exists.
func (m *Manager) CreateOrRestore(ctx context.Context, therapistID, clientName string) (*Notebook, error) {
	keys, err := m.store.List(ctx, notebookKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("listing notebooks: %w", err)
	}

	var restored *Notebook
	for _, key := range keys {
		id := strings.TrimPrefix(key, notebookKeyPrefix)
		nb, err := m.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if nb == nil || nb.Terminal() {
			continue
		}
		if nb.TherapistID != therapistID || nb.ClientName != clientName {
			continue
		}
		if restored == nil || nb.UpdatedAt.After(restored.UpdatedAt) {
			restored = nb
		}
	}
	if restored != nil {
		// Prefer the live handle over the persisted copy.
		if h := m.handle(restored.ID); h != nil {
			restored = h
		} else {
			m.storeHandle(restored)
		}
		m.logger.Info("restored session notebook",
			zap.String("notebook_id", restored.ID),
			zap.Int("messages", len(restored.Messages)))
		return restored, nil
	}

	return m.CreateNew(ctx, therapistID, clientName)
}

// CreateNew always creates and persists a fresh notebook.
func (m *Manager) CreateNew(ctx context.Context, therapistID, clientName string) (*Notebook, error) {
	nb := New(therapistID, clientName)
	if err := m.Save(ctx, nb); err != nil {
		return nil, err
	}
	m.storeHandle(nb)
	m.logger.Info("created session notebook",
		zap.String("notebook_id", nb.ID),
		zap.String("therapist_id", therapistID))
	return nb, nil
}

// Load fetches a notebook by id, preferring the live handle of an open
// session over the persisted copy. A missing notebook is (nil, nil).
func (m *Manager) Load(ctx context.Context, id string) (*Notebook, error) {
	if h := m.handle(id); h != nil {
		return h, nil
	}

	var nb Notebook
	found, err := m.store.Load(ctx, notebookKey(id), &nb)
	if err != nil {
		return nil, fmt.Errorf("loading notebook %s: %w", id, err)
	}
	if !found {
		return nil, nil
	}
	if nb.Profile.Lifestyle == nil {
		nb.Profile.Lifestyle = make(map[string]extract.LifestyleSlot)
	}
	if !nb.Terminal() {
		m.storeHandle(&nb)
	}
	return &nb, nil
}

// Save persists the notebook, clears its dirty flag, and cancels any
// pending auto-save.
func (m *Manager) Save(ctx context.Context, nb *Notebook) error {
	m.cancelAutoSave(nb.ID)
	if err := m.store.Save(ctx, notebookKey(nb.ID), nb); err != nil {
		return fmt.Errorf("saving notebook %s: %w", nb.ID, err)
	}
	nb.markClean()
	return nil
}

// ScheduleAutoSave arms (or re-arms) the debounced auto-save for the
// notebook. Rapid calls within the delay window collapse into one write.
func (m *Manager) ScheduleAutoSave(nb *Notebook) {
	if nb.Terminal() {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.timers[nb.ID]; ok {
		t.Stop()
	}
	m.timers[nb.ID] = time.AfterFunc(m.delay, func() {
		m.mu.Lock()
		delete(m.timers, nb.ID)
		m.mu.Unlock()

		if !nb.HasChanges() {
			return
		}
		if err := m.Save(context.Background(), nb); err != nil {
			m.logger.Error("auto-save failed",
				zap.String("notebook_id", nb.ID), zap.Error(err))
		}
	})
}

func (m *Manager) cancelAutoSave(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.timers[id]; ok {
		t.Stop()
		delete(m.timers, id)
	}
}

// TrackKeepAlive associates a running keep-alive with a session so the
// terminal transitions can stop it. A previously tracked scheduler for the
// same session is stopped before being replaced, so a restored session never
// leaks the old one. The stop happens outside the lock: Stop waits for the
// poll loop, whose hooks may call back into the manager.
func (m *Manager) TrackKeepAlive(id string, ka *retry.KeepAlive) {
	m.mu.Lock()
	prev := m.keepAlives[id]
	m.keepAlives[id] = ka
	m.mu.Unlock()

	if prev != nil && prev != ka {
		prev.Stop()
	}
}

func (m *Manager) stopKeepAlive(id string) {
	m.mu.Lock()
	ka, ok := m.keepAlives[id]
	if ok {
		delete(m.keepAlives, id)
	}
	m.mu.Unlock()
	if ok {
		ka.Stop()
	}
}

// CompleteSession marks the notebook completed, persists it, and releases
// its keep-alive. Completing twice returns ErrTerminal.
func (m *Manager) CompleteSession(ctx context.Context, nb *Notebook) error {
	return m.endSession(ctx, nb, StatusCompleted)
}

// AbandonSession marks the notebook abandoned, persists it, and releases
// its keep-alive.
func (m *Manager) AbandonSession(ctx context.Context, nb *Notebook) error {
	return m.endSession(ctx, nb, StatusAbandoned)
}

func (m *Manager) endSession(ctx context.Context, nb *Notebook, status Status) error {
	if err := nb.setStatus(status); err != nil {
		return err
	}
	m.stopKeepAlive(nb.ID)
	if err := m.Save(ctx, nb); err != nil {
		return err
	}
	m.releaseHandle(nb.ID)
	m.logger.Info("session ended",
		zap.String("notebook_id", nb.ID),
		zap.String("status", string(status)))
	return nil
}

// Close flushes unsaved open sessions and stops pending auto-saves and
// keep-alives. Used on daemon shutdown.
func (m *Manager) Close(ctx context.Context) {
	m.mu.Lock()
	for id, t := range m.timers {
		t.Stop()
		delete(m.timers, id)
	}
	kas := make([]*retry.KeepAlive, 0, len(m.keepAlives))
	for id, ka := range m.keepAlives {
		kas = append(kas, ka)
		delete(m.keepAlives, id)
	}
	dirty := make([]*Notebook, 0, len(m.handles))
	for id, nb := range m.handles {
		if nb.HasChanges() {
			dirty = append(dirty, nb)
		}
		delete(m.handles, id)
	}
	m.mu.Unlock()

	for _, ka := range kas {
		ka.Stop()
	}
	for _, nb := range dirty {
		if err := m.Save(ctx, nb); err != nil {
			m.logger.Error("flush on close failed",
				zap.String("notebook_id", nb.ID), zap.Error(err))
		}
	}
}
