package session

import (
	"context"
	"sync"
	"time"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/currency"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
)

// ErrNotSaved is returned by Do when fn succeeded but the store rejected the
// new snapshot. The in-memory copy is dropped, so the next call sees the
// last saved state.
var ErrNotSaved = errors.New("session not saved")

// Store persists session snapshots. Load returns errors.ErrNotFound for an
// unknown id.
type Store interface {
	Load(ctx context.Context, id string) (*Snapshot, error)
	Save(ctx context.Context, id string, snap *Snapshot) error
	Delete(ctx context.Context, id string) error
}

type entry struct {
	mu       sync.Mutex
	session  *Session
	lastSeen time.Time
}

// Manager hands out sessions and serializes access to each one. With a
// Store configured, the store is the source of truth and every call reloads
// and saves the session; without one, sessions live only in this process.
type Manager struct {
	table           currency.Table
	defaultCurrency currency.Code
	store           Store
	logger          *logging.LoggerV2

	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

// NewManager creates a session manager. store may be nil.
func NewManager(table currency.Table, defaultCurrency currency.Code, store Store, logger *logging.LoggerV2) (*Manager, error) {
	if _, ok := table.Lookup(defaultCurrency); !ok {
		return nil, errors.Wrapf(currency.ErrUnknownCurrency, "default currency %q", defaultCurrency)
	}
	return &Manager{
		table:           table,
		defaultCurrency: defaultCurrency,
		store:           store,
		logger:          logger,
		entries:         make(map[string]*entry),
		now:             time.Now,
	}, nil
}

// Do runs fn with exclusive access to the session id, creating it on first
// use. Changes are persisted only when fn returns nil; a failed save is
// reported as ErrNotSaved.
func (m *Manager) Do(ctx context.Context, id string, fn func(*Session) error) error {
	return m.do(ctx, id, fn, false)
}

// DoOrReset is Do for changes that must not be lost: when the new snapshot
// cannot be saved, the stored one is deleted while the session is still
// locked, so the next call starts from a fresh session. ErrNotSaved is
// returned only if that delete fails as well.
func (m *Manager) DoOrReset(ctx context.Context, id string, fn func(*Session) error) error {
	return m.do(ctx, id, fn, true)
}

func (m *Manager) do(ctx context.Context, id string, fn func(*Session) error, resetOnFailure bool) error {
	e := m.entry(id)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil || m.store != nil {
		s, err := m.load(ctx, id)
		if err != nil {
			return err
		}
		e.session = s
	}

	if err := fn(e.session); err != nil {
		if m.store != nil {
			// Reload next time so a failed call leaves no partial state behind.
			e.session = nil
		}
		return err
	}

	if m.store == nil {
		return nil
	}

	err := m.store.Save(ctx, id, e.session.Snapshot())
	if err == nil {
		return nil
	}
	e.session = nil
	m.logger.Error("Failed to persist session", logging.Fields{
		"session_id": id,
		"error":      err.Error(),
	})

	if resetOnFailure {
		delErr := m.store.Delete(ctx, id)
		if delErr == nil {
			m.logger.Warn("Session reset after failed save", logging.Fields{"session_id": id})
			return nil
		}
		m.logger.Error("Failed to reset session", logging.Fields{
			"session_id": id,
			"error":      delErr.Error(),
		})
	}
	return errors.Wrapf(ErrNotSaved, "session %s: %s", id, err.Error())
}

// View runs fn against the session without saving it afterwards. An id the
// manager has never seen is served a fresh default session that is neither
// kept in memory nor written to the store. fn must not mutate the session.
func (m *Manager) View(ctx context.Context, id string, fn func(*Session) error) error {
	m.mu.Lock()
	e, ok := m.entries[id]
	m.mu.Unlock()

	if !ok {
		s, err := m.load(ctx, id)
		if err != nil {
			return err
		}
		return fn(s)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil || m.store != nil {
		s, err := m.load(ctx, id)
		if err != nil {
			return err
		}
		e.session = s
	}
	return fn(e.session)
}

// End tears down a session and its persisted snapshot.
func (m *Manager) End(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()

	if m.store != nil {
		return m.store.Delete(ctx, id)
	}
	return nil
}

// Len is the number of sessions held in memory.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Sweep drops in-memory sessions idle for longer than maxIdle and returns
// how many were removed. Persisted snapshots expire through the store's TTL.
func (m *Manager) Sweep(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, e := range m.entries {
		if !e.mu.TryLock() {
			continue
		}
		if e.lastSeen.Before(cutoff) {
			delete(m.entries, id)
			removed++
		}
		e.mu.Unlock()
	}
	return removed
}

// RunJanitor sweeps idle sessions every interval until ctx is done.
func (m *Manager) RunJanitor(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(maxIdle); n > 0 {
				m.logger.Debug("Swept idle sessions", logging.Fields{"removed": n})
			}
		}
	}
}

func (m *Manager) entry(id string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		e = &entry{}
		m.entries[id] = e
	}
	e.lastSeen = m.now()
	return e
}

func (m *Manager) load(ctx context.Context, id string) (*Session, error) {
	s, err := newSession(id, m.table, m.defaultCurrency)
	if err != nil {
		return nil, err
	}
	if m.store == nil {
		return s, nil
	}

	snap, err := m.store.Load(ctx, id)
	if errors.Is(err, errors.ErrNotFound) {
		return s, nil
	}
	if err != nil {
		// Serve an empty session rather than failing the shopper.
		m.logger.Error("Failed to load session", logging.Fields{
			"session_id": id,
			"error":      err.Error(),
		})
		return s, nil
	}

	s.restore(snap)
	return s, nil
}
