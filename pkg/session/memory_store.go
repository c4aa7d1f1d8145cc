package session

import (
	"context"
	"sync"
)

// MemoryStore implements Store, Toucher and Lister in process memory.
// Snapshots are kept serialized, so callers never share state with the store.
// Expired sessions are dropped lazily when read; there is no background sweep.
//
// It is meant for development and tests: it does not scale past one process.
type MemoryStore struct {
	Notifier

	mu       sync.Mutex
	sessions map[string][]byte
}

var (
	_ Store   = (*MemoryStore)(nil)
	_ Toucher = (*MemoryStore)(nil)
	_ Lister  = (*MemoryStore)(nil)
)

// NewMemoryStore creates a new in-memory session store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string][]byte),
	}
}

// Get retrieves a session by id, deleting it when its cookie has expired.
func (m *MemoryStore) Get(ctx context.Context, id string) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(id)
}

// Set stores a serialized copy of snap
func (m *MemoryStore) Set(ctx context.Context, id string, snap *Snapshot) error {
	data, err := snap.Encode()
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.sessions[id] = data
	m.mu.Unlock()
	return nil
}

// Destroy removes a session by id
func (m *MemoryStore) Destroy(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// Touch replaces only the cookie of an existing session. Missing ids are ignored.
func (m *MemoryStore) Touch(ctx context.Context, id string, snap *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, err := m.load(id)
	if err != nil || current == nil {
		return err
	}

	current.Cookie = snap.Cookie
	data, err := current.Encode()
	if err != nil {
		return err
	}
	m.sessions[id] = data
	return nil
}

// All returns every session that has not expired
func (m *MemoryStore) All(ctx context.Context) (map[string]*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]*Snapshot, len(m.sessions))
	for id := range m.sessions {
		snap, err := m.load(id)
		if err != nil {
			return nil, err
		}
		if snap != nil {
			out[id] = snap
		}
	}
	return out, nil
}

// Len returns the number of sessions that have not expired
func (m *MemoryStore) Len(ctx context.Context) (int, error) {
	all, err := m.All(ctx)
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

// Clear removes all sessions
func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.sessions = make(map[string][]byte)
	m.mu.Unlock()
	return nil
}

// load decodes a session and drops it if expired. Callers hold m.mu.
func (m *MemoryStore) load(id string) (*Snapshot, error) {
	data, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}

	snap, err := DecodeSnapshot(data)
	if err != nil {
		return nil, err
	}

	if snap.Expired(now()) {
		delete(m.sessions, id)
		return nil, nil
	}
	return snap, nil
}
