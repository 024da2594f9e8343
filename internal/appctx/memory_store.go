package appctx

import (
	"context"
	"sync"
	"time"

	"github.com/noah-isme/uniportal-api/internal/models"
)

type memoryEntry struct {
	state     models.SessionState
	expiresAt time.Time
}

// MemoryStore keeps session state in process. Used when no Redis is configured.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]memoryEntry{}, now: time.Now}
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context, sessionID string) (*models.SessionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	if !entry.expiresAt.IsZero() && m.now().After(entry.expiresAt) {
		delete(m.entries, sessionID)
		return nil, ErrNotFound
	}
	state := entry.state
	return &state, nil
}

// Save implements Store. A non-positive ttl never expires.
func (m *MemoryStore) Save(_ context.Context, sessionID string, state models.SessionState, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry := memoryEntry{state: state}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.entries[sessionID] = entry
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, sessionID)
	return nil
}
