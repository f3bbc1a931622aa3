package state

import (
	"context"
	"sync"
	"time"

	"github.com/questforge/questforge/internal/services/adventure/quest"
)

type memoryEntry struct {
	session   quest.State
	expiresAt time.Time
}

// MemoryStore is the default in-process session store.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: map[string]memoryEntry{},
		now:     time.Now,
	}
}

var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) Put(ctx context.Context, adventureID string, session quest.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evictExpiredLocked()
	m.entries[adventureID] = memoryEntry{
		session:   session,
		expiresAt: m.now().Add(SessionTTL),
	}
	return nil
}

// evictExpiredLocked drops every expired entry. Callers must hold mu.
func (m *MemoryStore) evictExpiredLocked() {
	now := m.now()
	for id, entry := range m.entries {
		if now.After(entry.expiresAt) {
			delete(m.entries, id)
		}
	}
}

func (m *MemoryStore) Get(ctx context.Context, adventureID string) (quest.State, error) {
	if err := ctx.Err(); err != nil {
		return quest.State{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[adventureID]
	if !ok {
		return quest.State{}, ErrNotFound
	}
	if m.now().After(entry.expiresAt) {
		delete(m.entries, adventureID)
		return quest.State{}, ErrNotFound
	}
	return entry.session, nil
}

func (m *MemoryStore) Delete(ctx context.Context, adventureID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[adventureID]; !ok {
		return ErrNotFound
	}
	delete(m.entries, adventureID)
	return nil
}
