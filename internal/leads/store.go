package leads

import (
	"context"
	"sync"
)

// Store persists leads as an append-only log.
type Store interface {
	// LoadAll returns every stored lead in insertion order. An empty store
	// returns an empty slice and no error.
	LoadAll(ctx context.Context) ([]Lead, error)
	// Append adds one lead. A failed append leaves earlier leads intact.
	Append(ctx context.Context, lead Lead) error
}

// MemoryStore keeps leads in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	leads []Lead
	ids   map[string]struct{}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ids: make(map[string]struct{})}
}

// LoadAll returns a copy of the stored leads.
func (s *MemoryStore) LoadAll(ctx context.Context) ([]Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Lead, len(s.leads))
	copy(out, s.leads)
	return out, nil
}

// Append stores lead unless its id is already present.
func (s *MemoryStore) Append(ctx context.Context, lead Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.ids[lead.ID]; exists {
		return ErrDuplicateLead
	}
	s.ids[lead.ID] = struct{}{}
	s.leads = append(s.leads, lead)
	return nil
}
