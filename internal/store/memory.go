package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/exambuddy/exambuddy-backend/internal/model"
)

// MemoryStore is the reference SessionStore: a mutex-guarded map holding
// JSON-encoded sessions. Encoding on every put keeps stored state isolated
// from caller mutations, matching the behavior of the durable stores.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[uuid.UUID][]byte)}
}

// Get returns a decoded copy of the stored session.
func (m *MemoryStore) Get(_ context.Context, id uuid.UUID) (*model.Session, error) {
	m.mu.Lock()
	raw, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}

	var s model.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

// Create persists a new session, rejecting duplicates.
func (m *MemoryStore) Create(_ context.Context, s *model.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[s.ID]; exists {
		return ErrAlreadyExists
	}
	m.sessions[s.ID] = raw
	return nil
}

// PutIfVersion swaps the stored session iff the stored version matches.
func (m *MemoryStore) PutIfVersion(_ context.Context, s *model.Session, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, ok := m.sessions[s.ID]
	if !ok {
		return ErrNotFound
	}

	var stored model.Session
	if err := json.Unmarshal(raw, &stored); err != nil {
		return fmt.Errorf("decode session: %w", err)
	}
	if stored.Version != expectedVersion {
		return ErrVersionConflict
	}

	s.Version = expectedVersion + 1
	next, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	m.sessions[s.ID] = next
	return nil
}
