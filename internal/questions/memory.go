package questions

import (
	"context"
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"github.com/exambuddy/exambuddy-backend/internal/model"
)

// MemoryProvider serves questions from an in-memory pool. Used by tests and
// single-node development setups.
type MemoryProvider struct {
	mu        sync.RWMutex
	byID      map[uuid.UUID]model.Question
	byProject map[string][]uuid.UUID
}

// NewMemoryProvider creates an empty MemoryProvider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		byID:      make(map[uuid.UUID]model.Question),
		byProject: make(map[string][]uuid.UUID),
	}
}

// Add inserts a question into the pool.
func (p *MemoryProvider) Add(q model.Question) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.byID[q.ID]; !exists {
		p.byProject[q.ProjectID] = append(p.byProject[q.ProjectID], q.ID)
	}
	p.byID[q.ID] = q
}

// Draw picks count unique questions via a shuffle of the project's IDs.
func (p *MemoryProvider) Draw(_ context.Context, projectID string, count int) ([]model.Question, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	pool := p.byProject[projectID]
	if len(pool) < count {
		return nil, &InsufficientError{Requested: count, Available: len(pool)}
	}

	ids := make([]uuid.UUID, len(pool))
	copy(ids, pool)
	rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

	drawn := make([]model.Question, 0, count)
	for _, id := range ids[:count] {
		drawn = append(drawn, p.byID[id])
	}
	return drawn, nil
}

// Get resolves one question by ID.
func (p *MemoryProvider) Get(_ context.Context, id uuid.UUID) (*model.Question, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	q, ok := p.byID[id]
	if !ok {
		return nil, ErrQuestionNotFound
	}
	return &q, nil
}
