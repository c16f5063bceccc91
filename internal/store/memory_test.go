package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exambuddy/exambuddy-backend/internal/model"
)

func newTestSession() *model.Session {
	return &model.Session{
		ID:                uuid.New(),
		CandidateID:       uuid.NewString(),
		ProjectID:         "proj-1",
		Mode:              model.ModeTest,
		Difficulty:        model.DifficultyEasy,
		QuestionIDs:       []uuid.UUID{uuid.New(), uuid.New()},
		Phase:             model.PhaseActive,
		QuestionStartedAt: time.Now().UTC(),
		Answers:           map[string]model.AnswerRecord{},
		Version:           1,
		CreatedAt:         time.Now().UTC(),
	}
}

func TestMemoryStoreCreateAndGet(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	s := newTestSession()

	require.NoError(t, st.Create(ctx, s))

	got, err := st.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, int64(1), got.Version)
	assert.Equal(t, s.QuestionIDs, got.QuestionIDs)

	// Mutating the returned copy must not leak into the store.
	got.CurrentIndex = 99
	again, err := st.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, again.CurrentIndex)
}

func TestMemoryStoreCreateDuplicate(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	s := newTestSession()

	require.NoError(t, st.Create(ctx, s))
	assert.ErrorIs(t, st.Create(ctx, s), ErrAlreadyExists)
}

func TestMemoryStoreGetMissing(t *testing.T) {
	st := NewMemoryStore()
	_, err := st.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStorePutIfVersion(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	s := newTestSession()
	require.NoError(t, st.Create(ctx, s))

	s.CurrentIndex = 1
	require.NoError(t, st.PutIfVersion(ctx, s, 1))
	assert.Equal(t, int64(2), s.Version)

	stale := newTestSession()
	stale.ID = s.ID
	err := st.PutIfVersion(ctx, stale, 1)
	assert.ErrorIs(t, err, ErrVersionConflict)

	got, err := st.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
	assert.Equal(t, 1, got.CurrentIndex)
}

func TestMemoryStorePutIfVersionMissing(t *testing.T) {
	st := NewMemoryStore()
	err := st.PutIfVersion(context.Background(), newTestSession(), 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreConcurrentPutSingleWinner(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	s := newTestSession()
	require.NoError(t, st.Create(ctx, s))

	const writers = 16
	var wg sync.WaitGroup
	results := make(chan error, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			snap := *s
			snap.CurrentIndex = idx
			results <- st.PutIfVersion(ctx, &snap, 1)
		}(i)
	}
	wg.Wait()
	close(results)

	wins, conflicts := 0, 0
	for err := range results {
		switch {
		case err == nil:
			wins++
		default:
			assert.ErrorIs(t, err, ErrVersionConflict)
			conflicts++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, writers-1, conflicts)
}
