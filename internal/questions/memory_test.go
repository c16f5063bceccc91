package questions

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exambuddy/exambuddy-backend/internal/model"
)

func seedProvider(t *testing.T, projectID string, n int) *MemoryProvider {
	t.Helper()
	p := NewMemoryProvider()
	for i := 0; i < n; i++ {
		p.Add(model.Question{
			ID:           uuid.New(),
			ProjectID:    projectID,
			Text:         fmt.Sprintf("question %d", i),
			Options:      []string{"a", "b", "c", "d"},
			CorrectIndex: i % 4,
		})
	}
	return p
}

func TestDrawReturnsUniqueQuestions(t *testing.T) {
	ctx := context.Background()
	p := seedProvider(t, "proj-1", 20)

	drawn, err := p.Draw(ctx, "proj-1", 10)
	require.NoError(t, err)
	require.Len(t, drawn, 10)

	seen := make(map[uuid.UUID]bool, len(drawn))
	for _, q := range drawn {
		assert.False(t, seen[q.ID], "duplicate question %s in draw", q.ID)
		seen[q.ID] = true
		assert.Equal(t, "proj-1", q.ProjectID)
	}
}

func TestDrawWholePool(t *testing.T) {
	ctx := context.Background()
	p := seedProvider(t, "proj-1", 7)

	drawn, err := p.Draw(ctx, "proj-1", 7)
	require.NoError(t, err)
	assert.Len(t, drawn, 7)
}

func TestDrawInsufficientPool(t *testing.T) {
	ctx := context.Background()
	p := seedProvider(t, "proj-1", 7)

	_, err := p.Draw(ctx, "proj-1", 10)
	var insufficient *InsufficientError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 10, insufficient.Requested)
	assert.Equal(t, 7, insufficient.Available)
}

func TestDrawUnknownProject(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryProvider()

	_, err := p.Draw(ctx, "missing", 1)
	var insufficient *InsufficientError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 0, insufficient.Available)
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryProvider()
	q := model.Question{
		ID:           uuid.New(),
		ProjectID:    "proj-1",
		Text:         "what is idempotency?",
		Options:      []string{"a", "b"},
		CorrectIndex: 1,
	}
	p.Add(q)

	got, err := p.Get(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.Text, got.Text)

	_, err = p.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrQuestionNotFound)
}
