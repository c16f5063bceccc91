package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exambuddy/exambuddy-backend/internal/model"
)

func TestScoreRoundsToOneDecimal(t *testing.T) {
	f := newFixture(t, 5)
	sess := f.start(t, model.ModeTest, model.DifficultyMedium, 3)

	sess = f.answer(t, sess, true)
	sess = f.answer(t, sess, false)
	sess = f.answer(t, sess, false)
	require.Equal(t, model.PhaseSubmitted, sess.Phase)

	results := f.sink.all()
	require.Len(t, results, 1)
	assert.Equal(t, 33.3, results[0].ScorePercent)
}

func TestBreakdownFollowsQuestionOrder(t *testing.T) {
	f := newFixture(t, 5)
	sess := f.start(t, model.ModeTest, model.DifficultyMedium, 3)

	var order []string
	for _, id := range sess.QuestionIDs {
		order = append(order, id.String())
	}

	sess = f.answer(t, sess, true)
	sess = f.answer(t, sess, false)
	sess = f.answer(t, sess, true)

	results := f.sink.all()
	require.Len(t, results, 1)
	breakdown := results[0].Breakdown
	require.Len(t, breakdown, 3)

	for i, entry := range breakdown {
		assert.Equal(t, order[i], entry.QuestionID.String())
		assert.NotEmpty(t, entry.Text)
	}

	assert.True(t, breakdown[0].IsCorrect)
	assert.False(t, breakdown[1].IsCorrect)
	assert.True(t, breakdown[2].IsCorrect)
}

func TestRound1(t *testing.T) {
	assert.Equal(t, 33.3, round1(100.0/3))
	assert.Equal(t, 66.7, round1(200.0/3))
	assert.Equal(t, 50.0, round1(50.0))
	assert.Equal(t, 0.0, round1(0))
}
