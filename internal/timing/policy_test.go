package timing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exambuddy/exambuddy-backend/internal/model"
)

func TestQuestionLimit(t *testing.T) {
	cases := []struct {
		difficulty model.Difficulty
		want       time.Duration
	}{
		{model.DifficultyEasy, 120 * time.Second},
		{model.DifficultyMedium, 60 * time.Second},
		{model.DifficultyHard, 30 * time.Second},
		{model.DifficultyExpert, 10 * time.Second},
	}

	for _, tc := range cases {
		t.Run(string(tc.difficulty), func(t *testing.T) {
			got, err := QuestionLimit(tc.difficulty)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestReviewLimitIsHalfQuestionLimit(t *testing.T) {
	for _, d := range []model.Difficulty{
		model.DifficultyEasy,
		model.DifficultyMedium,
		model.DifficultyHard,
		model.DifficultyExpert,
	} {
		question, err := QuestionLimit(d)
		require.NoError(t, err)
		review, err := ReviewLimit(d)
		require.NoError(t, err)
		assert.Equal(t, question/2, review, "difficulty %s", d)
	}
}

func TestUnrecognizedDifficulty(t *testing.T) {
	_, err := QuestionLimit(model.Difficulty("nightmare"))
	assert.Error(t, err)

	_, err = ReviewLimit(model.Difficulty(""))
	assert.Error(t, err)
}
