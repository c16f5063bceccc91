package handler

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exambuddy/exambuddy-backend/internal/model"
)

func viewSession(mode model.Mode, phase model.Phase) *model.Session {
	selected := 1
	qid := uuid.New()
	return &model.Session{
		ID:                uuid.New(),
		CandidateID:       uuid.NewString(),
		ProjectID:         "geo-101",
		Mode:              mode,
		Difficulty:        model.DifficultyMedium,
		QuestionIDs:       []uuid.UUID{qid, uuid.New()},
		CurrentIndex:      1,
		Phase:             phase,
		QuestionStartedAt: time.Now().UTC(),
		Answers: map[string]model.AnswerRecord{
			qid.String(): {
				SelectedIndex:    &selected,
				TimeSpentSeconds: 12.5,
				IsCorrect:        true,
				RecordedAt:       time.Now().UTC(),
			},
		},
		Version:   2,
		CreatedAt: time.Now().UTC(),
	}
}

func marshalledAnswers(t *testing.T, sess *model.Session) string {
	t.Helper()
	raw, err := json.Marshal(sessionView(sess)["answers"])
	require.NoError(t, err)
	return string(raw)
}

func TestSessionViewHidesCorrectnessDuringExam(t *testing.T) {
	answers := marshalledAnswers(t, viewSession(model.ModeExam, model.PhaseActive))

	assert.NotContains(t, answers, "is_correct")
	assert.Contains(t, answers, `"selected_index":1`)
	assert.Contains(t, answers, "time_spent_seconds")
	assert.Contains(t, answers, "recorded_at")
}

func TestSessionViewExposesRecordsOutsideActiveExam(t *testing.T) {
	cases := []struct {
		name  string
		mode  model.Mode
		phase model.Phase
	}{
		{"test mode active", model.ModeTest, model.PhaseActive},
		{"exam reviewing", model.ModeExam, model.PhaseReviewing},
		{"exam submitted", model.ModeExam, model.PhaseSubmitted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			answers := marshalledAnswers(t, viewSession(tc.mode, tc.phase))
			assert.Contains(t, answers, `"is_correct":true`)
		})
	}
}
