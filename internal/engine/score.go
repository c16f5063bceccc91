package engine

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/exambuddy/exambuddy-backend/internal/model"
)

// buildResult derives the immutable AttemptResult from a finalized session.
// The breakdown mirrors the question sequence exactly; display fields come
// from the snapshot provider. The score denominator is the full question
// count, so timed-out questions count against the score.
func (e *Engine) buildResult(ctx context.Context, sess *model.Session) (*model.AttemptResult, error) {
	total := len(sess.QuestionIDs)
	breakdown := make([]model.QuestionResult, 0, total)

	correct, attempted := 0, 0
	var duration float64

	for _, qid := range sess.QuestionIDs {
		q, err := e.provider.Get(ctx, qid)
		if err != nil {
			return nil, fmt.Errorf("resolve question %s: %w", qid, err)
		}

		// Every presented question has a record; a missing one means the
		// session terminated before the question was reached (exam review
		// covers the full sequence, so this only guards corrupted state).
		rec, _ := sess.AnswerFor(qid)
		if rec.SelectedIndex != nil {
			attempted++
		}
		if rec.IsCorrect {
			correct++
		}
		duration += rec.TimeSpentSeconds

		breakdown = append(breakdown, model.QuestionResult{
			QuestionID:       q.ID,
			Text:             q.Text,
			Options:          q.Options,
			SelectedIndex:    rec.SelectedIndex,
			CorrectIndex:     q.CorrectIndex,
			IsCorrect:        rec.IsCorrect,
			TimeSpentSeconds: rec.TimeSpentSeconds,
		})
	}

	var score float64
	if total > 0 {
		score = round1(float64(correct) / float64(total) * 100)
	}

	return &model.AttemptResult{
		AttemptID:            uuid.New(),
		SessionID:            sess.ID,
		CandidateID:          sess.CandidateID,
		ProjectID:            sess.ProjectID,
		Mode:                 sess.Mode,
		Difficulty:           sess.Difficulty,
		ScorePercent:         score,
		CorrectCount:         correct,
		AttemptedCount:       attempted,
		TotalQuestions:       total,
		Breakdown:            breakdown,
		TotalDurationSeconds: duration,
		StartedAt:            sess.CreatedAt,
		CompletedAt:          *sess.TerminatedAt,
	}, nil
}

// round1 rounds to one decimal place.
func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
