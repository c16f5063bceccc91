package model

import (
	"time"

	"github.com/google/uuid"
)

// Question is a single-correct-answer multiple-choice question as stored in
// the pool. CorrectIndex must never reach a candidate-facing response while a
// session is active; use CandidateView for presentation.
type Question struct {
	ID           uuid.UUID `json:"id"`
	ProjectID    string    `json:"project_id"`
	Text         string    `json:"text"`
	Options      []string  `json:"options"`
	CorrectIndex int       `json:"correct_index"`
	CreatedAt    time.Time `json:"created_at"`
}

// CandidateQuestion is a question as presented to a candidate: the correct
// index is stripped.
type CandidateQuestion struct {
	ID               uuid.UUID `json:"id"`
	Text             string    `json:"text"`
	Options          []string  `json:"options"`
	Index            int       `json:"index"`
	Total            int       `json:"total"`
	TimeLimitSeconds int       `json:"time_limit_seconds"`
}

// CandidateView strips the correct answer for presentation. Index, Total and
// TimeLimitSeconds are filled by the caller from session context.
func (q *Question) CandidateView() CandidateQuestion {
	opts := make([]string, len(q.Options))
	copy(opts, q.Options)
	return CandidateQuestion{
		ID:      q.ID,
		Text:    q.Text,
		Options: opts,
	}
}

// CreateQuestionRequest is the admin payload for adding a question to a
// project pool.
type CreateQuestionRequest struct {
	Text         string   `json:"text" binding:"required,min=1,max=2000"`
	Options      []string `json:"options" binding:"required,min=2,max=6,dive,required,max=500"`
	CorrectIndex int      `json:"correct_index" binding:"min=0,max=5"`
}

// UpdateQuestionRequest is the admin payload for editing a question.
type UpdateQuestionRequest struct {
	Text         string   `json:"text" binding:"omitempty,min=1,max=2000"`
	Options      []string `json:"options" binding:"omitempty,min=2,max=6,dive,required,max=500"`
	CorrectIndex *int     `json:"correct_index" binding:"omitempty,min=0,max=5"`
}
