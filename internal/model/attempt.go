package model

import (
	"time"

	"github.com/google/uuid"
)

// QuestionResult is one entry of the per-question breakdown, in question
// sequence order. Display fields come from the question snapshot provider.
type QuestionResult struct {
	QuestionID       uuid.UUID `json:"question_id"`
	Text             string    `json:"text"`
	Options          []string  `json:"options"`
	SelectedIndex    *int      `json:"selected_index"`
	CorrectIndex     int       `json:"correct_index"`
	IsCorrect        bool      `json:"is_correct"`
	TimeSpentSeconds float64   `json:"time_spent_seconds"`
}

// AttemptResult is the finalized, immutable scoring record produced exactly
// once per submitted session. Cancelled sessions never produce one.
type AttemptResult struct {
	AttemptID            uuid.UUID        `json:"attempt_id"`
	SessionID            uuid.UUID        `json:"session_id"`
	CandidateID          string           `json:"candidate_id"`
	ProjectID            string           `json:"project_id"`
	Mode                 Mode             `json:"mode"`
	Difficulty           Difficulty       `json:"difficulty"`
	ScorePercent         float64          `json:"score_percent"`
	CorrectCount         int              `json:"correct_count"`
	AttemptedCount       int              `json:"attempted_count"`
	TotalQuestions       int              `json:"total_questions"`
	Breakdown            []QuestionResult `json:"breakdown"`
	TotalDurationSeconds float64          `json:"total_duration_seconds"`
	StartedAt            time.Time        `json:"started_at"`
	CompletedAt          time.Time        `json:"completed_at"`
}

// AttemptSummary is the list view of a completed attempt (history endpoint),
// without the per-question breakdown.
type AttemptSummary struct {
	AttemptID      uuid.UUID  `json:"attempt_id"`
	SessionID      uuid.UUID  `json:"session_id"`
	ProjectID      string     `json:"project_id"`
	Mode           Mode       `json:"mode"`
	Difficulty     Difficulty `json:"difficulty"`
	ScorePercent   float64    `json:"score_percent"`
	CorrectCount   int        `json:"correct_count"`
	TotalQuestions int        `json:"total_questions"`
	CompletedAt    time.Time  `json:"completed_at"`
}
