package model

import (
	"time"

	"github.com/google/uuid"
)

// Mode selects the delivery behavior of a session.
type Mode string

const (
	// ModeTest reveals correctness immediately after every answer.
	ModeTest Mode = "test"
	// ModeExam defers all feedback to a timed review pass.
	ModeExam Mode = "exam"
)

// Difficulty determines per-question and review durations.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyExpert Difficulty = "expert"
)

// Phase enumerates session lifecycle states.
type Phase string

const (
	// PhaseConfiguring is transient: a session in this phase has never been
	// persisted. It collapses into PhaseActive atomically at creation.
	PhaseConfiguring Phase = "CONFIGURING"
	PhaseActive      Phase = "ACTIVE"
	PhaseReviewing   Phase = "REVIEWING"
	PhaseSubmitted   Phase = "SUBMITTED"
	PhaseCancelled   Phase = "CANCELLED"
)

// AnswerRecord captures one presented question's outcome. A nil SelectedIndex
// means the question timed out without an answer.
type AnswerRecord struct {
	SelectedIndex    *int      `json:"selected_index"`
	TimeSpentSeconds float64   `json:"time_spent_seconds"`
	IsCorrect        bool      `json:"is_correct"`
	RecordedAt       time.Time `json:"recorded_at"`
}

// Session is one candidate's in-progress or terminal attempt. It is mutated
// exclusively through the engine's state-machine operations and persisted via
// the session store's compare-and-swap put.
type Session struct {
	ID                uuid.UUID               `json:"id"`
	CandidateID       string                  `json:"candidate_id"`
	ProjectID         string                  `json:"project_id"`
	Mode              Mode                    `json:"mode"`
	Difficulty        Difficulty              `json:"difficulty"`
	QuestionIDs       []uuid.UUID             `json:"question_ids"`
	CurrentIndex      int                     `json:"current_index"`
	Phase             Phase                   `json:"phase"`
	QuestionStartedAt time.Time               `json:"question_started_at"`
	Answers           map[string]AnswerRecord `json:"answers"`
	Version           int64                   `json:"version"`
	CreatedAt         time.Time               `json:"created_at"`
	TerminatedAt      *time.Time              `json:"terminated_at,omitempty"`
}

// CurrentQuestionID returns the ID of the question at the current index, or
// uuid.Nil when the index is past the end of the sequence.
func (s *Session) CurrentQuestionID() uuid.UUID {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.QuestionIDs) {
		return uuid.Nil
	}
	return s.QuestionIDs[s.CurrentIndex]
}

// IsTerminal reports whether the session accepts no further mutation.
func (s *Session) IsTerminal() bool {
	return s.Phase == PhaseSubmitted || s.Phase == PhaseCancelled
}

// AnswerFor returns the recorded answer for a question, if any.
func (s *Session) AnswerFor(questionID uuid.UUID) (AnswerRecord, bool) {
	rec, ok := s.Answers[questionID.String()]
	return rec, ok
}

// StartSessionRequest is the payload for starting a session.
type StartSessionRequest struct {
	ProjectID     string `json:"project_id" binding:"required,min=1,max=255"`
	Mode          string `json:"mode" binding:"required,oneof=test exam"`
	Difficulty    string `json:"difficulty" binding:"required,oneof=easy medium hard expert"`
	QuestionCount int    `json:"question_count" binding:"required,min=1,max=100"`
}

// SubmitAnswerRequest is the payload for answering the current question.
// SelectedIndex is a pointer: an explicit null records the question as
// unanswered.
type SubmitAnswerRequest struct {
	Version       int64  `json:"version" binding:"required,min=1"`
	QuestionID    string `json:"question_id" binding:"required,uuid"`
	SelectedIndex *int   `json:"selected_index" binding:"omitempty,min=0,max=5"`
}

// AdvanceRequest carries the expected version for Advance, ReviewAdvance and
// CancelSession calls.
type AdvanceRequest struct {
	Version int64 `json:"version" binding:"required,min=1"`
}
