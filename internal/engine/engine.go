// Package engine owns the exam session state machine: creation, answer
// recording, phase transitions, timing validation and final scoring. The
// engine never blocks or runs timers; deadlines are realized lazily as
// elapsed-time arithmetic on the next caller-initiated operation, so the
// server clock — never the client's countdown — is the arbiter.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/exambuddy/exambuddy-backend/internal/model"
	"github.com/exambuddy/exambuddy-backend/internal/questions"
	"github.com/exambuddy/exambuddy-backend/internal/store"
	"github.com/exambuddy/exambuddy-backend/internal/timing"
)

// AttemptSink receives the finalized AttemptResult exactly once per
// submitted session. The history subsystem consumes it; the engine only
// logs sink failures and never retries.
type AttemptSink interface {
	AttemptCompleted(ctx context.Context, result *model.AttemptResult) error
}

// Engine executes session state-machine operations for stateless workers.
// Concurrent operations on one session serialize through the store's
// compare-and-swap put; the engine holds no locks across calls.
type Engine struct {
	store    store.SessionStore
	provider questions.Provider
	sink     AttemptSink
	log      zerolog.Logger

	// now is swapped in tests to drive deadline arithmetic.
	now func() time.Time
}

// New creates an Engine. sink may be nil when no history subsystem is wired.
func New(st store.SessionStore, provider questions.Provider, sink AttemptSink, log zerolog.Logger) *Engine {
	return &Engine{
		store:    st,
		provider: provider,
		sink:     sink,
		log:      log.With().Str("component", "engine").Logger(),
		now:      time.Now,
	}
}

// StartParams configures a new session.
type StartParams struct {
	ProjectID     string
	Mode          model.Mode
	Difficulty    model.Difficulty
	QuestionCount int
}

// AnswerOutcome is returned by SubmitAnswer. IsCorrect and CorrectIndex are
// populated only in test mode; exam-mode responses never reveal either.
type AnswerOutcome struct {
	SessionID        uuid.UUID `json:"session_id"`
	QuestionID       uuid.UUID `json:"question_id"`
	TimeSpentSeconds float64   `json:"time_spent_seconds"`
	IsCorrect        *bool     `json:"is_correct,omitempty"`
	CorrectIndex     *int      `json:"correct_index,omitempty"`
	Version          int64     `json:"version"`
}

// StartSession draws the question sequence, applies the timing policy and
// persists the session already in the Active phase. The Configuring phase is
// purely transient: parameter validation happens before any state exists.
func (e *Engine) StartSession(ctx context.Context, principal model.Principal, p StartParams) (*model.Session, error) {
	if p.QuestionCount < 1 {
		return nil, &ValidationError{Reason: "question count must be at least 1"}
	}
	if p.Mode != model.ModeTest && p.Mode != model.ModeExam {
		return nil, &ValidationError{Reason: fmt.Sprintf("unknown mode %q", p.Mode)}
	}
	if _, err := timing.QuestionLimit(p.Difficulty); err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}

	drawn, err := e.provider.Draw(ctx, p.ProjectID, p.QuestionCount)
	if err != nil {
		return nil, err
	}

	now := e.now().UTC()
	ids := make([]uuid.UUID, len(drawn))
	for i, q := range drawn {
		ids[i] = q.ID
	}

	sess := &model.Session{
		ID:                uuid.New(),
		CandidateID:       principal.ID,
		ProjectID:         p.ProjectID,
		Mode:              p.Mode,
		Difficulty:        p.Difficulty,
		QuestionIDs:       ids,
		CurrentIndex:      0,
		Phase:             model.PhaseActive,
		QuestionStartedAt: now,
		Answers:           make(map[string]model.AnswerRecord, len(ids)),
		Version:           1,
		CreatedAt:         now,
	}

	if err := e.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	e.log.Info().
		Str("session_id", sess.ID.String()).
		Str("candidate_id", sess.CandidateID).
		Str("project_id", sess.ProjectID).
		Str("mode", string(sess.Mode)).
		Str("difficulty", string(sess.Difficulty)).
		Int("questions", len(ids)).
		Msg("Session started")

	return sess, nil
}

// GetSession returns the caller's session for state resume after a reload or
// reconnect. Read-only.
func (e *Engine) GetSession(ctx context.Context, principal model.Principal, sessionID uuid.UUID) (*model.Session, error) {
	return e.loadOwned(ctx, principal, sessionID)
}

// CurrentQuestion presents the active question with the correct index
// stripped. Valid only while the session is Active.
func (e *Engine) CurrentQuestion(ctx context.Context, principal model.Principal, sessionID uuid.UUID) (*model.CandidateQuestion, error) {
	sess, err := e.loadOwned(ctx, principal, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Phase != model.PhaseActive {
		return nil, ErrInvalidPhase
	}

	q, err := e.provider.Get(ctx, sess.CurrentQuestionID())
	if err != nil {
		return nil, fmt.Errorf("resolve question: %w", err)
	}
	limit, err := timing.QuestionLimit(sess.Difficulty)
	if err != nil {
		return nil, fmt.Errorf("timing policy: %w", err)
	}

	view := q.CandidateView()
	view.Index = sess.CurrentIndex
	view.Total = len(sess.QuestionIDs)
	view.TimeLimitSeconds = int(limit.Seconds())
	return &view, nil
}

// ReviewItem re-shows an answered question during the review pass, including
// the candidate's selection and the correct answer. Read-only.
type ReviewItem struct {
	Question      model.CandidateQuestion `json:"question"`
	SelectedIndex *int                    `json:"selected_index"`
	CorrectIndex  int                     `json:"correct_index"`
	IsCorrect     bool                    `json:"is_correct"`
}

// CurrentReviewItem presents the current review entry. Valid only in the
// Reviewing phase.
func (e *Engine) CurrentReviewItem(ctx context.Context, principal model.Principal, sessionID uuid.UUID) (*ReviewItem, error) {
	sess, err := e.loadOwned(ctx, principal, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Phase != model.PhaseReviewing {
		return nil, ErrInvalidPhase
	}

	qid := sess.CurrentQuestionID()
	q, err := e.provider.Get(ctx, qid)
	if err != nil {
		return nil, fmt.Errorf("resolve question: %w", err)
	}
	limit, err := timing.ReviewLimit(sess.Difficulty)
	if err != nil {
		return nil, fmt.Errorf("timing policy: %w", err)
	}

	view := q.CandidateView()
	view.Index = sess.CurrentIndex
	view.Total = len(sess.QuestionIDs)
	view.TimeLimitSeconds = int(limit.Seconds())

	rec, _ := sess.AnswerFor(qid)
	return &ReviewItem{
		Question:      view,
		SelectedIndex: rec.SelectedIndex,
		CorrectIndex:  q.CorrectIndex,
		IsCorrect:     rec.IsCorrect,
	}, nil
}

// SubmitAnswer validates and records an answer for the current question.
// A nil selectedIndex records the question as explicitly unanswered.
func (e *Engine) SubmitAnswer(ctx context.Context, principal model.Principal, sessionID uuid.UUID, expectedVersion int64, questionID uuid.UUID, selectedIndex *int) (*AnswerOutcome, error) {
	sess, err := e.loadOwned(ctx, principal, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Version != expectedVersion {
		return nil, ErrConcurrentModification
	}
	if sess.Phase != model.PhaseActive {
		return nil, ErrInvalidPhase
	}
	if questionID != sess.CurrentQuestionID() {
		return nil, ErrWrongQuestion
	}
	if _, exists := sess.AnswerFor(questionID); exists {
		return nil, ErrAlreadyAnswered
	}

	limit, err := timing.QuestionLimit(sess.Difficulty)
	if err != nil {
		return nil, fmt.Errorf("timing policy: %w", err)
	}

	now := e.now().UTC()
	elapsed := now.Sub(sess.QuestionStartedAt)
	// elapsed == limit is still acceptable; only past limit+grace is stale.
	if elapsed > limit+timing.Grace {
		return nil, ErrStaleSubmission
	}

	q, err := e.provider.Get(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("resolve question: %w", err)
	}
	if selectedIndex != nil && (*selectedIndex < 0 || *selectedIndex >= len(q.Options)) {
		return nil, &ValidationError{Reason: fmt.Sprintf("selected index %d out of range", *selectedIndex)}
	}

	isCorrect := selectedIndex != nil && *selectedIndex == q.CorrectIndex
	timeSpent := elapsed
	if timeSpent > limit {
		timeSpent = limit
	}
	if timeSpent < 0 {
		timeSpent = 0
	}

	sess.Answers[questionID.String()] = model.AnswerRecord{
		SelectedIndex:    selectedIndex,
		TimeSpentSeconds: timeSpent.Seconds(),
		IsCorrect:        isCorrect,
		RecordedAt:       now,
	}

	if err := e.put(ctx, sess, expectedVersion); err != nil {
		return nil, err
	}

	outcome := &AnswerOutcome{
		SessionID:        sess.ID,
		QuestionID:       questionID,
		TimeSpentSeconds: timeSpent.Seconds(),
		Version:          sess.Version,
	}
	// Immediate reveal is a test-mode feature only.
	if sess.Mode == model.ModeTest {
		outcome.IsCorrect = &isCorrect
		outcome.CorrectIndex = &q.CorrectIndex
	}
	return outcome, nil
}

// Advance moves to the next question. This is the sole place a timeout is
// realized: an unanswered current question gets an AnswerRecord with a nil
// selection and the full time budget. At the end of the sequence a test-mode
// session submits; an exam-mode session enters the review pass.
// The returned AttemptResult is non-nil only on the Submitted transition.
func (e *Engine) Advance(ctx context.Context, principal model.Principal, sessionID uuid.UUID, expectedVersion int64) (*model.Session, *model.AttemptResult, error) {
	sess, err := e.loadOwned(ctx, principal, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if sess.Version != expectedVersion {
		return nil, nil, ErrConcurrentModification
	}
	if sess.Phase != model.PhaseActive {
		return nil, nil, ErrInvalidPhase
	}

	limit, err := timing.QuestionLimit(sess.Difficulty)
	if err != nil {
		return nil, nil, fmt.Errorf("timing policy: %w", err)
	}

	now := e.now().UTC()
	current := sess.CurrentQuestionID()
	if _, answered := sess.AnswerFor(current); !answered {
		// Timed out (or force-advanced) without an answer: charge the full
		// budget, since no early answer arrived.
		sess.Answers[current.String()] = model.AnswerRecord{
			SelectedIndex:    nil,
			TimeSpentSeconds: limit.Seconds(),
			IsCorrect:        false,
			RecordedAt:       now,
		}
	}

	sess.CurrentIndex++

	var result *model.AttemptResult
	switch {
	case sess.CurrentIndex < len(sess.QuestionIDs):
		sess.QuestionStartedAt = now
	case sess.Mode == model.ModeExam:
		// Review walks the same sequence from the start.
		sess.Phase = model.PhaseReviewing
		sess.CurrentIndex = 0
		sess.QuestionStartedAt = now
	default:
		result, err = e.finalize(ctx, sess)
		if err != nil {
			return nil, nil, err
		}
	}

	if err := e.put(ctx, sess, expectedVersion); err != nil {
		return nil, nil, err
	}
	if result != nil {
		e.emitAttempt(ctx, result)
	}
	return sess, result, nil
}

// ReviewAdvance moves to the next review item. It never changes recorded
// answers. A call past the review deadline still advances: the call itself is
// how the review timeout is realized, and rejecting it would strand the
// session.
func (e *Engine) ReviewAdvance(ctx context.Context, principal model.Principal, sessionID uuid.UUID, expectedVersion int64) (*model.Session, *model.AttemptResult, error) {
	sess, err := e.loadOwned(ctx, principal, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if sess.Version != expectedVersion {
		return nil, nil, ErrConcurrentModification
	}
	if sess.Phase != model.PhaseReviewing {
		return nil, nil, ErrInvalidPhase
	}

	reviewLimit, err := timing.ReviewLimit(sess.Difficulty)
	if err != nil {
		return nil, nil, fmt.Errorf("timing policy: %w", err)
	}

	now := e.now().UTC()
	if overrun := now.Sub(sess.QuestionStartedAt) - (reviewLimit + timing.Grace); overrun > 0 {
		e.log.Debug().
			Str("session_id", sess.ID.String()).
			Dur("overrun", overrun).
			Msg("Review item overran its budget")
	}

	sess.CurrentIndex++

	var result *model.AttemptResult
	if sess.CurrentIndex < len(sess.QuestionIDs) {
		sess.QuestionStartedAt = now
	} else {
		result, err = e.finalize(ctx, sess)
		if err != nil {
			return nil, nil, err
		}
	}

	if err := e.put(ctx, sess, expectedVersion); err != nil {
		return nil, nil, err
	}
	if result != nil {
		e.emitAttempt(ctx, result)
	}
	return sess, result, nil
}

// CancelSession terminates a session without producing an AttemptResult.
// Cancelling an already-terminal session is a no-op success: cancellation
// races with completion under real network conditions.
func (e *Engine) CancelSession(ctx context.Context, principal model.Principal, sessionID uuid.UUID, expectedVersion int64) error {
	sess, err := e.loadOwned(ctx, principal, sessionID)
	if err != nil {
		return err
	}
	if sess.IsTerminal() {
		return nil
	}
	if sess.Version != expectedVersion {
		return ErrConcurrentModification
	}

	now := e.now().UTC()
	sess.Phase = model.PhaseCancelled
	sess.TerminatedAt = &now

	if err := e.put(ctx, sess, expectedVersion); err != nil {
		return err
	}

	e.log.Info().
		Str("session_id", sess.ID.String()).
		Str("candidate_id", sess.CandidateID).
		Msg("Session cancelled")
	return nil
}

// loadOwned fetches a session and enforces candidate scoping.
func (e *Engine) loadOwned(ctx context.Context, principal model.Principal, sessionID uuid.UUID) (*model.Session, error) {
	sess, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.CandidateID != principal.ID {
		return nil, ErrNotSessionOwner
	}
	return sess, nil
}

// put persists via compare-and-swap, mapping store conflicts to the engine's
// error taxonomy.
func (e *Engine) put(ctx context.Context, sess *model.Session, expectedVersion int64) error {
	err := e.store.PutIfVersion(ctx, sess, expectedVersion)
	if errors.Is(err, store.ErrVersionConflict) {
		return ErrConcurrentModification
	}
	if err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// finalize flips the session into Submitted and builds the attempt exactly
// once. Callers persist the session afterwards.
func (e *Engine) finalize(ctx context.Context, sess *model.Session) (*model.AttemptResult, error) {
	now := e.now().UTC()
	sess.Phase = model.PhaseSubmitted
	sess.TerminatedAt = &now

	result, err := e.buildResult(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("build result: %w", err)
	}

	e.log.Info().
		Str("session_id", sess.ID.String()).
		Str("candidate_id", sess.CandidateID).
		Float64("score_percent", result.ScorePercent).
		Int("correct", result.CorrectCount).
		Int("total", result.TotalQuestions).
		Msg("Session submitted")
	return result, nil
}

func (e *Engine) emitAttempt(ctx context.Context, result *model.AttemptResult) {
	if e.sink == nil {
		return
	}
	if err := e.sink.AttemptCompleted(ctx, result); err != nil {
		e.log.Error().
			Err(err).
			Str("session_id", result.SessionID.String()).
			Msg("Attempt sink failed")
	}
}
