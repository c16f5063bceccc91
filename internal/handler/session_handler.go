package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/exambuddy/exambuddy-backend/internal/engine"
	"github.com/exambuddy/exambuddy-backend/internal/middleware"
	"github.com/exambuddy/exambuddy-backend/internal/model"
	"github.com/exambuddy/exambuddy-backend/internal/questions"
	"github.com/exambuddy/exambuddy-backend/internal/response"
	"github.com/exambuddy/exambuddy-backend/internal/service"
	"github.com/exambuddy/exambuddy-backend/internal/store"
	"github.com/exambuddy/exambuddy-backend/internal/timing"
	"github.com/exambuddy/exambuddy-backend/internal/validator"
)

// SessionHandler exposes the session state machine over HTTP.
type SessionHandler struct {
	engine *engine.Engine
	log    zerolog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(eng *engine.Engine, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		engine: eng,
		log:    log.With().Str("component", "session_handler").Logger(),
	}
}

// StartSession godoc
// POST /api/v1/candidate/sessions
// Draws the question sequence and returns the session already active.
func (h *SessionHandler) StartSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.StartSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sess, err := h.engine.StartSession(c.Request.Context(), claims.Principal(), engine.StartParams{
		ProjectID:     req.ProjectID,
		Mode:          model.Mode(req.Mode),
		Difficulty:    model.Difficulty(req.Difficulty),
		QuestionCount: req.QuestionCount,
	})
	if err != nil {
		h.failFromEngine(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"session": sessionView(sess)})
}

// GetSession godoc
// GET /api/v1/candidate/sessions/:session_id
// Returns session state for resume after a reload or reconnect.
func (h *SessionHandler) GetSession(c *gin.Context) {
	claims, sessionID, ok := h.sessionScope(c)
	if !ok {
		return
	}

	sess, err := h.engine.GetSession(c.Request.Context(), claims.Principal(), sessionID)
	if err != nil {
		h.failFromEngine(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": sessionView(sess)})
}

// GetCurrentQuestion godoc
// GET /api/v1/candidate/sessions/:session_id/question
// Presents the current question (Active) or review item (Reviewing). The
// correct index is stripped while the session is active.
func (h *SessionHandler) GetCurrentQuestion(c *gin.Context) {
	claims, sessionID, ok := h.sessionScope(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	principal := claims.Principal()

	sess, err := h.engine.GetSession(ctx, principal, sessionID)
	if err != nil {
		h.failFromEngine(c, err)
		return
	}

	switch sess.Phase {
	case model.PhaseActive:
		q, err := h.engine.CurrentQuestion(ctx, principal, sessionID)
		if err != nil {
			h.failFromEngine(c, err)
			return
		}
		response.Success(c, http.StatusOK, gin.H{"question": q, "version": sess.Version})
	case model.PhaseReviewing:
		item, err := h.engine.CurrentReviewItem(ctx, principal, sessionID)
		if err != nil {
			h.failFromEngine(c, err)
			return
		}
		response.Success(c, http.StatusOK, gin.H{"review_item": item, "version": sess.Version})
	default:
		response.Fail(c, http.StatusConflict, response.ErrSessionNotActive)
	}
}

// SubmitAnswer godoc
// POST /api/v1/candidate/sessions/:session_id/answer
// Records an answer for the current question.
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	claims, sessionID, ok := h.sessionScope(c)
	if !ok {
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questionID, err := uuid.Parse(req.QuestionID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	outcome, err := h.engine.SubmitAnswer(c.Request.Context(), claims.Principal(), sessionID, req.Version, questionID, req.SelectedIndex)
	if err != nil {
		h.failFromEngine(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"answer": outcome})
}

// Advance godoc
// POST /api/v1/candidate/sessions/:session_id/advance
// Moves past the current question, realizing a timeout if it expired
// unanswered. Returns the attempt result when the session submits.
func (h *SessionHandler) Advance(c *gin.Context) {
	claims, sessionID, ok := h.sessionScope(c)
	if !ok {
		return
	}

	var req model.AdvanceRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sess, result, err := h.engine.Advance(c.Request.Context(), claims.Principal(), sessionID, req.Version)
	if err != nil {
		h.failFromEngine(c, err)
		return
	}

	data := gin.H{"session": sessionView(sess)}
	if result != nil {
		data["result"] = result
	}
	response.Success(c, http.StatusOK, data)
}

// ReviewAdvance godoc
// POST /api/v1/candidate/sessions/:session_id/review-advance
// Moves to the next review item; the last one submits the session.
func (h *SessionHandler) ReviewAdvance(c *gin.Context) {
	claims, sessionID, ok := h.sessionScope(c)
	if !ok {
		return
	}

	var req model.AdvanceRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sess, result, err := h.engine.ReviewAdvance(c.Request.Context(), claims.Principal(), sessionID, req.Version)
	if err != nil {
		h.failFromEngine(c, err)
		return
	}

	data := gin.H{"session": sessionView(sess)}
	if result != nil {
		data["result"] = result
	}
	response.Success(c, http.StatusOK, data)
}

// CancelSession godoc
// POST /api/v1/candidate/sessions/:session_id/cancel
// Terminates the session without producing a result. Idempotent.
func (h *SessionHandler) CancelSession(c *gin.Context) {
	claims, sessionID, ok := h.sessionScope(c)
	if !ok {
		return
	}

	var req model.AdvanceRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.engine.CancelSession(c.Request.Context(), claims.Principal(), sessionID, req.Version); err != nil {
		h.failFromEngine(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// sessionScope extracts the claims and the :session_id path param, failing the
// request itself when either is missing.
func (h *SessionHandler) sessionScope(c *gin.Context) (*service.Claims, uuid.UUID, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, uuid.Nil, false
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return nil, uuid.Nil, false
	}

	return claims, sessionID, true
}

// failFromEngine maps the engine's error taxonomy onto HTTP statuses and the
// typed error codes the envelope carries.
func (h *SessionHandler) failFromEngine(c *gin.Context, err error) {
	var insufficient *questions.InsufficientError
	var validation *engine.ValidationError

	switch {
	case errors.As(err, &insufficient):
		response.FailWithFields(c, http.StatusUnprocessableEntity, response.ErrInsufficientQuestions, map[string]string{
			"available": strconv.Itoa(insufficient.Available),
			"requested": strconv.Itoa(insufficient.Requested),
		})
	case errors.As(err, &validation):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
			"detail": validation.Reason,
		})
	case errors.Is(err, engine.ErrWrongQuestion):
		response.Fail(c, http.StatusConflict, response.ErrWrongQuestion)
	case errors.Is(err, engine.ErrAlreadyAnswered):
		response.Fail(c, http.StatusConflict, response.ErrAlreadyAnswered)
	case errors.Is(err, engine.ErrStaleSubmission):
		response.Fail(c, http.StatusConflict, response.ErrStaleSubmission)
	case errors.Is(err, engine.ErrConcurrentModification):
		response.Fail(c, http.StatusConflict, response.ErrConcurrentModification)
	case errors.Is(err, engine.ErrInvalidPhase):
		response.Fail(c, http.StatusConflict, response.ErrSessionNotActive)
	case errors.Is(err, engine.ErrNotSessionOwner):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
	case errors.Is(err, store.ErrNotFound), errors.Is(err, questions.ErrQuestionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	default:
		h.log.Error().Err(err).Msg("Session operation failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// sessionView shapes a session for API responses, adding the advisory
// remaining time for the current question or review item.
func sessionView(sess *model.Session) gin.H {
	view := gin.H{
		"id":             sess.ID,
		"project_id":     sess.ProjectID,
		"mode":           sess.Mode,
		"difficulty":     sess.Difficulty,
		"phase":          sess.Phase,
		"current_index":  sess.CurrentIndex,
		"total":          len(sess.QuestionIDs),
		"answers":        answersView(sess),
		"version":        sess.Version,
		"created_at":     sess.CreatedAt,
		"terminated_at":  sess.TerminatedAt,
	}

	if remaining, ok := remainingSeconds(sess); ok {
		view["remaining_seconds"] = remaining
	}
	return view
}

// answersView hides per-answer correctness while an exam-mode session is
// still collecting answers; exam feedback is deferred to the review pass.
// Test mode and terminal or reviewing sessions expose the full records.
func answersView(sess *model.Session) interface{} {
	if sess.Mode != model.ModeExam || sess.Phase != model.PhaseActive {
		return sess.Answers
	}
	hidden := make(map[string]gin.H, len(sess.Answers))
	for id, rec := range sess.Answers {
		hidden[id] = gin.H{
			"selected_index":     rec.SelectedIndex,
			"time_spent_seconds": rec.TimeSpentSeconds,
			"recorded_at":        rec.RecordedAt,
		}
	}
	return hidden
}

// remainingSeconds computes the advisory countdown for non-terminal sessions.
func remainingSeconds(sess *model.Session) (int, bool) {
	var limit time.Duration
	var err error

	switch sess.Phase {
	case model.PhaseActive:
		limit, err = timing.QuestionLimit(sess.Difficulty)
	case model.PhaseReviewing:
		limit, err = timing.ReviewLimit(sess.Difficulty)
	default:
		return 0, false
	}
	if err != nil {
		return 0, false
	}

	remaining := limit - time.Since(sess.QuestionStartedAt)
	if remaining < 0 {
		remaining = 0
	}
	return int(remaining.Seconds()), true
}
