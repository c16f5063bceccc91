package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/exambuddy/exambuddy-backend/internal/model"
	"github.com/exambuddy/exambuddy-backend/internal/questions"
	"github.com/exambuddy/exambuddy-backend/internal/response"
	"github.com/exambuddy/exambuddy-backend/internal/validator"
)

// QuestionHandler handles admin question pool management.
type QuestionHandler struct {
	provider *questions.PostgresProvider
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(provider *questions.PostgresProvider) *QuestionHandler {
	return &QuestionHandler{provider: provider}
}

// CreateQuestion godoc
// POST /api/v1/admin/projects/:project_id/questions
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	projectID := c.Param("project_id")

	var req model.CreateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if req.CorrectIndex < 0 || req.CorrectIndex >= len(req.Options) {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
			"correct_index": "must reference one of the provided options",
		})
		return
	}

	q := &model.Question{
		ProjectID:    projectID,
		Text:         req.Text,
		Options:      req.Options,
		CorrectIndex: req.CorrectIndex,
	}
	if err := h.provider.Create(c.Request.Context(), q); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"question": q})
}

// ListQuestions godoc
// GET /api/v1/admin/projects/:project_id/questions
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	projectID := c.Param("project_id")

	list, err := h.provider.ListByProject(c.Request.Context(), projectID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": list, "total": len(list)})
}

// UpdateQuestion godoc
// PUT /api/v1/admin/projects/:project_id/questions/:question_id
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	ctx := c.Request.Context()
	q, err := h.provider.Get(ctx, questionID)
	if err != nil {
		h.failLookup(c, err)
		return
	}
	if q.ProjectID != c.Param("project_id") {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	if req.Text != "" {
		q.Text = req.Text
	}
	if req.Options != nil {
		q.Options = req.Options
	}
	if req.CorrectIndex != nil {
		q.CorrectIndex = *req.CorrectIndex
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
			"correct_index": "must reference one of the provided options",
		})
		return
	}

	if err := h.provider.Update(ctx, q); err != nil {
		h.failLookup(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question": q})
}

// DeleteQuestion godoc
// DELETE /api/v1/admin/projects/:project_id/questions/:question_id
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	ctx := c.Request.Context()
	q, err := h.provider.Get(ctx, questionID)
	if err != nil {
		h.failLookup(c, err)
		return
	}
	if q.ProjectID != c.Param("project_id") {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	if err := h.provider.Delete(ctx, questionID); err != nil {
		h.failLookup(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

func (h *QuestionHandler) failLookup(c *gin.Context, err error) {
	if errors.Is(err, questions.ErrQuestionNotFound) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}
