package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/exambuddy/exambuddy-backend/internal/middleware"
	"github.com/exambuddy/exambuddy-backend/internal/repository"
	"github.com/exambuddy/exambuddy-backend/internal/response"
)

// AttemptHandler serves the completed-attempt history.
type AttemptHandler struct {
	attempts *repository.AttemptRepository
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(attempts *repository.AttemptRepository) *AttemptHandler {
	return &AttemptHandler{attempts: attempts}
}

// ListAttempts godoc
// GET /api/v1/candidate/attempts
// Lists the authenticated candidate's completed attempts, newest first.
// Cancelled sessions never appear here.
func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 10
	}

	summaries, total, err := h.attempts.ListByCandidate(c.Request.Context(), claims.UserID, perPage, (page-1)*perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	totalPages := (total + perPage - 1) / perPage
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"attempts": summaries}, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	})
}
