// Package questions exposes the question snapshot provider: a read-only view
// of a project's question pool that many sessions consume concurrently.
package questions

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/exambuddy/exambuddy-backend/internal/model"
)

// ErrQuestionNotFound is returned by Get for an unknown question ID.
var ErrQuestionNotFound = errors.New("question not found")

// InsufficientError reports that a project pool is smaller than the requested
// draw. Available is surfaced verbatim to the caller.
type InsufficientError struct {
	Requested int
	Available int
}

func (e *InsufficientError) Error() string {
	return fmt.Sprintf("insufficient questions: requested %d, only %d available", e.Requested, e.Available)
}

// Provider draws question snapshots for sessions and resolves individual
// questions for grading and result display.
type Provider interface {
	// Draw returns count unique questions from the project pool, uniformly
	// at random without replacement. The returned order is the draw order.
	// Fails with *InsufficientError when the pool is smaller than count.
	Draw(ctx context.Context, projectID string, count int) ([]model.Question, error)

	// Get resolves one question by ID.
	Get(ctx context.Context, id uuid.UUID) (*model.Question, error)
}
