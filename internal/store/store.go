// Package store persists session state. All mutation goes through a
// compare-and-swap put keyed on the session version: it is the sole
// coordination primitive between concurrent stateless workers.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/exambuddy/exambuddy-backend/internal/model"
)

var (
	// ErrNotFound is returned when no session exists for the given ID.
	ErrNotFound = errors.New("session not found")
	// ErrVersionConflict is returned when the persisted version no longer
	// matches the expected one. The caller re-reads and retries.
	ErrVersionConflict = errors.New("session version conflict")
	// ErrAlreadyExists is returned by Create for a duplicate session ID.
	ErrAlreadyExists = errors.New("session already exists")
)

// SessionStore is the persistence abstraction for sessions.
type SessionStore interface {
	// Get returns a copy of the session; mutating it does not affect the
	// stored state until a successful PutIfVersion.
	Get(ctx context.Context, id uuid.UUID) (*model.Session, error)

	// Create persists a brand-new session. The session's Version must be 1.
	Create(ctx context.Context, s *model.Session) error

	// PutIfVersion persists s only if the stored version equals
	// expectedVersion, and bumps s.Version to expectedVersion+1 on success.
	// Returns ErrVersionConflict otherwise; the stored state is unchanged.
	PutIfVersion(ctx context.Context, s *model.Session, expectedVersion int64) error
}
