package engine

import "errors"

// State-machine errors. All of them leave the persisted session unchanged;
// retry policy belongs to the caller.
var (
	// ErrWrongQuestion: the answer targets a question other than the current
	// one (stale client state, replay, or race).
	ErrWrongQuestion = errors.New("answer does not target the current question")

	// ErrAlreadyAnswered: an answer was already recorded for this
	// presentation. An answer may be submitted at most once per question.
	ErrAlreadyAnswered = errors.New("question already answered")

	// ErrStaleSubmission: the submission arrived past the question deadline
	// plus grace. The caller should Advance instead.
	ErrStaleSubmission = errors.New("submission past question deadline")

	// ErrConcurrentModification: the supplied version no longer matches the
	// persisted session. The caller re-reads and retries.
	ErrConcurrentModification = errors.New("session modified concurrently")

	// ErrInvalidPhase: the operation is not allowed in the session's current
	// phase (e.g. answering a submitted session).
	ErrInvalidPhase = errors.New("operation not allowed in current phase")

	// ErrNotSessionOwner: the session belongs to a different candidate.
	ErrNotSessionOwner = errors.New("session belongs to another candidate")
)

// ValidationError rejects malformed input before any persistence happens.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}
