package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventTick   Event = "tick"
	EventPhase  Event = "phase"
	EventClosed Event = "closed"
	EventError  Event = "error"
	EventPong   Event = "pong"
)

// TickResponse is the advisory countdown pushed once per second. The server
// clock remains the arbiter: a tick reaching zero does not end the question,
// it only tells the client what the engine will conclude on the next call.
type TickResponse struct {
	Event            Event  `json:"event"`
	Phase            string `json:"phase"`
	QuestionIndex    int    `json:"question_index"`
	TotalQuestions   int    `json:"total_questions"`
	RemainingSeconds int    `json:"remaining_seconds"`
	Version          int64  `json:"version"`
}

// PhaseResponse announces a phase transition observed between ticks.
type PhaseResponse struct {
	Event Event  `json:"event"`
	Phase string `json:"phase"`
}

// ClosedResponse is the final frame before the server closes a stream for a
// terminal session.
type ClosedResponse struct {
	Event Event  `json:"event"`
	Phase string `json:"phase"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
