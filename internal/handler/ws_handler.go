package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/exambuddy/exambuddy-backend/internal/engine"
	"github.com/exambuddy/exambuddy-backend/internal/middleware"
	ws "github.com/exambuddy/exambuddy-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams the advisory per-question countdown.
type WSHandler struct {
	engine   *engine.Engine
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(eng *engine.Engine, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		engine:   eng,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// SessionCountdownStream godoc
// WS /ws/v1/sessions/:session_id/stream
// Pushes a countdown tick once per second until the session terminates. The
// stream is read-only state: missing a tick or a stream outage never changes
// the outcome — the engine's elapsed-time check on the next operation does.
func (h *WSHandler) SessionCountdownStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return
	}

	// Ownership is checked before the upgrade so an intruder gets a plain
	// HTTP error, not a dangling socket.
	principal := claims.Principal()
	sess, err := h.engine.GetSession(c.Request.Context(), principal, sessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Str("candidate_id", claims.UserID).
		Str("session_id", sessionID.String()).
		Logger()
	wsLog.Info().Msg("Candidate connected")

	// Read pump: answers pings and surfaces the close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var msg ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				}
				return
			}
			if msg.Action == ws.ActionPing {
				_ = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			}
		}
	}()

	lastPhase := sess.Phase
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			wsLog.Debug().Msg("Connection closed")
			return
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
			sess, err := h.engine.GetSession(c.Request.Context(), principal, sessionID)
			if err != nil {
				_ = ws.WriteError(conn, "session unavailable")
				return
			}

			if sess.Phase != lastPhase {
				lastPhase = sess.Phase
				_ = ws.WriteTyped(conn, ws.PhaseResponse{Event: ws.EventPhase, Phase: string(sess.Phase)})
			}

			if sess.IsTerminal() {
				_ = ws.WriteTyped(conn, ws.ClosedResponse{Event: ws.EventClosed, Phase: string(sess.Phase)})
				wsLog.Info().Str("phase", string(sess.Phase)).Msg("Stream closed, session terminal")
				return
			}

			remaining, ok := remainingSeconds(sess)
			if !ok {
				continue
			}
			tick := ws.TickResponse{
				Event:            ws.EventTick,
				Phase:            string(sess.Phase),
				QuestionIndex:    sess.CurrentIndex,
				TotalQuestions:   len(sess.QuestionIDs),
				RemainingSeconds: remaining,
				Version:          sess.Version,
			}
			if err := ws.WriteTyped(conn, tick); err != nil {
				wsLog.Debug().Msg("Write failed, closing stream")
				return
			}
		}
	}
}
