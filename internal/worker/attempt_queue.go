package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/exambuddy/exambuddy-backend/internal/config"
	"github.com/exambuddy/exambuddy-backend/internal/model"
)

// AttemptQueue publishes finalized attempts onto the Redis persistence queue.
// It is the engine's attempt sink: enqueueing decouples the request path from
// PostgreSQL, so a slow insert never delays the candidate's final answer.
type AttemptQueue struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewAttemptQueue creates an AttemptQueue.
func NewAttemptQueue(rdb *redis.Client, log zerolog.Logger) *AttemptQueue {
	return &AttemptQueue{
		rdb: rdb,
		log: log.With().Str("component", "attempt_queue").Logger(),
	}
}

// AttemptCompleted enqueues the attempt for the persistence worker.
func (q *AttemptQueue) AttemptCompleted(ctx context.Context, result *model.AttemptResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode attempt: %w", err)
	}

	if err := q.rdb.RPush(ctx, config.WorkerKey.PersistAttemptsQueue, raw).Err(); err != nil {
		return fmt.Errorf("enqueue attempt: %w", err)
	}

	q.log.Debug().
		Str("attempt_id", result.AttemptID.String()).
		Str("session_id", result.SessionID.String()).
		Msg("Attempt enqueued")
	return nil
}
