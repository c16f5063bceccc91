package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/exambuddy/exambuddy-backend/internal/config"
	"github.com/exambuddy/exambuddy-backend/internal/model"
)

// RedisStore keeps live sessions as JSON documents in Redis. Every write
// refreshes the TTL, so abandoned sessions expire on their own; the durable
// record of a completed session is the attempt row written by the attempt
// worker, not the session document.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore creates a RedisStore. ttl bounds how long an untouched
// session survives (the original system used 24h).
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// Get loads and decodes the session document.
func (r *RedisStore) Get(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	raw, err := r.rdb.Get(ctx, config.CacheKey.SessionKey(id.String())).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var s model.Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

// Create persists a new session document, rejecting duplicates via SETNX.
func (r *RedisStore) Create(ctx context.Context, s *model.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	ok, err := r.rdb.SetNX(ctx, config.CacheKey.SessionKey(s.ID.String()), raw, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if !ok {
		return ErrAlreadyExists
	}
	return nil
}

// PutIfVersion performs an optimistic WATCH/MULTI swap: the write succeeds
// only if the document was untouched since Get and its version matches.
func (r *RedisStore) PutIfVersion(ctx context.Context, s *model.Session, expectedVersion int64) error {
	key := config.CacheKey.SessionKey(s.ID.String())

	err := r.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}

		var stored model.Session
		if err := json.Unmarshal([]byte(raw), &stored); err != nil {
			return fmt.Errorf("decode session: %w", err)
		}
		if stored.Version != expectedVersion {
			return ErrVersionConflict
		}

		s.Version = expectedVersion + 1
		next, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("encode session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, r.ttl)
			return nil
		})
		return err
	}, key)

	// A concurrent writer touched the key between WATCH and EXEC: same
	// outcome as a version mismatch from the caller's point of view.
	if errors.Is(err, redis.TxFailedErr) {
		return ErrVersionConflict
	}
	return err
}
