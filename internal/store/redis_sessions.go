// Package store provides the persistence collaborators of the dialogue
// engine: the Redis session store, the PostgreSQL crop and scheme catalogs,
// and the Elasticsearch advisory index.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"agrichat/internal/common/errors"
	"agrichat/internal/common/logger"
	"agrichat/internal/models"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "chat:session:"

// txAttempts bounds internal WATCH retries for single-field updates
// (feedback, end-session). Full turns are retried by the engine instead.
const txAttempts = 3

// RedisSessionStore persists sessions as JSON values with a version field.
// Save performs an optimistic concurrency check: a WATCH on the session key
// plus a version comparison, so a concurrent save surfaces as
// SESSION_CONFLICT instead of a lost update.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration, log logger.Logger) *RedisSessionStore {
	return &RedisSessionStore{
		client: client,
		ttl:    ttl,
		logger: log.With(map[string]interface{}{"component": "session-store"}),
	}
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

// Find loads a session owned by ownerID. Missing records, foreign owners and
// (when activeOnly is set) ended sessions all report SESSION_NOT_FOUND.
func (s *RedisSessionStore) Find(ctx context.Context, ownerID, sessionID string, activeOnly bool) (*models.Session, error) {
	payload, err := s.client.Get(ctx, sessionKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, errors.NewSessionNotFoundError(sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal([]byte(payload), &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}

	if session.OwnerID != ownerID {
		return nil, errors.NewSessionNotFoundError(sessionID)
	}
	if activeOnly && !session.IsActive {
		return nil, errors.NewSessionNotFoundError(sessionID)
	}
	return &session, nil
}

// Save writes the session iff the stored version still matches
// session.Version, then bumps the version on the passed session. A version
// mismatch, a concurrent write under WATCH, or a vanished record all return
// SESSION_CONFLICT.
func (s *RedisSessionStore) Save(ctx context.Context, session *models.Session) error {
	key := sessionKey(session.ID)

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Result()
		switch {
		case err == redis.Nil:
			if session.Version != 0 {
				// Record expired or was deleted between load and save.
				return errors.NewSessionConflictError(session.ID)
			}
		case err != nil:
			return fmt.Errorf("get session: %w", err)
		default:
			var stored models.Session
			if err := json.Unmarshal([]byte(current), &stored); err != nil {
				return fmt.Errorf("decode session %s: %w", session.ID, err)
			}
			if stored.Version != session.Version {
				return errors.NewSessionConflictError(session.ID)
			}
		}

		next := *session
		next.Version = session.Version + 1
		payload, err := json.Marshal(&next)
		if err != nil {
			return fmt.Errorf("encode session %s: %w", session.ID, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}

		session.Version = next.Version
		return nil
	}, key)

	if err == redis.TxFailedErr {
		return errors.NewSessionConflictError(session.ID)
	}
	return err
}

// UpdateFeedback sets the satisfaction rating and bumps last activity. Valid
// in any session state; the previous rating is overwritten.
func (s *RedisSessionStore) UpdateFeedback(ctx context.Context, sessionID string, rating int) error {
	return s.mutate(ctx, sessionID, func(session *models.Session) bool {
		session.Satisfaction = rating
		session.UpdateActivity()
		return true
	})
}

// SetInactive moves the session to its terminal state and reports whether it
// flipped an active session. Already ended sessions are left untouched,
// making the operation idempotent by value.
func (s *RedisSessionStore) SetInactive(ctx context.Context, ownerID, sessionID string) (bool, error) {
	var flipped bool
	err := s.mutate(ctx, sessionID, func(session *models.Session) bool {
		flipped = false
		if session.OwnerID != ownerID {
			return false // reported as not found by mutate
		}
		if !session.IsActive {
			return true
		}
		session.IsActive = false
		session.UpdateActivity()
		flipped = true
		return true
	})
	if err != nil {
		return false, err
	}
	return flipped, nil
}

// mutate applies fn to the stored session inside a WATCH transaction,
// retrying a bounded number of times on interleaved writes. fn returning
// false means the session should be treated as not found.
func (s *RedisSessionStore) mutate(ctx context.Context, sessionID string, fn func(*models.Session) bool) error {
	key := sessionKey(sessionID)

	for attempt := 0; attempt < txAttempts; attempt++ {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			payload, err := tx.Get(ctx, key).Result()
			if err == redis.Nil {
				return errors.NewSessionNotFoundError(sessionID)
			}
			if err != nil {
				return fmt.Errorf("get session: %w", err)
			}

			var session models.Session
			if err := json.Unmarshal([]byte(payload), &session); err != nil {
				return fmt.Errorf("decode session %s: %w", sessionID, err)
			}

			if !fn(&session) {
				return errors.NewSessionNotFoundError(sessionID)
			}
			session.Version++

			next, err := json.Marshal(&session)
			if err != nil {
				return fmt.Errorf("encode session %s: %w", sessionID, err)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, next, s.ttl)
				return nil
			})
			return err
		}, key)

		if err == redis.TxFailedErr {
			s.logger.Warn("session mutation raced, retrying", map[string]interface{}{
				"sessionId": sessionID,
				"attempt":   attempt + 1,
			})
			continue
		}
		return err
	}

	return errors.NewSessionConflictError(sessionID)
}
