package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"loftbase/identity/internal/session/domain"
)

const keyPrefix = "session:"

// RedisStore implements Store on Redis. Session values are JSON blobs under
// "session:<userId>:<sessionId>", so all sessions of one user share a key
// prefix and can be swept together on logout-everywhere.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration // 0 means sessions never expire
}

// NewRedisStore returns a session store backed by client. ttl of 0 keeps
// sessions until explicit invalidation; a positive ttl lets Redis expire
// stale sessions as an operational backstop.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func sessionKey(userID, sessionID string) string {
	return fmt.Sprintf("%s%s:%s", keyPrefix, userID, sessionID)
}

// Create persists the session. The write is synchronous: once Create returns
// nil, Get for the same IDs observes the session.
func (s *RedisStore) Create(ctx context.Context, sess *domain.Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(sess.UserID, sess.ID), payload, s.ttl).Err()
}

// Get returns the session for (userID, sessionID), or nil if it does not
// exist or was invalidated. Errors are reserved for store failures.
func (s *RedisStore) Get(ctx context.Context, userID, sessionID string) (*domain.Session, error) {
	raw, err := s.client.Get(ctx, sessionKey(userID, sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var sess domain.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Invalidate deletes one session. Idempotent: deleting a session that is
// already gone is not an error.
func (s *RedisStore) Invalidate(ctx context.Context, userID, sessionID string) error {
	return s.client.Del(ctx, sessionKey(userID, sessionID)).Err()
}

// InvalidateAllForUser deletes every session belonging to userID, scanning
// the user's key prefix in batches.
func (s *RedisStore) InvalidateAllForUser(ctx context.Context, userID string) error {
	pattern := keyPrefix + userID + ":*"
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
