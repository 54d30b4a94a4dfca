package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tracker_server/core/port/out"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// oauthStateKey is the Redis key prefix for OAuth CSRF state.
const oauthStateKey = "oauth:state:"

// RedisOAuthStateStore holds one-shot OAuth state values in Redis.
type RedisOAuthStateStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisOAuthStateStore creates a new Redis OAuth state store.
func NewRedisOAuthStateStore(client *redis.Client, ttl time.Duration) out.OAuthStateStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisOAuthStateStore{client: client, ttl: ttl}
}

// Put stores state -> userID with the configured TTL.
func (s *RedisOAuthStateStore) Put(ctx context.Context, state string, userID uuid.UUID) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}
	if userID == uuid.Nil {
		return errors.New("userID cannot be nil")
	}

	if err := s.client.Set(ctx, oauthStateKey+state, userID.String(), s.ttl).Err(); err != nil {
		return fmt.Errorf("store oauth state: %w", err)
	}
	return nil
}

// Take returns the user for the state and deletes it atomically so a
// state value cannot be replayed.
func (s *RedisOAuthStateStore) Take(ctx context.Context, state string) (uuid.UUID, bool, error) {
	if state == "" {
		return uuid.Nil, false, nil
	}

	userIDStr, err := s.client.GetDel(ctx, oauthStateKey+state).Result()
	if err == redis.Nil {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("take oauth state: %w", err)
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("invalid userID in state: %w", err)
	}
	return userID, true, nil
}
