package persistence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tracker_server/core/port/out"

	"github.com/redis/go-redis/v9"
)

// syncLockKey is the Redis key prefix for per-user sync leases.
const syncLockKey = "sync:lock:"

// RedisSyncLock serializes sync runs per user with a SETNX lease.
// When Redis is unavailable it degrades to an in-process mutex map so
// a single instance still cannot run overlapping syncs for one user.
type RedisSyncLock struct {
	client *redis.Client
	ttl    time.Duration

	mu    sync.Mutex
	local map[string]time.Time
}

// NewRedisSyncLock creates a new sync lock with the given lease TTL.
func NewRedisSyncLock(client *redis.Client, ttl time.Duration) out.SyncLock {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisSyncLock{
		client: client,
		ttl:    ttl,
		local:  make(map[string]time.Time),
	}
}

// Acquire takes the lease for the user. Returns false when another sync
// currently holds it.
func (l *RedisSyncLock) Acquire(ctx context.Context, userID string) (bool, error) {
	if l.client != nil {
		ok, err := l.client.SetNX(ctx, syncLockKey+userID, "1", l.ttl).Result()
		if err == nil {
			return ok, nil
		}
		// Fall through to the local lease when Redis is down.
	}
	return l.acquireLocal(userID), nil
}

func (l *RedisSyncLock) acquireLocal(userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if expiry, held := l.local[userID]; held && time.Now().Before(expiry) {
		return false
	}
	l.local[userID] = time.Now().Add(l.ttl)
	return true
}

func (l *RedisSyncLock) Release(ctx context.Context, userID string) error {
	l.mu.Lock()
	delete(l.local, userID)
	l.mu.Unlock()

	if l.client != nil {
		if err := l.client.Del(ctx, syncLockKey+userID).Err(); err != nil {
			return fmt.Errorf("release sync lock: %w", err)
		}
	}
	return nil
}
