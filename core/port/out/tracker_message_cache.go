package out

import (
	"context"

	"tracker_server/core/domain"
)

// MessageCache stores fetched raw messages so a re-sync can re-parse
// without another provider round trip. Entries expire on their own.
type MessageCache interface {
	Get(ctx context.Context, userID, messageID string) (*domain.RawMessage, error)
	Put(ctx context.Context, userID string, msg *domain.RawMessage) error
}

// SyncLock serializes sync runs per user so overlapping invocations
// cannot race each other's upserts.
type SyncLock interface {
	// Acquire takes the lease for the user. Returns false when another
	// sync currently holds it.
	Acquire(ctx context.Context, userID string) (bool, error)
	Release(ctx context.Context, userID string) error
}
