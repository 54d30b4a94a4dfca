package out

import (
	"context"

	"tracker_server/core/domain"

	"github.com/google/uuid"
)

// OAuthRepository defines the outbound port for OAuth credential
// persistence. One connection per (user, provider).
type OAuthRepository interface {
	GetByUser(ctx context.Context, userID uuid.UUID, provider domain.OAuthProvider) (*domain.OAuthConnection, error)

	// Save upserts the connection for (user, provider).
	Save(ctx context.Context, conn *domain.OAuthConnection) error

	// UpdateToken stores a refreshed token on an existing connection.
	UpdateToken(ctx context.Context, conn *domain.OAuthConnection) error

	Delete(ctx context.Context, userID uuid.UUID, provider domain.OAuthProvider) error
}

// OAuthStateStore holds short-lived CSRF state values for the OAuth
// redirect flow.
type OAuthStateStore interface {
	// Put stores state -> userID with a TTL.
	Put(ctx context.Context, state string, userID uuid.UUID) error

	// Take returns the user for the state and deletes it. Returns
	// uuid.Nil and false when the state is unknown or expired.
	Take(ctx context.Context, state string) (uuid.UUID, bool, error)
}
