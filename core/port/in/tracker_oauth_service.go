package in

import (
	"context"

	"github.com/google/uuid"
)

// OAuthService manages the mailbox OAuth lifecycle for a user.
type OAuthService interface {
	// GetAuthURL creates a consent URL with a stored CSRF state.
	GetAuthURL(ctx context.Context, userID uuid.UUID) (string, error)

	// HandleCallback validates the state, exchanges the code and
	// persists the connection. Returns the connected mailbox address.
	HandleCallback(ctx context.Context, state, code string) (string, error)

	// Status reports whether the user has a connected mailbox.
	Status(ctx context.Context, userID uuid.UUID) (*OAuthStatusResponse, error)

	// Disconnect removes the stored credential.
	Disconnect(ctx context.Context, userID uuid.UUID) error
}

type OAuthStatusResponse struct {
	Connected bool   `json:"connected"`
	Email     string `json:"email,omitempty"`
}
