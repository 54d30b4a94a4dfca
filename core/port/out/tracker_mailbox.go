// Package out defines outbound ports (driven ports) for the application.
package out

import (
	"context"

	"tracker_server/core/domain"

	"golang.org/x/oauth2"
)

// MailboxPort defines the outbound port for the mail provider.
type MailboxPort interface {
	MailAuthenticator

	// Search returns message refs matching the query, newest first,
	// capped at max.
	Search(ctx context.Context, token *oauth2.Token, query string, max int64) ([]domain.MessageRef, error)

	// SearchAll runs every query, unions the results and deduplicates
	// by message id, preserving first-seen order across queries.
	SearchAll(ctx context.Context, token *oauth2.Token, queries []string, max int64) ([]domain.MessageRef, error)

	// Fetch returns the full message, or nil on a transient per-message
	// failure (the caller skips nils).
	Fetch(ctx context.Context, token *oauth2.Token, ref domain.MessageRef) (*domain.RawMessage, error)

	// FetchAll fetches refs with bounded concurrency. Messages that fail
	// to fetch are dropped; output order follows ref order.
	FetchAll(ctx context.Context, token *oauth2.Token, refs []domain.MessageRef) []*domain.RawMessage

	// Profile returns the authenticated mailbox address.
	Profile(ctx context.Context, token *oauth2.Token) (string, error)
}

// MailAuthenticator handles OAuth authentication.
type MailAuthenticator interface {
	GetAuthURL(state string) string
	ExchangeToken(ctx context.Context, code string) (*oauth2.Token, error)
	RefreshToken(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error)
}
