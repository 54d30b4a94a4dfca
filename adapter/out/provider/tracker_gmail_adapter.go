// Package provider implements mailbox provider adapters.
package provider

import (
	"context"
	"encoding/base64"
	"time"

	"tracker_server/core/domain"
	"tracker_server/core/port/out"
	"tracker_server/pkg/apperr"
	"tracker_server/pkg/logger"

	"github.com/sony/gobreaker"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GmailConfig holds Gmail OAuth configuration.
type GmailConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	FetchWorkers int
}

// GmailAdapter implements out.MailboxPort against the Gmail API.
type GmailAdapter struct {
	config       *oauth2.Config
	fetchWorkers int
	cb           *gobreaker.CircuitBreaker
	log          *logger.Logger
}

// NewGmailAdapter creates a new Gmail adapter.
func NewGmailAdapter(cfg *GmailConfig) *GmailAdapter {
	config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes: []string{
			gmail.GmailReadonlyScope,
		},
		Endpoint: google.Endpoint,
	}

	log := logger.Default().WithField("component", "gmail_adapter")

	cbSettings := gobreaker.Settings{
		Name:        "gmail-api",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	}

	workers := cfg.FetchWorkers
	if workers <= 0 {
		workers = 5
	}

	return &GmailAdapter{
		config:       config,
		fetchWorkers: workers,
		cb:           gobreaker.NewCircuitBreaker(cbSettings),
		log:          log,
	}
}

// =============================================================================
// Authentication
// =============================================================================

// GetAuthURL returns the OAuth authorization URL.
func (a *GmailAdapter) GetAuthURL(state string) string {
	return a.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// ExchangeToken exchanges an authorization code for a token.
func (a *GmailAdapter) ExchangeToken(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := a.config.Exchange(ctx, code)
	if err != nil {
		return nil, a.wrapError(err, "failed to exchange token")
	}
	return token, nil
}

// RefreshToken refreshes the access token.
func (a *GmailAdapter) RefreshToken(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error) {
	src := a.config.TokenSource(ctx, token)
	newToken, err := src.Token()
	if err != nil {
		return nil, a.wrapError(err, "failed to refresh token")
	}
	return newToken, nil
}

// =============================================================================
// Search
// =============================================================================

// Search returns message refs matching the query, newest first.
func (a *GmailAdapter) Search(ctx context.Context, token *oauth2.Token, query string, max int64) ([]domain.MessageRef, error) {
	svc, err := a.getService(ctx, token)
	if err != nil {
		return nil, err
	}

	if max <= 0 {
		max = 50
	}

	var resp *gmail.ListMessagesResponse
	cbErr := a.executeWithCircuitBreaker("Search", func() error {
		var apiErr error
		resp, apiErr = svc.Users.Messages.List("me").Q(query).MaxResults(max).Context(ctx).Do()
		return apiErr
	})
	if cbErr != nil {
		return nil, a.wrapError(cbErr, "failed to list messages")
	}

	refs := make([]domain.MessageRef, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		refs = append(refs, domain.MessageRef{ID: m.Id, ThreadID: m.ThreadId})
	}
	return refs, nil
}

// SearchAll runs every query, unions the results and deduplicates by
// message id, preserving first-seen order across queries.
func (a *GmailAdapter) SearchAll(ctx context.Context, token *oauth2.Token, queries []string, max int64) ([]domain.MessageRef, error) {
	seen := make(map[string]bool)
	var all []domain.MessageRef

	for _, q := range queries {
		refs, err := a.Search(ctx, token, q, max)
		if err != nil {
			return nil, err
		}
		for _, ref := range refs {
			if seen[ref.ID] {
				continue
			}
			seen[ref.ID] = true
			all = append(all, ref)
		}
	}
	return all, nil
}

// =============================================================================
// Fetch
// =============================================================================

// Fetch returns the full message, or nil on a transient per-message failure.
func (a *GmailAdapter) Fetch(ctx context.Context, token *oauth2.Token, ref domain.MessageRef) (*domain.RawMessage, error) {
	svc, err := a.getService(ctx, token)
	if err != nil {
		return nil, err
	}
	return a.fetchOne(ctx, svc, ref)
}

func (a *GmailAdapter) fetchOne(ctx context.Context, svc *gmail.Service, ref domain.MessageRef) (*domain.RawMessage, error) {
	var msg *gmail.Message
	cbErr := a.executeWithCircuitBreaker("Fetch", func() error {
		var apiErr error
		msg, apiErr = svc.Users.Messages.Get("me", ref.ID).Format("full").Context(ctx).Do()
		return apiErr
	})
	if cbErr != nil {
		if isTransient(cbErr) {
			a.log.WithField("message_id", ref.ID).WithError(cbErr).Warn("skipping message after transient failure")
			return nil, nil
		}
		return nil, a.wrapError(cbErr, "failed to get message")
	}
	return a.convertMessage(msg), nil
}

// FetchAll fetches refs with bounded concurrency. Messages that fail to
// fetch are dropped; output order follows ref order.
func (a *GmailAdapter) FetchAll(ctx context.Context, token *oauth2.Token, refs []domain.MessageRef) []*domain.RawMessage {
	if len(refs) == 0 {
		return nil
	}

	svc, err := a.getService(ctx, token)
	if err != nil {
		a.log.WithError(err).Error("failed to build gmail service")
		return nil
	}

	const perMessageTimeout = 15 * time.Second

	type result struct {
		index int
		msg   *domain.RawMessage
	}

	results := make(chan result, len(refs))
	sem := make(chan struct{}, a.fetchWorkers)

	for i, ref := range refs {
		go func(idx int, ref domain.MessageRef) {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results <- result{index: idx}
				return
			}

			msgCtx, cancel := context.WithTimeout(ctx, perMessageTimeout)
			defer cancel()

			msg, err := a.fetchOne(msgCtx, svc, ref)
			if err != nil {
				a.log.WithField("message_id", ref.ID).WithError(err).Warn("dropping message")
				results <- result{index: idx}
				return
			}
			results <- result{index: idx, msg: msg}
		}(i, ref)
	}

	ordered := make([]*domain.RawMessage, len(refs))
	for collected := 0; collected < len(refs); collected++ {
		select {
		case r := <-results:
			ordered[r.index] = r.msg
		case <-ctx.Done():
			collected = len(refs)
		}
	}

	fetched := make([]*domain.RawMessage, 0, len(refs))
	for _, msg := range ordered {
		if msg != nil {
			fetched = append(fetched, msg)
		}
	}
	return fetched
}

// Profile returns the authenticated mailbox address.
func (a *GmailAdapter) Profile(ctx context.Context, token *oauth2.Token) (string, error) {
	svc, err := a.getService(ctx, token)
	if err != nil {
		return "", err
	}

	profile, err := svc.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return "", a.wrapError(err, "failed to get profile")
	}
	return profile.EmailAddress, nil
}

// =============================================================================
// Internal Helpers
// =============================================================================

func (a *GmailAdapter) getService(ctx context.Context, token *oauth2.Token) (*gmail.Service, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}

	return gmail.NewService(ctx, option.WithTokenSource(
		a.config.TokenSource(ctx, token),
	))
}

func (a *GmailAdapter) convertMessage(msg *gmail.Message) *domain.RawMessage {
	raw := &domain.RawMessage{
		ID:      msg.Id,
		Snippet: msg.Snippet,
	}

	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			switch h.Name {
			case "From":
				raw.From = h.Value
			case "Subject":
				raw.Subject = h.Value
			case "Date":
				raw.Date = h.Value
			}
		}
		raw.Body = extractBody(msg.Payload)
	}

	// Header-less RFC date fallback from Gmail's internal timestamp.
	if raw.Date == "" && msg.InternalDate > 0 {
		raw.Date = time.Unix(0, msg.InternalDate*int64(time.Millisecond)).Format(time.RFC1123Z)
	}

	return raw
}

// extractBody walks the MIME tree collecting text parts. HTML parts are
// kept too since order confirmations are usually HTML-only; the parse
// pipeline strips markup.
func extractBody(part *gmail.MessagePart) string {
	if part == nil {
		return ""
	}

	var body string
	if (part.MimeType == "text/plain" || part.MimeType == "text/html") &&
		part.Body != nil && part.Body.Data != "" {
		if data, err := base64.URLEncoding.DecodeString(part.Body.Data); err == nil {
			body = string(data)
		}
	}

	for _, p := range part.Parts {
		if sub := extractBody(p); sub != "" {
			if body != "" {
				body += " "
			}
			body += sub
		}
	}
	return body
}

// executeWithCircuitBreaker wraps an API call with circuit breaker
// protection so a flapping Gmail API fails fast instead of stalling syncs.
func (a *GmailAdapter) executeWithCircuitBreaker(operation string, fn func() error) error {
	_, err := a.cb.Execute(func() (interface{}, error) {
		if err := fn(); err != nil {
			if apiErr, ok := err.(*googleapi.Error); ok {
				switch apiErr.Code {
				case 500, 502, 503, 429:
					return nil, err
				case 400, 401, 403, 404:
					// Client errors must not trip the breaker.
					return nil, &nonCircuitError{err: err}
				}
			}
			return nil, err
		}
		return nil, nil
	})

	if nce, ok := err.(*nonCircuitError); ok {
		return nce.err
	}

	if err != nil {
		a.log.WithFields(map[string]interface{}{
			"operation": operation,
			"state":     a.cb.State().String(),
		}).WithError(err).Error("gmail api call failed")
	}
	return err
}

// nonCircuitError wraps errors that should not trip the circuit breaker.
type nonCircuitError struct {
	err error
}

func (e *nonCircuitError) Error() string {
	return e.err.Error()
}

func isTransient(err error) bool {
	if apiErr, ok := err.(*googleapi.Error); ok {
		switch apiErr.Code {
		case 429, 500, 502, 503:
			return true
		}
	}
	return err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests
}

func (a *GmailAdapter) wrapError(err error, defaultMsg string) error {
	if err == nil {
		return nil
	}

	if apiErr, ok := err.(*googleapi.Error); ok {
		switch apiErr.Code {
		case 401:
			return apperr.Unauthorized("mailbox token expired").WithError(err)
		case 403:
			return apperr.Forbidden("mailbox access denied").WithError(err)
		case 404:
			return apperr.NotFound("message")
		}
	}

	return apperr.MailboxError(defaultMsg, err)
}

// IsCircuitOpen reports whether Gmail calls are currently failing fast.
func (a *GmailAdapter) IsCircuitOpen() bool {
	return a.cb.State() == gobreaker.StateOpen
}

var _ out.MailboxPort = (*GmailAdapter)(nil)
