// Package auth manages the mailbox OAuth lifecycle: consent URL, code
// exchange, per-user credential persistence and token refresh.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"tracker_server/core/domain"
	"tracker_server/core/port/in"
	"tracker_server/core/port/out"
	"tracker_server/pkg/apperr"
	"tracker_server/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

type OAuthService struct {
	oauthRepo  out.OAuthRepository
	stateStore out.OAuthStateStore
	mailbox    out.MailboxPort
	log        *logger.Logger
}

func NewOAuthService(oauthRepo out.OAuthRepository, stateStore out.OAuthStateStore, mailbox out.MailboxPort) *OAuthService {
	return &OAuthService{
		oauthRepo:  oauthRepo,
		stateStore: stateStore,
		mailbox:    mailbox,
		log:        logger.Default().WithField("component", "oauth_service"),
	}
}

func (s *OAuthService) GetAuthURL(ctx context.Context, userID uuid.UUID) (string, error) {
	state, err := newState()
	if err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	if err := s.stateStore.Put(ctx, state, userID); err != nil {
		return "", fmt.Errorf("store oauth state: %w", err)
	}
	return s.mailbox.GetAuthURL(state), nil
}

func (s *OAuthService) HandleCallback(ctx context.Context, state, code string) (string, error) {
	userID, ok, err := s.stateStore.Take(ctx, state)
	if err != nil {
		return "", fmt.Errorf("lookup oauth state: %w", err)
	}
	if !ok {
		return "", apperr.BadRequest("unknown or expired oauth state")
	}

	token, err := s.mailbox.ExchangeToken(ctx, code)
	if err != nil {
		return "", apperr.OAuthFailed("google", err)
	}

	email, err := s.mailbox.Profile(ctx, token)
	if err != nil {
		return "", apperr.OAuthFailed("google", err)
	}

	now := time.Now()
	conn := &domain.OAuthConnection{
		UserID:       userID,
		Provider:     domain.ProviderGoogle,
		Email:        email,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
		IsConnected:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.oauthRepo.Save(ctx, conn); err != nil {
		return "", fmt.Errorf("save connection: %w", err)
	}

	s.log.WithField("user_id", userID.String()).Info("mailbox connected: %s", email)
	return email, nil
}

func (s *OAuthService) Status(ctx context.Context, userID uuid.UUID) (*in.OAuthStatusResponse, error) {
	conn, err := s.oauthRepo.GetByUser(ctx, userID, domain.ProviderGoogle)
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}
	if conn == nil || !conn.IsConnected {
		return &in.OAuthStatusResponse{Connected: false}, nil
	}
	return &in.OAuthStatusResponse{Connected: true, Email: conn.Email}, nil
}

func (s *OAuthService) Disconnect(ctx context.Context, userID uuid.UUID) error {
	if err := s.oauthRepo.Delete(ctx, userID, domain.ProviderGoogle); err != nil {
		return fmt.Errorf("delete connection: %w", err)
	}
	s.log.WithField("user_id", userID.String()).Info("mailbox disconnected")
	return nil
}

// Token returns a usable access token for the user, refreshing and
// persisting it when expired.
func (s *OAuthService) Token(ctx context.Context, userID uuid.UUID) (*oauth2.Token, error) {
	conn, err := s.oauthRepo.GetByUser(ctx, userID, domain.ProviderGoogle)
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}
	if conn == nil || !conn.IsConnected {
		return nil, apperr.Unauthorized("no mailbox connected")
	}

	token := &oauth2.Token{
		AccessToken:  conn.AccessToken,
		RefreshToken: conn.RefreshToken,
		Expiry:       conn.ExpiresAt,
	}
	if token.Valid() {
		return token, nil
	}

	refreshed, err := s.mailbox.RefreshToken(ctx, token)
	if err != nil {
		return nil, apperr.OAuthFailed("google", err)
	}

	conn.AccessToken = refreshed.AccessToken
	if refreshed.RefreshToken != "" {
		conn.RefreshToken = refreshed.RefreshToken
	}
	conn.ExpiresAt = refreshed.Expiry
	conn.UpdatedAt = time.Now()
	if err := s.oauthRepo.UpdateToken(ctx, conn); err != nil {
		s.log.WithError(err).Warn("failed to persist refreshed token for user %s", userID)
	}

	return refreshed, nil
}

func newState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
