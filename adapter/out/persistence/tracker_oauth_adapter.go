package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tracker_server/core/domain"
	"tracker_server/core/port/out"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// OAuthAdapter implements out.OAuthRepository using PostgreSQL.
type OAuthAdapter struct {
	db *sqlx.DB
}

// NewOAuthAdapter creates a new OAuthAdapter.
func NewOAuthAdapter(db *sqlx.DB) out.OAuthRepository {
	return &OAuthAdapter{db: db}
}

func (a *OAuthAdapter) GetByUser(ctx context.Context, userID uuid.UUID, provider domain.OAuthProvider) (*domain.OAuthConnection, error) {
	query := `
		SELECT id, user_id, provider, email, access_token, refresh_token,
		       expires_at, is_connected, created_at, updated_at
		FROM oauth_connections
		WHERE user_id = $1 AND provider = $2`

	var row oauthRow
	if err := a.db.GetContext(ctx, &row, query, userID, provider); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get oauth connection: %w", err)
	}
	return row.toDomain(), nil
}

// Save upserts the connection for (user, provider).
func (a *OAuthAdapter) Save(ctx context.Context, conn *domain.OAuthConnection) error {
	now := time.Now()
	if conn.CreatedAt.IsZero() {
		conn.CreatedAt = now
	}
	conn.UpdatedAt = now

	query := `
		INSERT INTO oauth_connections (
			user_id, provider, email, access_token, refresh_token,
			expires_at, is_connected, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, provider) DO UPDATE SET
			email         = EXCLUDED.email,
			access_token  = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			expires_at    = EXCLUDED.expires_at,
			is_connected  = EXCLUDED.is_connected,
			updated_at    = EXCLUDED.updated_at
		RETURNING id`

	return a.db.QueryRowContext(ctx, query,
		conn.UserID, conn.Provider, conn.Email,
		conn.AccessToken, conn.RefreshToken,
		conn.ExpiresAt, conn.IsConnected,
		conn.CreatedAt, conn.UpdatedAt,
	).Scan(&conn.ID)
}

// UpdateToken stores a refreshed token on an existing connection.
func (a *OAuthAdapter) UpdateToken(ctx context.Context, conn *domain.OAuthConnection) error {
	query := `
		UPDATE oauth_connections
		SET access_token = $1, refresh_token = $2, expires_at = $3, updated_at = $4
		WHERE user_id = $5 AND provider = $6`

	res, err := a.db.ExecContext(ctx, query,
		conn.AccessToken, conn.RefreshToken, conn.ExpiresAt, time.Now(),
		conn.UserID, conn.Provider,
	)
	if err != nil {
		return fmt.Errorf("update oauth token: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (a *OAuthAdapter) Delete(ctx context.Context, userID uuid.UUID, provider domain.OAuthProvider) error {
	_, err := a.db.ExecContext(ctx,
		"DELETE FROM oauth_connections WHERE user_id = $1 AND provider = $2",
		userID, provider)
	if err != nil {
		return fmt.Errorf("delete oauth connection: %w", err)
	}
	return nil
}

type oauthRow struct {
	ID           int64     `db:"id"`
	UserID       uuid.UUID `db:"user_id"`
	Provider     string    `db:"provider"`
	Email        string    `db:"email"`
	AccessToken  string    `db:"access_token"`
	RefreshToken string    `db:"refresh_token"`
	ExpiresAt    time.Time `db:"expires_at"`
	IsConnected  bool      `db:"is_connected"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r *oauthRow) toDomain() *domain.OAuthConnection {
	return &domain.OAuthConnection{
		ID:           r.ID,
		UserID:       r.UserID,
		Provider:     domain.OAuthProvider(r.Provider),
		Email:        r.Email,
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		ExpiresAt:    r.ExpiresAt,
		IsConnected:  r.IsConnected,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}
