// Package repository provides persistence harness implementations for
// sessions.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/allisson/authkit/internal/database"
	apperrors "github.com/allisson/authkit/internal/errors"
	"github.com/allisson/authkit/internal/session/domain"
)

// PostgreSQLSessionRepository implements Session persistence for PostgreSQL.
type PostgreSQLSessionRepository struct {
	db *sql.DB
}

// CreateTable initializes the session schema. Idempotent.
func (p *PostgreSQLSessionRepository) CreateTable(ctx context.Context) error {
	querier := database.GetTx(ctx, p.db)

	query := `CREATE TABLE IF NOT EXISTS sessions (
				id BIGINT PRIMARY KEY,
				user_id BIGINT NOT NULL,
				refresh_token_id BIGINT,
				access_token_id BIGINT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			  )`

	if _, err := querier.ExecContext(ctx, query); err != nil {
		return apperrors.Wrap(err, "failed to create sessions table")
	}
	return nil
}

// Create inserts a new session into the PostgreSQL database.
func (p *PostgreSQLSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO sessions (id, user_id, refresh_token_id, access_token_id)
			  VALUES ($1, $2, $3, $4)`

	_, err := querier.ExecContext(
		ctx,
		query,
		session.ID,
		session.UserID,
		session.RefreshTokenID,
		session.AccessTokenID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create session")
	}
	return nil
}

// Get retrieves a session by ID. Returns ErrSessionNotFound if the session
// doesn't exist.
func (p *PostgreSQLSessionRepository) Get(ctx context.Context, sessionID int64) (*domain.Session, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, user_id, refresh_token_id, access_token_id
			  FROM sessions WHERE id = $1`

	var session domain.Session

	err := querier.QueryRowContext(ctx, query, sessionID).Scan(
		&session.ID,
		&session.UserID,
		&session.RefreshTokenID,
		&session.AccessTokenID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get session")
	}

	return &session, nil
}

// Update persists the session's token pointers unconditionally.
func (p *PostgreSQLSessionRepository) Update(ctx context.Context, session *domain.Session) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE sessions SET refresh_token_id = $1, access_token_id = $2 WHERE id = $3`

	_, err := querier.ExecContext(ctx, query, session.RefreshTokenID, session.AccessTokenID, session.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update session")
	}
	return nil
}

// SwapTokens persists the token pointers only while the row still references
// previousRefreshTokenID. A zero row count means a concurrent rotation won
// the pointer; the caller's freshly minted tokens are orphaned but harmless.
func (p *PostgreSQLSessionRepository) SwapTokens(
	ctx context.Context,
	session *domain.Session,
	previousRefreshTokenID int64,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE sessions SET refresh_token_id = $1, access_token_id = $2
			  WHERE id = $3 AND refresh_token_id = $4`

	result, err := querier.ExecContext(
		ctx,
		query,
		session.RefreshTokenID,
		session.AccessTokenID,
		session.ID,
		previousRefreshTokenID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to swap session tokens")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to swap session tokens")
	}
	if affected == 0 {
		return domain.ErrSessionConflict
	}
	return nil
}

// Delete removes a session row.
func (p *PostgreSQLSessionRepository) Delete(ctx context.Context, sessionID int64) error {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM sessions WHERE id = $1`

	if _, err := querier.ExecContext(ctx, query, sessionID); err != nil {
		return apperrors.Wrap(err, "failed to delete session")
	}
	return nil
}

// NewPostgreSQLSessionRepository creates a new PostgreSQL Session repository.
func NewPostgreSQLSessionRepository(db *sql.DB) *PostgreSQLSessionRepository {
	return &PostgreSQLSessionRepository{db: db}
}
