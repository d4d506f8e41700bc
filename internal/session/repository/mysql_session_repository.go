package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/allisson/authkit/internal/database"
	apperrors "github.com/allisson/authkit/internal/errors"
	"github.com/allisson/authkit/internal/session/domain"
)

// MySQLSessionRepository implements Session persistence for MySQL.
type MySQLSessionRepository struct {
	db *sql.DB
}

// CreateTable initializes the session schema. Idempotent.
func (m *MySQLSessionRepository) CreateTable(ctx context.Context) error {
	querier := database.GetTx(ctx, m.db)

	query := `CREATE TABLE IF NOT EXISTS sessions (
				id BIGINT PRIMARY KEY,
				user_id BIGINT NOT NULL,
				refresh_token_id BIGINT,
				access_token_id BIGINT,
				created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6)
			  )`

	if _, err := querier.ExecContext(ctx, query); err != nil {
		return apperrors.Wrap(err, "failed to create sessions table")
	}
	return nil
}

// Create inserts a new session into the MySQL database.
func (m *MySQLSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO sessions (id, user_id, refresh_token_id, access_token_id)
			  VALUES (?, ?, ?, ?)`

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
func (m *MySQLSessionRepository) Get(ctx context.Context, sessionID int64) (*domain.Session, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, user_id, refresh_token_id, access_token_id
			  FROM sessions WHERE id = ?`

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
func (m *MySQLSessionRepository) Update(ctx context.Context, session *domain.Session) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE sessions SET refresh_token_id = ?, access_token_id = ? WHERE id = ?`

	_, err := querier.ExecContext(ctx, query, session.RefreshTokenID, session.AccessTokenID, session.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update session")
	}
	return nil
}

// SwapTokens persists the token pointers only while the row still references
// previousRefreshTokenID. A zero row count means a concurrent rotation won
// the pointer; the caller's freshly minted tokens are orphaned but harmless.
func (m *MySQLSessionRepository) SwapTokens(
	ctx context.Context,
	session *domain.Session,
	previousRefreshTokenID int64,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE sessions SET refresh_token_id = ?, access_token_id = ?
			  WHERE id = ? AND refresh_token_id = ?`

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
func (m *MySQLSessionRepository) Delete(ctx context.Context, sessionID int64) error {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM sessions WHERE id = ?`

	if _, err := querier.ExecContext(ctx, query, sessionID); err != nil {
		return apperrors.Wrap(err, "failed to delete session")
	}
	return nil
}

// NewMySQLSessionRepository creates a new MySQL Session repository.
func NewMySQLSessionRepository(db *sql.DB) *MySQLSessionRepository {
	return &MySQLSessionRepository{db: db}
}
