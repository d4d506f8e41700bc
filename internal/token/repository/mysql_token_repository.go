package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/allisson/authkit/internal/database"
	apperrors "github.com/allisson/authkit/internal/errors"
	"github.com/allisson/authkit/internal/token/domain"
)

// MySQLTokenRepository implements AuthToken persistence for MySQL.
type MySQLTokenRepository struct {
	db *sql.DB
}

// CreateTable initializes the auth token schema. Idempotent.
func (m *MySQLTokenRepository) CreateTable(ctx context.Context) error {
	querier := database.GetTx(ctx, m.db)

	query := `CREATE TABLE IF NOT EXISTS auth_tokens (
				id BIGINT PRIMARY KEY,
				user_id BIGINT NOT NULL,
				kind VARCHAR(16) NOT NULL,
				secret_hash TEXT NOT NULL,
				expires_at DATETIME(6) NOT NULL,
				valid BOOLEAN NOT NULL,
				created_at DATETIME(6) NOT NULL
			  )`

	if _, err := querier.ExecContext(ctx, query); err != nil {
		return apperrors.Wrap(err, "failed to create auth_tokens table")
	}
	return nil
}

// Create inserts a new AuthToken into the MySQL database. Timestamps are
// stored in UTC since DATETIME carries no zone.
func (m *MySQLTokenRepository) Create(ctx context.Context, token *domain.AuthToken) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO auth_tokens (id, user_id, kind, secret_hash, expires_at, valid, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := querier.ExecContext(
		ctx,
		query,
		token.ID,
		token.UserID,
		string(token.Kind),
		token.SecretHash,
		token.ExpiresAt.UTC(),
		token.Valid,
		token.CreatedAt.UTC(),
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create auth token")
	}
	return nil
}

func (m *MySQLTokenRepository) get(
	ctx context.Context,
	tokenID int64,
	kind domain.TokenKind,
) (*domain.AuthToken, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, user_id, kind, secret_hash, expires_at, valid, created_at
			  FROM auth_tokens WHERE id = ? AND kind = ?`

	var token domain.AuthToken
	var tokenKind string

	err := querier.QueryRowContext(ctx, query, tokenID, string(kind)).Scan(
		&token.ID,
		&token.UserID,
		&tokenKind,
		&token.SecretHash,
		&token.ExpiresAt,
		&token.Valid,
		&token.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get auth token")
	}
	token.Kind = domain.TokenKind(tokenKind)

	return &token, nil
}

// GetAccess retrieves an access token by ID. Returns ErrTokenNotFound if no
// access token has that ID.
func (m *MySQLTokenRepository) GetAccess(ctx context.Context, tokenID int64) (*domain.AuthToken, error) {
	return m.get(ctx, tokenID, domain.TokenKindAccess)
}

// GetRefresh retrieves a refresh token by ID. Returns ErrTokenNotFound if no
// refresh token has that ID.
func (m *MySQLTokenRepository) GetRefresh(ctx context.Context, tokenID int64) (*domain.AuthToken, error) {
	return m.get(ctx, tokenID, domain.TokenKindRefresh)
}

// Update persists the token's Valid flag, the only mutable field.
func (m *MySQLTokenRepository) Update(ctx context.Context, token *domain.AuthToken) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE auth_tokens SET valid = ? WHERE id = ?`

	if _, err := querier.ExecContext(ctx, query, token.Valid, token.ID); err != nil {
		return apperrors.Wrap(err, "failed to update auth token")
	}
	return nil
}

func (m *MySQLTokenRepository) delete(ctx context.Context, tokenID int64, kind domain.TokenKind) error {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM auth_tokens WHERE id = ? AND kind = ?`

	if _, err := querier.ExecContext(ctx, query, tokenID, string(kind)); err != nil {
		return apperrors.Wrap(err, "failed to delete auth token")
	}
	return nil
}

// DeleteAccess removes an access token row.
func (m *MySQLTokenRepository) DeleteAccess(ctx context.Context, tokenID int64) error {
	return m.delete(ctx, tokenID, domain.TokenKindAccess)
}

// DeleteRefresh removes a refresh token row.
func (m *MySQLTokenRepository) DeleteRefresh(ctx context.Context, tokenID int64) error {
	return m.delete(ctx, tokenID, domain.TokenKindRefresh)
}

// DeleteExpired deletes tokens that expired before the specified timestamp.
// Returns the number of deleted tokens.
func (m *MySQLTokenRepository) DeleteExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	if olderThan.IsZero() {
		return 0, apperrors.New("olderThan timestamp cannot be zero")
	}

	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM auth_tokens WHERE expires_at < ?`

	result, err := querier.ExecContext(ctx, query, olderThan.UTC())
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired auth tokens")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get rows affected")
	}
	return rowsAffected, nil
}

// CountExpired counts tokens that expired before the specified timestamp.
func (m *MySQLTokenRepository) CountExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	if olderThan.IsZero() {
		return 0, apperrors.New("olderThan timestamp cannot be zero")
	}

	querier := database.GetTx(ctx, m.db)

	query := `SELECT COUNT(*) FROM auth_tokens WHERE expires_at < ?`

	var count int64
	if err := querier.QueryRowContext(ctx, query, olderThan.UTC()).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count expired auth tokens")
	}
	return count, nil
}

// NewMySQLTokenRepository creates a new MySQL AuthToken repository.
func NewMySQLTokenRepository(db *sql.DB) *MySQLTokenRepository {
	return &MySQLTokenRepository{db: db}
}
