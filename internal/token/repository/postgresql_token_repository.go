// Package repository provides persistence harness implementations for auth
// tokens.
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

// PostgreSQLTokenRepository implements AuthToken persistence for PostgreSQL.
// Both token kinds share one table; the kind column keeps access and refresh
// lookups from ever resolving each other's rows.
type PostgreSQLTokenRepository struct {
	db *sql.DB
}

// CreateTable initializes the auth token schema. Idempotent.
func (p *PostgreSQLTokenRepository) CreateTable(ctx context.Context) error {
	querier := database.GetTx(ctx, p.db)

	query := `CREATE TABLE IF NOT EXISTS auth_tokens (
				id BIGINT PRIMARY KEY,
				user_id BIGINT NOT NULL,
				kind VARCHAR(16) NOT NULL,
				secret_hash TEXT NOT NULL,
				expires_at TIMESTAMPTZ NOT NULL,
				valid BOOLEAN NOT NULL,
				created_at TIMESTAMPTZ NOT NULL
			  )`

	if _, err := querier.ExecContext(ctx, query); err != nil {
		return apperrors.Wrap(err, "failed to create auth_tokens table")
	}
	return nil
}

// Create inserts a new AuthToken into the PostgreSQL database.
func (p *PostgreSQLTokenRepository) Create(ctx context.Context, token *domain.AuthToken) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO auth_tokens (id, user_id, kind, secret_hash, expires_at, valid, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := querier.ExecContext(
		ctx,
		query,
		token.ID,
		token.UserID,
		string(token.Kind),
		token.SecretHash,
		token.ExpiresAt,
		token.Valid,
		token.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create auth token")
	}
	return nil
}

func (p *PostgreSQLTokenRepository) get(
	ctx context.Context,
	tokenID int64,
	kind domain.TokenKind,
) (*domain.AuthToken, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, user_id, kind, secret_hash, expires_at, valid, created_at
			  FROM auth_tokens WHERE id = $1 AND kind = $2`

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
func (p *PostgreSQLTokenRepository) GetAccess(ctx context.Context, tokenID int64) (*domain.AuthToken, error) {
	return p.get(ctx, tokenID, domain.TokenKindAccess)
}

// GetRefresh retrieves a refresh token by ID. Returns ErrTokenNotFound if no
// refresh token has that ID.
func (p *PostgreSQLTokenRepository) GetRefresh(ctx context.Context, tokenID int64) (*domain.AuthToken, error) {
	return p.get(ctx, tokenID, domain.TokenKindRefresh)
}

// Update persists the token's Valid flag, the only mutable field.
func (p *PostgreSQLTokenRepository) Update(ctx context.Context, token *domain.AuthToken) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE auth_tokens SET valid = $1 WHERE id = $2`

	if _, err := querier.ExecContext(ctx, query, token.Valid, token.ID); err != nil {
		return apperrors.Wrap(err, "failed to update auth token")
	}
	return nil
}

func (p *PostgreSQLTokenRepository) delete(ctx context.Context, tokenID int64, kind domain.TokenKind) error {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM auth_tokens WHERE id = $1 AND kind = $2`

	if _, err := querier.ExecContext(ctx, query, tokenID, string(kind)); err != nil {
		return apperrors.Wrap(err, "failed to delete auth token")
	}
	return nil
}

// DeleteAccess removes an access token row.
func (p *PostgreSQLTokenRepository) DeleteAccess(ctx context.Context, tokenID int64) error {
	return p.delete(ctx, tokenID, domain.TokenKindAccess)
}

// DeleteRefresh removes a refresh token row.
func (p *PostgreSQLTokenRepository) DeleteRefresh(ctx context.Context, tokenID int64) error {
	return p.delete(ctx, tokenID, domain.TokenKindRefresh)
}

// DeleteExpired deletes tokens that expired before the specified timestamp.
// Returns the number of deleted tokens.
func (p *PostgreSQLTokenRepository) DeleteExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	if olderThan.IsZero() {
		return 0, apperrors.New("olderThan timestamp cannot be zero")
	}

	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM auth_tokens WHERE expires_at < $1`

	result, err := querier.ExecContext(ctx, query, olderThan)
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
func (p *PostgreSQLTokenRepository) CountExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	if olderThan.IsZero() {
		return 0, apperrors.New("olderThan timestamp cannot be zero")
	}

	querier := database.GetTx(ctx, p.db)

	query := `SELECT COUNT(*) FROM auth_tokens WHERE expires_at < $1`

	var count int64
	if err := querier.QueryRowContext(ctx, query, olderThan).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count expired auth tokens")
	}
	return count, nil
}

// NewPostgreSQLTokenRepository creates a new PostgreSQL AuthToken repository.
func NewPostgreSQLTokenRepository(db *sql.DB) *PostgreSQLTokenRepository {
	return &PostgreSQLTokenRepository{db: db}
}
