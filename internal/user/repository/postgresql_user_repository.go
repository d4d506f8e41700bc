// Package repository provides persistence harness implementations for users.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/allisson/authkit/internal/database"
	apperrors "github.com/allisson/authkit/internal/errors"
	"github.com/allisson/authkit/internal/user/domain"
)

// PostgreSQLUserRepository implements User persistence for PostgreSQL.
// Groups and the two metadata blobs are stored as JSONB.
type PostgreSQLUserRepository struct {
	db *sql.DB
}

// CreateTable initializes the user schema. extraSchema, when non-empty, is
// appended as additional column DDL so the embedding application can extend
// the table. Idempotent.
func (p *PostgreSQLUserRepository) CreateTable(ctx context.Context, extraSchema string) error {
	querier := database.GetTx(ctx, p.db)

	columns := `id BIGINT PRIMARY KEY,
				username VARCHAR(64) NOT NULL UNIQUE,
				secret_hash TEXT NOT NULL,
				role VARCHAR(64) NOT NULL DEFAULT '',
				groups JSONB NOT NULL DEFAULT '[]',
				banned BOOLEAN NOT NULL DEFAULT FALSE,
				session_id BIGINT,
				public_meta JSONB,
				private_meta JSONB,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()`
	if extraSchema != "" {
		columns += ",\n" + extraSchema
	}
	query := "CREATE TABLE IF NOT EXISTS users (" + columns + ")"

	if _, err := querier.ExecContext(ctx, query); err != nil {
		return apperrors.Wrap(err, "failed to create users table")
	}
	return nil
}

// Create inserts a new user. Returns ErrUserAlreadyExists when the username
// is taken.
func (p *PostgreSQLUserRepository) Create(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, p.db)

	groups, err := json.Marshal(user.Groups)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode user groups")
	}

	query := `INSERT INTO users (id, username, secret_hash, role, groups, banned, session_id,
				public_meta, private_meta, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())`

	_, err = querier.ExecContext(
		ctx,
		query,
		user.ID,
		user.Username,
		user.SecretHash,
		user.Role,
		groups,
		user.Banned,
		user.SessionID,
		nullableJSON(user.PublicMeta),
		nullableJSON(user.PrivateMeta),
	)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrUserAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create user")
	}
	return nil
}

func (p *PostgreSQLUserRepository) get(ctx context.Context, query string, arg any) (*domain.User, error) {
	querier := database.GetTx(ctx, p.db)

	var user domain.User
	var groups []byte
	var publicMeta, privateMeta []byte

	err := querier.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.SecretHash,
		&user.Role,
		&groups,
		&user.Banned,
		&user.SessionID,
		&publicMeta,
		&privateMeta,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get user")
	}

	if err := json.Unmarshal(groups, &user.Groups); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode user groups")
	}
	user.PublicMeta = publicMeta
	user.PrivateMeta = privateMeta

	return &user, nil
}

// Get retrieves a user by ID. Returns ErrUserNotFound if the user doesn't
// exist.
func (p *PostgreSQLUserRepository) Get(ctx context.Context, userID int64) (*domain.User, error) {
	query := `SELECT id, username, secret_hash, role, groups, banned, session_id,
				public_meta, private_meta, created_at, updated_at
			  FROM users WHERE id = $1`
	return p.get(ctx, query, userID)
}

// GetByUsername retrieves a user by username. Returns ErrUserNotFound if the
// user doesn't exist.
func (p *PostgreSQLUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT id, username, secret_hash, role, groups, banned, session_id,
				public_meta, private_meta, created_at, updated_at
			  FROM users WHERE username = $1`
	return p.get(ctx, query, username)
}

// Update persists the user's mutable fields.
func (p *PostgreSQLUserRepository) Update(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, p.db)

	groups, err := json.Marshal(user.Groups)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode user groups")
	}

	query := `UPDATE users
			  SET secret_hash = $1,
				  role = $2,
				  groups = $3,
				  banned = $4,
				  session_id = $5,
				  public_meta = $6,
				  private_meta = $7,
				  updated_at = NOW()
			  WHERE id = $8`

	_, err = querier.ExecContext(
		ctx,
		query,
		user.SecretHash,
		user.Role,
		groups,
		user.Banned,
		user.SessionID,
		nullableJSON(user.PublicMeta),
		nullableJSON(user.PrivateMeta),
		user.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update user")
	}
	return nil
}

// Delete removes a user row.
func (p *PostgreSQLUserRepository) Delete(ctx context.Context, userID int64) error {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM users WHERE id = $1`

	if _, err := querier.ExecContext(ctx, query, userID); err != nil {
		return apperrors.Wrap(err, "failed to delete user")
	}
	return nil
}

// nullableJSON maps an empty metadata blob to NULL instead of an empty
// string, which JSONB would reject.
func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

// isPostgreSQLUniqueViolation checks if the error is a PostgreSQL unique
// constraint violation.
func isPostgreSQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	// PostgreSQL: "duplicate key value violates unique constraint"
	return strings.Contains(errMsg, "duplicate key") || strings.Contains(errMsg, "unique constraint")
}

// NewPostgreSQLUserRepository creates a new PostgreSQL User repository.
func NewPostgreSQLUserRepository(db *sql.DB) *PostgreSQLUserRepository {
	return &PostgreSQLUserRepository{db: db}
}
