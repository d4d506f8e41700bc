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

// MySQLUserRepository implements User persistence for MySQL. GROUPS is a
// reserved word in MySQL 8, so the column is always backquoted.
type MySQLUserRepository struct {
	db *sql.DB
}

// CreateTable initializes the user schema. extraSchema, when non-empty, is
// appended as additional column DDL. Idempotent.
func (m *MySQLUserRepository) CreateTable(ctx context.Context, extraSchema string) error {
	querier := database.GetTx(ctx, m.db)

	columns := "id BIGINT PRIMARY KEY,\n" +
		"username VARCHAR(64) NOT NULL UNIQUE,\n" +
		"secret_hash TEXT NOT NULL,\n" +
		"role VARCHAR(64) NOT NULL DEFAULT '',\n" +
		"`groups` JSON NOT NULL,\n" +
		"banned BOOLEAN NOT NULL DEFAULT FALSE,\n" +
		"session_id BIGINT,\n" +
		"public_meta JSON,\n" +
		"private_meta JSON,\n" +
		"created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),\n" +
		"updated_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6)"
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
func (m *MySQLUserRepository) Create(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, m.db)

	groups, err := json.Marshal(user.Groups)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode user groups")
	}

	query := "INSERT INTO users (id, username, secret_hash, role, `groups`, banned, session_id, " +
		"public_meta, private_meta, created_at, updated_at) " +
		"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, UTC_TIMESTAMP(6), UTC_TIMESTAMP(6))"

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
		if isMySQLUniqueViolation(err) {
			return domain.ErrUserAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create user")
	}
	return nil
}

func (m *MySQLUserRepository) get(ctx context.Context, query string, arg any) (*domain.User, error) {
	querier := database.GetTx(ctx, m.db)

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
func (m *MySQLUserRepository) Get(ctx context.Context, userID int64) (*domain.User, error) {
	query := "SELECT id, username, secret_hash, role, `groups`, banned, session_id, " +
		"public_meta, private_meta, created_at, updated_at FROM users WHERE id = ?"
	return m.get(ctx, query, userID)
}

// GetByUsername retrieves a user by username. Returns ErrUserNotFound if the
// user doesn't exist.
func (m *MySQLUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := "SELECT id, username, secret_hash, role, `groups`, banned, session_id, " +
		"public_meta, private_meta, created_at, updated_at FROM users WHERE username = ?"
	return m.get(ctx, query, username)
}

// Update persists the user's mutable fields.
func (m *MySQLUserRepository) Update(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, m.db)

	groups, err := json.Marshal(user.Groups)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode user groups")
	}

	query := "UPDATE users SET secret_hash = ?, role = ?, `groups` = ?, banned = ?, " +
		"session_id = ?, public_meta = ?, private_meta = ?, updated_at = UTC_TIMESTAMP(6) " +
		"WHERE id = ?"

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
func (m *MySQLUserRepository) Delete(ctx context.Context, userID int64) error {
	querier := database.GetTx(ctx, m.db)

	query := "DELETE FROM users WHERE id = ?"

	if _, err := querier.ExecContext(ctx, query, userID); err != nil {
		return apperrors.Wrap(err, "failed to delete user")
	}
	return nil
}

// isMySQLUniqueViolation checks if the error is a MySQL unique constraint
// violation.
func isMySQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	// MySQL: "Error 1062: Duplicate entry"
	return strings.Contains(errMsg, "duplicate entry") || strings.Contains(errMsg, "1062")
}

// NewMySQLUserRepository creates a new MySQL User repository.
func NewMySQLUserRepository(db *sql.DB) *MySQLUserRepository {
	return &MySQLUserRepository{db: db}
}
