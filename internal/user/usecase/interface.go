// Package usecase implements the user engine: registration, password
// verification, and login/logout driven through the session engine.
package usecase

import (
	"context"
	"encoding/json"

	sessionDomain "github.com/allisson/authkit/internal/session/domain"
	"github.com/allisson/authkit/internal/user/domain"
)

// RegisterInput contains the input data for user registration.
type RegisterInput struct {
	Username    string          `json:"username"`
	Password    string          `json:"password"`
	Role        string          `json:"role"`
	PublicMeta  json.RawMessage `json:"public_meta,omitempty"`
	PrivateMeta json.RawMessage `json:"private_meta,omitempty"`
}

// UserRepository is the persistence harness contract for users.
type UserRepository interface {
	// CreateTable initializes the user schema (idempotent). extraSchema is
	// appended to the column list so the embedding application can extend
	// the table; pass "" for the base schema.
	CreateTable(ctx context.Context, extraSchema string) error

	// Create inserts a new user. Returns domain.ErrUserAlreadyExists when
	// the username is taken.
	Create(ctx context.Context, user *domain.User) error

	// Get retrieves a user by ID.
	// Returns domain.ErrUserNotFound if no user has that ID.
	Get(ctx context.Context, userID int64) (*domain.User, error)

	// GetByUsername retrieves a user by username.
	// Returns domain.ErrUserNotFound if no user has that username.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// Update persists the user's mutable fields.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user row.
	Delete(ctx context.Context, userID int64) error
}

// UseCase defines the user engine operations.
type UseCase interface {
	// Register validates the input, hashes the password and persists a new
	// user. Username uniqueness is enforced by the persistence layer and
	// surfaces as domain.ErrUserAlreadyExists.
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)

	// Login re-fetches the user by ID, verifies the password and creates a
	// new session. On success the session back-reference is persisted and
	// the session plus its refresh credential and access secret are
	// returned. Banned users are refused.
	Login(ctx context.Context, user *domain.User, password string) (*sessionDomain.Session, string, string, error)

	// Logout invalidates the user's current session. While a refresh
	// lineage is live the caller must prove possession of the refresh
	// credential; once the lineage is already gone logout still proceeds,
	// since an access token could remain live.
	Logout(ctx context.Context, user *domain.User, refreshCredential string) error

	// ChangePassword verifies the current password, re-hashes the new one
	// and persists it. The hash is never updated in place without a
	// re-hash.
	ChangePassword(ctx context.Context, user *domain.User, currentPassword, newPassword string) error

	// Get retrieves a user by ID.
	Get(ctx context.Context, userID int64) (*domain.User, error)

	// GetByUsername retrieves a user by username.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// Delete removes a user.
	Delete(ctx context.Context, userID int64) error

	// Ban locks the account and invalidates its current session, if any.
	Ban(ctx context.Context, user *domain.User) error

	// Unban clears the banned flag.
	Unban(ctx context.Context, user *domain.User) error

	// AddGroup adds the user to a group (set semantics, no duplicates).
	AddGroup(ctx context.Context, user *domain.User, group string) error

	// RemoveGroup removes the user from a group.
	RemoveGroup(ctx context.Context, user *domain.User, group string) error
}
