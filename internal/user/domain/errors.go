package domain

import (
	"github.com/allisson/authkit/internal/errors"
)

// Domain-specific errors for user operations.
var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.Wrap(errors.ErrNotFound, "user not found")

	// ErrUserAlreadyExists indicates a user with the same username already exists.
	ErrUserAlreadyExists = errors.Wrap(errors.ErrConflict, "user already exists")

	// ErrUserBanned indicates the account is administratively locked out.
	ErrUserBanned = errors.Wrap(errors.ErrLocked, "user is banned")

	// ErrNoActiveSession indicates the user has no session to operate on.
	ErrNoActiveSession = errors.Wrap(errors.ErrNotFound, "user has no active session")
)
