// Package domain defines the core auth token entities and types.
package domain

import (
	"time"
)

// TokenKind discriminates the two token representations.
type TokenKind string

const (
	// TokenKindRefresh is a long-lived token whose secret is hashed at rest.
	TokenKindRefresh TokenKind = "refresh"
	// TokenKindAccess is a short-lived bearer token stored as-is, verified by
	// exact string match so verification stays cheap.
	TokenKindAccess TokenKind = "access"
)

// AuthToken represents one issued credential.
//
// For refresh tokens SecretHash holds an Argon2id PHC string of the random
// secret; the secret itself is never persisted. For access tokens SecretHash
// holds the bearer string directly.
type AuthToken struct {
	ID         int64
	UserID     int64
	Kind       TokenKind
	SecretHash string
	ExpiresAt  time.Time
	Valid      bool
	CreatedAt  time.Time
}

// IsExpired reports whether the token is past its expiry at the given instant.
func (t *AuthToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// IsUsable reports whether the token can still be accepted: it must not be
// soft-revoked and must not be expired. The two conditions surface distinct
// errors during verification.
func (t *AuthToken) IsUsable(now time.Time) bool {
	return t.Valid && !t.IsExpired(now)
}
