// Package usecase implements the auth token engine: minting, verification,
// soft revocation and hard deletion of access and refresh tokens.
package usecase

import (
	"context"
	"time"

	"github.com/allisson/authkit/internal/token/domain"
)

// TokenRepository is the persistence harness contract for auth tokens.
// SQL, in-memory and test implementations all satisfy this interface; the
// engine never assumes anything beyond per-row atomicity.
type TokenRepository interface {
	// CreateTable initializes the token schema (idempotent).
	CreateTable(ctx context.Context) error

	// Create inserts a new token.
	Create(ctx context.Context, token *domain.AuthToken) error

	// GetAccess retrieves an access token by ID.
	// Returns domain.ErrTokenNotFound if no access token has that ID.
	GetAccess(ctx context.Context, tokenID int64) (*domain.AuthToken, error)

	// GetRefresh retrieves a refresh token by ID.
	// Returns domain.ErrTokenNotFound if no refresh token has that ID.
	GetRefresh(ctx context.Context, tokenID int64) (*domain.AuthToken, error)

	// Update persists a mutated token (only the Valid flag is mutable).
	Update(ctx context.Context, token *domain.AuthToken) error

	// DeleteAccess removes an access token row.
	DeleteAccess(ctx context.Context, tokenID int64) error

	// DeleteRefresh removes a refresh token row.
	DeleteRefresh(ctx context.Context, tokenID int64) error

	// DeleteExpired deletes tokens of any kind that expired before the
	// specified timestamp. Returns the number of deleted tokens.
	DeleteExpired(ctx context.Context, olderThan time.Time) (int64, error)

	// CountExpired counts tokens that expired before the specified timestamp
	// without deleting them.
	CountExpired(ctx context.Context, olderThan time.Time) (int64, error)
}

// UseCase defines the auth token engine operations.
type UseCase interface {
	// Mint issues a new token for the user. It returns the persisted token
	// and the caller-facing secret: for refresh tokens the raw secret (its
	// Argon2id hash is what got persisted), for access tokens the bearer
	// string itself. Minting fails closed on expiry or hashing errors.
	Mint(ctx context.Context, userID int64, kind domain.TokenKind) (*domain.AuthToken, string, error)

	// Verify checks a presented secret against an already-fetched token.
	// Check order: ownership (ErrNotAuthorized), soft-revocation
	// (ErrTokenInvalid), then per kind: access tokens match the bearer
	// string before the expiry check, refresh tokens check expiry before
	// the hash verification. An expired access token is opportunistically
	// deleted; a failed cleanup is logged and swallowed.
	Verify(ctx context.Context, token *domain.AuthToken, userID int64, presentedSecret string) error

	// VerifyAccess fetches an access token by ID and verifies it. A missing
	// token surfaces as ErrNotAuthorized.
	VerifyAccess(ctx context.Context, tokenID, userID int64, presentedSecret string) error

	// VerifyRefresh fetches a refresh token by ID and verifies it. A missing
	// token surfaces as ErrNotAuthorized.
	VerifyRefresh(ctx context.Context, tokenID, userID int64, presentedSecret string) error

	// GetRefresh fetches a refresh token by ID.
	GetRefresh(ctx context.Context, tokenID int64) (*domain.AuthToken, error)

	// GetAccess fetches an access token by ID.
	GetAccess(ctx context.Context, tokenID int64) (*domain.AuthToken, error)

	// Invalidate soft-revokes a token: Valid is set false and persisted. The
	// row is kept so a later presentation is detectable as a replay.
	Invalidate(ctx context.Context, token *domain.AuthToken) error

	// DeleteAccess hard-removes an access token.
	DeleteAccess(ctx context.Context, tokenID int64) error

	// DeleteRefresh hard-removes a refresh token.
	DeleteRefresh(ctx context.Context, tokenID int64) error

	// CleanupExpired deletes tokens that expired more than the specified
	// number of days ago. Returns the number of deleted tokens. Use
	// dryRun=true to preview the count without deletion. A session row may
	// keep pointing at a swept token id; the dangling pointer resolves to
	// ErrTokenNotFound on the next use and the session is treated as stale.
	CleanupExpired(ctx context.Context, days int, dryRun bool) (int64, error)
}
