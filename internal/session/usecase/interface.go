// Package usecase implements the session engine: session creation, token
// rotation and the replay/theft cascade.
package usecase

import (
	"context"

	"github.com/allisson/authkit/internal/session/domain"
)

// SessionRepository is the persistence harness contract for sessions.
type SessionRepository interface {
	// CreateTable initializes the session schema (idempotent).
	CreateTable(ctx context.Context) error

	// Create inserts a new session.
	Create(ctx context.Context, session *domain.Session) error

	// Get retrieves a session by ID.
	// Returns domain.ErrSessionNotFound if no session has that ID.
	Get(ctx context.Context, sessionID int64) (*domain.Session, error)

	// Update persists the session's token pointers unconditionally.
	Update(ctx context.Context, session *domain.Session) error

	// SwapTokens persists the session's token pointers only while the row
	// still references previousRefreshTokenID. Returns
	// domain.ErrSessionConflict when a concurrent rotation already moved
	// the pointer; the caller's freshly minted tokens are then orphaned
	// but harmless.
	SwapTokens(ctx context.Context, session *domain.Session, previousRefreshTokenID int64) error

	// Delete removes a session row.
	Delete(ctx context.Context, sessionID int64) error
}

// UseCase defines the session engine operations.
//
// None of the operations authenticate the caller beyond what they explicitly
// verify: the engine stays composable and the embedding application owns the
// outer authentication boundary.
type UseCase interface {
	// CreateSession mints a refresh and an access token, creates a session
	// referencing both and returns the two caller-facing secrets: the
	// refresh credential ("<token id>.<secret>") and the access bearer
	// string. This is the only transition into the Active state.
	CreateSession(ctx context.Context, userID int64) (*domain.Session, string, string, error)

	// GetSession fetches a session by ID.
	GetSession(ctx context.Context, sessionID int64) (*domain.Session, error)

	// IssueAccessToken rotates the session's access token: the old token is
	// deleted first so it cannot remain independently valid, then a new one
	// is minted and the pointer persisted. The refresh lineage is not
	// touched. Intentionally unguarded.
	IssueAccessToken(ctx context.Context, session *domain.Session) (string, error)

	// IssueRefreshToken rotates the refresh lineage. The presented
	// credential must verify against its own token record; presenting an
	// already-superseded or expired credential is treated as a theft
	// signal: the whole session is cascaded to Invalidated before
	// ErrNotAuthorized is returned. On success both tokens are replaced
	// and the new refresh credential and access secret are returned.
	IssueRefreshToken(ctx context.Context, session *domain.Session, refreshCredential string) (string, string, error)

	// InvalidateSession deletes both referenced tokens best-effort and
	// moves the session to its terminal state. Idempotent: invalidating an
	// already-invalidated session is a no-op success.
	InvalidateSession(ctx context.Context, session *domain.Session) error

	// InvalidateAccessToken deletes only the access token and clears its
	// pointer, leaving the refresh lineage untouched. Used for targeted
	// revocation without forcing a re-login.
	InvalidateAccessToken(ctx context.Context, session *domain.Session) error

	// DeleteSession removes the session row entirely.
	DeleteSession(ctx context.Context, sessionID int64) error
}
