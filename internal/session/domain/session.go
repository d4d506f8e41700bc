// Package domain defines the core session entities and types.
package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/allisson/authkit/internal/errors"
)

// Session binds a user to at most one active refresh/access token pair.
//
// The state machine is implicit in the two pointer fields: both set means
// Active, both nil means Invalidated (terminal for this session id; a new
// login creates a new session). An access token never legitimately outlives
// its refresh lineage beyond the instant of a rotation step.
type Session struct {
	ID             int64
	UserID         int64
	RefreshTokenID *int64
	AccessTokenID  *int64
}

// Invalidated reports whether the session reached its terminal state.
func (s *Session) Invalidated() bool {
	return s.RefreshTokenID == nil && s.AccessTokenID == nil
}

// Domain-specific errors for session operations.
var (
	// ErrSessionNotFound indicates the requested session does not exist.
	ErrSessionNotFound = errors.Wrap(errors.ErrNotFound, "session not found")

	// ErrSessionConflict indicates a guarded token-pointer swap lost against
	// a concurrent rotation of the same session.
	ErrSessionConflict = errors.Wrap(errors.ErrConflict, "session was rotated concurrently")
)

// EncodeRefreshCredential composes the caller-facing refresh credential from
// the token id and the raw secret. Carrying the id inside the credential lets
// a replayed, already-superseded credential resolve to its own (soft-revoked)
// token record, which is what makes theft detection possible.
func EncodeRefreshCredential(tokenID int64, secret string) string {
	return fmt.Sprintf("%d.%s", tokenID, secret)
}

// DecodeRefreshCredential splits a refresh credential into token id and raw
// secret. A malformed credential is indistinguishable from a bad secret at
// the public boundary, so callers should translate the error to their
// not-authorized kind.
func DecodeRefreshCredential(credential string) (int64, string, error) {
	idPart, secret, found := strings.Cut(credential, ".")
	if !found || secret == "" {
		return 0, "", errors.New("malformed refresh credential")
	}
	tokenID, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return 0, "", errors.Wrap(err, "malformed refresh credential")
	}
	return tokenID, secret, nil
}
