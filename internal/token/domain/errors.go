package domain

import (
	"github.com/allisson/authkit/internal/errors"
)

// Domain-specific errors for token operations.
var (
	// ErrTokenNotFound indicates the requested token does not exist.
	ErrTokenNotFound = errors.Wrap(errors.ErrNotFound, "token not found")

	// ErrNotAuthorized indicates an ownership mismatch, a bad secret or a
	// missing token. The causes are deliberately conflated at the public
	// boundary so callers cannot probe which check failed.
	ErrNotAuthorized = errors.Wrap(errors.ErrUnauthorized, "not authorized")

	// ErrTokenExpired indicates the token is structurally valid but past its
	// expiry. Recoverable by rotation.
	ErrTokenExpired = errors.Wrap(errors.ErrUnauthorized, "token expired")

	// ErrTokenInvalid indicates the token was explicitly soft-revoked. The
	// caller must re-authenticate.
	ErrTokenInvalid = errors.Wrap(errors.ErrUnauthorized, "token revoked")

	// ErrDateTime indicates expiry arithmetic produced an impossible local
	// time. Minting fails closed rather than issuing a token with an
	// undefined expiry.
	ErrDateTime = errors.New("token expiry produced an invalid local time")

	// ErrTokenCreate indicates random generation or hashing failed during
	// minting. Minting fails closed.
	ErrTokenCreate = errors.New("could not generate token")

	// ErrInvalidHashFormat indicates the persisted hash is not parseable.
	// This signals storage corruption and is surfaced distinctly so operators
	// can alert on it instead of treating it as a normal auth failure.
	ErrInvalidHashFormat = errors.New("token stored in invalid format")
)
