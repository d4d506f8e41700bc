package service

import (
	"crypto/rand"
	"encoding/base64"

	apperrors "github.com/allisson/authkit/internal/errors"
)

// tokenService implements TokenService with crypto/rand-backed bearer strings.
type tokenService struct{}

// GenerateToken creates a new cryptographically secure 32-byte random token.
// The token is base64 URL-encoded for easy transmission and storage.
func (t *tokenService) GenerateToken() (plainToken string, error error) {
	// Generate 32 random bytes (256 bits)
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", apperrors.Wrap(err, "failed to generate random token")
	}

	return base64.URLEncoding.EncodeToString(randomBytes), nil
}

// NewTokenService creates a new TokenService instance.
func NewTokenService() TokenService {
	return &tokenService{}
}
