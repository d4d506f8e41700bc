package service

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/allisson/go-pwdhash"

	apperrors "github.com/allisson/authkit/internal/errors"
	tokenDomain "github.com/allisson/authkit/internal/token/domain"
)

// secretService implements SecretService using Argon2id for secret hashing.
type secretService struct {
	hasher *pwdhash.PasswordHasher
}

// GenerateSecret creates a new cryptographically secure 32-byte random secret.
// The secret is base64 URL-encoded for easy transmission and storage.
func (s *secretService) GenerateSecret() (plainSecret string, error error) {
	// Generate 32 random bytes (256 bits)
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", apperrors.Wrap(err, "failed to generate random secret")
	}

	return base64.URLEncoding.EncodeToString(randomBytes), nil
}

// HashSecret hashes a plain text secret using Argon2id. The salt is generated
// internally and encoded into the returned PHC string.
func (s *secretService) HashSecret(plainSecret string) (hashedSecret string, error error) {
	hashedSecret, err := s.hasher.Hash([]byte(plainSecret))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash secret")
	}
	return hashedSecret, nil
}

// VerifySecret performs a constant-time comparison between a plain secret and
// its stored hash. A hash that cannot be parsed is reported as
// ErrInvalidHashFormat so storage corruption is distinguishable from a plain
// mismatch.
func (s *secretService) VerifySecret(plainSecret string, hashedSecret string) error {
	ok, err := s.hasher.Verify([]byte(plainSecret), hashedSecret)
	if err != nil {
		return apperrors.Wrap(tokenDomain.ErrInvalidHashFormat, err.Error())
	}
	if !ok {
		return tokenDomain.ErrNotAuthorized
	}
	return nil
}

// NewSecretService creates a new SecretService instance using Argon2id hashing
// with the named cost policy ("interactive" or "moderate"). Token-scale
// secrets are high entropy, so the cheaper interactive policy is appropriate
// for them; password hashing should prefer moderate or stronger.
func NewSecretService(policy string) (SecretService, error) {
	var (
		hasher *pwdhash.PasswordHasher
		err    error
	)
	switch policy {
	case "interactive":
		hasher, err = pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyInteractive))
	case "moderate":
		hasher, err = pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyModerate))
	default:
		return nil, fmt.Errorf("unknown hash policy: %q", policy)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create password hasher")
	}

	return &secretService{
		hasher: hasher,
	}, nil
}
