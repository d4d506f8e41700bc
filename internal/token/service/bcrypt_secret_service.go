package service

import (
	"crypto/rand"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/allisson/authkit/internal/errors"
	tokenDomain "github.com/allisson/authkit/internal/token/domain"
)

// bcryptSecretService implements SecretService using bcrypt. It is a cheaper
// alternative to the Argon2id service for deployments that cannot afford a
// memory-hard KDF, and a fast drop-in for tests.
type bcryptSecretService struct {
	cost int
}

func (s *bcryptSecretService) GenerateSecret() (plainSecret string, error error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", apperrors.Wrap(err, "failed to generate random secret")
	}
	return base64.URLEncoding.EncodeToString(randomBytes), nil
}

func (s *bcryptSecretService) HashSecret(plainSecret string) (hashedSecret string, error error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plainSecret), s.cost)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash secret")
	}
	return string(b), nil
}

func (s *bcryptSecretService) VerifySecret(plainSecret string, hashedSecret string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hashedSecret), []byte(plainSecret))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return tokenDomain.ErrNotAuthorized
	}
	// Any other failure means the stored hash is not a parseable bcrypt hash.
	return apperrors.Wrap(tokenDomain.ErrInvalidHashFormat, err.Error())
}

// NewBcryptSecretService creates a bcrypt-backed SecretService with the given
// cost. Costs outside bcrypt's supported range fall back to the default cost.
func NewBcryptSecretService(cost int) SecretService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &bcryptSecretService{cost: cost}
}
