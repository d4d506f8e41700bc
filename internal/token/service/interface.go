// Package service provides technical services for credential generation,
// hashing and expiry computation.
//
// This package implements reusable services for secret generation, hashing,
// and validation using industry-standard cryptographic practices.
package service

// SecretService defines operations for secret hashing and validation.
// Implementations must use cryptographically secure random generation and
// industry-standard hashing algorithms (e.g., bcrypt, argon2). The salt is
// generated per hash and carried inside the encoded hash string.
type SecretService interface {
	// GenerateSecret creates a new cryptographically secure random secret.
	// The plain secret should be treated as sensitive data and only displayed
	// once at issuance.
	GenerateSecret() (plainSecret string, error error)

	// HashSecret hashes a plain text secret with a fresh random salt and
	// returns the storable encoded string.
	HashSecret(plainSecret string) (hashedSecret string, error error)

	// VerifySecret compares a plain text secret against a stored encoded
	// hash in constant time. Returns nil on match,
	// tokenDomain.ErrNotAuthorized on mismatch and
	// tokenDomain.ErrInvalidHashFormat when the stored hash cannot be
	// parsed (a persistence-corruption signal).
	VerifySecret(plainSecret string, hashedSecret string) error
}

// TokenService defines operations for bearer token generation.
// Implementations must use cryptographically secure random generation.
type TokenService interface {
	// GenerateToken creates a new cryptographically secure random bearer
	// string. Access tokens are short-lived, so the string is stored as-is
	// and verified by exact match instead of being hashed.
	GenerateToken() (plainToken string, error error)
}
