// Package idgen provides cryptographically random identifier generation for
// users, sessions and tokens.
package idgen

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/google/uuid"

	apperrors "github.com/allisson/authkit/internal/errors"
)

// Generator defines operations for producing unique random identifiers.
// Implementations must use a cryptographically secure randomness source.
type Generator interface {
	// Int64 returns a random 64-bit identifier. The value may be negative;
	// identifiers are opaque and only compared for equality.
	Int64() (int64, error)

	// UUID returns a random 128-bit identifier.
	UUID() (uuid.UUID, error)
}

// randomGenerator implements Generator using crypto/rand.
type randomGenerator struct{}

// NewGenerator creates the default crypto/rand-backed Generator.
func NewGenerator() Generator {
	return &randomGenerator{}
}

func (g *randomGenerator) Int64() (int64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, apperrors.Wrap(err, "failed to generate random identifier")
	}
	return int64(binary.BigEndian.Uint64(buf[:])), nil
}

func (g *randomGenerator) UUID() (uuid.UUID, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return uuid.Nil, apperrors.Wrap(err, "failed to generate random identifier")
	}
	return id, nil
}
