// Package domain defines the core user domain entities and types.
package domain

import (
	"encoding/json"
	"slices"
	"time"
)

// User represents an identity record. SecretHash holds an Argon2id hash of
// the password; the password itself is never stored. SessionID is a
// back-reference to the user's current session, nil while logged out.
// PublicMeta and PrivateMeta are free-form documents owned by the embedding
// application; this library stores them verbatim.
type User struct {
	ID          int64
	Username    string
	SecretHash  string
	Role        string
	Groups      Groups
	Banned      bool
	SessionID   *int64
	PublicMeta  json.RawMessage
	PrivateMeta json.RawMessage
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Groups is a set of group names with membership checked before insert, so
// the slice never holds duplicates.
type Groups []string

// Contains reports whether name is a member of the set.
func (g Groups) Contains(name string) bool {
	return slices.Contains(g, name)
}

// Add inserts name into the set. It reports whether the set changed.
func (g *Groups) Add(name string) bool {
	if g.Contains(name) {
		return false
	}
	*g = append(*g, name)
	return true
}

// Remove deletes name from the set. It reports whether the set changed.
func (g *Groups) Remove(name string) bool {
	i := slices.Index(*g, name)
	if i < 0 {
		return false
	}
	*g = slices.Delete(*g, i, i+1)
	return true
}
