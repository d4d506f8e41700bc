package repository

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/allisson/authkit/internal/errors"
	"github.com/allisson/authkit/internal/token/domain"
)

// MemoryTokenRepository implements AuthToken persistence with mutex-guarded
// maps. Intended for tests and embedded setups without a database; provides
// the same per-row atomicity the SQL implementations do.
type MemoryTokenRepository struct {
	mu     sync.RWMutex
	tokens map[int64]domain.AuthToken
}

// CreateTable is a no-op for the in-memory implementation.
func (m *MemoryTokenRepository) CreateTable(ctx context.Context) error {
	return nil
}

// Create stores a copy of the token.
func (m *MemoryTokenRepository) Create(ctx context.Context, token *domain.AuthToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tokens[token.ID] = *token
	return nil
}

func (m *MemoryTokenRepository) get(tokenID int64, kind domain.TokenKind) (*domain.AuthToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	token, ok := m.tokens[tokenID]
	if !ok || token.Kind != kind {
		return nil, domain.ErrTokenNotFound
	}
	copied := token
	return &copied, nil
}

// GetAccess retrieves an access token by ID.
func (m *MemoryTokenRepository) GetAccess(ctx context.Context, tokenID int64) (*domain.AuthToken, error) {
	return m.get(tokenID, domain.TokenKindAccess)
}

// GetRefresh retrieves a refresh token by ID.
func (m *MemoryTokenRepository) GetRefresh(ctx context.Context, tokenID int64) (*domain.AuthToken, error) {
	return m.get(tokenID, domain.TokenKindRefresh)
}

// Update persists the token's Valid flag.
func (m *MemoryTokenRepository) Update(ctx context.Context, token *domain.AuthToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.tokens[token.ID]
	if !ok {
		return domain.ErrTokenNotFound
	}
	stored.Valid = token.Valid
	m.tokens[token.ID] = stored
	return nil
}

func (m *MemoryTokenRepository) delete(tokenID int64, kind domain.TokenKind) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if token, ok := m.tokens[tokenID]; ok && token.Kind == kind {
		delete(m.tokens, tokenID)
	}
	return nil
}

// DeleteAccess removes an access token.
func (m *MemoryTokenRepository) DeleteAccess(ctx context.Context, tokenID int64) error {
	return m.delete(tokenID, domain.TokenKindAccess)
}

// DeleteRefresh removes a refresh token.
func (m *MemoryTokenRepository) DeleteRefresh(ctx context.Context, tokenID int64) error {
	return m.delete(tokenID, domain.TokenKindRefresh)
}

// DeleteExpired deletes tokens that expired before the specified timestamp.
func (m *MemoryTokenRepository) DeleteExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	if olderThan.IsZero() {
		return 0, apperrors.New("olderThan timestamp cannot be zero")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for id, token := range m.tokens {
		if token.ExpiresAt.Before(olderThan) {
			delete(m.tokens, id)
			count++
		}
	}
	return count, nil
}

// CountExpired counts tokens that expired before the specified timestamp.
func (m *MemoryTokenRepository) CountExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	if olderThan.IsZero() {
		return 0, apperrors.New("olderThan timestamp cannot be zero")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, token := range m.tokens {
		if token.ExpiresAt.Before(olderThan) {
			count++
		}
	}
	return count, nil
}

// NewMemoryTokenRepository creates a new in-memory AuthToken repository.
func NewMemoryTokenRepository() *MemoryTokenRepository {
	return &MemoryTokenRepository{tokens: make(map[int64]domain.AuthToken)}
}
