package repository

import (
	"context"
	"sync"

	"github.com/allisson/authkit/internal/session/domain"
)

// MemorySessionRepository implements Session persistence with mutex-guarded
// maps. The guarded pointer swap runs under the same lock as every other
// write, so the compare-and-swap semantics match the SQL implementations.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[int64]domain.Session
}

// CreateTable is a no-op for the in-memory implementation.
func (m *MemorySessionRepository) CreateTable(ctx context.Context) error {
	return nil
}

// Create stores a copy of the session.
func (m *MemorySessionRepository) Create(ctx context.Context, session *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[session.ID] = cloneSession(*session)
	return nil
}

// Get retrieves a session by ID.
func (m *MemorySessionRepository) Get(ctx context.Context, sessionID int64) (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	copied := cloneSession(session)
	return &copied, nil
}

// Update persists the session's token pointers unconditionally.
func (m *MemorySessionRepository) Update(ctx context.Context, session *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[session.ID]; !ok {
		return domain.ErrSessionNotFound
	}
	m.sessions[session.ID] = cloneSession(*session)
	return nil
}

// SwapTokens persists the token pointers only while the stored row still
// references previousRefreshTokenID.
func (m *MemorySessionRepository) SwapTokens(
	ctx context.Context,
	session *domain.Session,
	previousRefreshTokenID int64,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.sessions[session.ID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	if stored.RefreshTokenID == nil || *stored.RefreshTokenID != previousRefreshTokenID {
		return domain.ErrSessionConflict
	}
	m.sessions[session.ID] = cloneSession(*session)
	return nil
}

// Delete removes a session.
func (m *MemorySessionRepository) Delete(ctx context.Context, sessionID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, sessionID)
	return nil
}

// cloneSession copies the session including its pointer fields so stored
// rows never alias caller memory.
func cloneSession(session domain.Session) domain.Session {
	if session.RefreshTokenID != nil {
		id := *session.RefreshTokenID
		session.RefreshTokenID = &id
	}
	if session.AccessTokenID != nil {
		id := *session.AccessTokenID
		session.AccessTokenID = &id
	}
	return session
}

// NewMemorySessionRepository creates a new in-memory Session repository.
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: make(map[int64]domain.Session)}
}
