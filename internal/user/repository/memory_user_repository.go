package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/allisson/authkit/internal/user/domain"
)

// MemoryUserRepository implements User persistence with mutex-guarded maps.
type MemoryUserRepository struct {
	mu       sync.RWMutex
	users    map[int64]domain.User
	username map[string]int64
}

// CreateTable is a no-op for the in-memory implementation.
func (m *MemoryUserRepository) CreateTable(ctx context.Context, extraSchema string) error {
	return nil
}

// Create stores a copy of the user. Returns ErrUserAlreadyExists when the
// username is taken.
func (m *MemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.username[user.Username]; taken {
		return domain.ErrUserAlreadyExists
	}

	stored := cloneUser(*user)
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	m.users[user.ID] = stored
	m.username[user.Username] = user.ID
	return nil
}

// Get retrieves a user by ID.
func (m *MemoryUserRepository) Get(ctx context.Context, userID int64) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	copied := cloneUser(user)
	return &copied, nil
}

// GetByUsername retrieves a user by username.
func (m *MemoryUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	userID, ok := m.username[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	user := cloneUser(m.users[userID])
	return &user, nil
}

// Update persists the user's mutable fields.
func (m *MemoryUserRepository) Update(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.users[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}

	updated := cloneUser(*user)
	updated.Username = stored.Username // immutable
	updated.CreatedAt = stored.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	m.users[user.ID] = updated
	return nil
}

// Delete removes a user.
func (m *MemoryUserRepository) Delete(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if user, ok := m.users[userID]; ok {
		delete(m.username, user.Username)
		delete(m.users, userID)
	}
	return nil
}

// cloneUser deep-copies the user so stored rows never alias caller memory.
func cloneUser(user domain.User) domain.User {
	user.Groups = slices.Clone(user.Groups)
	user.PublicMeta = slices.Clone(user.PublicMeta)
	user.PrivateMeta = slices.Clone(user.PrivateMeta)
	if user.SessionID != nil {
		id := *user.SessionID
		user.SessionID = &id
	}
	return user
}

// NewMemoryUserRepository creates a new in-memory User repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users:    make(map[int64]domain.User),
		username: make(map[string]int64),
	}
}
