package usecase

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/authkit/internal/session/domain"
	tokenDomain "github.com/allisson/authkit/internal/token/domain"
)

// mockIDGenerator is a mock implementation of idgen.Generator for testing.
type mockIDGenerator struct {
	mock.Mock
}

func (m *mockIDGenerator) Int64() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockIDGenerator) UUID() (uuid.UUID, error) {
	args := m.Called()
	return args.Get(0).(uuid.UUID), args.Error(1)
}

// mockSessionRepository is a mock implementation of SessionRepository for testing.
type mockSessionRepository struct {
	mock.Mock
}

func (m *mockSessionRepository) CreateTable(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *mockSessionRepository) Get(ctx context.Context, sessionID int64) (*domain.Session, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *mockSessionRepository) Update(ctx context.Context, session *domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *mockSessionRepository) SwapTokens(
	ctx context.Context,
	session *domain.Session,
	previousRefreshTokenID int64,
) error {
	args := m.Called(ctx, session, previousRefreshTokenID)
	return args.Error(0)
}

func (m *mockSessionRepository) Delete(ctx context.Context, sessionID int64) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// mockTokenEngine is a mock implementation of the token engine for testing.
type mockTokenEngine struct {
	mock.Mock
}

func (m *mockTokenEngine) Mint(
	ctx context.Context,
	userID int64,
	kind tokenDomain.TokenKind,
) (*tokenDomain.AuthToken, string, error) {
	args := m.Called(ctx, userID, kind)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*tokenDomain.AuthToken), args.String(1), args.Error(2)
}

func (m *mockTokenEngine) Verify(
	ctx context.Context,
	token *tokenDomain.AuthToken,
	userID int64,
	presentedSecret string,
) error {
	args := m.Called(ctx, token, userID, presentedSecret)
	return args.Error(0)
}

func (m *mockTokenEngine) VerifyAccess(ctx context.Context, tokenID, userID int64, presentedSecret string) error {
	args := m.Called(ctx, tokenID, userID, presentedSecret)
	return args.Error(0)
}

func (m *mockTokenEngine) VerifyRefresh(ctx context.Context, tokenID, userID int64, presentedSecret string) error {
	args := m.Called(ctx, tokenID, userID, presentedSecret)
	return args.Error(0)
}

func (m *mockTokenEngine) GetRefresh(ctx context.Context, tokenID int64) (*tokenDomain.AuthToken, error) {
	args := m.Called(ctx, tokenID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tokenDomain.AuthToken), args.Error(1)
}

func (m *mockTokenEngine) GetAccess(ctx context.Context, tokenID int64) (*tokenDomain.AuthToken, error) {
	args := m.Called(ctx, tokenID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tokenDomain.AuthToken), args.Error(1)
}

func (m *mockTokenEngine) Invalidate(ctx context.Context, token *tokenDomain.AuthToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *mockTokenEngine) DeleteAccess(ctx context.Context, tokenID int64) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

func (m *mockTokenEngine) DeleteRefresh(ctx context.Context, tokenID int64) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

func (m *mockTokenEngine) CleanupExpired(ctx context.Context, days int, dryRun bool) (int64, error) {
	args := m.Called(ctx, days, dryRun)
	return args.Get(0).(int64), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func refreshToken(id, userID int64) *tokenDomain.AuthToken {
	return &tokenDomain.AuthToken{
		ID:         id,
		UserID:     userID,
		Kind:       tokenDomain.TokenKindRefresh,
		SecretHash: "$argon2id$hash",
		ExpiresAt:  time.Now().UTC().Add(time.Hour),
		Valid:      true,
	}
}

func accessToken(id, userID int64) *tokenDomain.AuthToken {
	return &tokenDomain.AuthToken{
		ID:         id,
		UserID:     userID,
		Kind:       tokenDomain.TokenKindAccess,
		SecretHash: "bearer",
		ExpiresAt:  time.Now().UTC().Add(time.Hour),
		Valid:      true,
	}
}

func TestSessionUseCase_CreateSession(t *testing.T) {
	ctx := context.Background()

	mockIDGen := &mockIDGenerator{}
	mockRepo := &mockSessionRepository{}
	mockEngine := &mockTokenEngine{}

	mockIDGen.On("Int64").Return(int64(500), nil).Once()
	mockEngine.On("Mint", ctx, int64(42), tokenDomain.TokenKindRefresh).
		Return(refreshToken(10, 42), "refresh-secret", nil).Once()
	mockEngine.On("Mint", ctx, int64(42), tokenDomain.TokenKindAccess).
		Return(accessToken(20, 42), "access-secret", nil).Once()
	mockRepo.On("Create", ctx, mock.MatchedBy(func(session *domain.Session) bool {
		return session.ID == 500 &&
			session.UserID == 42 &&
			session.RefreshTokenID != nil && *session.RefreshTokenID == 10 &&
			session.AccessTokenID != nil && *session.AccessTokenID == 20
	})).Return(nil).Once()

	uc := NewSessionUseCase(mockIDGen, mockRepo, mockEngine, testLogger())
	session, refreshCredential, accessSecret, err := uc.CreateSession(ctx, 42)

	require.NoError(t, err)
	assert.Equal(t, "10.refresh-secret", refreshCredential)
	assert.Equal(t, "access-secret", accessSecret)
	assert.False(t, session.Invalidated())
	mockRepo.AssertExpectations(t)
	mockEngine.AssertExpectations(t)
}

func TestSessionUseCase_IssueAccessToken(t *testing.T) {
	ctx := context.Background()

	t.Run("old access token is deleted before the new one exists", func(t *testing.T) {
		mockRepo := &mockSessionRepository{}
		mockEngine := &mockTokenEngine{}

		oldAccessID := int64(20)
		session := &domain.Session{ID: 500, UserID: 42, AccessTokenID: &oldAccessID}

		mockEngine.On("DeleteAccess", ctx, int64(20)).Return(nil).Once()
		mockEngine.On("Mint", ctx, int64(42), tokenDomain.TokenKindAccess).
			Return(accessToken(21, 42), "new-access-secret", nil).Once()
		mockRepo.On("Update", ctx, session).Return(nil).Once()

		uc := NewSessionUseCase(&mockIDGenerator{}, mockRepo, mockEngine, testLogger())
		secret, err := uc.IssueAccessToken(ctx, session)

		require.NoError(t, err)
		assert.Equal(t, "new-access-secret", secret)
		require.NotNil(t, session.AccessTokenID)
		assert.Equal(t, int64(21), *session.AccessTokenID)
		mockEngine.AssertExpectations(t)
		mockRepo.AssertExpectations(t)
	})

	t.Run("failed delete of the old token aborts the rotation", func(t *testing.T) {
		mockRepo := &mockSessionRepository{}
		mockEngine := &mockTokenEngine{}

		oldAccessID := int64(20)
		session := &domain.Session{ID: 500, UserID: 42, AccessTokenID: &oldAccessID}

		mockEngine.On("DeleteAccess", ctx, int64(20)).Return(assert.AnError).Once()

		uc := NewSessionUseCase(&mockIDGenerator{}, mockRepo, mockEngine, testLogger())
		_, err := uc.IssueAccessToken(ctx, session)

		assert.ErrorIs(t, err, assert.AnError)
		mockEngine.AssertNotCalled(t, "Mint", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSessionUseCase_IssueRefreshToken(t *testing.T) {
	ctx := context.Background()

	activeSession := func() *domain.Session {
		refreshID := int64(10)
		accessID := int64(20)
		return &domain.Session{ID: 500, UserID: 42, RefreshTokenID: &refreshID, AccessTokenID: &accessID}
	}

	t.Run("successful rotation replaces both tokens", func(t *testing.T) {
		mockRepo := &mockSessionRepository{}
		mockEngine := &mockTokenEngine{}
		session := activeSession()

		presented := refreshToken(10, 42)
		mockEngine.On("GetRefresh", ctx, int64(10)).Return(presented, nil).Once()
		mockEngine.On("Verify", ctx, presented, int64(42), "r0-secret").Return(nil).Once()
		mockEngine.On("Mint", ctx, int64(42), tokenDomain.TokenKindRefresh).
			Return(refreshToken(11, 42), "r1-secret", nil).Once()
		mockEngine.On("Mint", ctx, int64(42), tokenDomain.TokenKindAccess).
			Return(accessToken(21, 42), "a1-secret", nil).Once()
		mockEngine.On("Invalidate", ctx, presented).Return(nil).Once()
		mockEngine.On("DeleteAccess", ctx, int64(20)).Return(nil).Once()
		mockRepo.On("SwapTokens", ctx, session, int64(10)).Return(nil).Once()

		uc := NewSessionUseCase(&mockIDGenerator{}, mockRepo, mockEngine, testLogger())
		newRefresh, newAccess, err := uc.IssueRefreshToken(ctx, session, "10.r0-secret")

		require.NoError(t, err)
		assert.Equal(t, "11.r1-secret", newRefresh)
		assert.Equal(t, "a1-secret", newAccess)
		require.NotNil(t, session.RefreshTokenID)
		assert.Equal(t, int64(11), *session.RefreshTokenID)
		require.NotNil(t, session.AccessTokenID)
		assert.Equal(t, int64(21), *session.AccessTokenID)
		mockEngine.AssertExpectations(t)
		mockRepo.AssertExpectations(t)
	})

	t.Run("replay of a superseded credential cascades the session", func(t *testing.T) {
		mockRepo := &mockSessionRepository{}
		mockEngine := &mockTokenEngine{}
		session := activeSession()

		// Token 9 was rotated away earlier and soft-revoked.
		superseded := refreshToken(9, 42)
		superseded.Valid = false
		mockEngine.On("GetRefresh", ctx, int64(9)).Return(superseded, nil).Once()
		mockEngine.On("Verify", ctx, superseded, int64(42), "r0-secret").
			Return(tokenDomain.ErrTokenInvalid).Once()
		mockEngine.On("DeleteRefresh", ctx, int64(10)).Return(nil).Once()
		mockEngine.On("DeleteAccess", ctx, int64(20)).Return(nil).Once()
		mockRepo.On("Update", ctx, session).Return(nil).Once()

		uc := NewSessionUseCase(&mockIDGenerator{}, mockRepo, mockEngine, testLogger())
		_, _, err := uc.IssueRefreshToken(ctx, session, "9.r0-secret")

		assert.ErrorIs(t, err, tokenDomain.ErrNotAuthorized)
		assert.True(t, session.Invalidated())
		mockEngine.AssertExpectations(t)
		mockRepo.AssertExpectations(t)
	})

	t.Run("expired refresh token cascades the session", func(t *testing.T) {
		mockRepo := &mockSessionRepository{}
		mockEngine := &mockTokenEngine{}
		session := activeSession()

		expired := refreshToken(10, 42)
		expired.ExpiresAt = time.Now().UTC().Add(-time.Hour)
		mockEngine.On("GetRefresh", ctx, int64(10)).Return(expired, nil).Once()
		mockEngine.On("Verify", ctx, expired, int64(42), "r0-secret").
			Return(tokenDomain.ErrTokenExpired).Once()
		mockEngine.On("DeleteRefresh", ctx, int64(10)).Return(nil).Once()
		mockEngine.On("DeleteAccess", ctx, int64(20)).Return(nil).Once()
		mockRepo.On("Update", ctx, session).Return(nil).Once()

		uc := NewSessionUseCase(&mockIDGenerator{}, mockRepo, mockEngine, testLogger())
		_, _, err := uc.IssueRefreshToken(ctx, session, "10.r0-secret")

		assert.ErrorIs(t, err, tokenDomain.ErrNotAuthorized)
		assert.True(t, session.Invalidated())
	})

	t.Run("hash mismatch propagates without invalidating", func(t *testing.T) {
		mockRepo := &mockSessionRepository{}
		mockEngine := &mockTokenEngine{}
		session := activeSession()

		presented := refreshToken(10, 42)
		mockEngine.On("GetRefresh", ctx, int64(10)).Return(presented, nil).Once()
		mockEngine.On("Verify", ctx, presented, int64(42), "garbage").
			Return(tokenDomain.ErrNotAuthorized).Once()

		uc := NewSessionUseCase(&mockIDGenerator{}, mockRepo, mockEngine, testLogger())
		_, _, err := uc.IssueRefreshToken(ctx, session, "10.garbage")

		assert.ErrorIs(t, err, tokenDomain.ErrNotAuthorized)
		assert.False(t, session.Invalidated())
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("harness failure propagates without invalidating", func(t *testing.T) {
		mockRepo := &mockSessionRepository{}
		mockEngine := &mockTokenEngine{}
		session := activeSession()

		presented := refreshToken(10, 42)
		mockEngine.On("GetRefresh", ctx, int64(10)).Return(presented, nil).Once()
		mockEngine.On("Verify", ctx, presented, int64(42), "r0-secret").
			Return(assert.AnError).Once()

		uc := NewSessionUseCase(&mockIDGenerator{}, mockRepo, mockEngine, testLogger())
		_, _, err := uc.IssueRefreshToken(ctx, session, "10.r0-secret")

		assert.ErrorIs(t, err, assert.AnError)
		assert.False(t, session.Invalidated())
	})

	t.Run("no lineage fails unauthorized", func(t *testing.T) {
		session := &domain.Session{ID: 500, UserID: 42}

		uc := NewSessionUseCase(&mockIDGenerator{}, &mockSessionRepository{}, &mockTokenEngine{}, testLogger())
		_, _, err := uc.IssueRefreshToken(ctx, session, "10.r0-secret")

		assert.ErrorIs(t, err, tokenDomain.ErrNotAuthorized)
	})

	t.Run("malformed credential fails unauthorized", func(t *testing.T) {
		session := activeSession()

		uc := NewSessionUseCase(&mockIDGenerator{}, &mockSessionRepository{}, &mockTokenEngine{}, testLogger())
		_, _, err := uc.IssueRefreshToken(ctx, session, "not-a-credential")

		assert.ErrorIs(t, err, tokenDomain.ErrNotAuthorized)
	})

	t.Run("missing token row fails unauthorized without cascade", func(t *testing.T) {
		mockRepo := &mockSessionRepository{}
		mockEngine := &mockTokenEngine{}
		session := activeSession()

		mockEngine.On("GetRefresh", ctx, int64(10)).
			Return(nil, tokenDomain.ErrTokenNotFound).Once()

		uc := NewSessionUseCase(&mockIDGenerator{}, mockRepo, mockEngine, testLogger())
		_, _, err := uc.IssueRefreshToken(ctx, session, "10.r0-secret")

		assert.ErrorIs(t, err, tokenDomain.ErrNotAuthorized)
		assert.False(t, session.Invalidated())
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("valid orphan from a lost race grants nothing", func(t *testing.T) {
		mockRepo := &mockSessionRepository{}
		mockEngine := &mockTokenEngine{}
		session := activeSession()

		orphan := refreshToken(99, 42)
		mockEngine.On("GetRefresh", ctx, int64(99)).Return(orphan, nil).Once()
		mockEngine.On("Verify", ctx, orphan, int64(42), "orphan-secret").Return(nil).Once()

		uc := NewSessionUseCase(&mockIDGenerator{}, mockRepo, mockEngine, testLogger())
		_, _, err := uc.IssueRefreshToken(ctx, session, "99.orphan-secret")

		assert.ErrorIs(t, err, tokenDomain.ErrNotAuthorized)
		assert.False(t, session.Invalidated())
		mockEngine.AssertNotCalled(t, "Mint", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("lost pointer swap surfaces conflict", func(t *testing.T) {
		mockRepo := &mockSessionRepository{}
		mockEngine := &mockTokenEngine{}
		session := activeSession()

		presented := refreshToken(10, 42)
		mockEngine.On("GetRefresh", ctx, int64(10)).Return(presented, nil).Once()
		mockEngine.On("Verify", ctx, presented, int64(42), "r0-secret").Return(nil).Once()
		mockEngine.On("Mint", ctx, int64(42), tokenDomain.TokenKindRefresh).
			Return(refreshToken(11, 42), "r1-secret", nil).Once()
		mockEngine.On("Mint", ctx, int64(42), tokenDomain.TokenKindAccess).
			Return(accessToken(21, 42), "a1-secret", nil).Once()
		mockEngine.On("Invalidate", ctx, presented).Return(nil).Once()
		mockEngine.On("DeleteAccess", ctx, int64(20)).Return(nil).Once()
		mockRepo.On("SwapTokens", ctx, session, int64(10)).
			Return(domain.ErrSessionConflict).Once()

		uc := NewSessionUseCase(&mockIDGenerator{}, mockRepo, mockEngine, testLogger())
		_, _, err := uc.IssueRefreshToken(ctx, session, "10.r0-secret")

		assert.ErrorIs(t, err, domain.ErrSessionConflict)
	})
}

func TestSessionUseCase_InvalidateSession(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes both tokens and persists terminal state", func(t *testing.T) {
		mockRepo := &mockSessionRepository{}
		mockEngine := &mockTokenEngine{}

		refreshID, accessID := int64(10), int64(20)
		session := &domain.Session{ID: 500, UserID: 42, RefreshTokenID: &refreshID, AccessTokenID: &accessID}

		mockEngine.On("DeleteRefresh", ctx, int64(10)).Return(nil).Once()
		mockEngine.On("DeleteAccess", ctx, int64(20)).Return(nil).Once()
		mockRepo.On("Update", ctx, session).Return(nil).Once()

		uc := NewSessionUseCase(&mockIDGenerator{}, mockRepo, mockEngine, testLogger())
		require.NoError(t, uc.InvalidateSession(ctx, session))
		assert.True(t, session.Invalidated())
	})

	t.Run("token delete failures do not leave the session half-revoked", func(t *testing.T) {
		mockRepo := &mockSessionRepository{}
		mockEngine := &mockTokenEngine{}

		refreshID, accessID := int64(10), int64(20)
		session := &domain.Session{ID: 500, UserID: 42, RefreshTokenID: &refreshID, AccessTokenID: &accessID}

		mockEngine.On("DeleteRefresh", ctx, int64(10)).Return(assert.AnError).Once()
		mockEngine.On("DeleteAccess", ctx, int64(20)).Return(assert.AnError).Once()
		mockRepo.On("Update", ctx, session).Return(nil).Once()

		uc := NewSessionUseCase(&mockIDGenerator{}, mockRepo, mockEngine, testLogger())
		require.NoError(t, uc.InvalidateSession(ctx, session))
		assert.True(t, session.Invalidated())
	})

	t.Run("invalidating an invalidated session is a no-op success", func(t *testing.T) {
		mockRepo := &mockSessionRepository{}
		mockEngine := &mockTokenEngine{}

		session := &domain.Session{ID: 500, UserID: 42}
		mockRepo.On("Update", ctx, session).Return(nil).Once()

		uc := NewSessionUseCase(&mockIDGenerator{}, mockRepo, mockEngine, testLogger())
		require.NoError(t, uc.InvalidateSession(ctx, session))
		mockEngine.AssertNotCalled(t, "DeleteRefresh", mock.Anything, mock.Anything)
		mockEngine.AssertNotCalled(t, "DeleteAccess", mock.Anything, mock.Anything)
	})
}

func TestSessionUseCase_InvalidateAccessToken(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes the access token and keeps the refresh lineage", func(t *testing.T) {
		mockRepo := &mockSessionRepository{}
		mockEngine := &mockTokenEngine{}

		refreshID, accessID := int64(10), int64(20)
		session := &domain.Session{ID: 500, UserID: 42, RefreshTokenID: &refreshID, AccessTokenID: &accessID}

		mockEngine.On("DeleteAccess", ctx, int64(20)).Return(nil).Once()
		mockRepo.On("Update", ctx, session).Return(nil).Once()

		uc := NewSessionUseCase(&mockIDGenerator{}, mockRepo, mockEngine, testLogger())
		require.NoError(t, uc.InvalidateAccessToken(ctx, session))
		assert.Nil(t, session.AccessTokenID)
		require.NotNil(t, session.RefreshTokenID)
		assert.Equal(t, int64(10), *session.RefreshTokenID)
	})

	t.Run("failed delete keeps the pointer so revocation can be retried", func(t *testing.T) {
		mockRepo := &mockSessionRepository{}
		mockEngine := &mockTokenEngine{}

		accessID := int64(20)
		session := &domain.Session{ID: 500, UserID: 42, AccessTokenID: &accessID}

		mockEngine.On("DeleteAccess", ctx, int64(20)).Return(assert.AnError).Once()

		uc := NewSessionUseCase(&mockIDGenerator{}, mockRepo, mockEngine, testLogger())
		err := uc.InvalidateAccessToken(ctx, session)

		assert.ErrorIs(t, err, assert.AnError)
		assert.NotNil(t, session.AccessTokenID)
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("no access token is a no-op", func(t *testing.T) {
		session := &domain.Session{ID: 500, UserID: 42}

		uc := NewSessionUseCase(&mockIDGenerator{}, &mockSessionRepository{}, &mockTokenEngine{}, testLogger())
		assert.NoError(t, uc.InvalidateAccessToken(ctx, session))
	})
}
