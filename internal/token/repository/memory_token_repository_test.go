package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/authkit/internal/token/domain"
)

func TestMemoryTokenRepository(t *testing.T) {
	ctx := context.Background()

	newToken := func(id int64, kind domain.TokenKind) *domain.AuthToken {
		return &domain.AuthToken{
			ID:         id,
			UserID:     42,
			Kind:       kind,
			SecretHash: "hash",
			ExpiresAt:  time.Now().UTC().Add(time.Hour),
			Valid:      true,
			CreatedAt:  time.Now().UTC(),
		}
	}

	t.Run("create and get round-trip", func(t *testing.T) {
		repo := NewMemoryTokenRepository()
		token := newToken(10, domain.TokenKindRefresh)

		require.NoError(t, repo.Create(ctx, token))

		got, err := repo.GetRefresh(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, token, got)
	})

	t.Run("kind mismatch is not found", func(t *testing.T) {
		repo := NewMemoryTokenRepository()
		require.NoError(t, repo.Create(ctx, newToken(10, domain.TokenKindRefresh)))

		_, err := repo.GetAccess(ctx, 10)
		assert.ErrorIs(t, err, domain.ErrTokenNotFound)
	})

	t.Run("update flips only the valid flag", func(t *testing.T) {
		repo := NewMemoryTokenRepository()
		token := newToken(10, domain.TokenKindRefresh)
		require.NoError(t, repo.Create(ctx, token))

		token.Valid = false
		token.SecretHash = "tampered"
		require.NoError(t, repo.Update(ctx, token))

		got, err := repo.GetRefresh(ctx, 10)
		require.NoError(t, err)
		assert.False(t, got.Valid)
		assert.Equal(t, "hash", got.SecretHash)
	})

	t.Run("update of a missing token fails", func(t *testing.T) {
		repo := NewMemoryTokenRepository()

		err := repo.Update(ctx, newToken(99, domain.TokenKindRefresh))
		assert.ErrorIs(t, err, domain.ErrTokenNotFound)
	})

	t.Run("delete honors the kind", func(t *testing.T) {
		repo := NewMemoryTokenRepository()
		require.NoError(t, repo.Create(ctx, newToken(10, domain.TokenKindRefresh)))

		// Wrong-kind delete leaves the row alone.
		require.NoError(t, repo.DeleteAccess(ctx, 10))
		_, err := repo.GetRefresh(ctx, 10)
		require.NoError(t, err)

		require.NoError(t, repo.DeleteRefresh(ctx, 10))
		_, err = repo.GetRefresh(ctx, 10)
		assert.ErrorIs(t, err, domain.ErrTokenNotFound)
	})

	t.Run("stored copy is isolated from the caller", func(t *testing.T) {
		repo := NewMemoryTokenRepository()
		token := newToken(10, domain.TokenKindRefresh)
		require.NoError(t, repo.Create(ctx, token))

		token.SecretHash = "mutated-after-create"

		got, err := repo.GetRefresh(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, "hash", got.SecretHash)
	})
}

func TestMemoryTokenRepository_CleanupExpired(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTokenRepository()

	old := &domain.AuthToken{
		ID:         1,
		UserID:     42,
		Kind:       domain.TokenKindRefresh,
		SecretHash: "hash",
		ExpiresAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Valid:      true,
	}
	live := &domain.AuthToken{
		ID:         2,
		UserID:     42,
		Kind:       domain.TokenKindAccess,
		SecretHash: "bearer",
		ExpiresAt:  time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		Valid:      true,
	}
	require.NoError(t, repo.Create(ctx, old))
	require.NoError(t, repo.Create(ctx, live))

	cutoff := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	count, err := repo.CountExpired(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = repo.DeleteExpired(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = repo.GetRefresh(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
	_, err = repo.GetAccess(ctx, 2)
	assert.NoError(t, err)

	_, err = repo.DeleteExpired(ctx, time.Time{})
	assert.Error(t, err)
}
