package usecase

import (
	"context"
	"time"

	"github.com/allisson/authkit/internal/metrics"
	"github.com/allisson/authkit/internal/token/domain"
)

// tokenUseCaseWithMetrics decorates UseCase with metrics instrumentation.
type tokenUseCaseWithMetrics struct {
	next    UseCase
	metrics metrics.BusinessMetrics
}

// NewTokenUseCaseWithMetrics wraps a token UseCase with metrics recording.
func NewTokenUseCaseWithMetrics(useCase UseCase, m metrics.BusinessMetrics) UseCase {
	return &tokenUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (t *tokenUseCaseWithMetrics) record(ctx context.Context, operation, status string, start time.Time) {
	t.metrics.RecordOperation(ctx, "token", operation, status)
	t.metrics.RecordDuration(ctx, "token", operation, time.Since(start), status)
}

func (t *tokenUseCaseWithMetrics) status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// Mint records metrics for token minting operations.
func (t *tokenUseCaseWithMetrics) Mint(
	ctx context.Context,
	userID int64,
	kind domain.TokenKind,
) (*domain.AuthToken, string, error) {
	start := time.Now()
	token, secret, err := t.next.Mint(ctx, userID, kind)
	t.record(ctx, "token_mint", t.status(err), start)
	return token, secret, err
}

// Verify records metrics for token verification operations.
func (t *tokenUseCaseWithMetrics) Verify(
	ctx context.Context,
	token *domain.AuthToken,
	userID int64,
	presentedSecret string,
) error {
	start := time.Now()
	err := t.next.Verify(ctx, token, userID, presentedSecret)
	t.record(ctx, "token_verify", t.status(err), start)
	return err
}

// VerifyAccess records metrics for access token verification operations.
func (t *tokenUseCaseWithMetrics) VerifyAccess(ctx context.Context, tokenID, userID int64, presentedSecret string) error {
	start := time.Now()
	err := t.next.VerifyAccess(ctx, tokenID, userID, presentedSecret)
	t.record(ctx, "access_token_verify", t.status(err), start)
	return err
}

// VerifyRefresh records metrics for refresh token verification operations.
func (t *tokenUseCaseWithMetrics) VerifyRefresh(ctx context.Context, tokenID, userID int64, presentedSecret string) error {
	start := time.Now()
	err := t.next.VerifyRefresh(ctx, tokenID, userID, presentedSecret)
	t.record(ctx, "refresh_token_verify", t.status(err), start)
	return err
}

// GetRefresh records metrics for refresh token retrieval operations.
func (t *tokenUseCaseWithMetrics) GetRefresh(ctx context.Context, tokenID int64) (*domain.AuthToken, error) {
	start := time.Now()
	token, err := t.next.GetRefresh(ctx, tokenID)
	t.record(ctx, "refresh_token_get", t.status(err), start)
	return token, err
}

// GetAccess records metrics for access token retrieval operations.
func (t *tokenUseCaseWithMetrics) GetAccess(ctx context.Context, tokenID int64) (*domain.AuthToken, error) {
	start := time.Now()
	token, err := t.next.GetAccess(ctx, tokenID)
	t.record(ctx, "access_token_get", t.status(err), start)
	return token, err
}

// Invalidate records metrics for soft revocation operations.
func (t *tokenUseCaseWithMetrics) Invalidate(ctx context.Context, token *domain.AuthToken) error {
	start := time.Now()
	err := t.next.Invalidate(ctx, token)
	t.record(ctx, "token_invalidate", t.status(err), start)
	return err
}

// DeleteAccess records metrics for access token deletion operations.
func (t *tokenUseCaseWithMetrics) DeleteAccess(ctx context.Context, tokenID int64) error {
	start := time.Now()
	err := t.next.DeleteAccess(ctx, tokenID)
	t.record(ctx, "access_token_delete", t.status(err), start)
	return err
}

// CleanupExpired records metrics for expired token sweep operations.
func (t *tokenUseCaseWithMetrics) CleanupExpired(ctx context.Context, days int, dryRun bool) (int64, error) {
	start := time.Now()
	count, err := t.next.CleanupExpired(ctx, days, dryRun)
	t.record(ctx, "expired_token_cleanup", t.status(err), start)
	return count, err
}

// DeleteRefresh records metrics for refresh token deletion operations.
func (t *tokenUseCaseWithMetrics) DeleteRefresh(ctx context.Context, tokenID int64) error {
	start := time.Now()
	err := t.next.DeleteRefresh(ctx, tokenID)
	t.record(ctx, "refresh_token_delete", t.status(err), start)
	return err
}
