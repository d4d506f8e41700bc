package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/allisson/authkit/internal/metrics"
	"github.com/allisson/authkit/internal/session/domain"
	tokenDomain "github.com/allisson/authkit/internal/token/domain"
)

// sessionUseCaseWithMetrics decorates UseCase with metrics instrumentation.
type sessionUseCaseWithMetrics struct {
	next    UseCase
	metrics metrics.BusinessMetrics
}

// NewSessionUseCaseWithMetrics wraps a session UseCase with metrics recording.
func NewSessionUseCaseWithMetrics(useCase UseCase, m metrics.BusinessMetrics) UseCase {
	return &sessionUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (s *sessionUseCaseWithMetrics) record(ctx context.Context, operation, status string, start time.Time) {
	s.metrics.RecordOperation(ctx, "session", operation, status)
	s.metrics.RecordDuration(ctx, "session", operation, time.Since(start), status)
}

// CreateSession records metrics for session creation operations.
func (s *sessionUseCaseWithMetrics) CreateSession(
	ctx context.Context,
	userID int64,
) (*domain.Session, string, string, error) {
	start := time.Now()
	session, refreshCredential, accessSecret, err := s.next.CreateSession(ctx, userID)

	status := "success"
	if err != nil {
		status = "error"
	}
	s.record(ctx, "session_create", status, start)

	return session, refreshCredential, accessSecret, err
}

// GetSession records metrics for session retrieval operations.
func (s *sessionUseCaseWithMetrics) GetSession(ctx context.Context, sessionID int64) (*domain.Session, error) {
	start := time.Now()
	session, err := s.next.GetSession(ctx, sessionID)

	status := "success"
	if err != nil {
		status = "error"
	}
	s.record(ctx, "session_get", status, start)

	return session, err
}

// IssueAccessToken records metrics for access token rotation operations.
func (s *sessionUseCaseWithMetrics) IssueAccessToken(
	ctx context.Context,
	session *domain.Session,
) (string, error) {
	start := time.Now()
	accessSecret, err := s.next.IssueAccessToken(ctx, session)

	status := "success"
	if err != nil {
		status = "error"
	}
	s.record(ctx, "access_token_issue", status, start)

	return accessSecret, err
}

// IssueRefreshToken records metrics for refresh rotation operations. A
// rotation that ended with the session cascaded to Invalidated is recorded
// with a distinct status so theft detections can be alerted on.
func (s *sessionUseCaseWithMetrics) IssueRefreshToken(
	ctx context.Context,
	session *domain.Session,
	refreshCredential string,
) (string, string, error) {
	start := time.Now()
	refreshCred, accessSecret, err := s.next.IssueRefreshToken(ctx, session, refreshCredential)

	status := "success"
	switch {
	case err == nil:
	case errors.Is(err, tokenDomain.ErrNotAuthorized) && session.Invalidated():
		status = "theft_detected"
	default:
		status = "error"
	}
	s.record(ctx, "refresh_token_issue", status, start)

	return refreshCred, accessSecret, err
}

// InvalidateSession records metrics for full session invalidation operations.
func (s *sessionUseCaseWithMetrics) InvalidateSession(ctx context.Context, session *domain.Session) error {
	start := time.Now()
	err := s.next.InvalidateSession(ctx, session)

	status := "success"
	if err != nil {
		status = "error"
	}
	s.record(ctx, "session_invalidate", status, start)

	return err
}

// InvalidateAccessToken records metrics for targeted access revocations.
func (s *sessionUseCaseWithMetrics) InvalidateAccessToken(ctx context.Context, session *domain.Session) error {
	start := time.Now()
	err := s.next.InvalidateAccessToken(ctx, session)

	status := "success"
	if err != nil {
		status = "error"
	}
	s.record(ctx, "access_token_invalidate", status, start)

	return err
}

// DeleteSession records metrics for session deletion operations.
func (s *sessionUseCaseWithMetrics) DeleteSession(ctx context.Context, sessionID int64) error {
	start := time.Now()
	err := s.next.DeleteSession(ctx, sessionID)

	status := "success"
	if err != nil {
		status = "error"
	}
	s.record(ctx, "session_delete", status, start)

	return err
}
