package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/allisson/authkit/internal/idgen"
	"github.com/allisson/authkit/internal/session/domain"
	tokenDomain "github.com/allisson/authkit/internal/token/domain"
	tokenUsecase "github.com/allisson/authkit/internal/token/usecase"
)

// sessionUseCase implements UseCase by composing the identifier generator and
// the token engine over the session harness.
type sessionUseCase struct {
	idGenerator idgen.Generator
	sessionRepo SessionRepository
	tokenEngine tokenUsecase.UseCase
	logger      *slog.Logger
}

// CreateSession mints one refresh and one access token and persists a session
// referencing both.
func (s *sessionUseCase) CreateSession(
	ctx context.Context,
	userID int64,
) (*domain.Session, string, string, error) {
	sessionID, err := s.idGenerator.Int64()
	if err != nil {
		return nil, "", "", err
	}

	refreshToken, refreshSecret, err := s.tokenEngine.Mint(ctx, userID, tokenDomain.TokenKindRefresh)
	if err != nil {
		return nil, "", "", err
	}

	accessToken, accessSecret, err := s.tokenEngine.Mint(ctx, userID, tokenDomain.TokenKindAccess)
	if err != nil {
		return nil, "", "", err
	}

	session := &domain.Session{
		ID:             sessionID,
		UserID:         userID,
		RefreshTokenID: &refreshToken.ID,
		AccessTokenID:  &accessToken.ID,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, "", "", err
	}

	return session, domain.EncodeRefreshCredential(refreshToken.ID, refreshSecret), accessSecret, nil
}

// GetSession fetches a session by ID.
func (s *sessionUseCase) GetSession(ctx context.Context, sessionID int64) (*domain.Session, error) {
	return s.sessionRepo.Get(ctx, sessionID)
}

// IssueAccessToken replaces the session's access token.
func (s *sessionUseCase) IssueAccessToken(ctx context.Context, session *domain.Session) (string, error) {
	// The old token must not remain independently valid after rotation, so
	// it is removed before the new one exists.
	if session.AccessTokenID != nil {
		if err := s.tokenEngine.DeleteAccess(ctx, *session.AccessTokenID); err != nil {
			return "", err
		}
		session.AccessTokenID = nil
	}

	accessToken, accessSecret, err := s.tokenEngine.Mint(ctx, session.UserID, tokenDomain.TokenKindAccess)
	if err != nil {
		return "", err
	}

	session.AccessTokenID = &accessToken.ID
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return "", err
	}

	return accessSecret, nil
}

// IssueRefreshToken rotates the session's refresh lineage.
func (s *sessionUseCase) IssueRefreshToken(
	ctx context.Context,
	session *domain.Session,
	refreshCredential string,
) (string, string, error) {
	// No lineage to rotate.
	if session.RefreshTokenID == nil {
		return "", "", tokenDomain.ErrNotAuthorized
	}

	presentedID, presentedSecret, err := domain.DecodeRefreshCredential(refreshCredential)
	if err != nil {
		return "", "", tokenDomain.ErrNotAuthorized
	}

	presented, err := s.tokenEngine.GetRefresh(ctx, presentedID)
	if err != nil {
		if errors.Is(err, tokenDomain.ErrTokenNotFound) {
			return "", "", tokenDomain.ErrNotAuthorized
		}
		return "", "", err
	}

	if err := s.tokenEngine.Verify(ctx, presented, session.UserID, presentedSecret); err != nil {
		// A superseded (soft-revoked) or expired refresh token coming back
		// is the replay/theft signal: destroy the whole session, not just
		// the token, before reporting the failure.
		if errors.Is(err, tokenDomain.ErrTokenExpired) || errors.Is(err, tokenDomain.ErrTokenInvalid) {
			s.logger.Warn("refresh token replay detected, invalidating session",
				slog.Int64("session_id", session.ID),
				slog.Int64("user_id", session.UserID),
				slog.Int64("token_id", presentedID),
			)
			if invErr := s.InvalidateSession(ctx, session); invErr != nil {
				return "", "", invErr
			}
			return "", "", tokenDomain.ErrNotAuthorized
		}
		// Anything else may be a transient harness failure, not a security
		// event: propagate without invalidating.
		return "", "", err
	}

	// A token that verifies but is not the session's current lineage is an
	// orphan from a lost rotation race; it grants nothing.
	previousRefreshTokenID := *session.RefreshTokenID
	if presentedID != previousRefreshTokenID {
		return "", "", tokenDomain.ErrNotAuthorized
	}
	previousAccessTokenID := session.AccessTokenID

	newRefreshToken, newRefreshSecret, err := s.tokenEngine.Mint(ctx, session.UserID, tokenDomain.TokenKindRefresh)
	if err != nil {
		return "", "", err
	}
	newAccessToken, newAccessSecret, err := s.tokenEngine.Mint(ctx, session.UserID, tokenDomain.TokenKindAccess)
	if err != nil {
		return "", "", err
	}

	// Soft-revoke the old refresh token but keep its row: a second
	// presentation must trip the theft detector above.
	if err := s.tokenEngine.Invalidate(ctx, presented); err != nil {
		return "", "", err
	}

	// The old access token is replaced wholesale; cleanup is best-effort.
	if previousAccessTokenID != nil {
		if err := s.tokenEngine.DeleteAccess(ctx, *previousAccessTokenID); err != nil {
			s.logger.Warn("failed to delete superseded access token",
				slog.Int64("token_id", *previousAccessTokenID),
				slog.Any("error", err),
			)
		}
	}

	session.RefreshTokenID = &newRefreshToken.ID
	session.AccessTokenID = &newAccessToken.ID
	if err := s.sessionRepo.SwapTokens(ctx, session, previousRefreshTokenID); err != nil {
		return "", "", err
	}

	return domain.EncodeRefreshCredential(newRefreshToken.ID, newRefreshSecret), newAccessSecret, nil
}

// InvalidateSession moves the session to its terminal state.
func (s *sessionUseCase) InvalidateSession(ctx context.Context, session *domain.Session) error {
	// Token deletion is best-effort: the session must not stay half-revoked
	// because of a storage hiccup on one token.
	if session.RefreshTokenID != nil {
		if err := s.tokenEngine.DeleteRefresh(ctx, *session.RefreshTokenID); err != nil {
			s.logger.Warn("failed to delete refresh token during session invalidation",
				slog.Int64("token_id", *session.RefreshTokenID),
				slog.Any("error", err),
			)
		}
	}
	if session.AccessTokenID != nil {
		if err := s.tokenEngine.DeleteAccess(ctx, *session.AccessTokenID); err != nil {
			s.logger.Warn("failed to delete access token during session invalidation",
				slog.Int64("token_id", *session.AccessTokenID),
				slog.Any("error", err),
			)
		}
	}

	session.RefreshTokenID = nil
	session.AccessTokenID = nil
	return s.sessionRepo.Update(ctx, session)
}

// InvalidateAccessToken revokes only the access token.
func (s *sessionUseCase) InvalidateAccessToken(ctx context.Context, session *domain.Session) error {
	if session.AccessTokenID == nil {
		return nil
	}

	// Unlike full invalidation this delete is not best-effort: clearing the
	// pointer while the row survives would leave a live bearer token behind.
	if err := s.tokenEngine.DeleteAccess(ctx, *session.AccessTokenID); err != nil {
		return err
	}

	session.AccessTokenID = nil
	return s.sessionRepo.Update(ctx, session)
}

// DeleteSession removes the session row.
func (s *sessionUseCase) DeleteSession(ctx context.Context, sessionID int64) error {
	return s.sessionRepo.Delete(ctx, sessionID)
}

// NewSessionUseCase creates a new session engine with the provided dependencies.
func NewSessionUseCase(
	idGenerator idgen.Generator,
	sessionRepo SessionRepository,
	tokenEngine tokenUsecase.UseCase,
	logger *slog.Logger,
) UseCase {
	return &sessionUseCase{
		idGenerator: idGenerator,
		sessionRepo: sessionRepo,
		tokenEngine: tokenEngine,
		logger:      logger,
	}
}
