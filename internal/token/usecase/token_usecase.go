package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	"github.com/allisson/authkit/internal/config"
	apperrors "github.com/allisson/authkit/internal/errors"
	"github.com/allisson/authkit/internal/idgen"
	"github.com/allisson/authkit/internal/token/domain"
	tokenService "github.com/allisson/authkit/internal/token/service"
)

// tokenUseCase implements UseCase for managing auth tokens.
type tokenUseCase struct {
	config        *config.Config
	idGenerator   idgen.Generator
	tokenRepo     TokenRepository
	secretService tokenService.SecretService
	tokenService  tokenService.TokenService
	logger        *slog.Logger
}

// Mint issues a new token for the user.
//
// For refresh tokens: a random secret is generated, hashed with Argon2id and
// the hash persisted; the raw secret is returned to the caller and never
// stored. For access tokens: a random bearer string is generated, persisted
// as-is and returned.
//
// The expiry timestamp is computed with calendar-correct minute addition; a
// result landing in a nonexistent local time fails the mint closed with
// ErrDateTime. Generation or hashing failures fail closed with
// ErrTokenCreate. No token is ever issued with an undefined expiry.
func (t *tokenUseCase) Mint(
	ctx context.Context,
	userID int64,
	kind domain.TokenKind,
) (*domain.AuthToken, string, error) {
	id, err := t.idGenerator.Int64()
	if err != nil {
		return nil, "", apperrors.Wrap(domain.ErrTokenCreate, err.Error())
	}

	now := time.Now().UTC()

	var (
		ttlMinutes int
		stored     string
		secret     string
	)

	switch kind {
	case domain.TokenKindRefresh:
		ttlMinutes = t.config.RefreshTokenTTLMinutes

		secret, err = t.secretService.GenerateSecret()
		if err != nil {
			return nil, "", apperrors.Wrap(domain.ErrTokenCreate, err.Error())
		}

		// Long-lived secret: only the salted hash is persisted.
		stored, err = t.secretService.HashSecret(secret)
		if err != nil {
			return nil, "", apperrors.Wrap(domain.ErrTokenCreate, err.Error())
		}
	case domain.TokenKindAccess:
		ttlMinutes = t.config.AccessTokenTTLMinutes

		// Short-lived bearer string: stored as-is so verification is a
		// cheap string comparison.
		secret, err = t.tokenService.GenerateToken()
		if err != nil {
			return nil, "", apperrors.Wrap(domain.ErrTokenCreate, err.Error())
		}
		stored = secret
	default:
		return nil, "", apperrors.Wrapf(domain.ErrTokenCreate, "unknown token kind %q", kind)
	}

	expiresAt, err := tokenService.TokenExpiry(now, ttlMinutes)
	if err != nil {
		return nil, "", err
	}

	token := &domain.AuthToken{
		ID:         id,
		UserID:     userID,
		Kind:       kind,
		SecretHash: stored,
		ExpiresAt:  expiresAt,
		Valid:      true,
		CreatedAt:  now,
	}

	if err := t.tokenRepo.Create(ctx, token); err != nil {
		return nil, "", err
	}

	return token, secret, nil
}

// Verify checks a presented secret against a token record.
func (t *tokenUseCase) Verify(
	ctx context.Context,
	token *domain.AuthToken,
	userID int64,
	presentedSecret string,
) error {
	if token.UserID != userID {
		return domain.ErrNotAuthorized
	}
	if !token.Valid {
		return domain.ErrTokenInvalid
	}

	now := time.Now().UTC()

	switch token.Kind {
	case domain.TokenKindAccess:
		if subtle.ConstantTimeCompare([]byte(token.SecretHash), []byte(presentedSecret)) != 1 {
			return domain.ErrNotAuthorized
		}
		if token.IsExpired(now) {
			// Opportunistic cleanup; a periodic sweep reclaims the row if
			// this delete fails.
			if err := t.tokenRepo.DeleteAccess(ctx, token.ID); err != nil {
				t.logger.Warn("failed to delete expired access token",
					slog.Int64("token_id", token.ID),
					slog.Any("error", err),
				)
			}
			return domain.ErrTokenExpired
		}
		return nil
	case domain.TokenKindRefresh:
		if token.IsExpired(now) {
			return domain.ErrTokenExpired
		}
		return t.secretService.VerifySecret(presentedSecret, token.SecretHash)
	default:
		// A kind we never mint can only come from corrupted storage.
		return domain.ErrInvalidHashFormat
	}
}

// VerifyAccess fetches an access token by ID and verifies it.
func (t *tokenUseCase) VerifyAccess(ctx context.Context, tokenID, userID int64, presentedSecret string) error {
	token, err := t.tokenRepo.GetAccess(ctx, tokenID)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return domain.ErrNotAuthorized
		}
		return err
	}
	return t.Verify(ctx, token, userID, presentedSecret)
}

// VerifyRefresh fetches a refresh token by ID and verifies it.
func (t *tokenUseCase) VerifyRefresh(ctx context.Context, tokenID, userID int64, presentedSecret string) error {
	token, err := t.tokenRepo.GetRefresh(ctx, tokenID)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return domain.ErrNotAuthorized
		}
		return err
	}
	return t.Verify(ctx, token, userID, presentedSecret)
}

// GetRefresh fetches a refresh token by ID.
func (t *tokenUseCase) GetRefresh(ctx context.Context, tokenID int64) (*domain.AuthToken, error) {
	return t.tokenRepo.GetRefresh(ctx, tokenID)
}

// GetAccess fetches an access token by ID.
func (t *tokenUseCase) GetAccess(ctx context.Context, tokenID int64) (*domain.AuthToken, error) {
	return t.tokenRepo.GetAccess(ctx, tokenID)
}

// Invalidate soft-revokes a token and persists the update.
func (t *tokenUseCase) Invalidate(ctx context.Context, token *domain.AuthToken) error {
	token.Valid = false
	return t.tokenRepo.Update(ctx, token)
}

// DeleteAccess hard-removes an access token.
func (t *tokenUseCase) DeleteAccess(ctx context.Context, tokenID int64) error {
	return t.tokenRepo.DeleteAccess(ctx, tokenID)
}

// DeleteRefresh hard-removes a refresh token.
func (t *tokenUseCase) DeleteRefresh(ctx context.Context, tokenID int64) error {
	return t.tokenRepo.DeleteRefresh(ctx, tokenID)
}

// CleanupExpired deletes tokens that expired more than the specified number
// of days ago. Returns the number of deleted tokens. Use dryRun=true to
// preview the count without deletion.
func (t *tokenUseCase) CleanupExpired(ctx context.Context, days int, dryRun bool) (int64, error) {
	if days < 0 {
		return 0, apperrors.New("days must be non-negative")
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	if dryRun {
		return t.tokenRepo.CountExpired(ctx, cutoff)
	}
	return t.tokenRepo.DeleteExpired(ctx, cutoff)
}

// NewTokenUseCase creates a new token engine with the provided dependencies.
func NewTokenUseCase(
	cfg *config.Config,
	idGenerator idgen.Generator,
	tokenRepo TokenRepository,
	secretService tokenService.SecretService,
	tokenSvc tokenService.TokenService,
	logger *slog.Logger,
) UseCase {
	return &tokenUseCase{
		config:        cfg,
		idGenerator:   idGenerator,
		tokenRepo:     tokenRepo,
		secretService: secretService,
		tokenService:  tokenSvc,
		logger:        logger,
	}
}
