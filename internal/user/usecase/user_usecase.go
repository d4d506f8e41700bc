package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/authkit/internal/errors"
	"github.com/allisson/authkit/internal/idgen"
	sessionDomain "github.com/allisson/authkit/internal/session/domain"
	sessionUsecase "github.com/allisson/authkit/internal/session/usecase"
	tokenDomain "github.com/allisson/authkit/internal/token/domain"
	"github.com/allisson/authkit/internal/token/service"
	tokenUsecase "github.com/allisson/authkit/internal/token/usecase"
	"github.com/allisson/authkit/internal/user/domain"
	appValidation "github.com/allisson/authkit/internal/validation"
)

// userUseCase implements the user engine on top of the session and token
// engines.
type userUseCase struct {
	idGenerator    idgen.Generator
	userRepo       UserRepository
	sessionEngine  sessionUsecase.UseCase
	tokenEngine    tokenUsecase.UseCase
	passwordHasher service.SecretService
	logger         *slog.Logger
}

func passwordRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("password is required"),
		validation.Length(8, 128).Error("password must be between 8 and 128 characters"),
		appValidation.PasswordStrength{
			MinLength:      8,
			RequireUpper:   true,
			RequireLower:   true,
			RequireNumber:  true,
			RequireSpecial: true,
		},
	}
}

func (u *userUseCase) validateRegisterInput(input RegisterInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Username,
			validation.Required.Error("username is required"),
			appValidation.NotBlank,
			appValidation.Username,
			validation.Length(3, 64).Error("username must be between 3 and 64 characters"),
		),
		validation.Field(&input.Password, passwordRules()...),
		validation.Field(&input.Role,
			appValidation.NoWhitespace,
			validation.Length(0, 64).Error("role must be at most 64 characters"),
		),
		validation.Field(&input.PublicMeta, appValidation.JSON),
		validation.Field(&input.PrivateMeta, appValidation.JSON),
	)
	return appValidation.WrapValidationError(err)
}

// Register validates the input, hashes the password and persists the user.
func (u *userUseCase) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	if err := u.validateRegisterInput(input); err != nil {
		return nil, err
	}

	userID, err := u.idGenerator.Int64()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to generate user id")
	}

	secretHash, err := u.passwordHasher.HashSecret(input.Password)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to hash password")
	}

	user := &domain.User{
		ID:          userID,
		Username:    input.Username,
		SecretHash:  secretHash,
		Role:        input.Role,
		Groups:      domain.Groups{},
		PublicMeta:  input.PublicMeta,
		PrivateMeta: input.PrivateMeta,
	}

	if err := u.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login re-fetches the user, verifies the password and opens a new session.
// The re-fetch defends against stale in-memory copies: the banned flag and
// the stored hash are always read back before any credential check.
func (u *userUseCase) Login(
	ctx context.Context,
	user *domain.User,
	password string,
) (*sessionDomain.Session, string, string, error) {
	fresh, err := u.userRepo.Get(ctx, user.ID)
	if err != nil {
		return nil, "", "", err
	}

	if fresh.Banned {
		return nil, "", "", domain.ErrUserBanned
	}

	if err := u.passwordHasher.VerifySecret(password, fresh.SecretHash); err != nil {
		return nil, "", "", err
	}

	session, refreshCredential, accessSecret, err := u.sessionEngine.CreateSession(ctx, fresh.ID)
	if err != nil {
		return nil, "", "", err
	}

	fresh.SessionID = &session.ID
	if err := u.userRepo.Update(ctx, fresh); err != nil {
		return nil, "", "", err
	}
	user.SessionID = &session.ID

	return session, refreshCredential, accessSecret, nil
}

// Logout requires proof of possession of the refresh credential while the
// lineage is live, then fully invalidates the session. When the refresh
// lineage is already gone it proceeds without proof: an access token could
// still be live, and a repeated logout must stay an idempotent cleanup
// rather than an error.
func (u *userUseCase) Logout(ctx context.Context, user *domain.User, refreshCredential string) error {
	if user.SessionID == nil {
		return domain.ErrNoActiveSession
	}

	session, err := u.sessionEngine.GetSession(ctx, *user.SessionID)
	if err != nil {
		if errors.Is(err, sessionDomain.ErrSessionNotFound) {
			// Dangling back-reference; clear it.
			u.logger.Warn("user references a missing session",
				slog.Int64("user_id", user.ID),
				slog.Int64("session_id", *user.SessionID),
			)
			user.SessionID = nil
			return u.userRepo.Update(ctx, user)
		}
		return err
	}

	if session.RefreshTokenID != nil {
		tokenID, secret, err := sessionDomain.DecodeRefreshCredential(refreshCredential)
		if err != nil || tokenID != *session.RefreshTokenID {
			return tokenDomain.ErrNotAuthorized
		}
		if err := u.tokenEngine.VerifyRefresh(ctx, tokenID, session.UserID, secret); err != nil {
			return err
		}
	}

	if err := u.sessionEngine.InvalidateSession(ctx, session); err != nil {
		return err
	}

	user.SessionID = nil
	return u.userRepo.Update(ctx, user)
}

// ChangePassword verifies the current password and persists a fresh hash of
// the new one.
func (u *userUseCase) ChangePassword(
	ctx context.Context,
	user *domain.User,
	currentPassword, newPassword string,
) error {
	if err := appValidation.WrapValidationError(
		validation.Validate(newPassword, passwordRules()...),
	); err != nil {
		return err
	}

	fresh, err := u.userRepo.Get(ctx, user.ID)
	if err != nil {
		return err
	}

	if err := u.passwordHasher.VerifySecret(currentPassword, fresh.SecretHash); err != nil {
		return err
	}

	secretHash, err := u.passwordHasher.HashSecret(newPassword)
	if err != nil {
		return apperrors.Wrap(err, "failed to hash password")
	}

	fresh.SecretHash = secretHash
	if err := u.userRepo.Update(ctx, fresh); err != nil {
		return err
	}
	user.SecretHash = secretHash

	return nil
}

// Get retrieves a user by ID.
func (u *userUseCase) Get(ctx context.Context, userID int64) (*domain.User, error) {
	return u.userRepo.Get(ctx, userID)
}

// GetByUsername retrieves a user by username.
func (u *userUseCase) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return u.userRepo.GetByUsername(ctx, username)
}

// Delete removes a user.
func (u *userUseCase) Delete(ctx context.Context, userID int64) error {
	return u.userRepo.Delete(ctx, userID)
}

// Ban locks the account. Any live session is invalidated so already-issued
// tokens stop working immediately instead of at natural expiry.
func (u *userUseCase) Ban(ctx context.Context, user *domain.User) error {
	if user.SessionID != nil {
		session, err := u.sessionEngine.GetSession(ctx, *user.SessionID)
		switch {
		case err == nil:
			if err := u.sessionEngine.InvalidateSession(ctx, session); err != nil {
				return err
			}
		case errors.Is(err, sessionDomain.ErrSessionNotFound):
			// Nothing to invalidate.
		default:
			return err
		}
		user.SessionID = nil
	}

	user.Banned = true
	return u.userRepo.Update(ctx, user)
}

// Unban clears the banned flag. The user still has to log in again.
func (u *userUseCase) Unban(ctx context.Context, user *domain.User) error {
	user.Banned = false
	return u.userRepo.Update(ctx, user)
}

// AddGroup adds the user to a group.
func (u *userUseCase) AddGroup(ctx context.Context, user *domain.User, group string) error {
	if !user.Groups.Add(group) {
		return nil
	}
	return u.userRepo.Update(ctx, user)
}

// RemoveGroup removes the user from a group.
func (u *userUseCase) RemoveGroup(ctx context.Context, user *domain.User, group string) error {
	if !user.Groups.Remove(group) {
		return nil
	}
	return u.userRepo.Update(ctx, user)
}

// NewUserUseCase creates a new user engine instance.
func NewUserUseCase(
	idGenerator idgen.Generator,
	userRepo UserRepository,
	sessionEngine sessionUsecase.UseCase,
	tokenEngine tokenUsecase.UseCase,
	passwordHasher service.SecretService,
	logger *slog.Logger,
) UseCase {
	return &userUseCase{
		idGenerator:    idGenerator,
		userRepo:       userRepo,
		sessionEngine:  sessionEngine,
		tokenEngine:    tokenEngine,
		passwordHasher: passwordHasher,
		logger:         logger,
	}
}
