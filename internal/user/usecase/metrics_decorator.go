package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/allisson/authkit/internal/metrics"
	sessionDomain "github.com/allisson/authkit/internal/session/domain"
	"github.com/allisson/authkit/internal/user/domain"
)

// userUseCaseWithMetrics decorates UseCase with metrics instrumentation.
type userUseCaseWithMetrics struct {
	next    UseCase
	metrics metrics.BusinessMetrics
}

// NewUserUseCaseWithMetrics wraps a user UseCase with metrics recording.
func NewUserUseCaseWithMetrics(useCase UseCase, m metrics.BusinessMetrics) UseCase {
	return &userUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (u *userUseCaseWithMetrics) record(ctx context.Context, operation, status string, start time.Time) {
	u.metrics.RecordOperation(ctx, "user", operation, status)
	u.metrics.RecordDuration(ctx, "user", operation, time.Since(start), status)
}

func (u *userUseCaseWithMetrics) status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// Register records metrics for registration operations.
func (u *userUseCaseWithMetrics) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	start := time.Now()
	user, err := u.next.Register(ctx, input)
	u.record(ctx, "register", u.status(err), start)
	return user, err
}

// Login records metrics for login operations. A refused banned account is
// reported with its own status so operators can alert on it separately from
// bad credentials.
func (u *userUseCaseWithMetrics) Login(
	ctx context.Context,
	user *domain.User,
	password string,
) (*sessionDomain.Session, string, string, error) {
	start := time.Now()
	session, refreshCredential, accessSecret, err := u.next.Login(ctx, user, password)

	status := u.status(err)
	if errors.Is(err, domain.ErrUserBanned) {
		status = "banned"
	}
	u.record(ctx, "login", status, start)

	return session, refreshCredential, accessSecret, err
}

// Logout records metrics for logout operations.
func (u *userUseCaseWithMetrics) Logout(ctx context.Context, user *domain.User, refreshCredential string) error {
	start := time.Now()
	err := u.next.Logout(ctx, user, refreshCredential)
	u.record(ctx, "logout", u.status(err), start)
	return err
}

// ChangePassword records metrics for password change operations.
func (u *userUseCaseWithMetrics) ChangePassword(
	ctx context.Context,
	user *domain.User,
	currentPassword, newPassword string,
) error {
	start := time.Now()
	err := u.next.ChangePassword(ctx, user, currentPassword, newPassword)
	u.record(ctx, "change_password", u.status(err), start)
	return err
}

// Get records metrics for user retrieval operations.
func (u *userUseCaseWithMetrics) Get(ctx context.Context, userID int64) (*domain.User, error) {
	start := time.Now()
	user, err := u.next.Get(ctx, userID)
	u.record(ctx, "get", u.status(err), start)
	return user, err
}

// GetByUsername records metrics for user retrieval operations.
func (u *userUseCaseWithMetrics) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	start := time.Now()
	user, err := u.next.GetByUsername(ctx, username)
	u.record(ctx, "get_by_username", u.status(err), start)
	return user, err
}

// Delete records metrics for user deletion operations.
func (u *userUseCaseWithMetrics) Delete(ctx context.Context, userID int64) error {
	start := time.Now()
	err := u.next.Delete(ctx, userID)
	u.record(ctx, "delete", u.status(err), start)
	return err
}

// Ban records metrics for ban operations.
func (u *userUseCaseWithMetrics) Ban(ctx context.Context, user *domain.User) error {
	start := time.Now()
	err := u.next.Ban(ctx, user)
	u.record(ctx, "ban", u.status(err), start)
	return err
}

// Unban records metrics for unban operations.
func (u *userUseCaseWithMetrics) Unban(ctx context.Context, user *domain.User) error {
	start := time.Now()
	err := u.next.Unban(ctx, user)
	u.record(ctx, "unban", u.status(err), start)
	return err
}

// AddGroup records metrics for group addition operations.
func (u *userUseCaseWithMetrics) AddGroup(ctx context.Context, user *domain.User, group string) error {
	start := time.Now()
	err := u.next.AddGroup(ctx, user, group)
	u.record(ctx, "add_group", u.status(err), start)
	return err
}

// RemoveGroup records metrics for group removal operations.
func (u *userUseCaseWithMetrics) RemoveGroup(ctx context.Context, user *domain.User, group string) error {
	start := time.Now()
	err := u.next.RemoveGroup(ctx, user, group)
	u.record(ctx, "remove_group", u.status(err), start)
	return err
}
