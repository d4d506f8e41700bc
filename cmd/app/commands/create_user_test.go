package commands

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	userDomain "github.com/allisson/authkit/internal/user/domain"
	userUsecase "github.com/allisson/authkit/internal/user/usecase"
)

type mockUserRegistrar struct {
	mock.Mock
}

func (m *mockUserRegistrar) Register(ctx context.Context, input userUsecase.RegisterInput) (*userDomain.User, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userDomain.User), args.Error(1)
}

func TestRunCreateUser(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("text-output", func(t *testing.T) {
		registrar := &mockUserRegistrar{}
		registrar.On("Register", ctx, userUsecase.RegisterInput{
			Username: "alice",
			Password: "S3cure-pass!",
			Role:     "member",
		}).Return(&userDomain.User{ID: 42, Username: "alice", Role: "member"}, nil)

		var out bytes.Buffer
		err := RunCreateUser(ctx, registrar, logger, IOTuple{Writer: &out}, "alice", "S3cure-pass!", "member", "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "User created successfully")
		require.Contains(t, out.String(), "ID: 42")
		require.Contains(t, out.String(), "Username: alice")
		require.NotContains(t, out.String(), "S3cure-pass!")
		registrar.AssertExpectations(t)
	})

	t.Run("json-output", func(t *testing.T) {
		registrar := &mockUserRegistrar{}
		registrar.On("Register", ctx, mock.Anything).
			Return(&userDomain.User{ID: 42, Username: "alice"}, nil)

		var out bytes.Buffer
		err := RunCreateUser(ctx, registrar, logger, IOTuple{Writer: &out}, "alice", "S3cure-pass!", "", "json")

		require.NoError(t, err)
		require.Contains(t, out.String(), `"id": 42`)
		require.Contains(t, out.String(), `"username": "alice"`)
	})

	t.Run("prompts-for-missing-password", func(t *testing.T) {
		registrar := &mockUserRegistrar{}
		registrar.On("Register", ctx, userUsecase.RegisterInput{
			Username: "alice",
			Password: "typed-at-prompt",
		}).Return(&userDomain.User{ID: 42, Username: "alice"}, nil)

		var out bytes.Buffer
		io := IOTuple{Reader: strings.NewReader("typed-at-prompt\n"), Writer: &out}
		err := RunCreateUser(ctx, registrar, logger, io, "alice", "", "", "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "Enter password: ")
		registrar.AssertExpectations(t)
	})

	t.Run("empty-prompted-password", func(t *testing.T) {
		registrar := &mockUserRegistrar{}

		var out bytes.Buffer
		io := IOTuple{Reader: strings.NewReader("\n"), Writer: &out}
		err := RunCreateUser(ctx, registrar, logger, io, "alice", "", "", "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "password cannot be empty")
		registrar.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	})

	t.Run("register-failure", func(t *testing.T) {
		registrar := &mockUserRegistrar{}
		registrar.On("Register", ctx, mock.Anything).
			Return(nil, userDomain.ErrUserAlreadyExists)

		var out bytes.Buffer
		err := RunCreateUser(ctx, registrar, logger, IOTuple{Writer: &out}, "alice", "S3cure-pass!", "", "text")

		require.Error(t, err)
		require.ErrorIs(t, err, userDomain.ErrUserAlreadyExists)
	})
}
