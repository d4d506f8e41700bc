package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	userDomain "github.com/allisson/authkit/internal/user/domain"
	userUsecase "github.com/allisson/authkit/internal/user/usecase"
)

// UserRegistrar creates new user accounts.
type UserRegistrar interface {
	Register(ctx context.Context, input userUsecase.RegisterInput) (*userDomain.User, error)
}

// RunCreateUser registers a new user account. When the password argument is
// empty the command prompts for it on the reader. Outputs the new account's
// ID and username in either text or JSON format; the password is never echoed
// back.
//
// Requirements: Database must be migrated and accessible.
func RunCreateUser(
	ctx context.Context,
	registrar UserRegistrar,
	logger *slog.Logger,
	io IOTuple,
	username string,
	password string,
	role string,
	format string,
) error {
	logger.Info("creating new user", slog.String("username", username))

	if password == "" {
		var err error
		password, err = promptForPassword(io)
		if err != nil {
			return fmt.Errorf("failed to get password: %w", err)
		}
	}

	user, err := registrar.Register(ctx, userUsecase.RegisterInput{
		Username: username,
		Password: password,
		Role:     role,
	})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	if format == "json" {
		outputCreateUserJSON(io.Writer, user)
	} else {
		outputCreateUserText(io.Writer, user)
	}

	logger.Info("user created successfully",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return nil
}

// promptForPassword reads the password from the interactive reader.
func promptForPassword(io IOTuple) (string, error) {
	reader := bufio.NewReader(io.Reader)

	_, _ = fmt.Fprint(io.Writer, "Enter password: ")
	password, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	password = strings.TrimRight(password, "\r\n")
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	return password, nil
}

// outputCreateUserText outputs the result in human-readable text format.
func outputCreateUserText(w io.Writer, user *userDomain.User) {
	fmt.Fprintf(w, "User created successfully\n")
	fmt.Fprintf(w, "ID: %d\n", user.ID)
	fmt.Fprintf(w, "Username: %s\n", user.Username)
	if user.Role != "" {
		fmt.Fprintf(w, "Role: %s\n", user.Role)
	}
}

// outputCreateUserJSON outputs the result in JSON format for machine consumption.
func outputCreateUserJSON(w io.Writer, user *userDomain.User) {
	result := map[string]interface{}{
		"id":       user.ID,
		"username": user.Username,
		"role":     user.Role,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(w, "failed to marshal JSON: %v\n", err)
		return
	}

	fmt.Fprintln(w, string(jsonBytes))
}
