package commands

import (
	"context"
	"fmt"
	"log/slog"
)

// TableCreator initializes a fixed schema (token and session repositories).
type TableCreator interface {
	CreateTable(ctx context.Context) error
}

// UserTableCreator initializes the user schema, optionally extended with
// application-specific column DDL.
type UserTableCreator interface {
	CreateTable(ctx context.Context, extraSchema string) error
}

// RunInitSchema creates the auth token, session and user tables directly
// through the repositories. This is the embedded-library path; deployments
// that manage schema through migration files should use the migrate command
// instead.
//
// Requirements: Database must be accessible.
func RunInitSchema(
	ctx context.Context,
	tokenRepo TableCreator,
	sessionRepo TableCreator,
	userRepo UserTableCreator,
	logger *slog.Logger,
	extraUserSchema string,
) error {
	logger.Info("initializing schema")

	if err := tokenRepo.CreateTable(ctx); err != nil {
		return fmt.Errorf("failed to create token table: %w", err)
	}
	if err := sessionRepo.CreateTable(ctx); err != nil {
		return fmt.Errorf("failed to create session table: %w", err)
	}
	if err := userRepo.CreateTable(ctx, extraUserSchema); err != nil {
		return fmt.Errorf("failed to create user table: %w", err)
	}

	logger.Info("schema initialized successfully")
	return nil
}
