package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/authkit/cmd/app/commands"
	"github.com/allisson/authkit/internal/app"
	"github.com/allisson/authkit/internal/config"
)

func getSystemCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "migrate",
			Usage: "Run database migrations",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunMigrations(container.Logger(), cfg.DBDriver, cfg.DBConnectionString)
			},
		},
		{
			Name:  "init-schema",
			Usage: "Create the user, session and token tables directly, without migration files",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "extra-user-schema",
					Aliases: []string{"e"},
					Value:   "",
					Usage:   "Additional column DDL appended to the users table",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				tokenRepo, err := container.TokenRepository()
				if err != nil {
					return err
				}
				sessionRepo, err := container.SessionRepository()
				if err != nil {
					return err
				}
				userRepo, err := container.UserRepository()
				if err != nil {
					return err
				}

				return commands.RunInitSchema(
					ctx,
					tokenRepo,
					sessionRepo,
					userRepo,
					container.Logger(),
					cmd.String("extra-user-schema"),
				)
			},
		},
		{
			Name:  "clean-expired-tokens",
			Usage: "Delete expired tokens older than specified days",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:     "days",
					Aliases:  []string{"d"},
					Required: true,
					Usage:    "Delete expired tokens older than this many days",
				},
				&cli.BoolFlag{
					Name:    "dry-run",
					Aliases: []string{"n"},
					Value:   false,
					Usage:   "Show how many tokens would be deleted without deleting",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				tokenUseCase, err := container.TokenUseCase()
				if err != nil {
					return err
				}

				return commands.RunCleanExpiredTokens(
					ctx,
					tokenUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					int(cmd.Int("days")),
					cmd.Bool("dry-run"),
					cmd.String("format"),
				)
			},
		},
	}
}
