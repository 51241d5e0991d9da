package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/allisson/credproxy/cmd/app/commands"
	"github.com/allisson/credproxy/internal/app"
	"github.com/allisson/credproxy/internal/config"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the proxy with its HTTP API",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Run database migrations for the sql credential stores",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				connectionString := cfg.DBConnectionString
				switch cfg.StoreDriver {
				case config.StoreSQLite:
					connectionString = cfg.SQLiteConnectionString()
				case config.StorePostgres, config.StoreMySQL:
				default:
					return fmt.Errorf("store driver %q has no migrations", cfg.StoreDriver)
				}

				return commands.RunMigrations(container.Logger(), cfg.StoreDriver, connectionString)
			},
		},
		{
			Name:  "hash-token",
			Usage: "Hash an API token for API_TOKEN_HASH, generating one when none is given",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "token",
					Aliases: []string{"t"},
					Usage:   "Token to hash (omit to generate a new one)",
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

				return commands.RunHashToken(
					container.APITokenService(),
					container.Logger(),
					commands.DefaultIO(),
					cmd.String("token"),
					cmd.String("format"),
				)
			},
		},
	}
}
