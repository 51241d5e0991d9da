package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/credproxy/cmd/app/commands"
	"github.com/allisson/credproxy/internal/app"
	"github.com/allisson/credproxy/internal/config"
)

func getCredentialCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "encrypt-credentials",
			Usage: "Encrypt backend credentials under a password and store the bundle",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "endpoint-host",
					Aliases:  []string{"e"},
					Required: true,
					Usage:    "Backend host name (e.g., abc123.lambda-url.eu-west-1.on.aws)",
				},
				&cli.StringFlag{
					Name:     "access-key-id",
					Aliases:  []string{"k"},
					Required: true,
					Usage:    "Access key id used in the signature scope",
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

				store, err := container.CredentialStore()
				if err != nil {
					return err
				}

				return commands.RunEncryptCredentials(
					ctx,
					container.Vault(),
					store,
					container.Logger(),
					commands.DefaultIO(),
					cmd.String("endpoint-host"),
					cmd.String("access-key-id"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "verify-credentials",
			Usage: "Check that a password unlocks the stored (or given) bundle",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "bundle",
					Aliases: []string{"b"},
					Usage:   "Base64 bundle to verify (omit to verify the stored bundle)",
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

				store, err := container.CredentialStore()
				if err != nil {
					return err
				}

				return commands.RunVerifyCredentials(
					ctx,
					container.Vault(),
					store,
					container.Logger(),
					commands.DefaultIO(),
					cmd.String("bundle"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "sign",
			Usage: "Print the canonical request, string to sign and Authorization for a body",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "endpoint-host",
					Aliases:  []string{"e"},
					Required: true,
					Usage:    "Backend host name",
				},
				&cli.StringFlag{
					Name:     "access-key-id",
					Aliases:  []string{"k"},
					Required: true,
					Usage:    "Access key id used in the signature scope",
				},
				&cli.StringFlag{
					Name:    "body",
					Aliases: []string{"d"},
					Usage:   "Request body",
				},
				&cli.StringFlag{
					Name:  "body-file",
					Usage: "Read the request body from a file instead of --body",
				},
				&cli.StringFlag{
					Name:    "timestamp",
					Aliases: []string{"t"},
					Usage:   "X-Amz-Date (20060102T150405Z) or RFC 3339 time (default: now)",
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

				body := []byte(cmd.String("body"))
				if path := cmd.String("body-file"); path != "" {
					data, err := os.ReadFile(path)
					if err != nil {
						return fmt.Errorf("failed to read body file: %w", err)
					}
					body = data
				}

				return commands.RunSign(
					container.Signer(),
					container.Logger(),
					commands.DefaultIO(),
					commands.SignInput{
						EndpointHost: cmd.String("endpoint-host"),
						AccessKeyID:  cmd.String("access-key-id"),
						Body:         body,
						Timestamp:    cmd.String("timestamp"),
					},
					cmd.String("format"),
				)
			},
		},
	}
}
