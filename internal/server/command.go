// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"codeberg.org/oliverandrich/taskboard/internal/config"
	"codeberg.org/oliverandrich/taskboard/internal/database"
	"github.com/BurntSushi/toml"
	"github.com/urfave/cli/v3"
	"github.com/vinovest/sqlx"
)

// NewCommand builds the CLI for service: serving by default, plus the
// config and migrate subcommands.
func NewCommand(service config.Service, version string) *cli.Command {
	var configFile string

	flags := config.Flags(&configFile, service)
	if service == config.ServiceAuth {
		flags = append(flags, config.AuthFlags(&configFile)...)
	}

	return &cli.Command{
		Name:    "taskboard-" + string(service),
		Usage:   fmt.Sprintf("Taskboard %s service", service),
		Version: version,
		Flags:   flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := loadConfig(cmd)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return Run(ctx, cfg, service)
		},
		Commands: []*cli.Command{
			configCommand(),
			migrateCommand(service),
		},
	}
}

// loadConfig reads the configuration and installs the process logger.
func loadConfig(cmd *cli.Command) *config.Config {
	cfg := config.NewFromCLI(cmd)
	slog.SetDefault(newLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format))
	return cfg
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Print the effective configuration as TOML (secrets redacted)",
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg := loadConfig(cmd)
			if err := cfg.Validate(); err != nil {
				slog.Warn("configuration is not valid", "error", err)
			}
			redacted := cfg.Redacted()
			return toml.NewEncoder(cmd.Root().Writer).Encode(redacted)
		},
	}
}

func migrateCommand(service config.Service) *cli.Command {
	schema := schemaFor(service)

	// withDB opens the database for a migration subcommand.
	withDB := func(fn func(ctx context.Context, cmd *cli.Command, db *sqlx.DB) error) cli.ActionFunc {
		return func(ctx context.Context, cmd *cli.Command) error {
			cfg := loadConfig(cmd)
			db, err := database.Open(cfg.Database.URL)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() {
				if closeErr := database.Close(db); closeErr != nil {
					slog.Error("failed to close database", "error", closeErr)
				}
			}()

			if err := database.WaitReady(ctx, db, cfg.Database.WaitTimeout, cfg.Database.WaitInterval); err != nil {
				return err
			}
			return fn(ctx, cmd, db)
		}
	}

	return &cli.Command{
		Name:  "migrate",
		Usage: fmt.Sprintf("Manage the %s schema", schema),
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "Apply all pending migrations",
				Action: withDB(func(ctx context.Context, _ *cli.Command, db *sqlx.DB) error {
					return database.RunMigrations(ctx, db, schema)
				}),
			},
			{
				Name:  "down",
				Usage: "Roll back the most recent migration",
				Action: withDB(func(ctx context.Context, _ *cli.Command, db *sqlx.DB) error {
					return database.MigrateDown(ctx, db, schema)
				}),
			},
			{
				Name:  "reset",
				Usage: "Roll back all migrations",
				Action: withDB(func(ctx context.Context, _ *cli.Command, db *sqlx.DB) error {
					return database.MigrateReset(ctx, db, schema)
				}),
			},
			{
				Name:  "version",
				Usage: "Print the current schema version",
				Action: withDB(func(ctx context.Context, cmd *cli.Command, db *sqlx.DB) error {
					v, err := database.Version(ctx, db, schema)
					if err != nil {
						return err
					}
					_, err = fmt.Fprintf(cmd.Root().Writer, "%s %d\n", schema, v)
					return err
				}),
			},
		},
		Action: func(context.Context, *cli.Command) error {
			return errors.New("missing migrate subcommand (up, down, reset, version)")
		},
	}
}
