// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/accountd/internal/config"
	"github.com/holomush/accountd/internal/logging"
	"github.com/holomush/accountd/internal/store"
)

// newMigrateCmd creates the migrate command and its subcommands. Without a
// subcommand it applies every pending migration.
func newMigrateCmd() *cobra.Command {
	return newMigrateCmdWithDeps(nil)
}

func newMigrateCmdWithDeps(deps *MigrateDeps) *cobra.Command {
	deps = deps.withDefaults()

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		Long:  `Apply, roll back, inspect or force the PostgreSQL schema version.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, deps, runMigrateUp)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, deps, runMigrateUp)
		},
	})

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Long: `Roll back the last migration, or --steps of them. --all rolls back
every migration and drops all data.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			all, _ := cmd.Flags().GetBool("all")     //nolint:errcheck // registered below
			steps, _ := cmd.Flags().GetInt("steps") //nolint:errcheck // registered below
			return withMigrator(cmd, deps, func(cmd *cobra.Command, m SchemaMigrator) error {
				return runMigrateDown(cmd, m, all, steps)
			})
		},
	}
	down.Flags().Bool("all", false, "roll back every migration")
	down.Flags().Int("steps", 1, "number of migrations to roll back")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the schema version and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, deps, runMigrateStatus)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "force VERSION",
		Short: "Set the schema version without running migrations",
		Long: `Set the recorded schema version and clear the dirty flag. Use only
after repairing a failed migration by hand.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parseForceVersion(args[0])
			if err != nil {
				return err
			}
			return withMigrator(cmd, deps, func(cmd *cobra.Command, m SchemaMigrator) error {
				if err := m.Force(target); err != nil {
					return err
				}
				cmd.Printf("Forced schema version to %d\n", target)
				return nil
			})
		},
	})

	return cmd
}

// withMigrator loads the configuration, opens a migrator and closes it after
// fn returns.
func withMigrator(cmd *cobra.Command, deps *MigrateDeps, fn func(*cobra.Command, SchemaMigrator) error) (err error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}
	logger, err := cliLogger(cfg)
	if err != nil {
		return err
	}

	m, err := deps.MigratorFactory(cfg.Database.URL, logger)
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "open migrator").Wrap(err)
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return fn(cmd, m)
}

func runMigrateUp(cmd *cobra.Command, m SchemaMigrator) error {
	pending, err := m.PendingMigrations()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		cmd.Println("No pending migrations")
		return nil
	}
	if err := m.Up(); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}
	for _, mig := range pending {
		cmd.Printf("Applied %s\n", mig.Name)
	}
	cmd.Println("Migrations completed successfully")
	return nil
}

func runMigrateDown(cmd *cobra.Command, m SchemaMigrator, all bool, steps int) error {
	if all {
		if err := m.Down(); err != nil {
			return err
		}
		cmd.Println("Rolled back all migrations")
		return nil
	}
	if steps < 1 {
		return oops.Code("INVALID_STEPS").With("steps", steps).Errorf("steps must be at least 1, got %d", steps)
	}
	if err := m.Steps(-steps); err != nil {
		return err
	}
	cmd.Printf("Rolled back %d migration(s)\n", steps)
	return nil
}

func runMigrateStatus(cmd *cobra.Command, m SchemaMigrator) error {
	schemaVersion, dirty, err := m.Version()
	if err != nil {
		return err
	}
	applied, err := m.AppliedMigrations()
	if err != nil {
		return err
	}
	pending, err := m.PendingMigrations()
	if err != nil {
		return err
	}

	name, err := store.MigrationName(schemaVersion)
	if err != nil {
		return err
	}
	current := fmt.Sprintf("%d", schemaVersion)
	if name != "" {
		current = name
	}
	if dirty {
		current += " (dirty)"
	}

	cmd.Printf("Current version: %s\n", current)
	cmd.Printf("Applied: %d\n", len(applied))
	cmd.Printf("Pending: %d\n", len(pending))
	for _, mig := range pending {
		cmd.Printf("  %s\n", mig.Name)
	}
	return nil
}

// parseForceVersion reads a migration version. Leading whitespace is
// skipped and parsing stops at the first non-digit.
func parseForceVersion(s string) (int, error) {
	var v int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &v); err != nil {
		return 0, oops.Code("INVALID_VERSION").With("input", s).Errorf("invalid version %q: must be an integer", s)
	}
	return v, nil
}

// cliLogger installs the configured logger for one-shot commands.
func cliLogger(cfg *config.Config) (*slog.Logger, error) {
	logger, err := logging.SetDefault(serviceName, version, logging.Options{
		Format: cfg.Log.Format,
		Level:  cfg.Log.Level,
	})
	if err != nil {
		return nil, oops.With("operation", "set up logging").Wrap(err)
	}
	return logger, nil
}
