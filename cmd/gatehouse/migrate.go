// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package main

import (
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/gatehouse/gatehouse/internal/store"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			url, err := databaseURL()
			if err != nil {
				return err
			}
			cmd.Println("Running migrations...")
			if err := migrateUp(url); err != nil {
				return err
			}
			cmd.Println("Migrations completed successfully")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations (destructive)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			url, err := databaseURL()
			if err != nil {
				return err
			}
			migrator, err := store.NewMigrator(url)
			if err != nil {
				return err
			}
			defer closeMigrator(cmd, migrator)
			if err := migrator.Down(); err != nil {
				return err
			}
			cmd.Println("Rollback completed successfully")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the current migration version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			url, err := databaseURL()
			if err != nil {
				return err
			}
			migrator, err := store.NewMigrator(url)
			if err != nil {
				return err
			}
			defer closeMigrator(cmd, migrator)
			version, dirty, err := migrator.Version()
			if err != nil {
				return err
			}
			cmd.Printf("Version: %d (dirty: %v)\n", version, dirty)
			return nil
		},
	})

	return cmd
}

// databaseURL resolves the database URL for migration commands from the
// DATABASE_URL environment variable.
func databaseURL() (string, error) {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url, nil
	}
	return "", oops.Code("CONFIG_INVALID").Errorf("DATABASE_URL environment variable is required")
}

// migrateUp applies all pending migrations against the given database.
func migrateUp(url string) error {
	migrator, err := store.NewMigrator(url)
	if err != nil {
		return err
	}
	upErr := migrator.Up()
	if closeErr := migrator.Close(); closeErr != nil && upErr == nil {
		return closeErr
	}
	return upErr
}

// closeMigrator closes a migrator, reporting (but not failing on) errors.
func closeMigrator(cmd *cobra.Command, m *store.Migrator) {
	if err := m.Close(); err != nil {
		cmd.PrintErrln("warning: failed to close migrator:", err)
	}
}
