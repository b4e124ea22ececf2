package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jonathan/izzy/internal/db"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := migrateUp(cmd.Context(), os.Getenv("DATABASE_URL")); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDatabase(cmd.Context(), os.Getenv("DATABASE_URL"), func(ctx context.Context, database *db.DB) error {
			if err := database.MigrateDown(ctx); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Rolled back one migration")
			return nil
		})
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDatabase(cmd.Context(), os.Getenv("DATABASE_URL"), func(ctx context.Context, database *db.DB) error {
			version, err := database.MigrationVersion(ctx)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Schema version: %d\n", version)
			return nil
		})
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
	rootCmd.AddCommand(migrateCmd)
}

func migrateUp(ctx context.Context, databaseURL string) error {
	return withDatabase(ctx, databaseURL, func(ctx context.Context, database *db.DB) error {
		return database.Migrate(ctx)
	})
}

func withDatabase(ctx context.Context, databaseURL string, fn func(context.Context, *db.DB) error) error {
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	return fn(ctx, database)
}
