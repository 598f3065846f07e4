/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/capoo-pm/apiserver/config"
	"github.com/capoo-pm/apiserver/internal/db"
	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"
)

var migrateDownSteps int

// migrateCmd represents the migrate command.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all up migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		dsn, err := migrationDSN()
		if err != nil {
			return err
		}
		return db.MigrateUp(dsn)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations (one step by default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		dsn, err := migrationDSN()
		if err != nil {
			return err
		}
		migrator, err := db.NewMigrator(dsn)
		if err != nil {
			return err
		}
		defer func() {
			_, _ = migrator.Close()
		}()

		if migrateDownSteps <= 0 {
			err = migrator.Down()
		} else {
			err = migrator.Steps(-migrateDownSteps)
		}
		if err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migrate down failed: %w", err)
		}
		return nil
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		dsn, err := migrationDSN()
		if err != nil {
			return err
		}
		migrator, err := db.NewMigrator(dsn)
		if err != nil {
			return err
		}
		defer func() {
			_, _ = migrator.Close()
		}()

		version, dirty, err := migrator.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			cmd.Println("no migrations applied")
			return nil
		}
		if err != nil {
			return fmt.Errorf("read version failed: %w", err)
		}
		cmd.Printf("version %d (dirty: %t)\n", version, dirty)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateVersionCmd)

	migrateDownCmd.Flags().IntVar(&migrateDownSteps, "steps", 1, "number of migrations to roll back; 0 rolls back everything")
}

func migrationDSN() (string, error) {
	cfg := config.LoadConfig()
	if cfg.Database.InMemory() {
		return "", errors.New("migrations need a postgres DATABASE_URL")
	}
	return cfg.Database.DSN(), nil
}
