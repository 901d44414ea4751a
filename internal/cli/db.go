package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/maildue/maildue/internal/database"
	"github.com/maildue/maildue/internal/database/migrations"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database utilities",
	Long: `Database utilities for maildue.

Examples:
  maildue db migrate    Apply any pending schema migrations
  maildue db status     Show applied migrations`,
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending migrations",
	RunE:  runDBMigrate,
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied migrations",
	RunE:  runDBStatus,
}

func init() {
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbStatusCmd)
	rootCmd.AddCommand(dbCmd)
}

func runDBMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Open runs pending migrations as part of startup
	db, err := database.Open(&cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	log.Info().Str("path", cfg.Database.Path).Msg("Migrations applied")
	return nil
}

func runDBStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := database.Open(&cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	applied, err := migrations.GetApplied(context.Background(), db.DB)
	if err != nil {
		return fmt.Errorf("reading migration versions: %w", err)
	}

	if len(applied) == 0 {
		fmt.Println("No migrations applied")
		return nil
	}

	for _, m := range applied {
		fmt.Printf("%s  %s\n", m.AppliedAt.Format("2006-01-02 15:04:05"), m.ID)
	}
	return nil
}
