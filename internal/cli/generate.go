package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/maildue/maildue/internal/database"
	"github.com/maildue/maildue/internal/engine"
	"github.com/maildue/maildue/internal/schedule"
)

var generateDate string

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate instances for a date without starting the server",
	Long: `Generate pending instances for every active schedule that fires on
the given date (default today). Safe to re-run; existing instances for
the date are left alone.`,
	RunE: runGenerate,
}

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Generate overdue instances for missed dates",
	Long: `Catch up every date between the last generated date and yesterday,
creating instances directly as overdue. Normally this runs automatically
on serve startup.`,
	RunE: runBackfill,
}

func init() {
	generateCmd.Flags().StringVar(&generateDate, "date", "", "Date to generate for (YYYY-MM-DD, default today)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(backfillCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	date := time.Now()
	if generateDate != "" {
		date, err = time.ParseInLocation(engine.DateFormat, generateDate, time.Local)
		if err != nil {
			return fmt.Errorf("parsing --date: %w", err)
		}
	}

	db, err := database.Open(&cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	eng := engine.New(db, schedule.NewStore(db, nil), nil, &cfg.Engine)

	created, err := eng.GenerateForDate(context.Background(), date)
	if err != nil {
		return err
	}

	fmt.Printf("Created %d instance(s) for %s\n", created, date.Format(engine.DateFormat))
	return nil
}

func runBackfill(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := database.Open(&cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	eng := engine.New(db, schedule.NewStore(db, nil), nil, &cfg.Engine)

	result, err := eng.Backfill(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Processed %d date(s), created %d instance(s), %d failure(s)\n",
		result.DatesProcessed, result.InstancesCreated, result.Failures)
	return nil
}
