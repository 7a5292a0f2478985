package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:          "manage",
	Short:        "Foodgram maintenance commands",
	Long:         "manage applies schema changes and loads reference data into the configured database.",
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(loadIngredientsCmd)
	rootCmd.AddCommand(loadTagsCmd)
	rootCmd.AddCommand(createAdminCmd)
	rootCmd.AddCommand(setupBucketCmd)
}

// loadConfig reads the environment configuration and sets up logging on stderr.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.LogLevel, cfg.LogPretty, os.Stderr)
	return cfg, nil
}

// withDB opens the configured database, brings the schema up to date and
// hands the connection to run.
func withDB(cmd *cobra.Command, run func(ctx context.Context, db *gorm.DB) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.RunMigrations(db); err != nil {
		return err
	}
	return run(cmd.Context(), db)
}
