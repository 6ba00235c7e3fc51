package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobpipe/internal/store"
)

var purgeOlderThan time.Duration

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete stored jobs past retention",
	Long:  "Deletes jobs whose captured_at is older than the configured retention (or --older-than).",
	RunE:  runPurge,
}

func init() {
	purgeCmd.Flags().DurationVar(&purgeOlderThan, "older-than", 0, "override the configured retention (e.g. 168h)")
	rootCmd.AddCommand(purgeCmd)
}

func runPurge(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	olderThan := cfg.Retention
	if purgeOlderThan > 0 {
		olderThan = purgeOlderThan
	}
	if olderThan <= 0 {
		logger.Info("retention disabled, nothing to purge")
		return nil
	}

	sqlStore, err := store.NewSQLiteStore(cfg.StorePath, nil)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer sqlStore.Close()

	n, err := sqlStore.Purge(context.Background(), olderThan)
	if err != nil {
		logger.Error("purge failed", "error", err)
		return err
	}
	logger.Info("purge complete", "removed", n, "older_than", olderThan.String())
	return nil
}
