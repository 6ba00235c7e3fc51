package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobpipe/internal/model"
	"github.com/amishk599/jobpipe/internal/store"
)

var dryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline once and exit",
	Long:  "Fetches every enabled source, normalizes, classifies and merges the records, stores the result and reports.",
	RunE:  runOnce,
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "process and report, but do not write to the store")
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	tax, err := loadTaxonomy(cfg, logger)
	if err != nil {
		logger.Error("failed to load taxonomy", "error", err)
		os.Exit(1)
	}

	var jobStore model.JobStore
	if dryRun {
		logger.Info("dry-run mode enabled, nothing will be stored")
		jobStore = store.NewNopStore()
	} else {
		sqlStore, err := store.NewSQLiteStore(cfg.StorePath, tax.SkillCategories())
		if err != nil {
			logger.Error("failed to open store", "error", err)
			os.Exit(1)
		}
		defer sqlStore.Close()
		jobStore = sqlStore
	}

	runner, err := buildRunner(cfg, tax, jobStore, logger)
	if err != nil {
		logger.Error("failed to set up pipeline", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := runner.Run(ctx); err != nil {
		logger.Error("run failed", "error", err)
		return err
	}
	return nil
}
