package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobpipe/internal/export"
	"github.com/amishk599/jobpipe/internal/store"
)

var (
	exportOut  string
	exportOpts store.ListOptions
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored jobs to an XLSX workbook",
	Long:  "Writes a Jobs sheet (optionally filtered) and a Summary sheet with the aggregate views.",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "jobs.xlsx", "output file")
	exportCmd.Flags().StringVar(&exportOpts.Sector, "sector", "", "only jobs in this sector")
	exportCmd.Flags().StringVar(&exportOpts.Country, "country", "", "only jobs in this country")
	exportCmd.Flags().StringVar(&exportOpts.Seniority, "seniority", "", "only jobs at this seniority")
	exportCmd.Flags().StringVar(&exportOpts.Skill, "skill", "", "only jobs requiring this skill")
	exportCmd.Flags().IntVar(&exportOpts.Limit, "limit", 0, "maximum number of jobs (0 = all)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	reader, err := store.OpenReader(cfg.StorePath)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer reader.Close()

	return writeExport(context.Background(), export.NewService(reader, logger), exportOut, logger)
}

func writeExport(ctx context.Context, svc *export.Service, path string, logger *slog.Logger) error {
	data, err := svc.ExportXLSX(ctx, exportOpts)
	if err != nil {
		logger.Error("export failed", "error", err)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		logger.Error("failed to write workbook", "path", path, "error", err)
		return err
	}
	logger.Info("workbook written", "path", path, "bytes", len(data))
	return nil
}
