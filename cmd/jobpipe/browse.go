package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobpipe/internal/browse"
	"github.com/amishk599/jobpipe/internal/model"
	"github.com/amishk599/jobpipe/internal/store"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse stored jobs interactively (TUI)",
	Long:  "Shows the sector picker, then the split-pane job browser. Read-only.",
	RunE:  runBrowseCmd,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowseCmd(cmd *cobra.Command, args []string) error {
	// No logger here: any log output before the alt-screen starts corrupts
	// the display, so errors go straight to stderr.
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	reader, err := store.OpenReader(cfg.StorePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer reader.Close()

	runBrowse(reader)
	return nil
}

func runBrowse(reader *store.SQLiteStore) {
	for {
		st, err := reader.Stats(context.Background())
		if err != nil {
			fmt.Printf("Error reading stats: %v\n", err)
			return
		}
		if st.Total == 0 {
			fmt.Println("The store is empty. Run `jobpipe run` first.")
			return
		}

		sector, ok, err := browse.RunSectorPicker(st.Total, st.Sectors)
		if err != nil {
			fmt.Printf("Picker error: %v\n", err)
			return
		}
		if !ok {
			return
		}

		title := "All sectors"
		if sector != "" {
			title = sector
		}
		jobs, err := browse.RunLoader(title, func(ctx context.Context) ([]model.CanonicalJob, error) {
			return reader.ListJobs(ctx, store.ListOptions{Sector: sector})
		})
		if err != nil {
			fmt.Printf("Error loading jobs: %v\n", err)
			continue
		}

		wantQuit, err := browse.RunBrowseTUI(title, jobs)
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return
		}
		// else: loop → back to picker
	}
}
