package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobpipe/internal/taxonomy"
)

var taxonomyCmd = &cobra.Command{
	Use:   "taxonomy",
	Short: "Taxonomy subcommands",
}

var taxonomyCheckCmd = &cobra.Command{
	Use:   "check [path]",
	Short: "Validate a taxonomy file",
	Long:  "Loads and validates a taxonomy YAML file (default: taxonomy_path from config, else the built-in one) and prints a summary.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTaxonomyCheck,
}

func init() {
	rootCmd.AddCommand(taxonomyCmd)
	taxonomyCmd.AddCommand(taxonomyCheckCmd)
}

func runTaxonomyCheck(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	} else if cfg, err := loadConfig(cfgPath); err == nil {
		path = cfg.TaxonomyPath
	}

	tax, err := taxonomy.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid taxonomy: %v\n", err)
		os.Exit(1)
	}

	if path == "" {
		path = "built-in"
	}
	fmt.Printf("taxonomy %s is valid\n\n", path)
	fmt.Printf("%-18s %d\n", "Skills", len(tax.Skills))
	fmt.Printf("%-18s %d (%s)\n", "Sectors", len(tax.Sectors), strings.Join(tax.SectorNames(), ", "))
	fmt.Printf("%-18s %d\n", "Gazetteer entries", len(tax.Gazetteer))
	fmt.Printf("%-18s %d\n", "Countries", len(tax.Countries()))
	fmt.Printf("%-18s %d\n", "URL rules", len(tax.URLRules))
	fmt.Printf("%-18s %d (default %s)\n", "Seniority rules", len(tax.SeniorityRules), tax.DefaultSeniority)
	return nil
}
