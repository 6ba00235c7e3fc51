package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/amishk599/jobpipe/internal/store"
)

var (
	statsTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			MarginTop(1)

	statsHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("252")).
				Padding(0, 1)

	statsCellStyle = lipgloss.NewStyle().Padding(0, 1)

	statsNumberStyle = statsCellStyle.Align(lipgloss.Right)
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate views of the stored corpus",
	Long:  "Prints sector distribution, jobs by country, top skills and data quality per platform.",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
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

	st, err := reader.Stats(context.Background())
	if err != nil {
		logger.Error("failed to compute stats", "error", err)
		return err
	}

	fmt.Printf("%d jobs (%d active)\n", st.Total, st.Active)

	printTable("Sector distribution", []string{"Sector", "Jobs", "Share"}, countRows(st.Sectors, st.Total), 1)
	printTable("Jobs by country", []string{"Country", "Jobs", "Share"}, countRows(st.Countries, st.Total), 1)

	skills := make([][]string, 0, len(st.TopSkills))
	for _, c := range st.TopSkills {
		skills = append(skills, []string{c.Name, c.Category, strconv.Itoa(c.Jobs)})
	}
	printTable("Top skills", []string{"Skill", "Category", "Jobs"}, skills, 2)

	platforms := make([][]string, 0, len(st.Platforms))
	for _, q := range st.Platforms {
		platforms = append(platforms, []string{
			q.Platform,
			strconv.Itoa(q.Jobs),
			fmt.Sprintf("%.1f%%", q.DescRate),
			fmt.Sprintf("%.1f%%", q.SalaryRate),
			fmt.Sprintf("%.1f", q.AverageScore),
		})
	}
	printTable("Data quality by platform",
		[]string{"Platform", "Jobs", "Description", "Salary", "Avg score"}, platforms, 1)
	return nil
}

func countRows(counts []store.Count, total int) [][]string {
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		share := 0.0
		if total > 0 {
			share = 100 * float64(c.Jobs) / float64(total)
		}
		rows = append(rows, []string{c.Name, strconv.Itoa(c.Jobs), fmt.Sprintf("%.1f%%", share)})
	}
	return rows
}

// printTable renders rows under a title. Columns from firstNumeric on are
// right-aligned.
func printTable(title string, headers []string, rows [][]string, firstNumeric int) {
	fmt.Println(statsTitleStyle.Render(title))
	if len(rows) == 0 {
		fmt.Println("  (no data)")
		return
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return statsHeaderStyle
			case col >= firstNumeric:
				return statsNumberStyle
			default:
				return statsCellStyle
			}
		})
	fmt.Println(t.Render())
}
