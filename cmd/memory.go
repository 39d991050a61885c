package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect and maintain long-term memory",
}

var memoryStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show long-term memory record counts by category",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := a.longterm.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("reading memory stats: %w", err)
		}
		if len(stats) == 0 {
			fmt.Println("No long-term memory records.")
			return nil
		}

		categories := make([]string, 0, len(stats))
		for category := range stats {
			categories = append(categories, category)
		}
		sort.Strings(categories)
		for _, category := range categories {
			fmt.Printf("%-12s %d\n", category, stats[category])
		}
		return nil
	},
}

var memoryPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Expire old records, consolidate duplicates and reindex",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.longterm.PerformMaintenance(cmd.Context())
		if err != nil {
			return fmt.Errorf("memory maintenance: %w", err)
		}
		fmt.Printf("Expired %d records, consolidated %d duplicates\n", report.Expired, report.Consolidated)
		return nil
	},
}

func init() {
	memoryCmd.AddCommand(memoryStatsCmd)
	memoryCmd.AddCommand(memoryPruneCmd)
	rootCmd.AddCommand(memoryCmd)
}
