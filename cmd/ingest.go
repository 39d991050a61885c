package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zhaddad/aeromind/internal/ingest"
	"github.com/zhaddad/aeromind/internal/progress"
)

var ingestDir string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load markdown knowledge documents into the vector store",
	Long: `Walks the knowledge directory, splits markdown files into heading-scoped
chunks, embeds them and persists the vector store. Re-running replaces
documents from changed files, so ingestion is safe to repeat.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		dir := ingestDir
		if dir == "" {
			dir = a.cfg.KnowledgeDir
		}

		walkCfg := ingest.WalkConfig{
			RootDir: dir,
			Include: a.cfg.Include,
			Exclude: a.cfg.Exclude,
		}

		total, err := ingest.TotalFiles(walkCfg)
		if err != nil {
			return fmt.Errorf("scanning %s: %w", dir, err)
		}
		if total == 0 {
			fmt.Printf("No markdown files found under %s\n", dir)
			return nil
		}

		reporter := progress.NewReporter("Ingesting knowledge")
		reporter.Start(total)
		done := 0

		report, err := ingest.NewIngester(a.store).Ingest(cmd.Context(), walkCfg, func(relPath string) {
			done++
			reporter.Update(done, relPath)
		})
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", dir, err)
		}
		reporter.Finish()

		if err := a.store.Persist(cmd.Context(), vectorDir(a.cfg)); err != nil {
			return fmt.Errorf("persisting vector store: %w", err)
		}

		fmt.Printf("Ingested %d files: %d chunks (%d facts), %d skipped, in %s\n",
			report.Files, report.Chunks, report.Facts, report.Skipped, report.Duration.Round(time.Millisecond))
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDir, "dir", "", "knowledge directory (overrides config)")
	rootCmd.AddCommand(ingestCmd)
}
