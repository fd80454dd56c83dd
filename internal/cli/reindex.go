package cli

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var reindexInstitution string

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Re-ingest stored documents and report index statistics",
	Long: `Re-ingest every stored document, or those of one institution, recording the
outcome on each document, and print per-institution index statistics.

Examples:
  edurag reindex
  edurag reindex -i unilag`,
	Args: cobra.NoArgs,
	RunE: runReindex,
}

func init() {
	rootCmd.AddCommand(reindexCmd)
	reindexCmd.Flags().StringVarP(&reindexInstitution, "institution", "i", "", "only this institution")
}

func runReindex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := newApp(ctx, GetConfig(), GetRootDir(), false, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	var bar *progressbar.ProgressBar
	result, err := app.Docs.RebuildIndex(ctx, reindexInstitution, func(done, total int) {
		if bar == nil {
			bar = newProgressBar(total, "Reindexing")
		}
		bar.Set(done)
	})
	if err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}

	fmt.Printf("\nReindex complete:\n")
	fmt.Printf("  Documents: %d\n", result.Documents)
	fmt.Printf("  Processed: %d\n", result.Processed)
	fmt.Printf("  Failed:    %d\n", result.Failed)
	fmt.Printf("  Duration:  %s\n", formatDuration(result.Duration))

	institutions := app.Index.Institutions()
	if len(institutions) == 0 {
		return nil
	}
	fmt.Printf("\n%-24s %10s %10s %10s\n", "INSTITUTION", "DOCUMENTS", "PASSAGES", "DIMENSION")
	for _, inst := range institutions {
		stats := app.Index.Stats(inst)
		fmt.Printf("%-24s %10d %10d %10d\n", inst, stats.Documents, stats.Passages, stats.Dimension)
	}
	return nil
}
