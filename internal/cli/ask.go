package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	askInstitution string
	askQuery       string
	askTopK        int
	askJSON        bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Answer a question from an institution's documents",
	Long: `Rebuild the institution's index from the document store, retrieve the
passages most similar to the question and compose a grounded answer.

Examples:
  edurag ask -i unilag -q "What are the admission requirements?"
  edurag ask -i unilag -q "school fees" -k 8 --json`,
	Args: cobra.NoArgs,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askInstitution, "institution", "i", "", "institution id (required)")
	askCmd.Flags().StringVarP(&askQuery, "query", "q", "", "question (required)")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of passages (default from config)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
	askCmd.MarkFlagRequired("institution")
	askCmd.MarkFlagRequired("query")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	app, err := newApp(ctx, GetConfig(), GetRootDir(), false, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	if _, err := app.Docs.RebuildIndex(ctx, askInstitution, nil); err != nil {
		return fmt.Errorf("failed to load index: %w", err)
	}

	ans, err := app.Answer.Answer(ctx, askInstitution, askQuery, askTopK)
	if err != nil {
		return fmt.Errorf("answer failed: %w", err)
	}

	if askJSON {
		output, _ := json.MarshalIndent(ans, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(ans.Text)
	if len(ans.Sources) > 0 {
		fmt.Println("\nSources:")
		for i, src := range ans.Sources {
			fmt.Printf("  [%d] %s (%s)\n", i+1, src.Title, src.DocumentID)
		}
	}
	return nil
}
