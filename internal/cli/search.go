package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	searchInstitution string
	searchQuery       string
	searchTopK        int
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Show the passages retrieved for a query with their similarity",
	Long: `Run retrieval only and print the ranked passages with their cosine
similarity, to judge how well the embedding model separates documents.

Examples:
  edurag search -i unilag -q "admission requirements" -k 10`,
	Args: cobra.NoArgs,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchInstitution, "institution", "i", "", "institution id (required)")
	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "query (required)")
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 10, "number of passages")
	searchCmd.MarkFlagRequired("institution")
	searchCmd.MarkFlagRequired("query")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := newApp(ctx, GetConfig(), GetRootDir(), false, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	if _, err := app.Docs.RebuildIndex(ctx, searchInstitution, nil); err != nil {
		return fmt.Errorf("failed to load index: %w", err)
	}

	stats := app.Index.Stats(searchInstitution)
	fmt.Println("SEMANTIC SEARCH")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Institution: %s (%d documents, %d passages)\n", searchInstitution, stats.Documents, stats.Passages)
	fmt.Printf("Model: %s\n", app.Embedder.ModelName())
	fmt.Printf("Dimension: %d\n", stats.Dimension)
	fmt.Printf("Query: %q\n", searchQuery)
	fmt.Println(strings.Repeat("-", 70))

	results, err := app.Retriever.Retrieve(ctx, searchInstitution, searchQuery, searchTopK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	total := 0.0
	for i, r := range results {
		preview := strings.ReplaceAll(r.Passage.Text, "\n", " ")
		if runes := []rune(preview); len(runes) > 150 {
			preview = string(runes[:150]) + "..."
		}
		total += r.Score

		fmt.Printf("%d. [%s %.3f] %s #%d\n", i+1, rating(r.Score), r.Score, r.Passage.DocumentTitle, r.Passage.Ordinal)
		fmt.Printf("   %s\n\n", preview)
	}

	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("  Average similarity: %.3f\n", total/float64(len(results)))
	fmt.Printf("  Top-1 similarity:   %.3f\n", results[0].Score)
	return nil
}

func rating(similarity float64) string {
	switch {
	case similarity > 0.7:
		return "HIGH"
	case similarity > 0.5:
		return "GOOD"
	case similarity > 0.3:
		return "OK"
	default:
		return "LOW"
	}
}
