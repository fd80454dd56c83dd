package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	docsInstitution string
	docsJSON        bool
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Inspect and delete stored documents",
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List an institution's documents",
	Args:  cobra.NoArgs,
	RunE:  runDocsList,
}

var docsDeleteCmd = &cobra.Command{
	Use:   "delete <document-id>...",
	Short: "Delete documents",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDocsDelete,
}

func init() {
	rootCmd.AddCommand(docsCmd)
	docsCmd.AddCommand(docsListCmd, docsDeleteCmd)
	docsListCmd.Flags().StringVarP(&docsInstitution, "institution", "i", "", "institution id (required)")
	docsListCmd.Flags().BoolVar(&docsJSON, "json", false, "output as JSON")
	docsListCmd.MarkFlagRequired("institution")
}

func runDocsList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := newApp(ctx, GetConfig(), GetRootDir(), false, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	docs, err := app.Docs.List(ctx, docsInstitution)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if docsJSON {
		output, _ := json.MarshalIndent(docs, "", "  ")
		fmt.Println(string(output))
		return nil
	}
	if len(docs) == 0 {
		fmt.Println("No documents found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATE\tUPDATED")
	for _, doc := range docs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", doc.ID, doc.Title, doc.State, doc.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runDocsDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := newApp(ctx, GetConfig(), GetRootDir(), false, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	for _, id := range args {
		if err := app.Docs.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete %s: %w", id, err)
		}
		fmt.Printf("Deleted %s\n", id)
	}
	return nil
}
