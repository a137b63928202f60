package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "Index documents so they can be asked about",
	Long: `Extracts text from the given files, splits it into chunks and stores
the chunk embeddings in the vector index. Supported formats: .pdf, .docx,
.txt, .md.

Re-ingesting a file adds its chunks again; run "docubot clear" first to
start from a clean index.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx) //nolint:errcheck

	total := 0
	for _, path := range args {
		n, err := a.Pipeline.IngestDocument(ctx, path)
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", path, err)
		}
		fmt.Printf("%s: %d chunks indexed\n", path, n)
		total += n
	}

	fmt.Printf("Done. %d chunks from %d file(s).\n", total, len(args))
	return nil
}
