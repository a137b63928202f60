package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show how many document chunks are indexed",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx) //nolint:errcheck

	count, err := a.Pipeline.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting indexed chunks: %w", err)
	}

	fmt.Printf("Indexed chunks: %d\n", count)
	fmt.Printf("Model: %s\n", a.Config.FullModelName())
	fmt.Printf("Embedder: %s\n", a.Config.FullEmbedderName())
	fmt.Printf("Table: %s\n", a.Config.TableName)
	return nil
}
