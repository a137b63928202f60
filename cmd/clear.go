package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all indexed documents and conversation memory",
	RunE:  runClear,
}

func init() {
	rootCmd.AddCommand(clearCmd)
}

func runClear(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx) //nolint:errcheck

	if err := a.Pipeline.ClearAll(ctx); err != nil {
		return fmt.Errorf("clearing index: %w", err)
	}

	fmt.Println("Index and conversation memory cleared.")
	return nil
}
