// Package cmd defines the docubot command-line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "docubot",
	Short: "Docubot - chat with your documents from the terminal",
	Long: `Docubot indexes your PDF, DOCX, text and markdown files into a
PostgreSQL vector store and answers questions about them, citing the
passages each answer came from.

Running docubot with no arguments starts the interactive chat.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
