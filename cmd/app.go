package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/docubot-ai/docubot/internal/app"
	"github.com/docubot-ai/docubot/internal/config"
)

// newApp wires the application once per command invocation.
func newApp(ctx context.Context) (*app.App, error) {
	if err := checkAPIKey(); err != nil {
		return nil, err
	}
	return app.New(ctx)
}

// checkAPIKey fails early with a usable message instead of letting the
// first model call surface a cryptic authentication error.
func checkAPIKey() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if cfg.Provider == config.ProviderOllama {
		return nil
	}
	if os.Getenv("GEMINI_API_KEY") == "" && os.Getenv("GOOGLE_API_KEY") == "" {
		fmt.Fprintln(os.Stderr, "Error: GEMINI_API_KEY environment variable not set")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Please run:")
		fmt.Fprintln(os.Stderr, "  export GEMINI_API_KEY=your-api-key")
		return fmt.Errorf("GEMINI_API_KEY not set")
	}
	return nil
}
