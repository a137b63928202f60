// Package app assembles the application: configuration, logging, Genkit,
// the database pool and the question-answering pipeline.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/docubot-ai/docubot/internal/bot"
	"github.com/docubot-ai/docubot/internal/chat"
	"github.com/docubot-ai/docubot/internal/chunk"
	"github.com/docubot-ai/docubot/internal/config"
	"github.com/docubot-ai/docubot/internal/database"
	"github.com/docubot-ai/docubot/internal/extract"
	"github.com/docubot-ai/docubot/internal/index"
	"github.com/docubot-ai/docubot/internal/log"
	"github.com/docubot-ai/docubot/internal/observability"
	"github.com/docubot-ai/docubot/internal/session"
)

// App holds the assembled application and owns its shared resources.
type App struct {
	Config   *config.Config
	Logger   log.Logger
	Genkit   *genkit.Genkit
	Pool     *pgxpool.Pool
	Sessions *session.Store
	Pipeline *bot.Pipeline

	shutdownTracing func(context.Context) error
}

// New loads configuration and wires every component. Fails fast on
// invalid configuration or an unreachable database.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	logger := log.New(log.Config{Level: slog.LevelInfo})

	// Genkit with the configured provider plugin. Ollama has no model
	// auto-discovery, so its model and embedder are registered explicitly.
	var g *genkit.Genkit
	var embedder ai.Embedder
	if cfg.Provider == config.ProviderOllama {
		ollamaPlugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g = genkit.Init(ctx, genkit.WithPlugins(ollamaPlugin))
		ollamaPlugin.DefineModel(g, ollama.ModelDefinition{
			Name: cfg.ModelName,
			Type: "chat",
		}, nil)
		ollamaPlugin.DefineEmbedder(g, cfg.OllamaHost, cfg.EmbedderModel, nil)
		embedder = ollama.Embedder(g, cfg.OllamaHost)
	} else {
		g = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		embedder = googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found for provider %q", cfg.EmbedderModel, cfg.Provider)
	}

	var shutdownTracing func(context.Context) error
	if cfg.Tracing.Enabled {
		shutdownTracing, err = observability.Setup(ctx, observability.Config{
			Endpoint:    cfg.Tracing.Endpoint,
			Environment: cfg.Tracing.Environment,
			ServiceName: cfg.Tracing.ServiceName,
		})
		if err != nil {
			return nil, fmt.Errorf("setting up tracing: %w", err)
		}
	}

	if err := database.Migrate(cfg.ConnString()); err != nil {
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	pool, err := database.Open(ctx, cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	querier, err := index.NewPGQuerier(pool, cfg.TableName, cfg.EmbeddingDim)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating document querier: %w", err)
	}
	gateway := index.New(querier, embedder, logger)

	sessions := session.NewStore(logger)

	answerer, err := chat.New(chat.Config{
		Genkit:      g,
		Sessions:    sessions,
		Searcher:    gateway,
		Logger:      logger,
		ModelName:   cfg.FullModelName(),
		Temperature: cfg.Temperature,
		DefaultK:    cfg.DefaultK,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating answerer: %w", err)
	}

	splitter, err := chunk.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating splitter: %w", err)
	}

	pipeline := bot.New(extract.New(logger), splitter, gateway, sessions, answerer, logger)

	return &App{
		Config:          cfg,
		Logger:          logger,
		Genkit:          g,
		Pool:            pool,
		Sessions:        sessions,
		Pipeline:        pipeline,
		shutdownTracing: shutdownTracing,
	}, nil
}

// Close releases the application's resources. Safe to call once at exit.
func (a *App) Close(ctx context.Context) error {
	if a.shutdownTracing != nil {
		if err := a.shutdownTracing(ctx); err != nil {
			a.Logger.Warn("flushing traces", "error", err)
		}
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
	return nil
}
