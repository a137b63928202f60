// Package index stores embedded document chunks in PostgreSQL + pgvector
// and retrieves them by cosine similarity.
package index

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/docubot-ai/docubot/internal/chunk"
	"github.com/docubot-ai/docubot/internal/log"
)

// Per-call timeouts. Vector search and embedding calls must not block the
// caller indefinitely.
const (
	embedTimeout  = 30 * time.Second
	searchTimeout = 10 * time.Second
)

// undefinedTableCode is the PostgreSQL SQLSTATE for "relation does not
// exist". After Clear, reads degrade to empty results instead of failing.
const undefinedTableCode = "42P01"

// Record is a stored chunk row.
type Record struct {
	ID         string
	Content    string
	Embedding  pgvector.Vector
	Source     string
	Filename   string
	FileType   string
	FileSize   int64
	ChunkIndex int
}

// SearchRow is a raw nearest-neighbour row as returned by the database.
// Distance is the cosine distance (lower is closer).
type SearchRow struct {
	ID         string
	Content    string
	Source     string
	Filename   string
	FileType   string
	FileSize   int64
	ChunkIndex int
	Distance   float64
}

// SearchResult is a retrieved chunk with a similarity score in [0, 1],
// higher is better.
type SearchResult struct {
	ID         string
	Content    string
	Source     string
	Filename   string
	FileType   string
	FileSize   int64
	ChunkIndex int
	Score      float64
}

// Querier defines the database operations the Gateway needs.
// Following Go best practices: interfaces are defined by the consumer,
// not the provider.
type Querier interface {
	// CreateTable creates the document table if it does not exist.
	CreateTable(ctx context.Context) error

	// Insert stores one chunk row.
	Insert(ctx context.Context, rec Record) error

	// SearchNearest returns the k rows closest to the embedding by cosine
	// distance, best first.
	SearchNearest(ctx context.Context, embedding pgvector.Vector, k int) ([]SearchRow, error)

	// CountRows counts all stored chunks.
	CountRows(ctx context.Context) (int64, error)

	// DropTable drops the document table if it exists.
	DropTable(ctx context.Context) error
}

// Gateway manages embedded document chunks with vector search.
//
// Gateway is safe for concurrent use by multiple goroutines: inserts are
// atomic rows and Clear is a single DROP, so readers observe either the
// old table or a missing one (which reads as empty).
type Gateway struct {
	queries  Querier
	embedder ai.Embedder
	logger   log.Logger
}

// New creates a Gateway.
//
// Example (testing with mocks):
//
//	gw := index.New(mockQuerier, fakeEmbedder, log.NewNop())
func New(querier Querier, embedder ai.Embedder, logger log.Logger) *Gateway {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Gateway{
		queries:  querier,
		embedder: embedder,
		logger:   logger.With("component", "index"),
	}
}

// Ingest embeds the chunks and stores them. Returns the number of chunks
// stored.
//
// Each row id is "<filename>_<chunk_index>". Re-ingesting the same file
// appends new rows rather than replacing old ones; callers that want a
// fresh index run Clear first.
//
// An empty input returns 0 without touching the database, so ingesting an
// empty document never creates the table.
func (g *Gateway) Ingest(ctx context.Context, chunks []chunk.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	if err := g.queries.CreateTable(ctx); err != nil {
		return 0, fmt.Errorf("ensuring document table: %w", err)
	}

	embedCtx, cancel := context.WithTimeout(ctx, embedTimeout)
	defer cancel()

	// One embedding request for the whole batch.
	docs := make([]*ai.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = ai.DocumentFromText(c.Content, nil)
	}
	resp, err := g.embedder.Embed(embedCtx, &ai.EmbedRequest{Input: docs})
	if err != nil {
		return 0, fmt.Errorf("embedding %d chunks: %w", len(chunks), err)
	}
	if len(resp.Embeddings) != len(chunks) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d chunks", len(resp.Embeddings), len(chunks))
	}

	for i, c := range chunks {
		vec := resp.Embeddings[i].Embedding
		if len(vec) == 0 {
			return i, fmt.Errorf("empty embedding for chunk %d of %q", c.Meta.ChunkIndex, c.Meta.Filename)
		}
		rec := Record{
			ID:         fmt.Sprintf("%s_%d", c.Meta.Filename, c.Meta.ChunkIndex),
			Content:    c.Content,
			Embedding:  pgvector.NewVector(vec),
			Source:     c.Meta.Source,
			Filename:   c.Meta.Filename,
			FileType:   c.Meta.FileType,
			FileSize:   c.Meta.FileSize,
			ChunkIndex: c.Meta.ChunkIndex,
		}
		if err := g.queries.Insert(ctx, rec); err != nil {
			return i, fmt.Errorf("inserting chunk %q: %w", rec.ID, err)
		}
	}

	g.logger.Debug("ingested chunks", "count", len(chunks), "filename", chunks[0].Meta.Filename)
	return len(chunks), nil
}

// Search returns the k chunks most similar to the query, best first.
//
// k <= 0 yields an empty result. A missing table (for example right after
// Clear) also yields an empty result rather than an error.
//
// pgvector's <=> operator returns cosine DISTANCE (lower is closer); the
// gateway converts it to similarity 1-distance so Score is always
// higher-is-better. Callers never see distances.
func (g *Gateway) Search(ctx context.Context, query string, k int) ([]SearchResult, error) {
	if k <= 0 {
		return nil, nil
	}

	searchCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	resp, err := g.embedder.Embed(searchCtx, &ai.EmbedRequest{
		Input: []*ai.Document{ai.DocumentFromText(query, nil)},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("query embedding timeout: %w", err)
		}
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, errors.New("empty embedding returned for query")
	}

	rows, err := g.queries.SearchNearest(searchCtx, pgvector.NewVector(resp.Embeddings[0].Embedding), k)
	if err != nil {
		if isUndefinedTable(err) {
			g.logger.Debug("search on missing table, returning empty")
			return nil, nil
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("vector search timeout: %w", err)
		}
		return nil, fmt.Errorf("vector search: %w", err)
	}

	results := make([]SearchResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, SearchResult{
			ID:         row.ID,
			Content:    row.Content,
			Source:     row.Source,
			Filename:   row.Filename,
			FileType:   row.FileType,
			FileSize:   row.FileSize,
			ChunkIndex: row.ChunkIndex,
			Score:      distanceToScore(row.Distance),
		})
	}
	return results, nil
}

// Count returns the number of stored chunks. A missing table counts as 0.
func (g *Gateway) Count(ctx context.Context) (int, error) {
	count, err := g.queries.CountRows(ctx)
	if err != nil {
		if isUndefinedTable(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	if count > math.MaxInt {
		return 0, fmt.Errorf("document count %d exceeds platform int capacity", count)
	}
	return int(count), nil
}

// Clear drops the document table. The next Ingest recreates it; Count and
// Search degrade to 0/empty in between.
func (g *Gateway) Clear(ctx context.Context) error {
	if err := g.queries.DropTable(ctx); err != nil {
		return fmt.Errorf("dropping document table: %w", err)
	}
	g.logger.Info("document index cleared")
	return nil
}

// distanceToScore converts cosine distance to similarity, clamped to [0, 1].
func distanceToScore(distance float64) float64 {
	score := 1 - distance
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// isUndefinedTable reports whether err is PostgreSQL's undefined_table.
func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == undefinedTableCode
}
