package index_test

import (
	"context"
	"testing"

	"github.com/docubot-ai/docubot/internal/chunk"
	"github.com/docubot-ai/docubot/internal/index"
	"github.com/docubot-ai/docubot/internal/log"
	"github.com/docubot-ai/docubot/internal/testutil"
)

// setupGateway spins up a pgvector container and returns a ready gateway.
func setupGateway(t *testing.T) (*index.Gateway, *testutil.TokenEmbedder) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	db, cleanup := testutil.SetupTestDB(t)
	t.Cleanup(cleanup)

	embedder := testutil.NewTokenEmbedder(64)
	querier, err := index.NewPGQuerier(db.Pool, "documents", 64)
	if err != nil {
		t.Fatalf("NewPGQuerier() = %v", err)
	}
	return index.New(querier, embedder, log.NewNop()), embedder
}

func ingestFile(t *testing.T, gw *index.Gateway, filename, content string) {
	t.Helper()
	chunks := []chunk.Chunk{{
		Content: content,
		Meta: chunk.Metadata{
			Source:   "/docs/" + filename,
			Filename: filename,
			FileType: ".txt",
			FileSize: int64(len(content)),
		},
	}}
	if _, err := gw.Ingest(context.Background(), chunks); err != nil {
		t.Fatalf("Ingest(%s) = %v", filename, err)
	}
}

func TestGatewayLifecycle(t *testing.T) {
	gw, _ := setupGateway(t)
	ctx := context.Background()

	// Fresh database: no table yet, reads degrade gracefully.
	n, err := gw.Count(ctx)
	if err != nil || n != 0 {
		t.Fatalf("Count(fresh) = %d, %v; want 0, nil", n, err)
	}
	results, err := gw.Search(ctx, "anything", 5)
	if err != nil || len(results) != 0 {
		t.Fatalf("Search(fresh) = %d results, %v; want empty, nil", len(results), err)
	}

	ingestFile(t, gw, "a.txt", "alpha beta gamma")
	ingestFile(t, gw, "b.txt", "delta epsilon zeta")

	n, err = gw.Count(ctx)
	if err != nil || n != 2 {
		t.Fatalf("Count() = %d, %v; want 2", n, err)
	}

	if err := gw.Clear(ctx); err != nil {
		t.Fatalf("Clear() = %v", err)
	}
	n, err = gw.Count(ctx)
	if err != nil || n != 0 {
		t.Fatalf("Count(after clear) = %d, %v; want 0, nil", n, err)
	}

	// Ingest after clear recreates the table.
	ingestFile(t, gw, "c.txt", "eta theta iota")
	n, err = gw.Count(ctx)
	if err != nil || n != 1 {
		t.Fatalf("Count(after re-ingest) = %d, %v; want 1", n, err)
	}
}

func TestGatewayRankingByQueryOverlap(t *testing.T) {
	gw, _ := setupGateway(t)
	ctx := context.Background()

	ingestFile(t, gw, "frutas1.txt", "Apple banana mango")
	ingestFile(t, gw, "vehiculos1.txt", "Coche camión carretera")
	ingestFile(t, gw, "frutas2.txt", "Banana fresa papaya")

	results, err := gw.Search(ctx, "camión", 2)
	if err != nil {
		t.Fatalf("Search() = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Filename != "vehiculos1.txt" {
		t.Errorf("top result = %s (score %.3f), want vehiculos1.txt",
			results[0].Filename, results[0].Score)
	}
	if results[0].Score < results[1].Score {
		t.Error("results not ordered by descending score")
	}
}

func TestGatewayReingestAppendsDuplicates(t *testing.T) {
	gw, _ := setupGateway(t)
	ctx := context.Background()

	ingestFile(t, gw, "doc.txt", "some content here")
	ingestFile(t, gw, "doc.txt", "some content here")

	n, err := gw.Count(ctx)
	if err != nil {
		t.Fatalf("Count() = %v", err)
	}
	if n != 2 {
		t.Errorf("Count() = %d, want 2 (re-ingest appends)", n)
	}
}

func TestGatewaySearchCapsAtK(t *testing.T) {
	gw, _ := setupGateway(t)
	ctx := context.Background()

	ingestFile(t, gw, "a.txt", "shared topic words one")
	ingestFile(t, gw, "b.txt", "shared topic words two")
	ingestFile(t, gw, "c.txt", "shared topic words three")

	results, err := gw.Search(ctx, "shared topic", 2)
	if err != nil {
		t.Fatalf("Search() = %v", err)
	}
	if len(results) > 2 {
		t.Errorf("got %d results, want at most 2", len(results))
	}
}
