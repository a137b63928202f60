package bot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/docubot-ai/docubot/internal/chat"
	"github.com/docubot-ai/docubot/internal/chunk"
	"github.com/docubot-ai/docubot/internal/extract"
	"github.com/docubot-ai/docubot/internal/log"
	"github.com/docubot-ai/docubot/internal/session"
)

// mockIndexer implements Indexer for testing.
type mockIndexer struct {
	ingestErr error
	clearErr  error
	countErr  error
	count     int

	ingestCalls int
	clearCalls  int
	lastChunks  []chunk.Chunk
}

func (m *mockIndexer) Ingest(_ context.Context, chunks []chunk.Chunk) (int, error) {
	m.ingestCalls++
	m.lastChunks = chunks
	if m.ingestErr != nil {
		return 0, m.ingestErr
	}
	return len(chunks), nil
}

func (m *mockIndexer) Count(context.Context) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return m.count, nil
}

func (m *mockIndexer) Clear(context.Context) error {
	m.clearCalls++
	return m.clearErr
}

// mockAnswerer implements Answerer for testing.
type mockAnswerer struct {
	response    chat.Response
	summary     string
	answerCalls int
	lastSession string
	lastQ       string
}

func (m *mockAnswerer) Answer(_ context.Context, sessionID, question string) chat.Response {
	m.answerCalls++
	m.lastSession = sessionID
	m.lastQ = question
	return m.response
}

func (m *mockAnswerer) Summarize(context.Context, string) (string, error) {
	return m.summary, nil
}

func newPipeline(t *testing.T, indexer *mockIndexer, answerer *mockAnswerer) (*Pipeline, *session.Store) {
	t.Helper()
	splitter, err := chunk.New(50, 10)
	if err != nil {
		t.Fatalf("chunk.New() = %v", err)
	}
	sessions := session.NewStore(log.NewNop())
	p := New(extract.New(log.NewNop()), splitter, indexer, sessions, answerer, log.NewNop())
	return p, sessions
}

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.txt")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestIngestDocument(t *testing.T) {
	indexer := &mockIndexer{}
	p, _ := newPipeline(t, indexer, &mockAnswerer{})

	path := writeDoc(t, "some document text that will be chunked and stored")
	n, err := p.IngestDocument(context.Background(), path)
	if err != nil {
		t.Fatalf("IngestDocument() = %v", err)
	}
	if n == 0 {
		t.Error("IngestDocument() stored 0 chunks")
	}
	if indexer.ingestCalls != 1 {
		t.Errorf("ingest calls = %d, want 1", indexer.ingestCalls)
	}

	meta := indexer.lastChunks[0].Meta
	if meta.Filename != "doc.txt" || meta.FileType != ".txt" || meta.Source != path {
		t.Errorf("chunk metadata = %+v", meta)
	}
	if meta.FileSize == 0 {
		t.Error("chunk metadata missing file size")
	}
}

func TestIngestDocumentMissingFile(t *testing.T) {
	indexer := &mockIndexer{}
	p, _ := newPipeline(t, indexer, &mockAnswerer{})

	_, err := p.IngestDocument(context.Background(), "/nonexistent/file.pdf")
	if !errors.Is(err, extract.ErrFileNotFound) {
		t.Fatalf("IngestDocument() = %v, want ErrFileNotFound", err)
	}
	if indexer.ingestCalls != 0 {
		t.Error("indexer touched despite extraction failure")
	}
}

func TestIngestDocumentUnsupportedFormat(t *testing.T) {
	p, _ := newPipeline(t, &mockIndexer{}, &mockAnswerer{})

	path := filepath.Join(t.TempDir(), "image.png")
	if err := os.WriteFile(path, []byte("png"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := p.IngestDocument(context.Background(), path)
	if !errors.Is(err, extract.ErrUnsupportedFormat) {
		t.Fatalf("IngestDocument() = %v, want ErrUnsupportedFormat", err)
	}
}

func TestIngestDocumentIndexError(t *testing.T) {
	indexer := &mockIndexer{ingestErr: errors.New("db down")}
	p, _ := newPipeline(t, indexer, &mockAnswerer{})

	path := writeDoc(t, "content")
	if _, err := p.IngestDocument(context.Background(), path); err == nil {
		t.Fatal("IngestDocument() = nil, want index error")
	}
}

func TestAskDelegates(t *testing.T) {
	answerer := &mockAnswerer{response: chat.Response{Answer: "42", Confidence: 0.5}}
	p, _ := newPipeline(t, &mockIndexer{}, answerer)

	resp := p.Ask(context.Background(), "sess", "meaning of life?")
	if resp.Answer != "42" {
		t.Errorf("Ask() = %q", resp.Answer)
	}
	if answerer.lastSession != "sess" || answerer.lastQ != "meaning of life?" {
		t.Errorf("delegation lost args: %q %q", answerer.lastSession, answerer.lastQ)
	}
}

func TestClearAll(t *testing.T) {
	indexer := &mockIndexer{}
	p, sessions := newPipeline(t, indexer, &mockAnswerer{})
	sessions.GetOrCreate("s").AddTurn("q", "a")

	if err := p.ClearAll(context.Background()); err != nil {
		t.Fatalf("ClearAll() = %v", err)
	}
	if indexer.clearCalls != 1 {
		t.Errorf("clear calls = %d, want 1", indexer.clearCalls)
	}
	if sessions.GetOrCreate("s").Count() != 0 {
		t.Error("sessions not cleared")
	}
}

func TestClearAllIndexFailureStillClearsSessions(t *testing.T) {
	indexer := &mockIndexer{clearErr: errors.New("locked")}
	p, sessions := newPipeline(t, indexer, &mockAnswerer{})
	sessions.GetOrCreate("s").AddTurn("q", "a")

	err := p.ClearAll(context.Background())
	if err == nil {
		t.Fatal("ClearAll() = nil, want index error surfaced")
	}
	if sessions.GetOrCreate("s").Count() != 0 {
		t.Error("sessions not cleared after index failure")
	}
}

func TestClearMemory(t *testing.T) {
	p, sessions := newPipeline(t, &mockIndexer{}, &mockAnswerer{})
	sessions.GetOrCreate("a").AddTurn("q", "a")
	sessions.GetOrCreate("b").AddTurn("q", "a")

	p.ClearMemory("a")
	if sessions.GetOrCreate("a").Count() != 0 {
		t.Error("session a not cleared")
	}
	if sessions.GetOrCreate("b").Count() != 2 {
		t.Error("session b affected by clearing a")
	}
}

func TestCount(t *testing.T) {
	p, _ := newPipeline(t, &mockIndexer{count: 7}, &mockAnswerer{})
	n, err := p.Count(context.Background())
	if err != nil || n != 7 {
		t.Errorf("Count() = %d, %v; want 7, nil", n, err)
	}
}

func TestSummarize(t *testing.T) {
	p, _ := newPipeline(t, &mockIndexer{}, &mockAnswerer{summary: "short chat"})
	got, err := p.Summarize(context.Background(), "s")
	if err != nil || got != "short chat" {
		t.Errorf("Summarize() = %q, %v", got, err)
	}
}
