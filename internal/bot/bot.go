// Package bot wires extraction, chunking, indexing, sessions and chat into
// the document question-answering pipeline.
package bot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/docubot-ai/docubot/internal/chat"
	"github.com/docubot-ai/docubot/internal/chunk"
	"github.com/docubot-ai/docubot/internal/log"
	"github.com/docubot-ai/docubot/internal/session"
)

// Extractor converts a document file into plain text.
// *extract.Extractor satisfies it.
type Extractor interface {
	Text(path string) (string, error)
}

// Splitter splits text into chunks. *chunk.Splitter satisfies it.
type Splitter interface {
	Split(text string, meta chunk.Metadata) []chunk.Chunk
}

// Indexer is the vector index dependency. *index.Gateway satisfies it.
type Indexer interface {
	Ingest(ctx context.Context, chunks []chunk.Chunk) (int, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// Answerer answers and summarizes. *chat.Answerer satisfies it.
type Answerer interface {
	Answer(ctx context.Context, sessionID, question string) chat.Response
	Summarize(ctx context.Context, sessionID string) (string, error)
}

// Pipeline is the application facade: every user-visible operation goes
// through it. All dependencies are injected at construction; Pipeline
// holds no global state.
type Pipeline struct {
	extractor Extractor
	splitter  Splitter
	indexer   Indexer
	sessions  *session.Store
	answerer  Answerer
	logger    log.Logger
}

// New creates a Pipeline.
func New(extractor Extractor, splitter Splitter, indexer Indexer, sessions *session.Store, answerer Answerer, logger log.Logger) *Pipeline {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Pipeline{
		extractor: extractor,
		splitter:  splitter,
		indexer:   indexer,
		sessions:  sessions,
		answerer:  answerer,
		logger:    logger.With("component", "bot"),
	}
}

// IngestDocument extracts, chunks and indexes one document. Returns the
// number of chunks stored. Extraction and chunking errors propagate so the
// caller can report what to fix (missing file, unsupported format).
func (p *Pipeline) IngestDocument(ctx context.Context, path string) (int, error) {
	text, err := p.extractor.Text(path)
	if err != nil {
		return 0, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}

	meta := chunk.Metadata{
		Source:   path,
		Filename: filepath.Base(path),
		FileType: filepath.Ext(path),
		FileSize: info.Size(),
	}

	chunks := p.splitter.Split(text, meta)
	n, err := p.indexer.Ingest(ctx, chunks)
	if err != nil {
		return n, fmt.Errorf("indexing %s: %w", path, err)
	}

	p.logger.Info("document ingested", "path", path, "chunks", n)
	return n, nil
}

// Ask answers a question within the given session.
func (p *Pipeline) Ask(ctx context.Context, sessionID, question string) chat.Response {
	return p.answerer.Answer(ctx, sessionID, question)
}

// ClearAll clears the document index and every session's history.
// Sessions are cleared even when the index clear fails; the index error is
// then surfaced to the caller.
func (p *Pipeline) ClearAll(ctx context.Context) error {
	err := p.indexer.Clear(ctx)
	if err != nil {
		p.logger.Warn("clearing index failed, clearing sessions anyway", "error", err)
	}
	p.sessions.ClearAll()
	if err != nil {
		return fmt.Errorf("clearing index: %w", err)
	}
	p.logger.Info("index and conversation memory cleared")
	return nil
}

// ClearMemory resets one session's conversation history.
func (p *Pipeline) ClearMemory(sessionID string) {
	p.sessions.Clear(sessionID)
}

// Summarize produces a summary of the session's conversation.
func (p *Pipeline) Summarize(ctx context.Context, sessionID string) (string, error) {
	return p.answerer.Summarize(ctx, sessionID)
}

// Count returns the number of indexed chunks.
func (p *Pipeline) Count(ctx context.Context) (int, error) {
	return p.indexer.Count(ctx)
}
