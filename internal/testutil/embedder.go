package testutil

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
)

// TokenEmbedder is a deterministic ai.Embedder for tests. It builds a
// bag-of-words vector by hashing each lowercased token into a fixed
// dimension, so texts sharing tokens score higher cosine similarity than
// unrelated texts. This makes retrieval ranking testable offline.
//
// Thread-safe for concurrent use.
type TokenEmbedder struct {
	mu        sync.Mutex
	dim       int
	overrides map[string][]float32
	callCount int
}

// NewTokenEmbedder creates a TokenEmbedder with the given dimension.
func NewTokenEmbedder(dim int) *TokenEmbedder {
	return &TokenEmbedder{
		dim:       dim,
		overrides: make(map[string][]float32),
	}
}

// SetVector registers an explicit vector for a given content string.
// Use this to control exact cosine similarity between test inputs.
func (e *TokenEmbedder) SetVector(content string, vec []float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.overrides[content] = vec
}

// CallCount returns the number of Embed calls made.
func (e *TokenEmbedder) CallCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.callCount
}

// Name implements ai.Embedder.
func (e *TokenEmbedder) Name() string { return "test/token-embedder" }

// Register implements ai.Embedder (no-op for testing).
func (e *TokenEmbedder) Register(api.Registry) {}

// Embed implements ai.Embedder.
func (e *TokenEmbedder) Embed(_ context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	e.mu.Lock()
	e.callCount++
	e.mu.Unlock()

	embeddings := make([]*ai.Embedding, len(req.Input))
	for i, doc := range req.Input {
		embeddings[i] = &ai.Embedding{Embedding: e.vectorFor(documentText(doc))}
	}
	return &ai.EmbedResponse{Embeddings: embeddings}, nil
}

func (e *TokenEmbedder) vectorFor(content string) []float32 {
	e.mu.Lock()
	if v, ok := e.overrides[content]; ok {
		e.mu.Unlock()
		return v
	}
	e.mu.Unlock()

	vec := make([]float32, e.dim)
	for _, token := range strings.Fields(strings.ToLower(content)) {
		token = strings.Trim(token, ".,;:!?\"'()")
		if token == "" {
			continue
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		vec[int(h.Sum32())%e.dim]++
	}

	// Normalize to unit length so cosine similarity equals dot product.
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		n := float32(math.Sqrt(norm))
		for i := range vec {
			vec[i] /= n
		}
	}
	return vec
}

// documentText extracts all text content from a Document's parts.
func documentText(doc *ai.Document) string {
	var sb strings.Builder
	for _, p := range doc.Content {
		if p.Kind == ai.PartText {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}
