package chunk

import (
	"errors"
	"strings"
	"testing"
)

func mustSplitter(t *testing.T, size, overlap int) *Splitter {
	t.Helper()
	s, err := New(size, overlap)
	if err != nil {
		t.Fatalf("New(%d, %d) = %v", size, overlap, err)
	}
	return s
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		wantErr bool
	}{
		{"valid", 1000, 200, false},
		{"zero overlap", 100, 0, false},
		{"zero size", 0, 0, true},
		{"negative size", -1, 0, true},
		{"negative overlap", 100, -1, true},
		{"overlap equals size", 100, 100, true},
		{"overlap exceeds size", 100, 150, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.size, tt.overlap)
			if tt.wantErr {
				if !errors.Is(err, ErrBadOverlap) {
					t.Fatalf("New() = %v, want ErrBadOverlap", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() = %v, want nil", err)
			}
		})
	}
}

func TestSplitEmptyText(t *testing.T) {
	s := mustSplitter(t, 100, 10)
	if got := s.Split("", Metadata{}); got != nil {
		t.Errorf("Split(empty) = %v, want nil", got)
	}
	if got := s.Split("   \n\n  ", Metadata{}); got != nil {
		t.Errorf("Split(whitespace) = %v, want nil", got)
	}
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	s := mustSplitter(t, 100, 10)
	chunks := s.Split("a short document", Metadata{Filename: "a.txt"})
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].Content != "a short document" {
		t.Errorf("content = %q", chunks[0].Content)
	}
	if chunks[0].Meta.ChunkIndex != 0 {
		t.Errorf("index = %d, want 0", chunks[0].Meta.ChunkIndex)
	}
}

func TestSplitPrefersParagraphBoundaries(t *testing.T) {
	s := mustSplitter(t, 25, 0)
	text := "first paragraph here\n\nsecond paragraph here"
	chunks := s.Split(text, Metadata{})
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks: %+v", len(chunks), chunks)
	}
	if chunks[0].Content != "first paragraph here" {
		t.Errorf("chunk 0 = %q", chunks[0].Content)
	}
	if chunks[1].Content != "second paragraph here" {
		t.Errorf("chunk 1 = %q", chunks[1].Content)
	}
}

func TestSplitRespectsMaxSize(t *testing.T) {
	s := mustSplitter(t, 50, 10)
	text := strings.Repeat("word ", 200)
	chunks := s.Split(text, Metadata{})
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if n := len([]rune(c.Content)); n > 50 {
			t.Errorf("chunk %d has %d chars, exceeds size 50", i, n)
		}
	}
}

func TestSplitOverlapCarriesContext(t *testing.T) {
	s := mustSplitter(t, 20, 10)
	text := "aaaa bbbb cccc dddd eeee ffff"
	chunks := s.Split(text, Metadata{})
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	// Each chunk after the first must start with text already seen at the
	// end of its predecessor.
	for i := 1; i < len(chunks); i++ {
		firstWord := strings.Fields(chunks[i].Content)[0]
		if !strings.Contains(chunks[i-1].Content, firstWord) {
			t.Errorf("chunk %d start %q not present in chunk %d %q",
				i, firstWord, i-1, chunks[i-1].Content)
		}
	}
}

func TestSplitOversizedAtomicUnitKeptWhole(t *testing.T) {
	s := mustSplitter(t, 10, 2)
	long := strings.Repeat("x", 25)
	chunks := s.Split(long, Metadata{})
	// No separators at all: the splitter falls back to character splitting,
	// so the text is still divided rather than dropped.
	var total int
	for _, c := range chunks {
		total += len(c.Content)
	}
	if total < 25-len(chunks)*2 {
		t.Errorf("content lost: total %d of 25 across %d chunks", total, len(chunks))
	}
}

func TestSplitDeterministic(t *testing.T) {
	s := mustSplitter(t, 40, 10)
	text := "alpha beta gamma\n\ndelta epsilon zeta\neta theta iota kappa lambda mu nu xi"
	a := s.Split(text, Metadata{})
	b := s.Split(text, Metadata{})
	if len(a) != len(b) {
		t.Fatalf("non-deterministic chunk count: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Content != b[i].Content {
			t.Errorf("chunk %d differs: %q vs %q", i, a[i].Content, b[i].Content)
		}
	}
}

func TestSplitMetadataCopiedByValue(t *testing.T) {
	s := mustSplitter(t, 20, 0)
	meta := Metadata{
		Source:   "/tmp/report.pdf",
		Filename: "report.pdf",
		FileType: ".pdf",
		FileSize: 12345,
	}
	chunks := s.Split("one two three four five six seven eight nine ten", meta)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	chunks[0].Meta.Filename = "mutated.pdf"
	if chunks[1].Meta.Filename != "report.pdf" {
		t.Errorf("metadata shared between chunks: %q", chunks[1].Meta.Filename)
	}
	if meta.Filename != "report.pdf" {
		t.Errorf("caller metadata mutated: %q", meta.Filename)
	}

	for i, c := range chunks {
		if c.Meta.ChunkIndex != i {
			t.Errorf("chunk %d has index %d", i, c.Meta.ChunkIndex)
		}
		if c.Meta.Source != meta.Source || c.Meta.FileSize != meta.FileSize {
			t.Errorf("chunk %d lost provenance: %+v", i, c.Meta)
		}
	}
}

func TestSplitNoContentDropped(t *testing.T) {
	s := mustSplitter(t, 30, 5)
	text := "The quick brown fox jumps over the lazy dog near the river bank today"
	chunks := s.Split(text, Metadata{})

	joined := ""
	for _, c := range chunks {
		joined += c.Content + " "
	}
	for _, word := range strings.Fields(text) {
		if !strings.Contains(joined, word) {
			t.Errorf("word %q missing from chunks", word)
		}
	}
}
