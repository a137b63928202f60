// Package chunk splits document text into overlapping chunks for embedding.
//
// The splitter is a recursive character splitter: it prefers breaking on
// paragraph boundaries, then lines, then words, and only falls back to
// splitting mid-word when a single token exceeds the chunk size. Splitting
// is fully deterministic.
package chunk

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrBadOverlap indicates an invalid size/overlap combination.
var ErrBadOverlap = errors.New("chunk overlap must be smaller than chunk size")

// separators are tried in order; the first one present in the text wins.
// The empty separator splits into individual characters and always matches.
var separators = []string{"\n\n", "\n", " ", ""}

// Metadata describes the provenance of a chunk. It is copied by value into
// every chunk, so mutating one chunk's metadata never affects another.
type Metadata struct {
	Source     string
	Filename   string
	FileType   string
	FileSize   int64
	ChunkIndex int
}

// Chunk is a contiguous piece of document text plus its metadata.
type Chunk struct {
	Content string
	Meta    Metadata
}

// Splitter splits text into chunks of at most Size characters with Overlap
// characters carried between neighbours. Lengths are counted in runes.
type Splitter struct {
	size    int
	overlap int
}

// New creates a Splitter. Fails with ErrBadOverlap when size is not
// positive, overlap is negative, or overlap >= size.
func New(size, overlap int) (*Splitter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size %d must be positive", ErrBadOverlap, size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: overlap %d must not be negative", ErrBadOverlap, overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("%w: overlap %d >= size %d", ErrBadOverlap, overlap, size)
	}
	return &Splitter{size: size, overlap: overlap}, nil
}

// Split splits text into chunks. Each chunk receives a copy of meta with
// ChunkIndex set to its position. Empty or whitespace-only text yields no
// chunks.
func (s *Splitter) Split(text string, meta Metadata) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	pieces := s.splitText(text, separators)

	chunks := make([]Chunk, 0, len(pieces))
	for i, p := range pieces {
		m := meta
		m.ChunkIndex = i
		chunks = append(chunks, Chunk{Content: p, Meta: m})
	}
	return chunks
}

// splitText recursively splits text using the best available separator,
// then merges adjacent pieces back into chunks of at most s.size.
func (s *Splitter) splitText(text string, seps []string) []string {
	// Pick the first separator present in the text; "" always matches.
	separator := seps[len(seps)-1]
	var next []string
	for i, sep := range seps {
		if sep == "" || strings.Contains(text, sep) {
			separator = sep
			next = seps[i+1:]
			break
		}
	}

	splits := splitOn(text, separator)

	var final []string
	var good []string
	for _, piece := range splits {
		if runeLen(piece) < s.size {
			good = append(good, piece)
			continue
		}
		// Oversized piece: flush what we have, then re-split it with the
		// remaining separators (or keep it whole if none are left).
		if len(good) > 0 {
			final = append(final, s.merge(good, separator)...)
			good = nil
		}
		if len(next) == 0 {
			final = append(final, piece)
		} else {
			final = append(final, s.splitText(piece, next)...)
		}
	}
	if len(good) > 0 {
		final = append(final, s.merge(good, separator)...)
	}
	return final
}

// merge combines small pieces into chunks of at most s.size characters,
// carrying s.overlap characters of trailing context into each new chunk.
func (s *Splitter) merge(splits []string, separator string) []string {
	sepLen := runeLen(separator)

	var docs []string
	var current []string
	total := 0

	for _, piece := range splits {
		l := runeLen(piece)
		if total+l+joinLen(len(current), sepLen) > s.size && len(current) > 0 {
			if doc := join(current, separator); doc != "" {
				docs = append(docs, doc)
			}
			// Drop leading pieces until the carried tail fits in the
			// overlap budget and the next piece has room.
			for total > s.overlap ||
				(total+l+joinLen(len(current), sepLen) > s.size && total > 0) {
				total -= runeLen(current[0]) + joinLen(len(current)-1, sepLen)
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += l + joinLen(len(current)-1, sepLen)
	}

	if doc := join(current, separator); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

// splitOn splits text on separator, keeping non-empty pieces. The empty
// separator splits into individual characters.
func splitOn(text, separator string) []string {
	var raw []string
	if separator == "" {
		raw = strings.Split(text, "")
	} else {
		raw = strings.Split(text, separator)
	}
	pieces := make([]string, 0, len(raw))
	for _, p := range raw {
		if p != "" {
			pieces = append(pieces, p)
		}
	}
	return pieces
}

// join concatenates pieces with separator and trims surrounding whitespace.
func join(pieces []string, separator string) string {
	return strings.TrimSpace(strings.Join(pieces, separator))
}

// joinLen returns the separator overhead when a piece joins n existing
// pieces: zero when the chunk is empty, sepLen otherwise.
func joinLen(n, sepLen int) int {
	if n > 0 {
		return sepLen
	}
	return 0
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
