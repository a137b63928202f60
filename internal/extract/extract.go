// Package extract converts documents on disk into plain text.
//
// Supported formats: PDF, DOCX, TXT and Markdown. Dispatch is by file
// extension; unknown extensions fail with ErrUnsupportedFormat so callers
// can report the problem instead of silently skipping files.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/docubot-ai/docubot/internal/log"
)

var (
	// ErrUnsupportedFormat indicates the file extension has no extractor.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrFileNotFound indicates the document does not exist on disk.
	ErrFileNotFound = errors.New("file not found")
)

// Extractor extracts plain text from document files.
type Extractor struct {
	logger log.Logger
}

// New creates an Extractor. A nil logger falls back to a no-op logger.
func New(logger log.Logger) *Extractor {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Extractor{logger: logger.With("component", "extract")}
}

// Text extracts the plain text content of the file at path.
//
// Returns ErrFileNotFound when the file does not exist and
// ErrUnsupportedFormat for extensions without an extractor. The returned
// text is trimmed of surrounding whitespace.
func (e *Extractor) Text(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))

	var text string
	var err error
	switch ext {
	case ".pdf":
		text, err = pdfText(path)
	case ".docx":
		text, err = docxText(path)
	case ".txt", ".md":
		text, err = plainText(path)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return "", fmt.Errorf("extracting %s: %w", path, err)
	}

	text = strings.TrimSpace(text)
	e.logger.Debug("extracted document", "path", path, "format", ext, "chars", len(text))
	return text, nil
}

// plainText reads a text or markdown file as-is.
func plainText(path string) (string, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the CLI user
	if err != nil {
		return "", fmt.Errorf("reading file: %w", err)
	}
	return string(data), nil
}
