package tui

import (
	"strings"
	"testing"

	"github.com/docubot-ai/docubot/internal/chat"
)

func TestFormatSourcesDeduplicates(t *testing.T) {
	sources := []chat.Source{
		{Filename: "a.txt", Score: 0.9},
		{Filename: "b.pdf", Score: 0.8},
		{Filename: "a.txt", Score: 0.7},
	}

	got := formatSources(sources)
	want := "sources: a.txt, b.pdf"
	if got != want {
		t.Errorf("formatSources() = %q, want %q", got, want)
	}
}

func TestFormatSourcesPreservesOrder(t *testing.T) {
	sources := []chat.Source{
		{Filename: "z.md"},
		{Filename: "a.md"},
	}

	got := formatSources(sources)
	if !strings.Contains(got, "z.md, a.md") {
		t.Errorf("formatSources() = %q, want ranking order preserved", got)
	}
}
