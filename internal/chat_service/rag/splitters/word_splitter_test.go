package splitters

import (
	"strings"
	"testing"
)

func TestSplit_WindowsAndPositions(t *testing.T) {
	s := NewWordSplitter(500)
	text := strings.TrimSpace(strings.Repeat("word ", 1200))

	chunks := s.Split(text, "Pricing")
	if len(chunks) != 3 {
		t.Fatalf("Split() produced %d chunks, want 3", len(chunks))
	}

	wantSizes := []int{500, 500, 200}
	for i, c := range chunks {
		if got := len(strings.Fields(c.Text)); got != wantSizes[i] {
			t.Errorf("chunk %d has %d words, want %d", i, got, wantSizes[i])
		}
		if c.Position != i {
			t.Errorf("chunk %d has position %d, want %d", i, c.Position, i)
		}
		if c.Title != "Pricing" {
			t.Errorf("chunk %d has title %q, want %q", i, c.Title, "Pricing")
		}
	}
}

func TestSplit_ShortText(t *testing.T) {
	s := NewWordSplitter(500)
	chunks := s.Split("just a few words", "Home")
	if len(chunks) != 1 {
		t.Fatalf("Split() produced %d chunks, want 1", len(chunks))
	}
	if chunks[0].Text != "just a few words" {
		t.Errorf("chunk text = %q, want original text", chunks[0].Text)
	}
	if chunks[0].Position != 0 {
		t.Errorf("chunk position = %d, want 0", chunks[0].Position)
	}
}

func TestSplit_EmptyText(t *testing.T) {
	s := NewWordSplitter(500)
	if chunks := s.Split("", "Empty"); len(chunks) != 0 {
		t.Errorf("Split(\"\") produced %d chunks, want 0", len(chunks))
	}
	if chunks := s.Split("   \n\t  ", "Blank"); len(chunks) != 0 {
		t.Errorf("Split(whitespace) produced %d chunks, want 0", len(chunks))
	}
}

func TestNewWordSplitter_DefaultSize(t *testing.T) {
	if s := NewWordSplitter(0); s.ChunkSize != DefaultChunkSize {
		t.Errorf("ChunkSize = %d, want %d", s.ChunkSize, DefaultChunkSize)
	}
	if s := NewWordSplitter(-1); s.ChunkSize != DefaultChunkSize {
		t.Errorf("ChunkSize = %d, want %d", s.ChunkSize, DefaultChunkSize)
	}
}
