package index

import (
	"context"
	"errors"
	"testing"

	"smartchat/internal/chat_service/rag/schema"
	"smartchat/internal/chat_service/rag/storages/vectorstore"
	"smartchat/pkg/logger"
)

// stubEmbedder maps text length to a one-dimensional vector so tests can
// control distances without a real model.
type stubEmbedder struct {
	calls int
	fail  bool
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.fail {
		return nil, errors.New("embedding backend down")
	}
	s.calls++
	return []float32{float32(len(text))}, nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if s.fail {
		return nil, errors.New("embedding backend down")
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t))}
	}
	s.calls++
	return out, nil
}

func newTestIndex(embedder *stubEmbedder) *Index {
	return New(embedder, vectorstore.NewInMemoryStore(), logger.New("test", "", ""))
}

func TestChunkID(t *testing.T) {
	got := ChunkID("https://example.com/services", 2)
	want := "https://example.com/services_chunk_2"
	if got != want {
		t.Errorf("ChunkID() = %q, want %q", got, want)
	}
}

func TestIngestPages_IdempotentReingest(t *testing.T) {
	idx := newTestIndex(&stubEmbedder{})
	ctx := context.Background()

	pages := []schema.PageDocument{
		{
			URL:   "https://example.com/services",
			Title: "Services",
			Chunks: []schema.Chunk{
				{Text: "web development services", Position: 0},
				{Text: "mobile app development", Position: 1},
			},
		},
	}

	n, err := idx.IngestPages(ctx, pages)
	if err != nil {
		t.Fatalf("IngestPages() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("IngestPages() = %d chunks, want 2", n)
	}

	// Same page again: ids collide, the index must not grow.
	if _, err := idx.IngestPages(ctx, pages); err != nil {
		t.Fatalf("IngestPages() second pass error = %v", err)
	}
	count, err := idx.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 2 {
		t.Errorf("Count() = %d after re-ingest, want 2", count)
	}
}

func TestIngest_EmptyIsNoOp(t *testing.T) {
	embedder := &stubEmbedder{}
	idx := newTestIndex(embedder)

	if err := idx.Ingest(context.Background(), nil); err != nil {
		t.Fatalf("Ingest(nil) error = %v", err)
	}
	if embedder.calls != 0 {
		t.Errorf("Ingest(nil) called the embedder %d times, want 0", embedder.calls)
	}
}

func TestIngest_EmbeddingFailure(t *testing.T) {
	idx := newTestIndex(&stubEmbedder{fail: true})

	err := idx.Ingest(context.Background(), []schema.Document{{ID: "a", Text: "text"}})
	if err == nil {
		t.Fatal("Ingest() returned nil error when embedding fails")
	}
}

func TestQuery_RanksByDistance(t *testing.T) {
	idx := newTestIndex(&stubEmbedder{})
	ctx := context.Background()

	err := idx.Ingest(ctx, []schema.Document{
		{ID: "short", Text: "ab"},
		{ID: "long", Text: "abcdefghijklmnop"},
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	// The query embeds near the short document.
	matches, err := idx.Query(ctx, "abc", 2)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("Query() returned %d matches, want 2", len(matches))
	}
	if matches[0].Text != "ab" {
		t.Errorf("closest match = %q, want the short document", matches[0].Text)
	}
}

func TestQuery_EmptyIndex(t *testing.T) {
	idx := newTestIndex(&stubEmbedder{})

	matches, err := idx.Query(context.Background(), "anything", 3)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("Query() on empty index returned %d matches, want 0", len(matches))
	}
}
