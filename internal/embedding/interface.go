package embedding

import "context"

// Embedding is the interface every embedding model client implements. The
// content index uses the same implementation for ingest and query so both
// sides live in one embedding space.
type Embedding interface {
	// Embed generates an embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embedding vectors for a batch of texts, one
	// vector per input in the same order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
