package vectorstore

import (
	"context"

	"smartchat/internal/chat_service/rag/schema"
)

// VectorStore is the persistent nearest-neighbor collection behind the
// content index. Upsert is keyed by document id: writing an existing id
// replaces the stored vector and metadata in place. Query returns matches
// ranked ascending by distance and an empty slice, never an error, when the
// collection has nothing relevant.
type VectorStore interface {
	Upsert(ctx context.Context, docs []schema.Document) error
	Query(ctx context.Context, embedding []float32, topK int) ([]schema.Match, error)
	Count(ctx context.Context) (int64, error)
	Clear(ctx context.Context) error
}
