package index

import (
	"context"
	"fmt"

	"smartchat/internal/chat_service/rag/schema"
	"smartchat/internal/chat_service/rag/storages/vectorstore"
	"smartchat/internal/embedding"
	"smartchat/pkg/logger"
)

// ChunkID derives the deterministic vector id for a chunk of a page.
// Re-ingesting an unchanged page therefore overwrites instead of appending.
func ChunkID(pageURL string, position int) string {
	return fmt.Sprintf("%s_chunk_%d", pageURL, position)
}

// Index is the content index: one embedding model paired with one
// nearest-neighbor collection. The same model embeds both ingested chunks
// and queries, keeping both sides of the search in one embedding space.
type Index struct {
	embedder embedding.Embedding
	store    vectorstore.VectorStore
	log      *logger.Logger
}

// New creates an Index over the given embedder and store.
func New(embedder embedding.Embedding, store vectorstore.VectorStore, log *logger.Logger) *Index {
	return &Index{embedder: embedder, store: store, log: log}
}

// Ingest embeds each document's text and upserts the result keyed by the
// document id. An empty input is a no-op.
func (idx *Index) Ingest(ctx context.Context, docs []schema.Document) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Text
	}

	embeddings, err := idx.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed documents: %w", err)
	}
	if len(embeddings) != len(docs) {
		return fmt.Errorf("embedding count mismatch: got %d for %d documents", len(embeddings), len(docs))
	}
	for i := range docs {
		docs[i].Embedding = embeddings[i]
	}

	if err := idx.store.Upsert(ctx, docs); err != nil {
		return fmt.Errorf("failed to store documents: %w", err)
	}
	idx.log.Info(fmt.Sprintf("Ingested %d documents into the content index", len(docs)))
	return nil
}

// IngestPages converts crawled pages into chunk documents and ingests them.
// It returns the number of chunks written.
func (idx *Index) IngestPages(ctx context.Context, pages []schema.PageDocument) (int, error) {
	var docs []schema.Document
	for _, page := range pages {
		for _, chunk := range page.Chunks {
			docs = append(docs, schema.Document{
				ID:   ChunkID(page.URL, chunk.Position),
				Text: chunk.Text,
				Meta: schema.PageMeta{
					URL:           page.URL,
					Title:         page.Title,
					Description:   page.Description,
					ChunkPosition: chunk.Position,
				},
			})
		}
	}

	if err := idx.Ingest(ctx, docs); err != nil {
		return 0, err
	}
	return len(docs), nil
}

// Query embeds the text and returns the topK nearest stored chunks ranked
// ascending by distance. An empty collection yields an empty slice.
func (idx *Index) Query(ctx context.Context, text string, topK int) ([]schema.Match, error) {
	queryEmbedding, err := idx.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	matches, err := idx.store.Query(ctx, queryEmbedding, topK)
	if err != nil {
		return nil, fmt.Errorf("failed to query vector store: %w", err)
	}
	return matches, nil
}

// Count returns the number of stored vectors.
func (idx *Index) Count(ctx context.Context) (int64, error) {
	return idx.store.Count(ctx)
}

// Clear drops every stored vector; the index remains usable afterward.
func (idx *Index) Clear(ctx context.Context) error {
	return idx.store.Clear(ctx)
}
