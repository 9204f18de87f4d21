package vectorstore

import (
	"context"
	"fmt"
	"strconv"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"smartchat/internal/chat_service/rag/schema"
	"smartchat/internal/database/milvus"
	"smartchat/pkg/logger"
)

const (
	// Column names of the Milvus collection.
	FieldID            = "id"
	FieldEmbedding     = "embedding"
	FieldText          = "text"
	FieldURL           = "url"
	FieldTitle         = "title"
	FieldDescription   = "description"
	FieldChunkPosition = "chunk_position"
)

// outputFields are the columns returned by every search.
var outputFields = []string{FieldID, FieldText, FieldURL, FieldTitle, FieldDescription, FieldChunkPosition}

// MilvusStore adapts the Milvus client wrapper to the VectorStore interface.
// The collection schema is driven by configuration and must contain the
// columns named above.
type MilvusStore struct {
	log    *logger.Logger
	client *milvus.Client
}

// NewMilvusStore creates a MilvusStore over an initialized Milvus client.
func NewMilvusStore(client *milvus.Client, log *logger.Logger) (*MilvusStore, error) {
	if client == nil || client.Client == nil {
		return nil, fmt.Errorf("milvus client is not initialized")
	}
	return &MilvusStore{log: log, client: client}, nil
}

// Upsert writes the documents keyed by id: existing ids are replaced, new
// ids inserted. Milvus applies the upsert atomically per primary key, so a
// concurrent search never observes a half-written row.
func (s *MilvusStore) Upsert(ctx context.Context, docs []schema.Document) error {
	if len(docs) == 0 {
		return nil
	}

	ids := make([]string, len(docs))
	embeddings := make([][]float32, len(docs))
	texts := make([]string, len(docs))
	urls := make([]string, len(docs))
	titles := make([]string, len(docs))
	descriptions := make([]string, len(docs))
	positions := make([]int64, len(docs))

	dim := 0
	for i, doc := range docs {
		ids[i] = doc.ID
		embeddings[i] = doc.Embedding
		texts[i] = doc.Text
		urls[i] = doc.Meta.URL
		titles[i] = doc.Meta.Title
		descriptions[i] = doc.Meta.Description
		positions[i] = int64(doc.Meta.ChunkPosition)
		if len(doc.Embedding) > dim {
			dim = len(doc.Embedding)
		}
	}

	collName := s.client.Config.Schema.CollectionName
	s.log.Info(fmt.Sprintf("Upserting %d documents into Milvus collection '%s'", len(docs), collName))

	_, err := s.client.Client.Upsert(ctx, collName, "", /* default partition */
		entity.NewColumnVarChar(FieldID, ids),
		entity.NewColumnFloatVector(FieldEmbedding, dim, embeddings),
		entity.NewColumnVarChar(FieldText, texts),
		entity.NewColumnVarChar(FieldURL, urls),
		entity.NewColumnVarChar(FieldTitle, titles),
		entity.NewColumnVarChar(FieldDescription, descriptions),
		entity.NewColumnInt64(FieldChunkPosition, positions),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert into Milvus: %w", err)
	}

	// Seal the segment so row-count statistics reflect the write.
	if err := s.client.Flush(ctx); err != nil {
		s.log.WithError(err).Warn("Flush after upsert failed")
	}
	return nil
}

// Query searches the collection for the topK nearest neighbors of the given
// embedding, ranked ascending by distance.
func (s *MilvusStore) Query(ctx context.Context, embedding []float32, topK int) ([]schema.Match, error) {
	collName := s.client.Config.Schema.CollectionName

	sp, _ := entity.NewIndexIvfFlatSearchParam(10)
	searchResults, err := s.client.Client.Search(
		ctx, collName, []string{}, "", outputFields,
		[]entity.Vector{entity.FloatVector(embedding)},
		s.client.Config.Schema.VectorField,
		entity.MetricType(s.client.Config.Schema.Index.MetricType),
		topK, sp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search in Milvus: %w", err)
	}

	var matches []schema.Match
	for _, res := range searchResults {
		texts := varCharData(res.Fields.GetColumn(FieldText))
		urls := varCharData(res.Fields.GetColumn(FieldURL))
		titles := varCharData(res.Fields.GetColumn(FieldTitle))
		descriptions := varCharData(res.Fields.GetColumn(FieldDescription))
		positions := int64Data(res.Fields.GetColumn(FieldChunkPosition))

		for i := 0; i < res.ResultCount; i++ {
			match := schema.Match{Distance: res.Scores[i]}
			if i < len(texts) {
				match.Text = texts[i]
			}
			if i < len(urls) {
				match.Meta.URL = urls[i]
			}
			if i < len(titles) {
				match.Meta.Title = titles[i]
			}
			if i < len(descriptions) {
				match.Meta.Description = descriptions[i]
			}
			if i < len(positions) {
				match.Meta.ChunkPosition = int(positions[i])
			}
			matches = append(matches, match)
		}
	}
	return matches, nil
}

// Count returns the number of stored vectors.
func (s *MilvusStore) Count(ctx context.Context) (int64, error) {
	collName := s.client.Config.Schema.CollectionName
	stats, err := s.client.Client.GetCollectionStatistics(ctx, collName)
	if err != nil {
		return 0, fmt.Errorf("failed to get collection statistics: %w", err)
	}
	rowCount, err := strconv.ParseInt(stats["row_count"], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse row count %q: %w", stats["row_count"], err)
	}
	return rowCount, nil
}

// Clear drops and recreates the collection, leaving it empty but usable.
func (s *MilvusStore) Clear(ctx context.Context) error {
	if err := s.client.DropCollection(ctx); err != nil {
		return err
	}
	return s.client.EnsureCollection(ctx)
}

func varCharData(col entity.Column) []string {
	if c, ok := col.(*entity.ColumnVarChar); ok {
		return c.Data()
	}
	return nil
}

func int64Data(col entity.Column) []int64 {
	if c, ok := col.(*entity.ColumnInt64); ok {
		return c.Data()
	}
	return nil
}

var _ VectorStore = (*MilvusStore)(nil)
