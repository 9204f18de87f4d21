package vectorstore

import (
	"context"
	"sort"
	"sync"

	"smartchat/internal/chat_service/rag/schema"
)

// InMemoryStore is a VectorStore backed by a map and an exact L2 scan. It
// serves tests and development setups without a Milvus deployment.
type InMemoryStore struct {
	mu   sync.RWMutex
	docs map[string]schema.Document
}

// NewInMemoryStore creates an empty InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{docs: make(map[string]schema.Document)}
}

// Upsert stores the documents keyed by id, replacing existing entries.
func (s *InMemoryStore) Upsert(ctx context.Context, docs []schema.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range docs {
		s.docs[doc.ID] = doc
	}
	return nil
}

// Query scans all stored vectors and returns the topK nearest by squared L2
// distance, ascending.
func (s *InMemoryStore) Query(ctx context.Context, embedding []float32, topK int) ([]schema.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]schema.Match, 0, len(s.docs))
	for _, doc := range s.docs {
		matches = append(matches, schema.Match{
			Text:     doc.Text,
			Meta:     doc.Meta,
			Distance: squaredL2(embedding, doc.Embedding),
		})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })

	if topK >= 0 && topK < len(matches) {
		matches = matches[:topK]
	}
	return matches, nil
}

// Count returns the number of stored vectors.
func (s *InMemoryStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.docs)), nil
}

// Clear drops all stored vectors.
func (s *InMemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make(map[string]schema.Document)
	return nil
}

func squaredL2(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

var _ VectorStore = (*InMemoryStore)(nil)
