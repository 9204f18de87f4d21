package splitters

import (
	"strings"

	"smartchat/internal/chat_service/rag/schema"
)

// DefaultChunkSize is the word-window size used when none is configured.
const DefaultChunkSize = 500

// WordSplitter splits page text into consecutive fixed-size word windows.
// Splitting happens on whitespace-delimited word boundaries; the final
// window of a page may be shorter than ChunkSize.
type WordSplitter struct {
	ChunkSize int
}

// NewWordSplitter creates a WordSplitter. A non-positive chunkSize falls
// back to DefaultChunkSize.
func NewWordSplitter(chunkSize int) *WordSplitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &WordSplitter{ChunkSize: chunkSize}
}

// Split chops text into chunks of at most ChunkSize words, tagging each
// chunk with the page title and its 0-based window index. Empty or
// whitespace-only text yields no chunks.
func (s *WordSplitter) Split(text, title string) []schema.Chunk {
	words := strings.Fields(text)

	var chunks []schema.Chunk
	for start := 0; start < len(words); start += s.ChunkSize {
		end := start + s.ChunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, schema.Chunk{
			Text:     strings.Join(words[start:end], " "),
			Title:    title,
			Position: start / s.ChunkSize,
		})
	}
	return chunks
}
