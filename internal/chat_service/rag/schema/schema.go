package schema

// Chunk is a bounded-size contiguous slice of a page's extracted text, the
// unit stored in and retrieved from the content index.
type Chunk struct {
	// Text is the chunk content, at most the configured number of words.
	Text string

	// Title is the title of the page the chunk came from.
	Title string

	// Position is the 0-based window index of the chunk within its page.
	Position int
}

// PageDocument is the cleaned result of crawling one page. It is transient:
// produced by the crawler and consumed by ingestion, never persisted itself.
type PageDocument struct {
	URL         string
	Title       string
	Description string
	Content     string
	Chunks      []Chunk
}

// PageMeta is the metadata stored alongside every indexed vector.
type PageMeta struct {
	URL           string
	Title         string
	Description   string
	ChunkPosition int
}

// Document is one indexable unit: a chunk of text, its embedding, and the
// page metadata it belongs to. The ID is a pure function of (url, chunk
// position) so re-ingesting an unchanged page overwrites in place.
type Document struct {
	ID        string
	Text      string
	Embedding []float32
	Meta      PageMeta
}

// Match is one ranked retrieval result. Distance is the metric distance to
// the query embedding; lower is closer.
type Match struct {
	Text     string
	Meta     PageMeta
	Distance float32
}
