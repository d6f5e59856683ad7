// Package examrag implements the retrieval-augmented generation pipeline
// used to ground exam-paper synthesis prompts in past-paper excerpts.
//
// The pipeline is a stateless transformation over externally stored vectors:
// a query builder turns generation parameters into an embedding-friendly
// query string, a retriever runs a precision-then-recall fallback ladder
// against a vector index, a scorer re-ranks candidates with recency and
// exact-match boosts, and a formatter renders the winners into a
// prompt-injectable context block.
//
// Example:
//
//	r := examrag.New(embedder, index, examrag.DefaultConfig())
//	prompt := r.EnhancePrompt(ctx, basePrompt, examrag.RetrieveParams{
//	    PaperFormat: examrag.Paper1,
//	    Section:     examrag.SectionB,
//	    Difficulty:  examrag.Standard,
//	})
package examrag

import "context"

// PaperFormat identifies one of the three exam paper formats.
type PaperFormat string

const (
	// Paper1 is the writing paper.
	Paper1 PaperFormat = "paper_1"
	// Paper2 is the comprehension paper.
	Paper2 PaperFormat = "paper_2"
	// Oral is the oral communication exam.
	Oral PaperFormat = "oral"
)

// Section identifies a section within a paper format. The written papers use
// SectionA..SectionC; the oral exam uses the remaining three.
type Section string

const (
	SectionA Section = "section_a"
	SectionB Section = "section_b"
	SectionC Section = "section_c"

	ReadingAloud Section = "reading_aloud"
	// SBC is the stimulus-based conversation component.
	SBC          Section = "sbc"
	Conversation Section = "conversation"
)

// Difficulty is the target difficulty for generated content.
type Difficulty string

const (
	Foundational Difficulty = "foundational"
	Standard     Difficulty = "standard"
	Advanced     Difficulty = "advanced"
)

// Vector is an embedding vector.
type Vector []float32

// Chunk is a retrieved unit of past-paper text with provenance metadata.
//
// PaperType, Section and Year are empty when the source record carries no
// value for them. Similarity is the raw cosine similarity to the query,
// assigned at retrieval time. Chunks are produced fresh per retrieval call
// and never cached across calls.
type Chunk struct {
	Content    string      `json:"content"`
	PaperType  PaperFormat `json:"paper_type,omitempty"`
	Section    Section     `json:"section,omitempty"`
	Year       string      `json:"year,omitempty"`
	SourceFile string      `json:"source_file"`
	Similarity float64     `json:"similarity"`
}

// ScoredChunk is a Chunk after relevance scoring. AdjustedSimilarity is
// clamped to [0, 1]; each boost flag is true iff that boost was applied.
type ScoredChunk struct {
	Chunk

	AdjustedSimilarity float64 `json:"adjusted_similarity"`
	RecencyBoost       bool    `json:"recency_boost,omitempty"`
	SectionMatchBoost  bool    `json:"section_match_boost,omitempty"`
	PaperMatchBoost    bool    `json:"paper_match_boost,omitempty"`
}

// StoredChunk is a chunk prepared for insertion into a search index.
// Embedding must be populated before Upsert.
type StoredChunk struct {
	ID         string         `json:"id"`
	Content    string         `json:"content"`
	PaperType  PaperFormat    `json:"paper_type,omitempty"`
	Section    Section        `json:"section,omitempty"`
	Year       string         `json:"year,omitempty"`
	SourceFile string         `json:"source_file"`
	ChunkIndex int            `json:"chunk_index"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Embedding  Vector         `json:"-"`
}

// SearchRequest describes one vector-search call. PaperType and Section are
// optional filters; empty values match everything. Every record returned
// must have similarity >= Threshold.
type SearchRequest struct {
	Vector    Vector
	PaperType PaperFormat
	Section   Section
	Threshold float64
	Limit     int
}

// IndexStats summarizes the contents of a search index.
type IndexStats struct {
	TotalChunks int              `json:"total_chunks"`
	TotalFiles  int              `json:"total_files"`
	Breakdown   []BreakdownEntry `json:"breakdown"`
}

// BreakdownEntry is a per (paper_type, section) chunk count.
type BreakdownEntry struct {
	PaperType PaperFormat `json:"paper_type,omitempty"`
	Section   Section     `json:"section,omitempty"`
	Count     int         `json:"count"`
}

// Embedder converts text into embedding vectors.
type Embedder interface {
	// Embed generates the embedding for a single text.
	Embed(ctx context.Context, text string) (Vector, error)

	// EmbedBatch generates embeddings for texts, preserving order.
	EmbedBatch(ctx context.Context, texts []string) ([]Vector, error)
}

// Searcher is the narrow read interface the retriever depends on.
type Searcher interface {
	// Search returns records ranked by cosine similarity descending,
	// all at or above the request threshold.
	Search(ctx context.Context, req SearchRequest) ([]Chunk, error)
}

// SearchIndex is a full vector index: search plus the management
// operations the ingest pipeline needs.
type SearchIndex interface {
	Searcher

	// Upsert inserts or replaces chunks keyed by (source_file, chunk_index).
	Upsert(ctx context.Context, chunks []StoredChunk) error

	// Delete removes all chunks for a source file and reports how many.
	Delete(ctx context.Context, sourceFile string) (int, error)

	// Stats reports index contents.
	Stats(ctx context.Context) (IndexStats, error)

	// Health checks that the backend is reachable and usable.
	Health(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
