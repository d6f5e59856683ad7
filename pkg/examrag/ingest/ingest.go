// Package ingest turns past paper text files into embedded chunks in the
// vector index. It extracts metadata from filenames, chunks text with
// overlap, suppresses near-duplicate chunks, and tracks processed files in
// a local ledger so syncs are incremental.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	edlib "github.com/hbollon/go-edlib"
	"github.com/rs/zerolog"

	"github.com/examforge-ai/examrag/pkg/examrag"
)

// nearDupThreshold is the cosine text similarity above which a chunk is
// considered a duplicate of one already taken from the same file. OCR output
// often repeats headers and instructions across pages.
const nearDupThreshold = 0.95

// Ingestor embeds chunks and writes them to a search index.
type Ingestor struct {
	embedder examrag.Embedder
	index    examrag.SearchIndex
	state    *SyncState
	log      zerolog.Logger

	chunkSize    int
	chunkOverlap int
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithLogger sets the logger. Default is a no-op logger.
func WithLogger(log zerolog.Logger) Option {
	return func(in *Ingestor) { in.log = log }
}

// WithSyncState attaches a processed-file ledger. Without it every sync
// reprocesses all files.
func WithSyncState(state *SyncState) Option {
	return func(in *Ingestor) { in.state = state }
}

// WithChunking overrides the chunk size and overlap.
func WithChunking(size, overlap int) Option {
	return func(in *Ingestor) {
		in.chunkSize = size
		in.chunkOverlap = overlap
	}
}

// New creates an Ingestor writing to index via embedder.
func New(embedder examrag.Embedder, index examrag.SearchIndex, opts ...Option) *Ingestor {
	in := &Ingestor{
		embedder:     embedder,
		index:        index,
		log:          zerolog.Nop(),
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// FileResult records the outcome of processing one file.
type FileResult struct {
	Filename      string              `json:"filename"`
	Status        string              `json:"status"` // "success", "skipped", "error"
	PaperType     examrag.PaperFormat `json:"paper_type,omitempty"`
	Year          string              `json:"year,omitempty"`
	ChunksCreated int                 `json:"chunks_created"`
	Message       string              `json:"message,omitempty"`
}

// SyncResult aggregates a full sync run.
type SyncResult struct {
	TotalFiles     int          `json:"total_files"`
	ProcessedFiles int          `json:"processed_files"`
	SkippedFiles   int          `json:"skipped_files"`
	FailedFiles    int          `json:"failed_files"`
	TotalChunks    int          `json:"total_chunks"`
	FileResults    []FileResult `json:"file_results"`
	StartedAt      time.Time    `json:"started_at"`
	CompletedAt    time.Time    `json:"completed_at"`
}

// BuildChunks turns raw paper text into stored chunks with per-chunk
// section detection and near-duplicate suppression. Embeddings are not yet
// populated.
func (in *Ingestor) BuildChunks(text, sourceFile string, md FileMetadata) []examrag.StoredChunk {
	raw := ChunkText(text, in.chunkSize, in.chunkOverlap)

	chunks := make([]examrag.StoredChunk, 0, len(raw))
	kept := make([]string, 0, len(raw))
	for _, content := range raw {
		if isNearDuplicate(content, kept) {
			continue
		}
		kept = append(kept, content)

		section := DetectSection(content)
		chunks = append(chunks, examrag.StoredChunk{
			ID:         uuid.NewString(),
			Content:    content,
			PaperType:  md.PaperType,
			Section:    section,
			Year:       md.Year,
			SourceFile: sourceFile,
			ChunkIndex: len(chunks),
			Metadata: map[string]any{
				"exam_code":        md.ExamCode,
				"school":           md.School,
				"source":           md.Source,
				"raw_filename":     md.RawFilename,
				"detected_section": string(section),
			},
		})
	}
	return chunks
}

// isNearDuplicate reports whether content is almost identical to a chunk
// already kept from the same file.
func isNearDuplicate(content string, kept []string) bool {
	for _, prev := range kept {
		sim, err := edlib.StringsSimilarity(content, prev, edlib.Cosine)
		if err != nil {
			continue
		}
		if sim >= nearDupThreshold {
			return true
		}
	}
	return false
}

// ProcessFile ingests a single text file: chunk, embed, upsert. Files that
// are answer sheets, lack a paper designation, or are unchanged since the
// last sync are skipped.
func (in *Ingestor) ProcessFile(ctx context.Context, path string) FileResult {
	filename := filepath.Base(path)
	result := FileResult{Filename: filename}

	if ShouldSkip(filename) {
		result.Status = "skipped"
		result.Message = "answer sheet or no clear paper designation"
		in.log.Info().Str("file", filename).Msg("skipping file")
		return result
	}

	md := ExtractMetadata(filename)
	result.PaperType = md.PaperType
	result.Year = md.Year

	if md.PaperType == "" {
		result.Status = "skipped"
		result.Message = "could not determine paper type"
		in.log.Info().Str("file", filename).Msg("skipping file without paper type")
		return result
	}

	content, err := os.ReadFile(path)
	if err != nil {
		result.Status = "error"
		result.Message = err.Error()
		in.log.Error().Err(err).Str("file", filename).Msg("failed to read file")
		return result
	}
	if len(content) == 0 {
		result.Status = "skipped"
		result.Message = "empty file"
		return result
	}

	hash := ContentHash(content)
	if in.state != nil {
		done, err := in.state.IsProcessed(filename, hash)
		if err != nil {
			in.log.Warn().Err(err).Str("file", filename).Msg("sync state lookup failed")
		} else if done {
			result.Status = "skipped"
			result.Message = "unchanged since last sync"
			return result
		}
	}

	chunks := in.BuildChunks(string(content), filename, md)
	result.ChunksCreated = len(chunks)
	if len(chunks) == 0 {
		result.Status = "skipped"
		result.Message = "no chunks created from text"
		return result
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Content
	}

	in.log.Info().Str("file", filename).Int("chunks", len(chunks)).Msg("generating embeddings")
	vectors, err := in.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		result.Status = "error"
		result.Message = err.Error()
		in.log.Error().Err(err).Str("file", filename).Msg("embedding failed")
		return result
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}

	if err := in.index.Upsert(ctx, chunks); err != nil {
		result.Status = "error"
		result.Message = err.Error()
		in.log.Error().Err(err).Str("file", filename).Msg("index upsert failed")
		return result
	}

	if in.state != nil {
		if err := in.state.MarkProcessed(filename, hash); err != nil {
			in.log.Warn().Err(err).Str("file", filename).Msg("failed to record sync state")
		}
	}

	result.Status = "success"
	in.log.Info().Str("file", filename).Int("chunks", len(chunks)).Msg("file ingested")
	return result
}

// Sync ingests every matching text file under dir. Pattern is a glob over
// filenames; empty means "*.txt".
func (in *Ingestor) Sync(ctx context.Context, dir, pattern string) (SyncResult, error) {
	result := SyncResult{StartedAt: time.Now()}

	if pattern == "" {
		pattern = "*.txt"
	}
	paths, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return result, fmt.Errorf("bad file pattern %q: %w", pattern, err)
	}
	result.TotalFiles = len(paths)
	if len(paths) == 0 {
		in.log.Warn().Str("dir", dir).Str("pattern", pattern).Msg("no files found to sync")
		result.CompletedAt = time.Now()
		return result, nil
	}

	in.log.Info().Int("files", len(paths)).Msg("sync started")
	for _, path := range paths {
		fr := in.ProcessFile(ctx, path)
		result.FileResults = append(result.FileResults, fr)

		switch fr.Status {
		case "success":
			result.ProcessedFiles++
			result.TotalChunks += fr.ChunksCreated
		case "skipped":
			result.SkippedFiles++
		default:
			result.FailedFiles++
		}
	}
	result.CompletedAt = time.Now()

	in.log.Info().
		Int("processed", result.ProcessedFiles).
		Int("skipped", result.SkippedFiles).
		Int("failed", result.FailedFiles).
		Int("chunks", result.TotalChunks).
		Msg("sync complete")
	return result, nil
}
