package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/examforge-ai/examrag/pkg/examrag"
)

type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) (examrag.Vector, error) {
	if f.err != nil {
		return nil, f.err
	}
	return examrag.Vector{0.1, 0.2}, nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([]examrag.Vector, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]examrag.Vector, len(texts))
	for i := range texts {
		out[i] = examrag.Vector{0.1, 0.2}
	}
	return out, nil
}

type fakeIndex struct {
	upserted  []examrag.StoredChunk
	upsertErr error
}

func (f *fakeIndex) Search(_ context.Context, _ examrag.SearchRequest) ([]examrag.Chunk, error) {
	return nil, nil
}

func (f *fakeIndex) Upsert(_ context.Context, chunks []examrag.StoredChunk) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, chunks...)
	return nil
}

func (f *fakeIndex) Delete(_ context.Context, _ string) (int, error) { return 0, nil }

func (f *fakeIndex) Stats(_ context.Context) (examrag.IndexStats, error) {
	return examrag.IndexStats{}, nil
}

func (f *fakeIndex) Health(_ context.Context) error { return nil }
func (f *fakeIndex) Close() error                   { return nil }

var paperText = strings.Repeat(
	"Section A [10 marks] Correct the grammatical errors in this editing passage carefully. ", 20) +
	"\n\n" +
	strings.Repeat("Continuous writing asks you to write a composition with a clear structure. ", 20)

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuildChunks(t *testing.T) {
	t.Parallel()

	in := New(&fakeEmbedder{}, &fakeIndex{})
	md := FileMetadata{Year: "2016", PaperType: examrag.Paper1, Source: "gce_official"}

	chunks := in.BuildChunks(paperText, "2016_paper1.txt", md)
	if len(chunks) == 0 {
		t.Fatal("expected chunks from paper text")
	}

	for i, ch := range chunks {
		if ch.ID == "" {
			t.Errorf("chunk %d missing ID", i)
		}
		if ch.ChunkIndex != i {
			t.Errorf("chunk %d has index %d", i, ch.ChunkIndex)
		}
		if ch.PaperType != examrag.Paper1 || ch.Year != "2016" || ch.SourceFile != "2016_paper1.txt" {
			t.Errorf("chunk %d metadata not propagated: %+v", i, ch)
		}
	}

	if chunks[0].Section != examrag.SectionA {
		t.Errorf("first chunk section = %q, want section_a", chunks[0].Section)
	}
}

func TestBuildChunksSuppressesNearDuplicates(t *testing.T) {
	t.Parallel()

	// The same long paragraph twice; the second occurrence is a near
	// duplicate and should be dropped.
	para := strings.Repeat("Identical header text repeated on every page of the scan. ", 10)
	text := para + "\n\n" + para

	in := New(&fakeEmbedder{}, &fakeIndex{})
	chunks := in.BuildChunks(text, "dup.txt", FileMetadata{PaperType: examrag.Paper1})

	if len(chunks) != 1 {
		t.Errorf("expected near-duplicate suppressed, got %d chunks", len(chunks))
	}
}

func TestProcessFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		filename   string
		content    string
		embedder   *fakeEmbedder
		index      *fakeIndex
		wantStatus string
	}{
		{
			name:       "valid paper ingested",
			filename:   "2016_GCE-O-LEVEL-ENGLISH-1128-Paper-1.txt",
			content:    paperText,
			embedder:   &fakeEmbedder{},
			index:      &fakeIndex{},
			wantStatus: "success",
		},
		{
			name:       "answer sheet skipped",
			filename:   "2016_Paper-1_Ans.txt",
			content:    paperText,
			embedder:   &fakeEmbedder{},
			index:      &fakeIndex{},
			wantStatus: "skipped",
		},
		{
			name:       "no paper designation skipped",
			filename:   "syllabus.txt",
			content:    paperText,
			embedder:   &fakeEmbedder{},
			index:      &fakeIndex{},
			wantStatus: "skipped",
		},
		{
			name:       "empty file skipped",
			filename:   "2016_Paper-1.txt",
			content:    "",
			embedder:   &fakeEmbedder{},
			index:      &fakeIndex{},
			wantStatus: "skipped",
		},
		{
			name:       "embedding failure reported",
			filename:   "2016_Paper-1.txt",
			content:    paperText,
			embedder:   &fakeEmbedder{err: errors.New("provider down")},
			index:      &fakeIndex{},
			wantStatus: "error",
		},
		{
			name:       "upsert failure reported",
			filename:   "2016_Paper-1.txt",
			content:    paperText,
			embedder:   &fakeEmbedder{},
			index:      &fakeIndex{upsertErr: errors.New("db down")},
			wantStatus: "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeTestFile(t, t.TempDir(), tt.filename, tt.content)
			in := New(tt.embedder, tt.index)

			result := in.ProcessFile(context.Background(), path)
			if result.Status != tt.wantStatus {
				t.Errorf("status = %q (%s), want %q", result.Status, result.Message, tt.wantStatus)
			}
			if tt.wantStatus == "success" {
				if len(tt.index.upserted) == 0 {
					t.Error("no chunks reached the index")
				}
				for _, ch := range tt.index.upserted {
					if len(ch.Embedding) == 0 {
						t.Error("chunk upserted without embedding")
					}
				}
			}
		})
	}
}

func TestProcessFileSkipsUnchanged(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeTestFile(t, dir, "2016_Paper-1.txt", paperText)

	state, err := OpenState(filepath.Join(dir, "state"))
	if err != nil {
		t.Fatal(err)
	}
	defer state.Close()

	embedder := &fakeEmbedder{}
	in := New(embedder, &fakeIndex{}, WithSyncState(state))

	first := in.ProcessFile(context.Background(), path)
	if first.Status != "success" {
		t.Fatalf("first run status = %q (%s)", first.Status, first.Message)
	}

	second := in.ProcessFile(context.Background(), path)
	if second.Status != "skipped" {
		t.Errorf("second run status = %q, want skipped", second.Status)
	}
	if embedder.calls != 1 {
		t.Errorf("embedder called %d times, want 1", embedder.calls)
	}

	// Changed content is reprocessed.
	writeTestFile(t, dir, "2016_Paper-1.txt", paperText+"\n\nNew appendix content for the revised edition of this paper.")
	third := in.ProcessFile(context.Background(), path)
	if third.Status != "success" {
		t.Errorf("third run status = %q, want success after content change", third.Status)
	}
}

func TestSync(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTestFile(t, dir, "2016_GCE-O-LEVEL-ENGLISH-1128-Paper-1.txt", paperText)
	writeTestFile(t, dir, "2017_GCE-O-LEVEL-ENGLISH-1128-Paper-2.txt", paperText)
	writeTestFile(t, dir, "2018_Paper-1_Ans.txt", paperText)

	index := &fakeIndex{}
	in := New(&fakeEmbedder{}, index)

	result, err := in.Sync(context.Background(), dir, "")
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	if result.TotalFiles != 3 {
		t.Errorf("TotalFiles = %d, want 3", result.TotalFiles)
	}
	if result.ProcessedFiles != 2 {
		t.Errorf("ProcessedFiles = %d, want 2", result.ProcessedFiles)
	}
	if result.SkippedFiles != 1 {
		t.Errorf("SkippedFiles = %d, want 1", result.SkippedFiles)
	}
	if result.TotalChunks == 0 || len(index.upserted) != result.TotalChunks {
		t.Errorf("TotalChunks = %d, index received %d", result.TotalChunks, len(index.upserted))
	}
	if result.CompletedAt.Before(result.StartedAt) {
		t.Error("CompletedAt before StartedAt")
	}
}

func TestSyncEmptyDir(t *testing.T) {
	t.Parallel()

	in := New(&fakeEmbedder{}, &fakeIndex{})
	result, err := in.Sync(context.Background(), t.TempDir(), "")
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if result.TotalFiles != 0 {
		t.Errorf("TotalFiles = %d, want 0", result.TotalFiles)
	}
}

func TestSyncState(t *testing.T) {
	t.Parallel()

	state, err := OpenState(filepath.Join(t.TempDir(), "ledger"))
	if err != nil {
		t.Fatal(err)
	}
	defer state.Close()

	hash := ContentHash([]byte("paper content"))

	done, err := state.IsProcessed("file.txt", hash)
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Error("unprocessed file reported as processed")
	}

	if err := state.MarkProcessed("file.txt", hash); err != nil {
		t.Fatal(err)
	}

	done, err = state.IsProcessed("file.txt", hash)
	if err != nil {
		t.Fatal(err)
	}
	if !done {
		t.Error("processed file not reported as processed")
	}

	// A different hash means the content changed.
	done, err = state.IsProcessed("file.txt", ContentHash([]byte("changed")))
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Error("changed content reported as already processed")
	}

	if err := state.Forget("file.txt"); err != nil {
		t.Fatal(err)
	}
	done, err = state.IsProcessed("file.txt", hash)
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Error("forgotten file still reported as processed")
	}
}
