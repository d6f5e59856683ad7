package examrag

import (
	"context"
	"hash/fnv"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Retriever orchestrates the retrieval pipeline: build a query, embed it,
// run the fallback search ladder, and rank the results. It holds no
// per-request state and is safe for concurrent use.
type Retriever struct {
	embedder Embedder
	index    Searcher
	cfg      Config
	log      zerolog.Logger
	metrics  *Metrics
	tracer   trace.Tracer
	now      func() time.Time
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithLogger sets the logger. Default is a no-op logger.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Retriever) { r.log = log }
}

// WithMetrics attaches pipeline metrics.
func WithMetrics(m *Metrics) Option {
	return func(r *Retriever) { r.metrics = m }
}

// WithClock overrides the time source used for recency boosts. Intended for
// tests.
func WithClock(now func() time.Time) Option {
	return func(r *Retriever) { r.now = now }
}

// New creates a Retriever over the given embedder and search index.
func New(embedder Embedder, index Searcher, cfg Config, opts ...Option) *Retriever {
	r := &Retriever{
		embedder: embedder,
		index:    index,
		cfg:      cfg,
		log:      zerolog.Nop(),
		tracer:   otel.Tracer("examrag"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RetrieveParams describes one retrieval request. Zero values fall back to
// the Retriever's configured defaults for Limit and SimilarityThreshold.
type RetrieveParams struct {
	PaperFormat PaperFormat
	Section     Section
	Topics      []string
	Difficulty  Difficulty

	// Limit caps the number of returned chunks. 0 means Config.MaxContextChunks.
	Limit int
	// SimilarityThreshold is the minimum cosine similarity for a match.
	// 0 means Config.SimilarityThreshold.
	SimilarityThreshold float64
}

// Retrieve runs the full search ladder and returns up to Limit chunks sorted
// by raw similarity descending. It never returns an error: retrieval context
// is an enhancement of downstream generation rather than a requirement, so
// any embedding or search failure is logged and yields an empty result. Use
// Metrics to observe degraded retrievals.
//
// The ladder spends precision first and widens only when under-filled:
//
//  1. exact paper and section filters at the configured threshold
//  2. same paper, section filter dropped
//  3. section filter dropped and threshold lowered by 30%
//
// Results from later rungs are merged in and deduplicated by source file
// plus a hash of the leading content bytes, which catches overlapping chunk
// windows from the same document.
func (r *Retriever) Retrieve(ctx context.Context, p RetrieveParams) []Chunk {
	ctx, span := r.tracer.Start(ctx, "examrag.Retrieve",
		trace.WithAttributes(
			attribute.String("paper_format", string(p.PaperFormat)),
			attribute.String("section", string(p.Section)),
		))
	defer span.End()

	r.metrics.observeRetrieval()

	limit := p.Limit
	if limit <= 0 {
		limit = r.cfg.MaxContextChunks
	}
	threshold := p.SimilarityThreshold
	if threshold <= 0 {
		threshold = r.cfg.SimilarityThreshold
	}

	query := BuildQuery(p.PaperFormat, p.Section, p.Topics, p.Difficulty)
	r.log.Info().Str("query", firstN(query, 200)).Msg("retrieval query built")

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return r.degrade(span, err, "query embedding failed, continuing without context")
	}

	candidateLimit := limit * 2

	// Strategy 1: exact paper and section filters.
	results, err := r.index.Search(ctx, SearchRequest{
		Vector:    vec,
		PaperType: p.PaperFormat,
		Section:   p.Section,
		Threshold: threshold,
		Limit:     candidateLimit,
	})
	if err != nil {
		return r.degrade(span, err, "vector search failed, continuing without context")
	}

	seen := make(map[dedupKey]struct{}, len(results))
	for _, c := range results {
		seen[keyFor(c)] = struct{}{}
	}

	// Strategy 2: drop the section filter when it under-fills.
	if len(results) < limit && p.Section != "" {
		r.log.Info().
			Int("results", len(results)).
			Str("section", string(p.Section)).
			Msg("broadening search beyond section")
		r.metrics.observeFallback("broaden")

		broader, err := r.index.Search(ctx, SearchRequest{
			Vector:    vec,
			PaperType: p.PaperFormat,
			Threshold: threshold,
			Limit:     candidateLimit,
		})
		if err != nil {
			return r.degrade(span, err, "broadened search failed, continuing without context")
		}
		results = mergeDedup(results, broader, seen)
	}

	// Strategy 3: lower the threshold by 30% as a last resort.
	if len(results) < limit {
		lower := threshold * 0.7
		r.log.Info().Float64("threshold", lower).Msg("retrying with lower threshold")
		r.metrics.observeFallback("lower_threshold")

		fallback, err := r.index.Search(ctx, SearchRequest{
			Vector:    vec,
			PaperType: p.PaperFormat,
			Threshold: lower,
			Limit:     candidateLimit,
		})
		if err != nil {
			return r.degrade(span, err, "lowered threshold search failed, continuing without context")
		}
		results = mergeDedup(results, fallback, seen)
	}

	r.metrics.observeCandidates(len(results))
	span.SetAttributes(attribute.Int("candidates", len(results)))

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > limit {
		results = results[:limit]
	}

	r.log.Info().Int("chunks", len(results)).Msg("retrieval complete")
	return results
}

// RetrieveScored runs Retrieve and re-ranks the result with recency and
// match boosts.
func (r *Retriever) RetrieveScored(ctx context.Context, p RetrieveParams) []ScoredChunk {
	chunks := r.Retrieve(ctx, p)
	return ScoreChunks(chunks, p.Section, p.PaperFormat, r.cfg, r.now())
}

func (r *Retriever) degrade(span trace.Span, err error, msg string) []Chunk {
	r.log.Warn().Err(err).Msg(msg)
	r.metrics.observeDegraded()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return nil
}

type dedupKey struct {
	source string
	prefix uint64
}

// keyFor identifies a chunk by its source file and a hash of the first 100
// content bytes, so overlapping windows over the same passage collapse to
// one entry.
func keyFor(c Chunk) dedupKey {
	content := c.Content
	if len(content) > 100 {
		content = content[:100]
	}
	h := fnv.New64a()
	h.Write([]byte(content))
	return dedupKey{source: c.SourceFile, prefix: h.Sum64()}
}

func mergeDedup(base, extra []Chunk, seen map[dedupKey]struct{}) []Chunk {
	for _, c := range extra {
		key := keyFor(c)
		if _, ok := seen[key]; ok {
			continue
		}
		base = append(base, c)
		seen[key] = struct{}{}
	}
	return base
}

func firstN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
