// Package qdrant implements the vector index on a Qdrant server. Chunk
// metadata is stored in point payloads and filtered server-side during
// similarity search.
package qdrant

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	qd "github.com/qdrant/go-client/qdrant"

	"github.com/examforge-ai/examrag/pkg/examrag"
)

// Client is a Qdrant-backed index. It implements examrag.SearchIndex.
type Client struct {
	client          *qd.Client
	url             string
	collectionName  string
	apiKey          string
	vectorDimension uint64
}

// Config holds Qdrant client configuration.
type Config struct {
	// Qdrant server URL
	// Example: "http://localhost:6334" or "https://your-qdrant-cluster.com"
	URL string

	// Collection name for storing chunks (default "paper_embeddings")
	CollectionName string

	// Optional API key for authentication
	APIKey string

	// Vector dimension (must match embedding model output, default 1536)
	VectorDimension int
}

// New creates a Qdrant client. The collection is created on first Upsert if
// needed.
func New(config *Config) (*Client, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("qdrant URL is required")
	}
	if config.CollectionName == "" {
		config.CollectionName = "paper_embeddings"
	}
	if config.VectorDimension <= 0 {
		config.VectorDimension = 1536
	}

	parsedURL, err := url.Parse(config.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	port := 6334 // Default Qdrant gRPC port
	if parsedURL.Port() != "" {
		p, err := strconv.ParseInt(parsedURL.Port(), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("error converting string to int: %w", err)
		}
		port = int(p)
	}

	qdrantClient, err := qd.NewClient(&qd.Config{
		Host:   parsedURL.Hostname(),
		Port:   port,
		APIKey: config.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	return &Client{
		client:          qdrantClient,
		url:             config.URL,
		collectionName:  config.CollectionName,
		apiKey:          config.APIKey,
		vectorDimension: uint64(config.VectorDimension),
	}, nil
}

// Search performs similarity search with optional paper type and section
// filters applied server-side.
func (c *Client) Search(ctx context.Context, req examrag.SearchRequest) ([]examrag.Chunk, error) {
	if len(req.Vector) == 0 {
		return nil, &examrag.SearchError{Op: "search", Err: fmt.Errorf("query vector is required")}
	}

	searchRequest := &qd.QueryPoints{
		CollectionName: c.collectionName,
		Query:          qd.NewQuery(req.Vector...),
		WithPayload:    qd.NewWithPayload(true),
	}

	if req.Limit > 0 {
		limit := uint64(req.Limit)
		searchRequest.Limit = &limit
	}
	if req.Threshold > 0 {
		scoreThreshold := float32(req.Threshold)
		searchRequest.ScoreThreshold = &scoreThreshold
	}
	if filter := buildFilter(req.PaperType, req.Section); filter != nil {
		searchRequest.Filter = filter
	}

	points, err := c.client.Query(ctx, searchRequest)
	if err != nil {
		return nil, &examrag.SearchError{Op: "search", Err: err}
	}

	chunks := make([]examrag.Chunk, 0, len(points))
	for _, point := range points {
		chunks = append(chunks, convertPoint(point))
	}
	return chunks, nil
}

// Upsert stores chunks with their precomputed embeddings. Point IDs are
// derived deterministically from source file and chunk index, so
// re-ingesting a file replaces its old points.
func (c *Client) Upsert(ctx context.Context, chunks []examrag.StoredChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	if err := c.ensureCollectionExists(ctx); err != nil {
		return &examrag.SearchError{Op: "upsert", Err: err}
	}

	const batchSize = 100
	for i := 0; i < len(chunks); i += batchSize {
		end := i + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		if err := c.upsertBatch(ctx, chunks[i:end]); err != nil {
			return &examrag.SearchError{Op: "upsert", Err: fmt.Errorf("batch %d-%d: %w", i, end-1, err)}
		}
	}
	return nil
}

func (c *Client) upsertBatch(ctx context.Context, chunks []examrag.StoredChunk) error {
	points := make([]*qd.PointStruct, 0, len(chunks))
	for _, ch := range chunks {
		if ch.Content == "" {
			continue
		}
		if len(ch.Embedding) == 0 {
			return fmt.Errorf("chunk %s has no embedding", ch.ID)
		}

		points = append(points, &qd.PointStruct{
			Id: pointID(ch),
			Vectors: &qd.Vectors{
				VectorsOptions: &qd.Vectors_Vector{
					Vector: &qd.Vector{Data: ch.Embedding},
				},
			},
			Payload: buildPayload(ch),
		})
	}
	if len(points) == 0 {
		return nil
	}

	waitForResult := true
	_, err := c.client.Upsert(ctx, &qd.UpsertPoints{
		CollectionName: c.collectionName,
		Points:         points,
		Wait:           &waitForResult,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points to collection %s: %w", c.collectionName, err)
	}
	return nil
}

// Delete removes all points belonging to a source file and reports how many
// were removed.
func (c *Client) Delete(ctx context.Context, sourceFile string) (int, error) {
	filter := &qd.Filter{
		Must: []*qd.Condition{qd.NewMatch("source_file", sourceFile)},
	}

	count, err := c.client.Count(ctx, &qd.CountPoints{
		CollectionName: c.collectionName,
		Filter:         filter,
		Exact:          qd.PtrOf(true),
	})
	if err != nil {
		return 0, &examrag.SearchError{Op: "delete", Err: err}
	}

	waitForResult := true
	_, err = c.client.Delete(ctx, &qd.DeletePoints{
		CollectionName: c.collectionName,
		Points:         qd.NewPointsSelectorFilter(filter),
		Wait:           &waitForResult,
	})
	if err != nil {
		return 0, &examrag.SearchError{Op: "delete", Err: err}
	}

	return int(count), nil
}

// Stats reports index totals and a per paper type and section breakdown.
// The breakdown is aggregated client-side by scrolling payloads, so it may
// be slow on very large collections.
func (c *Client) Stats(ctx context.Context) (examrag.IndexStats, error) {
	total, err := c.client.Count(ctx, &qd.CountPoints{
		CollectionName: c.collectionName,
		Exact:          qd.PtrOf(true),
	})
	if err != nil {
		return examrag.IndexStats{}, &examrag.SearchError{Op: "stats", Err: err}
	}

	stats := examrag.IndexStats{TotalChunks: int(total)}

	files := make(map[string]struct{})
	breakdown := make(map[examrag.BreakdownEntry]int)

	pageSize := uint32(256)
	var offset *qd.PointId
	for {
		points, err := c.client.Scroll(ctx, &qd.ScrollPoints{
			CollectionName: c.collectionName,
			Limit:          &pageSize,
			Offset:         offset,
			WithPayload:    qd.NewWithPayloadInclude("paper_type", "section", "source_file"),
		})
		if err != nil {
			return examrag.IndexStats{}, &examrag.SearchError{Op: "stats", Err: err}
		}
		if len(points) == 0 {
			break
		}

		for _, point := range points {
			payload := point.GetPayload()
			key := examrag.BreakdownEntry{
				PaperType: examrag.PaperFormat(payload["paper_type"].GetStringValue()),
				Section:   examrag.Section(payload["section"].GetStringValue()),
			}
			breakdown[key]++
			if sf := payload["source_file"].GetStringValue(); sf != "" {
				files[sf] = struct{}{}
			}
		}

		if len(points) < int(pageSize) {
			break
		}
		offset = points[len(points)-1].GetId()
	}

	stats.TotalFiles = len(files)
	for key, n := range breakdown {
		key.Count = n
		stats.Breakdown = append(stats.Breakdown, key)
	}
	return stats, nil
}

// Health checks if the Qdrant server is available and responsive.
func (c *Client) Health(ctx context.Context) error {
	if _, err := c.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("health check error %w", err)
	}
	return nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("close qdrant error %w", err)
	}
	return nil
}

// ensureCollectionExists creates the collection if it doesn't exist.
func (c *Client) ensureCollectionExists(ctx context.Context) error {
	exists, err := c.client.CollectionExists(ctx, c.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection %s: %w", c.collectionName, err)
	}
	if exists {
		return nil
	}

	err = c.client.CreateCollection(ctx, &qd.CreateCollection{
		CollectionName: c.collectionName,
		VectorsConfig: qd.NewVectorsConfig(&qd.VectorParams{
			Size:     c.vectorDimension,
			Distance: qd.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", c.collectionName, err)
	}
	return nil
}

// pointID derives a stable UUID from the chunk's source file and index.
func pointID(ch examrag.StoredChunk) *qd.PointId {
	if ch.ID != "" {
		return &qd.PointId{PointIdOptions: &qd.PointId_Uuid{Uuid: ch.ID}}
	}
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s#%d", ch.SourceFile, ch.ChunkIndex)))
	return &qd.PointId{PointIdOptions: &qd.PointId_Uuid{Uuid: id.String()}}
}

// buildFilter converts the request filters to a Qdrant Must filter. Empty
// values produce no condition; no conditions means no filter.
func buildFilter(paperType examrag.PaperFormat, section examrag.Section) *qd.Filter {
	var conditions []*qd.Condition
	if paperType != "" {
		conditions = append(conditions, qd.NewMatch("paper_type", string(paperType)))
	}
	if section != "" {
		conditions = append(conditions, qd.NewMatch("section", string(section)))
	}
	if len(conditions) == 0 {
		return nil
	}
	return &qd.Filter{Must: conditions}
}

// buildPayload converts chunk metadata to the Qdrant payload format.
func buildPayload(ch examrag.StoredChunk) map[string]*qd.Value {
	payload := map[string]*qd.Value{
		"content":     qd.NewValueString(ch.Content),
		"paper_type":  qd.NewValueString(string(ch.PaperType)),
		"section":     qd.NewValueString(string(ch.Section)),
		"year":        qd.NewValueString(ch.Year),
		"source_file": qd.NewValueString(ch.SourceFile),
		"chunk_index": qd.NewValueInt(int64(ch.ChunkIndex)),
	}

	for key, value := range ch.Metadata {
		switch v := value.(type) {
		case string:
			payload[key] = qd.NewValueString(v)
		case int:
			payload[key] = qd.NewValueInt(int64(v))
		case int64:
			payload[key] = qd.NewValueInt(v)
		case float64:
			payload[key] = qd.NewValueDouble(v)
		case bool:
			payload[key] = qd.NewValueBool(v)
		default:
			payload[key] = qd.NewValueString(fmt.Sprintf("%v", v))
		}
	}

	return payload
}

// convertPoint maps a scored point's payload back to a Chunk.
func convertPoint(point *qd.ScoredPoint) examrag.Chunk {
	ch := examrag.Chunk{Similarity: float64(point.GetScore())}

	payload := point.GetPayload()
	if payload == nil {
		return ch
	}
	ch.Content = payload["content"].GetStringValue()
	ch.PaperType = examrag.PaperFormat(payload["paper_type"].GetStringValue())
	ch.Section = examrag.Section(payload["section"].GetStringValue())
	ch.Year = payload["year"].GetStringValue()
	ch.SourceFile = payload["source_file"].GetStringValue()
	return ch
}
