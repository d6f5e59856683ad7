// Package openai provides an OpenAI-backed embedding client for the
// retrieval pipeline. It wraps the official openai-go SDK and implements
// examrag.Embedder.
//
// Example usage:
//
//	embedder, err := openai.New("text-embedding-3-small")
//	if err != nil {
//		log.Fatal(err)
//	}
//	vec, err := embedder.Embed(ctx, "Paper 1 Section B situational writing")
package openai

import (
	"context"
	"fmt"
	"os"

	openaisdk "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/examforge-ai/examrag/pkg/examrag"
)

// DefaultModel is used when New is called with an empty model name.
const DefaultModel = "text-embedding-3-small"

// maxBatchSize caps texts per API request. OpenAI accepts up to 2048 inputs
// but large batches risk hitting the token ceiling, so ingestion sends
// conservative batches.
const maxBatchSize = 100

// Client calls the OpenAI Embeddings API. It implements examrag.Embedder.
type Client struct {
	client openaisdk.Client
	model  openaisdk.EmbeddingModel
	config *Config
}

// Config holds OpenAI-specific configuration. All fields are optional with
// sensible defaults.
type Config struct {
	// Required. API key for OpenAI authentication
	APIKey string

	// Optional. Base URL for OpenAI API (defaults to official OpenAI API)
	BaseURL string

	// Optional. Organization ID for OpenAI API requests
	OrgID string

	// Optional. Number of texts per batched embedding request (default 100)
	BatchSize int
}

// Option interface for functional options pattern
type Option interface {
	Apply(*Config)
}

type configOption struct {
	config *Config
}

func (o configOption) Apply(cfg *Config) {
	if o.config.APIKey != "" {
		cfg.APIKey = o.config.APIKey
	}
	if o.config.BaseURL != "" {
		cfg.BaseURL = o.config.BaseURL
	}
	if o.config.OrgID != "" {
		cfg.OrgID = o.config.OrgID
	}
	if o.config.BatchSize != 0 {
		cfg.BatchSize = o.config.BatchSize
	}
}

// WithConfig sets custom OpenAI configuration. Only non-zero fields override
// the defaults.
func WithConfig(cfg *Config) Option {
	return configOption{config: cfg}
}

// DefaultConfig returns sensible defaults with the API key taken from the
// OPENAI_API_KEY environment variable.
func DefaultConfig() *Config {
	return &Config{
		APIKey:    os.Getenv("OPENAI_API_KEY"),
		BatchSize: maxBatchSize,
	}
}

// New creates an embedding client for the given model. An empty model name
// selects DefaultModel. Requires OPENAI_API_KEY or config.APIKey.
func New(model string, opts ...Option) (*Client, error) {
	if model == "" {
		model = DefaultModel
	}

	config := DefaultConfig()
	for _, opt := range opts {
		opt.Apply(config)
	}

	if config.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set or provided in config")
	}
	if config.BatchSize <= 0 || config.BatchSize > maxBatchSize {
		config.BatchSize = maxBatchSize
	}

	var clientOptions []option.RequestOption
	clientOptions = append(clientOptions, option.WithAPIKey(config.APIKey))

	if config.BaseURL != "" {
		clientOptions = append(clientOptions, option.WithBaseURL(config.BaseURL))
	}
	if config.OrgID != "" {
		clientOptions = append(clientOptions, option.WithOrganization(config.OrgID))
	}

	return &Client{
		client: openaisdk.NewClient(clientOptions...),
		model:  openaisdk.EmbeddingModel(model),
		config: config,
	}, nil
}

// Embed returns the embedding vector for a single text.
func (c *Client) Embed(ctx context.Context, text string) (examrag.Vector, error) {
	vecs, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in API batches, preserving input order.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([]examrag.Vector, error) {
	if len(texts) == 0 {
		return nil, &examrag.EmbeddingError{Op: "embed batch", Err: fmt.Errorf("no texts provided")}
	}

	out := make([]examrag.Vector, 0, len(texts))
	for start := 0; start < len(texts); start += c.config.BatchSize {
		end := start + c.config.BatchSize
		if end > len(texts) {
			end = len(texts)
		}

		resp, err := c.client.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
			Model: c.model,
			Input: openaisdk.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: texts[start:end],
			},
		})
		if err != nil {
			return nil, &examrag.EmbeddingError{Op: "embed batch", Err: err}
		}
		if len(resp.Data) != end-start {
			return nil, &examrag.EmbeddingError{
				Op:  "embed batch",
				Err: fmt.Errorf("expected %d embeddings, got %d", end-start, len(resp.Data)),
			}
		}

		for _, d := range resp.Data {
			vec := make(examrag.Vector, len(d.Embedding))
			for i, v := range d.Embedding {
				vec[i] = float32(v)
			}
			out = append(out, vec)
		}
	}
	return out, nil
}
