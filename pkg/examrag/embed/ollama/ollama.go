// Package ollama provides a local embedding client backed by an Ollama
// server. It implements examrag.Embedder, so an index can be built and
// queried entirely offline with models like nomic-embed-text.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"

	"github.com/examforge-ai/examrag/pkg/examrag"
)

// Client calls an Ollama server's embed endpoint. It implements
// examrag.Embedder.
type Client struct {
	client *api.Client
	model  string
	config *Config
}

// Config holds Ollama-specific configuration. All fields are optional with
// sensible defaults.
type Config struct {
	// Optional. Ollama server host (defaults to localhost:11434 or OLLAMA_HOST env)
	Host string

	// Optional. Controls how long the model stays loaded in memory (e.g. "5m", "1h")
	// Use "-1" to keep loaded indefinitely, "0" to unload immediately
	KeepAlive string
}

// Option interface for functional options pattern
type Option interface {
	Apply(*Config)
}

type configOption struct{ config *Config }

func (o configOption) Apply(opts *Config) { *opts = *o.config }

// WithConfig sets custom Ollama configuration.
func WithConfig(config *Config) Option {
	return configOption{config: config}
}

// DefaultConfig returns sensible defaults for a localhost Ollama server.
func DefaultConfig() *Config {
	return &Config{
		Host:      "", // Will use ClientFromEnvironment() default
		KeepAlive: "5m",
	}
}

// New creates an embedding client for the given model. Requires an Ollama
// server running with the model pulled; use 'ollama list' to check.
func New(model string, opts ...Option) (*Client, error) {
	if model == "" {
		model = "nomic-embed-text"
	}

	config := DefaultConfig()
	for _, opt := range opts {
		opt.Apply(config)
	}

	var client *api.Client
	if config.Host == "" {
		var err error
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("failed to create client from environment: %w", err)
		}
	} else {
		u, err := url.Parse(config.Host)
		if err != nil {
			return nil, fmt.Errorf("invalid host URL: %w", err)
		}
		client = api.NewClient(u, http.DefaultClient)
	}

	return &Client{
		client: client,
		model:  model,
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

// EmbedBatch embeds texts in a single request, preserving input order.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([]examrag.Vector, error) {
	if len(texts) == 0 {
		return nil, &examrag.EmbeddingError{Op: "embed batch", Err: fmt.Errorf("no texts provided")}
	}

	req := &api.EmbedRequest{
		Model:   c.model,
		Input:   texts,
		Options: map[string]any{},
	}
	if c.config.KeepAlive != "" {
		req.Options["keep_alive"] = c.config.KeepAlive
	}

	resp, err := c.client.Embed(ctx, req)
	if err != nil {
		return nil, &examrag.EmbeddingError{Op: "embed batch", Err: err}
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, &examrag.EmbeddingError{
			Op:  "embed batch",
			Err: fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings)),
		}
	}

	out := make([]examrag.Vector, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		out[i] = examrag.Vector(e)
	}
	return out, nil
}
