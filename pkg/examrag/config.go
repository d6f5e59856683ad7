package examrag

import (
	"fmt"
	"os"
	"strconv"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// Config holds the pipeline-wide retrieval constants. All values are
// overridable per call through RetrieveParams where a per-call equivalent
// exists.
type Config struct {
	// SimilarityThreshold is the minimum cosine similarity for the strict
	// search strategies. The relaxed strategy uses 70% of this value.
	SimilarityThreshold float64 `yaml:"similarity_threshold"`

	// MaxContextChunks bounds how many chunks a retrieval returns.
	MaxContextChunks int `yaml:"max_context_chunks"`

	// MaxChunkChars is the per-chunk character budget in formatted context.
	MaxChunkChars int `yaml:"max_chunk_chars"`

	// RecencyBoostYears: chunks from the last N years get the recency boost.
	RecencyBoostYears int `yaml:"recency_boost_years"`

	// RecencyBoostFactor multiplies similarity for recent chunks.
	RecencyBoostFactor float64 `yaml:"recency_boost_factor"`

	// SectionMatchBoost multiplies similarity for exact section matches.
	SectionMatchBoost float64 `yaml:"section_match_boost"`

	// PaperMatchBoost multiplies similarity for exact paper-format matches.
	PaperMatchBoost float64 `yaml:"paper_match_boost"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: 0.5,
		MaxContextChunks:    5,
		MaxChunkChars:       1500,
		RecencyBoostYears:   3,
		RecencyBoostFactor:  1.1,
		SectionMatchBoost:   1.15,
		PaperMatchBoost:     1.05,
	}
}

// FromEnv returns the defaults overridden by EXAMRAG_* environment
// variables. A .env file in the working directory is loaded first when
// present; unparseable values are ignored in favor of the default.
//
// Recognized variables: EXAMRAG_SIMILARITY_THRESHOLD,
// EXAMRAG_MAX_CONTEXT_CHUNKS, EXAMRAG_MAX_CHUNK_CHARS,
// EXAMRAG_RECENCY_BOOST_YEARS, EXAMRAG_RECENCY_BOOST_FACTOR,
// EXAMRAG_SECTION_MATCH_BOOST, EXAMRAG_PAPER_MATCH_BOOST.
func FromEnv() Config {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if v, ok := envFloat("EXAMRAG_SIMILARITY_THRESHOLD"); ok {
		cfg.SimilarityThreshold = v
	}
	if v, ok := envInt("EXAMRAG_MAX_CONTEXT_CHUNKS"); ok {
		cfg.MaxContextChunks = v
	}
	if v, ok := envInt("EXAMRAG_MAX_CHUNK_CHARS"); ok {
		cfg.MaxChunkChars = v
	}
	if v, ok := envInt("EXAMRAG_RECENCY_BOOST_YEARS"); ok {
		cfg.RecencyBoostYears = v
	}
	if v, ok := envFloat("EXAMRAG_RECENCY_BOOST_FACTOR"); ok {
		cfg.RecencyBoostFactor = v
	}
	if v, ok := envFloat("EXAMRAG_SECTION_MATCH_BOOST"); ok {
		cfg.SectionMatchBoost = v
	}
	if v, ok := envFloat("EXAMRAG_PAPER_MATCH_BOOST"); ok {
		cfg.PaperMatchBoost = v
	}
	return cfg
}

// LoadFile reads a YAML config file. Fields absent from the file keep
// their defaults.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}

func envFloat(key string) (float64, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func envInt(key string) (int, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
