// Package embed converts text to float32 vectors via any OpenAI-compatible
// embedding server, with bounded exponential-backoff retry on rate limits.
//
// It decouples embedding generation from storage and indexing so any
// component can convert text to vectors without knowing the backend
// (CPU ONNX, GPU vLLM, serverless, or a hosted API).
//
// Usage:
//
//	emb := embed.New(embed.Config{
//	    Endpoint: "https://api.example.com",
//	    Model:    "text-embedding-3-small",
//	})
//	emb = embed.NewRetrier(emb, embed.RetryConfig{})
//	vec, err := emb.Embed(ctx, "How do I reset my password?")
package embed

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrRateLimited indicates the embedding backend rejected the request for
// quota or rate-limit reasons. This is the only retryable failure kind.
var ErrRateLimited = errors.New("embed: rate limited")

// ErrExhausted is returned by a Retrier once the retry budget is spent on
// persistent rate limiting. It wraps the last backend error.
var ErrExhausted = errors.New("embed: retry budget exhausted")

// Embedder converts text to vectors.
type Embedder interface {
	// Embed returns the embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns embeddings for multiple texts in one HTTP call.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the vector dimension (768, 1536, etc).
	// Returns 0 if not yet detected (first call not made).
	Dimension() int

	// Model returns the model name.
	Model() string
}

// Config configures the embedding client.
type Config struct {
	// Endpoint is the base URL of the embedding server.
	// If empty, a no-op embedder producing zero vectors is returned.
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// APIKey is sent as a bearer token when non-empty.
	APIKey string `json:"api_key" yaml:"api_key"`

	// Model is the model name sent in the request.
	Model string `json:"model" yaml:"model"`

	// Dimension is the expected vector dimension. 0 means auto-detect on
	// first call.
	Dimension int `json:"dimension" yaml:"dimension"`

	// BatchSize is the maximum number of texts per HTTP request. Default: 32.
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// Timeout per HTTP request. Default: 30s.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// Logger for debug/error messages. Defaults to slog.Default().
	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = 32
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// New creates an Embedder from config. If Endpoint is empty, returns a
// no-op embedder that produces zero vectors of the configured dimension,
// keeping the rest of the pipeline runnable without a server.
func New(cfg Config) Embedder {
	cfg.defaults()
	if cfg.Endpoint == "" {
		dim := cfg.Dimension
		if dim <= 0 {
			dim = 768
		}
		return &noopEmbedder{dim: dim, model: cfg.Model}
	}
	return newOpenAIClient(cfg)
}

type noopEmbedder struct {
	dim   int
	model string
}

func (n *noopEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return make([]float32, n.dim), nil
}

func (n *noopEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = make([]float32, n.dim)
	}
	return out, nil
}

func (n *noopEmbedder) Dimension() int { return n.dim }
func (n *noopEmbedder) Model() string  { return n.model }
