// Package genai generates chat answers through any OpenAI-compatible
// /v1/chat/completions endpoint. This covers vLLM, Ollama, llama.cpp
// server, and OpenAI itself.
package genai

import (
	"context"
	"log/slog"
	"time"
)

// Message is one turn of a chat conversation.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant", "tool"
	Content string `json:"content"`
}

// Responder produces an assistant answer for a conversation.
type Responder interface {
	// Chat returns the assistant's reply to the conversation so far.
	Chat(ctx context.Context, messages []Message) (string, error)
	// Model returns the configured model identifier.
	Model() string
}

// SearchFunc looks up site documentation for the model's tool calls.
type SearchFunc func(ctx context.Context, query string, topK int) (string, error)

// Config configures a Responder.
type Config struct {
	// Endpoint is the server base URL, e.g. "http://localhost:8004".
	// Empty means no model: New returns a canned responder so the rest
	// of the system stays usable in development.
	Endpoint string
	APIKey   string
	Model    string
	Timeout  time.Duration
	// Search, when set, is exposed to the model as the search_site_docs
	// tool. One tool round per Chat call.
	Search SearchFunc
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Timeout == 0 {
		c.Timeout = 60 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// New returns a Responder for the configured endpoint, or a canned
// responder when no endpoint is set.
func New(cfg Config) Responder {
	cfg.defaults()
	if cfg.Endpoint == "" {
		cfg.Logger.Warn("genai: no endpoint configured, using canned responder")
		return &cannedResponder{}
	}
	return newOpenAIResponder(cfg)
}

// cannedResponder stands in when no generation backend is configured.
type cannedResponder struct{}

func (c *cannedResponder) Chat(_ context.Context, _ []Message) (string, error) {
	return "No language model is configured. Please contact support directly " +
		"or try again later.", nil
}

func (c *cannedResponder) Model() string { return "none" }
