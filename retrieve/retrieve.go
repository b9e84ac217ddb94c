// Package retrieve answers free-text queries against the indexed corpus.
package retrieve

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/castlebay/sitechat/embed"
	"github.com/castlebay/sitechat/store"
)

// DefaultTopK is how many chunks a search returns when the caller does not
// say.
const DefaultTopK = 5

// Retriever embeds queries and ranks stored chunks by cosine similarity.
type Retriever struct {
	store    *store.Store
	embedder embed.Embedder
	logger   *slog.Logger
}

// New returns a Retriever over the given store and embedder. The embedder
// should already carry retry semantics if the caller wants them; the
// Retriever does not add its own.
func New(st *store.Store, emb embed.Embedder, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{store: st, embedder: emb, logger: logger}
}

// Search embeds the query and returns the topK most similar chunk texts
// joined by blank lines, best match first. When no embedding backend is
// configured the query vector is all zeros and keyword search takes over.
// An empty corpus or a query with no neighbors yields "" and a nil error;
// embedding and storage failures propagate.
func (r *Retriever) Search(ctx context.Context, query string, topK int) (string, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return "", nil
	}

	matches, err := r.lookup(ctx, query, topK)
	if err != nil {
		return "", err
	}

	r.store.LogSearch(ctx, query, len(matches))

	if len(matches) == 0 {
		return "", nil
	}
	texts := make([]string, len(matches))
	for i, m := range matches {
		texts[i] = m.Text
	}
	return strings.Join(texts, "\n\n"), nil
}

// Matches is Search without the join: structured hits for callers that
// want scores and source URLs, like the MCP search tool. Keyword-fallback
// hits carry a zero score.
func (r *Retriever) Matches(ctx context.Context, query string, topK int) ([]store.Match, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	matches, err := r.lookup(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	r.store.LogSearch(ctx, query, len(matches))
	return matches, nil
}

// lookup embeds the query and ranks chunks by cosine similarity. A zero
// query vector cannot rank anything, so it falls back to FTS5 keyword
// search; the no-op embedder produces zero vectors, and stored chunks are
// then zero too, which is exactly when keyword matching is the better
// signal.
func (r *Retriever) lookup(ctx context.Context, query string, topK int) ([]store.Match, error) {
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("retrieve: embed query: %w", err)
	}

	if zeroVector(vec) {
		kws, err := r.store.Search(ctx, query, topK)
		if err != nil {
			return nil, fmt.Errorf("retrieve: keyword search: %w", err)
		}
		matches := make([]store.Match, len(kws))
		for i, kw := range kws {
			matches[i] = store.Match{URL: kw.URL, ChunkIndex: kw.ChunkIndex, Text: kw.Text}
		}
		return matches, nil
	}

	matches, err := r.store.NearestNeighbors(ctx, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	return matches, nil
}

func zeroVector(vec []float32) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}
