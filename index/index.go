// Package index builds the searchable corpus: it walks a site, extracts
// and chunks each page, embeds the chunks, and persists them. Indexing is
// idempotent per URL; a URL with any stored chunks is never re-fetched.
package index

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/castlebay/sitechat/browse"
	"github.com/castlebay/sitechat/chunk"
	"github.com/castlebay/sitechat/crawl"
	"github.com/castlebay/sitechat/embed"
	"github.com/castlebay/sitechat/extract"
	"github.com/castlebay/sitechat/store"
)

// Indexer turns pages into stored, embedded chunks.
type Indexer struct {
	store    *store.Store
	embedder embed.Embedder
	chunkOps chunk.Options
	logger   *slog.Logger
}

// Config configures an Indexer.
type Config struct {
	Store    *store.Store
	Embedder embed.Embedder
	Chunking chunk.Options
	Logger   *slog.Logger
}

// New returns an Indexer over the given store and embedder.
func New(cfg Config) *Indexer {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Indexer{
		store:    cfg.Store,
		embedder: cfg.Embedder,
		chunkOps: cfg.Chunking,
		logger:   cfg.Logger,
	}
}

// EnsureIndexed indexes a single URL if it has no stored chunks yet.
// Idempotence is existence-only: previously indexed pages are skipped
// without comparing content. Returns the number of chunks written, zero
// when the URL was already indexed or yielded no indexable text.
func (ix *Indexer) EnsureIndexed(ctx context.Context, opener browse.PageOpener, pageURL string) (int, error) {
	exists, err := ix.store.HasURL(ctx, pageURL)
	if err != nil {
		return 0, fmt.Errorf("index %s: %w", pageURL, err)
	}
	if exists {
		ix.logger.Debug("index: already indexed", "url", pageURL)
		return 0, nil
	}

	page, err := opener.Open(ctx, pageURL)
	if err != nil {
		return 0, fmt.Errorf("index %s: open: %w", pageURL, err)
	}
	defer page.Close()

	res, err := extract.Page(ctx, page, pageURL)
	if err != nil {
		return 0, fmt.Errorf("index %s: %w", pageURL, err)
	}

	chunks := res.Chunks(ix.chunkOps)
	if len(chunks) == 0 {
		ix.logger.Info("index: no indexable text", "url", pageURL)
		return 0, nil
	}

	// Embed sequentially. A failed embed aborts the whole URL so the row
	// set for a URL is always complete: chunk_index runs contiguously
	// from 0 or the URL has no rows at all.
	rows := make([]*store.PageChunk, 0, len(chunks))
	for _, c := range chunks {
		vec, err := ix.embedder.Embed(ctx, c.Text)
		if err != nil {
			return 0, fmt.Errorf("index %s: embed chunk %d: %w", pageURL, c.Index, err)
		}
		rows = append(rows, &store.PageChunk{
			URL:         pageURL,
			ChunkIndex:  c.Index,
			Text:        c.Text,
			Markdown:    res.Markdown,
			ContentHash: res.Hash,
			Embedding:   vec,
		})
	}

	if err := ix.store.InsertChunks(ctx, rows); err != nil {
		return 0, fmt.Errorf("index %s: %w", pageURL, err)
	}
	ix.logger.Info("index: page indexed", "url", pageURL, "chunks", len(rows))
	return len(rows), nil
}

// Summary reports the outcome of a full-site run.
type Summary struct {
	Visited int `json:"visited"`
	Indexed int `json:"indexed"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
	Chunks  int `json:"chunks"`
}

// EnsureAllIndexed crawls the site rooted at seed and indexes each
// discovered URL. Per-URL failures are logged and counted but do not stop
// the run; only the crawl itself failing is an error.
func (ix *Indexer) EnsureAllIndexed(ctx context.Context, opener browse.PageOpener, seed string, crawlOpts crawl.Options) (*Summary, error) {
	if crawlOpts.Logger == nil {
		crawlOpts.Logger = ix.logger
	}
	urls, err := crawl.Site(ctx, opener, seed, crawlOpts)
	if err != nil {
		return nil, fmt.Errorf("index: %w", err)
	}

	sum := &Summary{Visited: len(urls)}
	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			return sum, fmt.Errorf("index: %w", err)
		}
		n, err := ix.EnsureIndexed(ctx, opener, u)
		switch {
		case err != nil:
			sum.Failed++
			ix.logger.Warn("index: url failed", "url", u, "error", err)
		case n == 0:
			sum.Skipped++
		default:
			sum.Indexed++
			sum.Chunks += n
		}
	}
	ix.logger.Info("index: site run complete",
		"visited", sum.Visited, "indexed", sum.Indexed,
		"skipped", sum.Skipped, "failed", sum.Failed, "chunks", sum.Chunks)
	return sum, nil
}
