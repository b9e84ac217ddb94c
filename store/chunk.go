package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/castlebay/sitechat/dbopen"
	"github.com/castlebay/sitechat/embed"
)

// HasURL reports whether at least one chunk row exists for url. This
// existence check is the indexer's sole deduplication mechanism: it does
// not compare content, so a changed page is never refreshed.
func (s *Store) HasURL(ctx context.Context, url string) (bool, error) {
	var n int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM page_chunks WHERE url = ?`, url).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("has url: %w", err)
	}
	return n > 0, nil
}

// InsertChunks stores all of a page's chunks in a single transaction, so a
// page is either fully indexed or absent. IDs and timestamps are assigned
// here when missing. The write retries on SQLITE_BUSY: the indexer and the
// chat path share one database file.
func (s *Store) InsertChunks(ctx context.Context, chunks []*PageChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	now := time.Now().UnixMilli()
	for _, c := range chunks {
		if c.ID == "" {
			c.ID = s.newID()
		}
		if c.CreatedAt == 0 {
			c.CreatedAt = now
		}
	}

	return dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO page_chunks (id, url, chunk_index, text, markdown,
			content_hash, embedding, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare: %w", err)
		}
		defer stmt.Close()

		for _, c := range chunks {
			_, err := stmt.ExecContext(ctx,
				c.ID, c.URL, c.ChunkIndex, c.Text, c.Markdown,
				c.ContentHash, embed.SerializeVector(c.Embedding), c.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("insert chunk %d for %s: %w", c.ChunkIndex, c.URL, err)
			}
		}
		return nil
	})
}

// ListChunks returns a page's chunks in chunk_index order.
func (s *Store) ListChunks(ctx context.Context, url string) ([]*PageChunk, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, url, chunk_index, text, markdown, content_hash, embedding, created_at
		FROM page_chunks WHERE url = ? ORDER BY chunk_index`, url)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*PageChunk
	for rows.Next() {
		var c PageChunk
		var blob []byte
		if err := rows.Scan(&c.ID, &c.URL, &c.ChunkIndex, &c.Text, &c.Markdown,
			&c.ContentHash, &blob, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		c.Embedding = embed.DeserializeVector(blob)
		result = append(result, &c)
	}
	return result, rows.Err()
}

// Stats returns aggregate counters for the index.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT url), COUNT(*) FROM page_chunks`).Scan(&st.Pages, &st.Chunks); err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM search_log`).Scan(&st.Searches); err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	return &st, nil
}
