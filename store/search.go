package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/castlebay/sitechat/embed"
)

// NearestNeighbors returns the k stored chunks most similar to vec,
// ordered by descending cosine similarity. It scans every embedding blob;
// a single site's index stays small enough that the scan is cheaper than
// maintaining an ANN structure.
func (s *Store) NearestNeighbors(ctx context.Context, vec []float32, k int) ([]Match, error) {
	if k <= 0 {
		k = 5
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT url, chunk_index, text, embedding FROM page_chunks`)
	if err != nil {
		return nil, fmt.Errorf("nearest neighbors: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		var blob []byte
		if err := rows.Scan(&m.URL, &m.ChunkIndex, &m.Text, &blob); err != nil {
			return nil, fmt.Errorf("scan embedding row: %w", err)
		}
		m.Score = embed.CosineSimilarity(vec, embed.DeserializeVector(blob))
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Search performs an FTS5 keyword search on chunk text. It is the keyword
// fallback surface next to NearestNeighbors: retrieval routes through it
// when the query vector carries no signal. The query is free text; each
// token is quoted so user input can never hit FTS5 operator syntax.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]KeywordResult, error) {
	if limit <= 0 {
		limit = 20
	}
	expr := matchExpr(query)
	if expr == "" {
		return nil, nil
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT c.url, c.chunk_index, c.text, rank
		FROM page_chunks_fts f
		JOIN page_chunks c ON c.rowid = f.rowid
		WHERE page_chunks_fts MATCH ?
		ORDER BY rank
		LIMIT ?`, expr, limit)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()

	var results []KeywordResult
	for rows.Next() {
		var r KeywordResult
		if err := rows.Scan(&r.URL, &r.ChunkIndex, &r.Text, &r.Rank); err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// matchExpr turns free text into an FTS5 match expression: every token is
// double-quoted and tokens are OR-ed, so a chunk matching any query word
// ranks. Returns "" when the query has no tokens.
func matchExpr(query string) string {
	fields := strings.Fields(query)
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ReplaceAll(f, `"`, "")
		if f == "" {
			continue
		}
		quoted = append(quoted, `"`+f+`"`)
	}
	return strings.Join(quoted, " OR ")
}

// LogSearch records a retrieval query (fire-and-forget).
func (s *Store) LogSearch(ctx context.Context, query string, resultCount int) {
	s.DB.ExecContext(ctx,
		`INSERT INTO search_log (id, query, result_count, searched_at) VALUES (?, ?, ?, ?)`,
		s.newID(), query, resultCount, time.Now().UnixMilli())
}
