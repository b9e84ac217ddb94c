// Package store provides the data access layer for indexed page chunks.
//
// The store receives an already-opened *sql.DB (see dbopen) and owns the
// page_chunks, page_chunks_fts, and search_log tables. Embedding vectors
// are persisted as little-endian float32 BLOBs; similarity search scans
// them with cosine similarity, which is adequate for a single crawled
// site's corpus.
package store

import (
	"database/sql"

	"github.com/castlebay/sitechat/idgen"
)

// Store wraps the chunk database.
type Store struct {
	DB    *sql.DB
	newID idgen.Generator
}

// NewStore creates a Store from an already-opened database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{DB: db, newID: idgen.New}
}
