package store

import "database/sql"

// Schema is the complete chunk-store schema.
const Schema = `
-- One row per (url, chunk_index); immutable after the page's first
-- indexing pass.
CREATE TABLE IF NOT EXISTS page_chunks (
    id           TEXT PRIMARY KEY,
    url          TEXT NOT NULL,
    chunk_index  INTEGER NOT NULL,
    text         TEXT NOT NULL,
    markdown     TEXT NOT NULL DEFAULT '',
    content_hash TEXT NOT NULL DEFAULT '',
    embedding    BLOB NOT NULL,
    created_at   INTEGER NOT NULL,
    UNIQUE(url, chunk_index)
);
CREATE INDEX IF NOT EXISTS idx_page_chunks_url ON page_chunks(url);

-- FTS5 keyword index on chunk text
CREATE VIRTUAL TABLE IF NOT EXISTS page_chunks_fts USING fts5(
    text, content='page_chunks', content_rowid='rowid',
    tokenize='unicode61 remove_diacritics 2'
);

-- Triggers to keep FTS5 in sync
CREATE TRIGGER IF NOT EXISTS page_chunks_ai AFTER INSERT ON page_chunks BEGIN
    INSERT INTO page_chunks_fts(rowid, text) VALUES (new.rowid, new.text);
END;
CREATE TRIGGER IF NOT EXISTS page_chunks_ad AFTER DELETE ON page_chunks BEGIN
    INSERT INTO page_chunks_fts(page_chunks_fts, rowid, text) VALUES('delete', old.rowid, old.text);
END;

-- Search log (operator-visible query history)
CREATE TABLE IF NOT EXISTS search_log (
    id           TEXT PRIMARY KEY,
    query        TEXT NOT NULL,
    result_count INTEGER NOT NULL DEFAULT 0,
    searched_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_search_log_time ON search_log(searched_at DESC);
`

// ApplySchema creates all tables, indexes, and triggers on the given database.
func ApplySchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
