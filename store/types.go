package store

// PageChunk is one retrievable unit of a crawled page.
type PageChunk struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	ChunkIndex  int       `json:"chunk_index"`
	Text        string    `json:"text"`
	Markdown    string    `json:"markdown"`
	ContentHash string    `json:"content_hash"`
	Embedding   []float32 `json:"-"`
	CreatedAt   int64     `json:"created_at"`
}

// Match is a nearest-neighbor hit.
type Match struct {
	URL        string  `json:"url"`
	ChunkIndex int     `json:"chunk_index"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

// KeywordResult is an FTS5 search hit on chunk text.
type KeywordResult struct {
	URL        string  `json:"url"`
	ChunkIndex int     `json:"chunk_index"`
	Text       string  `json:"text"`
	Rank       float64 `json:"rank"`
}

// Stats holds aggregate counters for the index.
type Stats struct {
	Pages    int `json:"pages"`
	Chunks   int `json:"chunks"`
	Searches int `json:"searches"`
}
