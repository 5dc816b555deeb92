package store

import "time"

// Session is one ingested transcript file and its aggregates.
type Session struct {
	ID           int64
	SessionID    string
	SourcePath   string
	Project      string
	CreatedAt    *time.Time
	UpdatedAt    *time.Time
	MessageCount int
	TotalTokens  int
	TotalCost    float64
	Metadata     string
	IngestedAt   time.Time
}

// Chunk is one retained turn belonging to a session. Embedding may be nil
// until the embedding phase fills it in; such chunks are excluded from
// similarity ranking.
type Chunk struct {
	Index     int
	Role      string
	Content   string
	Embedding []float32
	Tokens    int
	ToolNames []string
	Refs      []string
	CreatedAt *time.Time
	Metadata  string
}

// SearchResult is one ranked chunk.
type SearchResult struct {
	SessionID string
	Project   string
	Index     int
	Role      string
	Content   string
	Score     float64
	CreatedAt *time.Time
}

// Stats holds database counts.
type Stats struct {
	Sessions       int
	Chunks         int
	EmbeddedChunks int
}
