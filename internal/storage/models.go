package storage

import "time"

// Sender values accepted for chat messages.
const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// DocumentRecord is the metadata row for one uploaded file.
type DocumentRecord struct {
	ID          string // UUID
	UserID      string // Owner
	Filename    string
	FileType    string // pdf, docx, txt or md
	FileSize    int64  // Bytes as uploaded
	PageCount   int    // Zero for formats without pages
	WordCount   int
	ChunksCount int
	UploadedAt  time.Time
}

// ChunkRecord is one stored chunk, keyed by (user, document, chunk index).
type ChunkRecord struct {
	ID         string // UUID
	UserID     string
	DocumentID string // Foreign key to documents.id
	Filename   string
	FileType   string
	ChunkIndex int // Starts at 0
	Text       string
	StartIndex int
	EndIndex   int
}

// ChunkMatch is a chunk returned by full-text search.
type ChunkMatch struct {
	Chunk *ChunkRecord
	Rank  float64 // Negated bm25; higher is more relevant
}

// Source references a document that contributed to an answer.
type Source struct {
	DocumentID string `json:"documentId"`
	Filename   string `json:"filename"`
}

// MessageRecord is one saved chat message.
type MessageRecord struct {
	ID          string  // UUID
	UserID      string
	DocumentID  *string // nil for the general notes chat
	MessageText string
	Sender      string // SenderUser or SenderAssistant
	Sources     []Source
	CreatedAt   time.Time
}
