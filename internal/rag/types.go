package rag

import "studyhub/internal/storage"

// ScoredChunk is a stored chunk selected for a query.
type ScoredChunk struct {
	// Chunk is the stored chunk row.
	Chunk *storage.ChunkRecord
	// Score is the relevance score in [0, 1].
	Score float64
	// MatchedTerms is the number of distinct query terms found in the chunk text.
	MatchedTerms int
}

// DocumentID returns the ID of the document the chunk belongs to.
func (s ScoredChunk) DocumentID() string {
	return s.Chunk.DocumentID
}

// Filename returns the name of the file the chunk was cut from.
func (s ScoredChunk) Filename() string {
	return s.Chunk.Filename
}
