package rag

import (
	"context"
	"errors"
	"fmt"

	"studyhub/internal/contextutil"
	"studyhub/internal/storage"
)

const (
	// DefaultLimit is the maximum number of chunks returned by Search.
	DefaultLimit = 5
	// CandidateLimit is the number of stored chunks scanned per search.
	CandidateLimit = 10
	// KeywordScore is the fixed score assigned to keyword matches.
	KeywordScore = 0.8
	// MinRankedScore is the score a full-text match must exceed to be kept.
	MinRankedScore = 0.1
)

// Retriever finds chunks relevant to a query.
type Retriever interface {
	// Search returns up to limit chunks of userID that match any query term.
	// When documentID is non-empty only that document is searched.
	Search(ctx context.Context, userID, query, documentID string, limit int) ([]ScoredChunk, error)
}

// hybridRetriever implements Retriever with bm25-ranked full-text search,
// falling back to substring keyword matching over a bounded window of
// stored chunks when the ranked search keeps nothing.
type hybridRetriever struct {
	chunks storage.ChunkStore
}

// NewRetriever creates a Retriever backed by the chunk store.
func NewRetriever(chunks storage.ChunkStore) Retriever {
	return &hybridRetriever{chunks: chunks}
}

// Search tries the ranked search first. Its errors are logged, not returned,
// since the keyword scan can still answer.
func (r *hybridRetriever) Search(ctx context.Context, userID, query, documentID string, limit int) ([]ScoredChunk, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if limit <= 0 {
		limit = DefaultLimit
	}

	terms := QueryTerms(query)
	if len(terms) == 0 {
		logger.DebugContext(ctx, "query has no searchable terms", "query_length", len(query))
		return []ScoredChunk{}, nil
	}

	ranked, err := r.rankedSearch(ctx, userID, terms, documentID, limit)
	switch {
	case errors.Is(err, storage.ErrFullTextUnavailable):
		logger.DebugContext(ctx, "full-text index missing, using keyword scan")
	case err != nil:
		logger.WarnContext(ctx, "full-text search failed, using keyword scan", "error", err)
	case len(ranked) > 0:
		return ranked, nil
	}

	return r.keywordSearch(ctx, userID, terms, documentID, limit)
}

// rankedSearch keeps full-text matches whose normalised score exceeds
// MinRankedScore, in rank order.
func (r *hybridRetriever) rankedSearch(ctx context.Context, userID string, terms []string, documentID string, limit int) ([]ScoredChunk, error) {
	matches, err := r.chunks.SearchText(ctx, userID, terms, documentID, limit)
	if err != nil {
		return nil, err
	}

	results := make([]ScoredChunk, 0, len(matches))
	for _, m := range matches {
		score := normalizeRank(m.Rank)
		if score <= MinRankedScore {
			continue
		}
		results = append(results, ScoredChunk{Chunk: m.Chunk, Score: score, MatchedTerms: matchedTerms(m.Chunk.Text, terms)})
	}

	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "ranked search completed",
		"terms", len(terms),
		"matches", len(matches),
		"kept", len(results),
		"document_id", documentID,
	)
	return results, nil
}

// keywordSearch scans the first CandidateLimit chunks and keeps the ones that
// contain at least one query term, preserving storage order.
func (r *hybridRetriever) keywordSearch(ctx context.Context, userID string, terms []string, documentID string, limit int) ([]ScoredChunk, error) {
	candidates, err := r.chunks.ListByUser(ctx, userID, documentID, CandidateLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate chunks: %w", err)
	}

	results := make([]ScoredChunk, 0, limit)
	for _, c := range candidates {
		n := matchedTerms(c.Text, terms)
		if n == 0 {
			continue
		}
		results = append(results, ScoredChunk{Chunk: c, Score: KeywordScore, MatchedTerms: n})
		if len(results) == limit {
			break
		}
	}

	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "keyword search completed",
		"terms", len(terms),
		"candidates", len(candidates),
		"matches", len(results),
		"document_id", documentID,
	)

	return results, nil
}

// normalizeRank maps a positive bm25 rank onto [0, 1).
func normalizeRank(rank float64) float64 {
	if rank <= 0 {
		return 0
	}
	return rank / (1 + rank)
}
