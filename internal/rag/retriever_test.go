package rag

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"studyhub/internal/storage"
	"studyhub/internal/storage/mocks"

	"go.uber.org/mock/gomock"
)

func chunk(id, doc, file, text string) *storage.ChunkRecord {
	return &storage.ChunkRecord{ID: id, UserID: "user-1", DocumentID: doc, Filename: file, Text: text}
}

func TestQueryTerms(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{query: "What is Photosynthesis?", want: []string{"what", "photosynthesis?"}},
		{query: "a an of to", want: []string{}},
		{query: "  cell   biology\tnotes ", want: []string{"cell", "biology", "notes"}},
		{query: "", want: []string{}},
		{query: "Été ok", want: []string{"été"}},
	}

	for _, tt := range tests {
		if got := QueryTerms(tt.query); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("QueryTerms(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}

func TestMatchedTerms(t *testing.T) {
	if got := matchedTerms("The Mitochondria is the powerhouse", []string{"mitochondria", "power", "cell"}); got != 2 {
		t.Errorf("matchedTerms() = %d, want 2", got)
	}
	if got := matchedTerms("cell cell cell", []string{"cell", "cell"}); got != 1 {
		t.Errorf("matchedTerms() with duplicate terms = %d, want 1", got)
	}
}

func TestRetriever_Search(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockChunks := mocks.NewMockChunkStore(ctrl)
	retriever := NewRetriever(mockChunks)

	candidates := []*storage.ChunkRecord{
		chunk("c1", "d1", "bio.pdf", "Photosynthesis happens in chloroplasts."),
		chunk("c2", "d1", "bio.pdf", "Unrelated text about history."),
		chunk("c3", "d2", "chem.txt", "Chlorophyll absorbs light for PHOTOSYNTHESIS."),
	}

	gomock.InOrder(
		mockChunks.EXPECT().
			SearchText(gomock.Any(), "user-1", []string{"explain", "photosynthesis"}, "", DefaultLimit).
			Return([]*storage.ChunkMatch{}, nil),
		mockChunks.EXPECT().
			ListByUser(gomock.Any(), "user-1", "", CandidateLimit).
			Return(candidates, nil),
	)

	got, err := retriever.Search(context.Background(), "user-1", "Explain photosynthesis", "", 0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Search() returned %d chunks, want 2", len(got))
	}
	if got[0].Chunk.ID != "c1" || got[1].Chunk.ID != "c3" {
		t.Errorf("Search() order = %s, %s, want c1, c3", got[0].Chunk.ID, got[1].Chunk.ID)
	}
	for _, c := range got {
		if c.Score != KeywordScore {
			t.Errorf("Search() score = %v, want %v", c.Score, KeywordScore)
		}
		if c.MatchedTerms != 1 {
			t.Errorf("Search() matched terms = %d, want 1", c.MatchedTerms)
		}
	}
}

func TestRetriever_Search_Limit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockChunks := mocks.NewMockChunkStore(ctrl)
	retriever := NewRetriever(mockChunks)

	var candidates []*storage.ChunkRecord
	for i := 0; i < CandidateLimit; i++ {
		candidates = append(candidates, chunk("c", "d1", "notes.txt", "every chunk mentions enzymes"))
	}

	mockChunks.EXPECT().
		SearchText(gomock.Any(), "user-1", []string{"enzymes"}, "d1", DefaultLimit).
		Return(nil, storage.ErrFullTextUnavailable)
	mockChunks.EXPECT().
		ListByUser(gomock.Any(), "user-1", "d1", CandidateLimit).
		Return(candidates, nil)

	got, err := retriever.Search(context.Background(), "user-1", "enzymes", "d1", DefaultLimit)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != DefaultLimit {
		t.Errorf("Search() returned %d chunks, want %d", len(got), DefaultLimit)
	}
}

func TestRetriever_Search_NoTerms(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockChunks := mocks.NewMockChunkStore(ctrl)
	retriever := NewRetriever(mockChunks)

	// No store call expected.
	got, err := retriever.Search(context.Background(), "user-1", "is it ok", "", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Search() returned %d chunks, want 0", len(got))
	}
}

func TestRetriever_Search_StoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockChunks := mocks.NewMockChunkStore(ctrl)
	retriever := NewRetriever(mockChunks)

	storeErr := errors.New("database locked")
	mockChunks.EXPECT().
		SearchText(gomock.Any(), "user-1", []string{"photosynthesis"}, "", 5).
		Return(nil, storeErr)
	mockChunks.EXPECT().
		ListByUser(gomock.Any(), "user-1", "", CandidateLimit).
		Return(nil, storeErr)

	if _, err := retriever.Search(context.Background(), "user-1", "photosynthesis", "", 5); !errors.Is(err, storeErr) {
		t.Errorf("Search() error = %v, want wrapped store error", err)
	}
}

func TestRetriever_Search_Ranked(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockChunks := mocks.NewMockChunkStore(ctrl)
	retriever := NewRetriever(mockChunks)

	mockChunks.EXPECT().
		SearchText(gomock.Any(), "user-1", []string{"mitochondria", "atp"}, "", DefaultLimit).
		Return([]*storage.ChunkMatch{
			{Chunk: chunk("c12", "d1", "bio.pdf", "Mitochondria make ATP."), Rank: 3},
			{Chunk: chunk("c4", "d2", "cells.md", "Mitochondria are organelles."), Rank: 1},
			{Chunk: chunk("c7", "d2", "cells.md", "A weak mitochondria mention."), Rank: 0.05},
		}, nil)
	// No ListByUser call: the keyword scan only runs when ranking keeps nothing.

	got, err := retriever.Search(context.Background(), "user-1", "mitochondria ATP", "", 0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Search() returned %d chunks, want 2", len(got))
	}
	if got[0].Chunk.ID != "c12" || got[1].Chunk.ID != "c4" {
		t.Errorf("Search() order = %s, %s, want c12, c4", got[0].Chunk.ID, got[1].Chunk.ID)
	}
	if got[0].Score != 0.75 || got[1].Score != 0.5 {
		t.Errorf("Search() scores = %v, %v, want 0.75, 0.5", got[0].Score, got[1].Score)
	}
	if got[0].MatchedTerms != 2 || got[1].MatchedTerms != 1 {
		t.Errorf("Search() matched terms = %d, %d, want 2, 1", got[0].MatchedTerms, got[1].MatchedTerms)
	}
}

func TestRetriever_Search_Fallback(t *testing.T) {
	tests := []struct {
		name    string
		matches []*storage.ChunkMatch
		err     error
	}{
		{name: "no ranked rows", matches: []*storage.ChunkMatch{}},
		{
			name: "every rank under threshold",
			matches: []*storage.ChunkMatch{
				{Chunk: chunk("c1", "d1", "bio.pdf", "Enzymes everywhere."), Rank: 0.000001},
			},
		},
		{name: "index missing", err: storage.ErrFullTextUnavailable},
		{name: "search error", err: errors.New("malformed MATCH")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockChunks := mocks.NewMockChunkStore(ctrl)
			retriever := NewRetriever(mockChunks)

			gomock.InOrder(
				mockChunks.EXPECT().
					SearchText(gomock.Any(), "user-1", []string{"enzymes"}, "", DefaultLimit).
					Return(tt.matches, tt.err),
				mockChunks.EXPECT().
					ListByUser(gomock.Any(), "user-1", "", CandidateLimit).
					Return([]*storage.ChunkRecord{chunk("c2", "d1", "bio.pdf", "Enzymes speed up reactions.")}, nil),
			)

			got, err := retriever.Search(context.Background(), "user-1", "enzymes", "", DefaultLimit)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(got) != 1 || got[0].Chunk.ID != "c2" || got[0].Score != KeywordScore {
				t.Errorf("Search() = %+v, want keyword match c2", got)
			}
		})
	}
}

func TestNormalizeRank(t *testing.T) {
	tests := []struct {
		rank float64
		want float64
	}{
		{rank: 0, want: 0},
		{rank: -2, want: 0},
		{rank: 1, want: 0.5},
		{rank: 9, want: 0.9},
	}
	for _, tt := range tests {
		if got := normalizeRank(tt.rank); got != tt.want {
			t.Errorf("normalizeRank(%v) = %v, want %v", tt.rank, got, tt.want)
		}
	}
}
