package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_llm_client.go -package=mocks studyhub/internal/service LLMClient
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chunk_searcher.go -package=mocks studyhub/internal/service ChunkSearcher

import (
	"context"

	"studyhub/internal/llm"
	"studyhub/internal/rag"
)

// LLMClient is an interface for interacting with an LLM API.
// This interface is defined from the service layer's perspective (consumer-first).
type LLMClient interface {
	// ChatWithMessages sends a conversation to the LLM and returns the reply.
	ChatWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams) (string, error)
	// StreamChatWithMessages sends a conversation and streams the reply via callback.
	StreamChatWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams, callback func(chunk string) error) error
}

// ChunkSearcher finds stored chunks relevant to a query.
type ChunkSearcher interface {
	Search(ctx context.Context, userID, query, documentID string, limit int) ([]rag.ScoredChunk, error)
}
