package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chat_service.go -package=mocks -mock_names=ChatService=MockChatService studyhub/internal/service ChatService

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"studyhub/internal/contextutil"
	"studyhub/internal/llm"
	"studyhub/internal/rag"
	"studyhub/internal/storage"
)

const (
	// NoResultsAnswer is returned when no chunk matches the question.
	NoResultsAnswer = "I couldn't find relevant information in your uploaded notes. Please try rephrasing your question or upload more documents."
	// EmptyAnswer replaces an empty model reply.
	EmptyAnswer = "Unable to generate answer."

	chatTemperature = 0.7
	chatMaxTokens   = 1000
)

const notesSystemPrompt = `You are a helpful assistant that answers questions based on university notes provided by the user. 
Use only the information from the provided context. If the answer is not in the context, say so.
Be concise and clear. Format your answers with proper structure when needed.`

// AskRequest is a question about the user's notes.
type AskRequest struct {
	UserID string `validate:"required"`
	Query  string `validate:"required"`
	// DocumentID restricts the search to one document when non-empty.
	DocumentID string
}

// AskResponse is a grounded answer.
type AskResponse struct {
	Answer         string
	Sources        []storage.Source
	RelevantChunks int
}

// SaveMessageRequest is one chat message to persist.
type SaveMessageRequest struct {
	UserID      string `validate:"required"`
	MessageText string `validate:"required"`
	Sender      string `validate:"required,oneof=user assistant"`
	DocumentID  string
	Sources     []storage.Source
}

// Message is a persisted chat message.
type Message struct {
	ID          string
	DocumentID  *string
	MessageText string
	Sender      string
	Sources     []storage.Source
	CreatedAt   time.Time
}

// ChatService answers questions about uploaded notes and keeps chat history.
type ChatService interface {
	// Ask answers a question from the user's notes.
	Ask(ctx context.Context, req AskRequest) (AskResponse, error)
	// StreamAsk answers like Ask but streams the answer via callback.
	// The returned response carries the full answer and its sources.
	StreamAsk(ctx context.Context, req AskRequest, callback func(chunk string) error) (AskResponse, error)
	// SaveMessage stores a chat message.
	SaveMessage(ctx context.Context, req SaveMessageRequest) (Message, error)
	// ListMessages returns a conversation oldest first. An empty documentID
	// selects the general conversation.
	ListMessages(ctx context.Context, userID, documentID string) ([]Message, error)
	// ClearMessages deletes a conversation.
	ClearMessages(ctx context.Context, userID, documentID string) error
}

// chatService implements ChatService.
type chatService struct {
	searcher  ChunkSearcher
	llmClient LLMClient
	messages  storage.MessageStore
}

// NewChatService creates a new ChatService.
func NewChatService(searcher ChunkSearcher, llmClient LLMClient, messages storage.MessageStore) ChatService {
	return &chatService{
		searcher:  searcher,
		llmClient: llmClient,
		messages:  messages,
	}
}

// Ask answers a question from the user's notes.
func (s *chatService) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	chunks, err := s.retrieve(ctx, req)
	if err != nil {
		return AskResponse{}, err
	}
	if len(chunks) == 0 {
		return AskResponse{Answer: NoResultsAnswer, Sources: []storage.Source{}}, nil
	}

	answer, err := s.llmClient.ChatWithMessages(ctx, buildAskMessages(chunks, req.Query), askParams())
	if err != nil && !errors.Is(err, llm.ErrNoChoices) {
		logger.ErrorContext(ctx, "failed to get LLM response", "error", err)
		return AskResponse{}, externalError(err, "failed to get LLM response")
	}
	if answer == "" {
		answer = EmptyAnswer
	}

	logger.InfoContext(ctx, "question answered", "chunks", len(chunks), "answer_length", len(answer))
	return AskResponse{
		Answer:         answer,
		Sources:        rag.UniqueSources(chunks),
		RelevantChunks: len(chunks),
	}, nil
}

// StreamAsk answers a question and streams the reply.
func (s *chatService) StreamAsk(ctx context.Context, req AskRequest, callback func(chunk string) error) (AskResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	chunks, err := s.retrieve(ctx, req)
	if err != nil {
		return AskResponse{}, err
	}
	if len(chunks) == 0 {
		if err := callback(NoResultsAnswer); err != nil {
			return AskResponse{}, WrapError(err, "failed to stream answer")
		}
		return AskResponse{Answer: NoResultsAnswer, Sources: []storage.Source{}}, nil
	}

	var answer strings.Builder
	err = s.llmClient.StreamChatWithMessages(ctx, buildAskMessages(chunks, req.Query), askParams(), func(chunk string) error {
		answer.WriteString(chunk)
		return callback(chunk)
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to stream LLM response", "error", err)
		return AskResponse{}, externalError(err, "failed to stream LLM response")
	}

	if answer.Len() == 0 {
		if err := callback(EmptyAnswer); err != nil {
			return AskResponse{}, WrapError(err, "failed to stream answer")
		}
		answer.WriteString(EmptyAnswer)
	}

	logger.InfoContext(ctx, "streamed question answered", "chunks", len(chunks), "answer_length", answer.Len())
	return AskResponse{
		Answer:         answer.String(),
		Sources:        rag.UniqueSources(chunks),
		RelevantChunks: len(chunks),
	}, nil
}

func (s *chatService) retrieve(ctx context.Context, req AskRequest) ([]rag.ScoredChunk, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := validateRequest(req); err != nil {
		logger.WarnContext(ctx, "invalid ask request", "error", err)
		return nil, err
	}

	chunks, err := s.searcher.Search(ctx, req.UserID, req.Query, req.DocumentID, rag.DefaultLimit)
	if err != nil {
		logger.ErrorContext(ctx, "failed to search chunks", "error", err)
		return nil, WrapError(err, "failed to search notes")
	}
	return chunks, nil
}

func buildAskMessages(chunks []rag.ScoredChunk, query string) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: notesSystemPrompt},
		{
			Role:    llm.RoleUser,
			Content: fmt.Sprintf("Context from notes:\n\n%s\n\nQuestion: %s\n\nAnswer based on the context above:", rag.BuildContext(chunks), query),
		},
	}
}

func askParams() llm.ChatParams {
	return llm.ChatParams{Temperature: chatTemperature, MaxTokens: chatMaxTokens}
}

// SaveMessage stores a chat message. A blank document ID is stored as NULL.
func (s *chatService) SaveMessage(ctx context.Context, req SaveMessageRequest) (Message, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := validateRequest(req); err != nil {
		return Message{}, err
	}

	record := &storage.MessageRecord{
		UserID:      req.UserID,
		DocumentID:  normalizeDocumentID(req.DocumentID),
		MessageText: req.MessageText,
		Sender:      req.Sender,
		Sources:     req.Sources,
	}
	if err := s.messages.Insert(ctx, record); err != nil {
		logger.ErrorContext(ctx, "failed to save message", "error", err)
		return Message{}, WrapError(err, "failed to save message")
	}

	logger.DebugContext(ctx, "message saved", "sender", record.Sender, "message_length", len(record.MessageText))
	return toMessage(record), nil
}

// ListMessages returns a conversation oldest first.
func (s *chatService) ListMessages(ctx context.Context, userID, documentID string) ([]Message, error) {
	records, err := s.messages.List(ctx, userID, normalizeDocumentID(documentID))
	if err != nil {
		return nil, WrapError(err, "failed to fetch messages")
	}

	messages := make([]Message, len(records))
	for i, r := range records {
		messages[i] = toMessage(r)
	}
	return messages, nil
}

// ClearMessages deletes a conversation.
func (s *chatService) ClearMessages(ctx context.Context, userID, documentID string) error {
	n, err := s.messages.Delete(ctx, userID, normalizeDocumentID(documentID))
	if err != nil {
		return WrapError(err, "failed to delete messages")
	}
	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "messages cleared", "count", n)
	return nil
}

func normalizeDocumentID(documentID string) *string {
	if strings.TrimSpace(documentID) == "" {
		return nil
	}
	return &documentID
}

func toMessage(r *storage.MessageRecord) Message {
	return Message{
		ID:          r.ID,
		DocumentID:  r.DocumentID,
		MessageText: r.MessageText,
		Sender:      r.Sender,
		Sources:     r.Sources,
		CreatedAt:   r.CreatedAt,
	}
}
