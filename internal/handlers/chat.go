package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"studyhub/internal/contextutil"
	"studyhub/internal/service"
	"studyhub/internal/storage"
)

// ChatHandler handles HTTP requests for questions about notes.
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// ChatRequest represents the HTTP request payload for chat.
type ChatRequest struct {
	Query      string `json:"query"`
	DocumentID string `json:"documentId,omitempty"`
}

// ChatResponse represents the HTTP response payload for chat.
type ChatResponse struct {
	Answer         string           `json:"answer"`
	Sources        []storage.Source `json:"sources"`
	RelevantChunks int              `json:"relevantChunks"`
}

// streamSummary is the last event of a streamed answer before [DONE].
type streamSummary struct {
	Sources        []storage.Source `json:"sources"`
	RelevantChunks int              `json:"relevantChunks"`
}

// ServeHTTP handles HTTP requests for chat.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	user, ok := userID(w, r)
	if !ok {
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	svcReq := service.AskRequest{
		UserID:     user,
		Query:      req.Query,
		DocumentID: req.DocumentID,
	}

	if r.URL.Query().Get("stream") == "true" {
		h.handleStreamingChat(w, r, svcReq)
		return
	}

	svcResp, err := h.chatService.Ask(ctx, svcReq)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to process chat request")
		return
	}

	writeJSON(w, ctx, http.StatusOK, ChatResponse{
		Answer:         svcResp.Answer,
		Sources:        svcResp.Sources,
		RelevantChunks: svcResp.RelevantChunks,
	})
}

// handleStreamingChat streams the answer using Server-Sent Events.
func (h *ChatHandler) handleStreamingChat(w http.ResponseWriter, r *http.Request, req service.AskRequest) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.ErrorContext(ctx, "streaming not supported by response writer")
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	svcResp, err := h.chatService.StreamAsk(ctx, req, func(chunk string) error {
		if err := writeEvent(w, chunk); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		logger.ErrorContext(ctx, "error streaming chat", "error", err)
		payload, _ := json.Marshal(ErrorResponse{Error: err.Error()})
		_ = writeEvent(w, string(payload))
		flusher.Flush()
		return
	}

	summary, err := json.Marshal(streamSummary{Sources: svcResp.Sources, RelevantChunks: svcResp.RelevantChunks})
	if err == nil {
		_ = writeEvent(w, string(summary))
	}
	_ = writeEvent(w, "[DONE]")
	flusher.Flush()
}

// writeEvent writes one SSE event. Multi-line data is sent as consecutive
// data lines so clients rejoin it with newlines.
func writeEvent(w http.ResponseWriter, data string) error {
	for _, line := range strings.Split(data, "\n") {
		if _, err := fmt.Fprintf(w, "data: %s\n", line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(w, "\n")
	return err
}
