package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"studyhub/internal/contextutil"
	"studyhub/internal/service"
	"studyhub/internal/storage"
)

// MessagesHandler handles chat history requests.
type MessagesHandler struct {
	chatService service.ChatService
}

// NewMessagesHandler creates a new MessagesHandler.
func NewMessagesHandler(chatService service.ChatService) *MessagesHandler {
	return &MessagesHandler{chatService: chatService}
}

// SaveMessageRequest represents the HTTP request payload for storing a message.
type SaveMessageRequest struct {
	MessageText string           `json:"messageText"`
	Sender      string           `json:"sender"`
	DocumentID  string           `json:"documentId,omitempty"`
	Sources     []storage.Source `json:"sources,omitempty"`
}

// MessageResponse is one stored chat message.
type MessageResponse struct {
	ID          string           `json:"id"`
	DocumentID  *string          `json:"document_id"`
	MessageText string           `json:"message_text"`
	Sender      string           `json:"sender"`
	Sources     []storage.Source `json:"sources"`
	CreatedAt   time.Time        `json:"created_at"`
}

// MessagesResponse represents the HTTP response payload for a conversation.
type MessagesResponse struct {
	Messages []MessageResponse `json:"messages"`
}

// ServeHTTP handles GET (list), POST (save) and DELETE (clear).
// GET and DELETE take an optional ?documentId= selecting the conversation.
func (h *MessagesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	user, ok := userID(w, r)
	if !ok {
		return
	}
	documentID := r.URL.Query().Get("documentId")

	switch r.Method {
	case http.MethodGet:
		msgs, err := h.chatService.ListMessages(ctx, user, documentID)
		if err != nil {
			handleServiceError(w, ctx, err, "Failed to fetch messages")
			return
		}
		resp := MessagesResponse{Messages: make([]MessageResponse, len(msgs))}
		for i, m := range msgs {
			resp.Messages[i] = toMessageResponse(m)
		}
		writeJSON(w, ctx, http.StatusOK, resp)

	case http.MethodPost:
		var req SaveMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.WarnContext(ctx, "invalid request body", "error", err)
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		msg, err := h.chatService.SaveMessage(ctx, service.SaveMessageRequest{
			UserID:      user,
			MessageText: req.MessageText,
			Sender:      req.Sender,
			DocumentID:  req.DocumentID,
			Sources:     req.Sources,
		})
		if err != nil {
			handleServiceError(w, ctx, err, "Failed to save message")
			return
		}
		writeJSON(w, ctx, http.StatusOK, struct {
			Message MessageResponse `json:"message"`
		}{Message: toMessageResponse(msg)})

	case http.MethodDelete:
		if err := h.chatService.ClearMessages(ctx, user, documentID); err != nil {
			handleServiceError(w, ctx, err, "Failed to clear messages")
			return
		}
		writeJSON(w, ctx, http.StatusOK, struct {
			Success bool `json:"success"`
		}{Success: true})

	default:
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func toMessageResponse(m service.Message) MessageResponse {
	sources := m.Sources
	if sources == nil {
		sources = []storage.Source{}
	}
	return MessageResponse{
		ID:          m.ID,
		DocumentID:  m.DocumentID,
		MessageText: m.MessageText,
		Sender:      m.Sender,
		Sources:     sources,
		CreatedAt:   m.CreatedAt,
	}
}
