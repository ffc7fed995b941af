package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"studyhub/internal/contextutil"
	"studyhub/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// QuotaErrorResponse is returned when a user has reached the document limit.
type QuotaErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	QuotaExceeded bool   `json:"quotaExceeded"`
	CurrentCount  int    `json:"currentCount"`
	Limit         int    `json:"limit"`
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, ctx context.Context, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}

// handleServiceError maps service errors to appropriate HTTP status codes and responses.
func handleServiceError(w http.ResponseWriter, ctx context.Context, err error, defaultMsg string) {
	logger := contextutil.LoggerFromContext(ctx)

	var quotaErr *service.QuotaError
	if errors.As(err, &quotaErr) {
		logger.WarnContext(ctx, "quota exceeded", "current", quotaErr.Current, "limit", quotaErr.Limit)
		writeJSON(w, ctx, http.StatusForbidden, QuotaErrorResponse{
			Error:         "Quota limit exceeded",
			Message:       fmt.Sprintf("You have reached your free limit of %d document(s). Please upgrade to upload more documents.", quotaErr.Limit),
			QuotaExceeded: true,
			CurrentCount:  quotaErr.Current,
			Limit:         quotaErr.Limit,
		})
		return
	}

	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		logger.WarnContext(ctx, "validation error", "error", err)
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Validation error: %s: %s", validationErr.Field, validationErr.Message))
		return
	}

	if errors.Is(err, service.ErrInvalidInput) {
		logger.WarnContext(ctx, "invalid input", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	if errors.Is(err, service.ErrNotFound) {
		logger.WarnContext(ctx, "resource not found", "error", err)
		writeError(w, http.StatusNotFound, "Resource not found")
		return
	}

	logger.ErrorContext(ctx, "service error", "error", err)

	if errors.Is(err, service.ErrExternalService) {
		writeError(w, http.StatusBadGateway, "External service error")
		return
	}

	writeError(w, http.StatusInternalServerError, defaultMsg)
}

// userID returns the caller identity placed in the context by the identity middleware.
func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := contextutil.UserIDFromContext(r.Context())
	if id == "" {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return "", false
	}
	return id, true
}
