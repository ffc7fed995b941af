package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"studyhub/internal/contextutil"
	"studyhub/internal/parser"
	"studyhub/internal/service"
)

const (
	// uploadField is the multipart form field carrying the file.
	uploadField = "file"
	// multipartOverhead leaves room for multipart framing around the file itself.
	multipartOverhead = 1 << 20
	// multipartMemory is the part of a form kept in memory before spilling to disk.
	multipartMemory = 32 << 20
)

// UploadHandler handles HTTP requests for note uploads.
type UploadHandler struct {
	documentService service.DocumentService
	maxFileSize     int64
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(documentService service.DocumentService, maxFileSize int64) *UploadHandler {
	return &UploadHandler{
		documentService: documentService,
		maxFileSize:     maxFileSize,
	}
}

// UploadResponse represents the HTTP response payload for an upload.
type UploadResponse struct {
	Success    bool            `json:"success"`
	DocumentID string          `json:"documentId"`
	Filename   string          `json:"filename"`
	Chunks     int             `json:"chunks"`
	Metadata   parser.Metadata `json:"metadata"`
}

// ServeHTTP handles multipart uploads of a single "file" field.
func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	limit := h.maxFileSize + multipartOverhead
	if r.ContentLength > limit {
		logger.WarnContext(ctx, "upload too large", "content_length", r.ContentLength, "limit", limit)
		writeError(w, http.StatusRequestEntityTooLarge, h.tooLargeMessage())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.WarnContext(ctx, "upload too large", "limit", tooLarge.Limit)
			writeError(w, http.StatusRequestEntityTooLarge, h.tooLargeMessage())
			return
		}
		logger.WarnContext(ctx, "invalid multipart body", "error", err)
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		logger.WarnContext(ctx, "missing upload file", "error", err)
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		logger.ErrorContext(ctx, "failed to read upload", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to read file")
		return
	}

	result, err := h.documentService.Upload(ctx, service.UploadRequest{
		UserID:   user,
		Filename: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Data:     data,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to process document")
		return
	}

	writeJSON(w, ctx, http.StatusOK, UploadResponse{
		Success:    true,
		DocumentID: result.DocumentID,
		Filename:   result.Filename,
		Chunks:     result.Chunks,
		Metadata:   result.Metadata,
	})
}

func (h *UploadHandler) tooLargeMessage() string {
	return fmt.Sprintf("File size exceeds %s limit", service.FormatSize(h.maxFileSize))
}

// DocumentsHandler lists and deletes uploaded notes.
type DocumentsHandler struct {
	documentService service.DocumentService
}

// NewDocumentsHandler creates a new DocumentsHandler.
func NewDocumentsHandler(documentService service.DocumentService) *DocumentsHandler {
	return &DocumentsHandler{documentService: documentService}
}

// DocumentResponse is one entry of a document listing.
type DocumentResponse struct {
	DocumentID string    `json:"documentId"`
	Filename   string    `json:"filename"`
	FileType   string    `json:"fileType"`
	UploadedAt time.Time `json:"uploadedAt"`
	Chunks     int       `json:"chunks"`
}

// DocumentsResponse represents the HTTP response payload for a document listing.
type DocumentsResponse struct {
	Documents []DocumentResponse `json:"documents"`
}

// DeleteResponse represents the HTTP response payload for a deletion.
type DeleteResponse struct {
	Success bool `json:"success"`
	Deleted int  `json:"deleted"`
}

// ServeHTTP handles GET (list) and DELETE (?documentId=) requests.
func (h *DocumentsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	user, ok := userID(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		docs, err := h.documentService.List(ctx, user)
		if err != nil {
			handleServiceError(w, ctx, err, "Failed to fetch documents")
			return
		}
		resp := DocumentsResponse{Documents: make([]DocumentResponse, len(docs))}
		for i, d := range docs {
			resp.Documents[i] = DocumentResponse{
				DocumentID: d.DocumentID,
				Filename:   d.Filename,
				FileType:   d.FileType,
				UploadedAt: d.UploadedAt,
				Chunks:     d.Chunks,
			}
		}
		writeJSON(w, ctx, http.StatusOK, resp)

	case http.MethodDelete:
		deleted, err := h.documentService.Delete(ctx, user, r.URL.Query().Get("documentId"))
		if err != nil {
			handleServiceError(w, ctx, err, "Failed to delete document")
			return
		}
		writeJSON(w, ctx, http.StatusOK, DeleteResponse{Success: true, Deleted: deleted})

	default:
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}
