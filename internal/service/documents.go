package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_service.go -package=mocks studyhub/internal/service DocumentService

import (
	"context"
	"errors"
	"fmt"
	"time"

	"studyhub/internal/chunker"
	"studyhub/internal/contextutil"
	"studyhub/internal/parser"
	"studyhub/internal/storage"
)

const (
	// DefaultDocumentLimit is the number of documents a free account may keep.
	DefaultDocumentLimit = 10
	// DefaultMaxFileSize is the largest accepted upload in bytes.
	DefaultMaxFileSize = 10 << 20
)

// DocumentConfig controls upload limits and chunking.
type DocumentConfig struct {
	ChunkOptions  chunker.Options
	MaxFileSize   int64
	DocumentLimit int
}

// DefaultDocumentConfig returns the limits used for free accounts.
func DefaultDocumentConfig() DocumentConfig {
	return DocumentConfig{
		ChunkOptions:  chunker.DefaultOptions(),
		MaxFileSize:   DefaultMaxFileSize,
		DocumentLimit: DefaultDocumentLimit,
	}
}

// UploadRequest is one uploaded file.
type UploadRequest struct {
	UserID   string `validate:"required"`
	Filename string `validate:"required"`
	MimeType string
	Data     []byte
}

// UploadResult describes a stored document.
type UploadResult struct {
	DocumentID string
	Filename   string
	Chunks     int
	Metadata   parser.Metadata
}

// DocumentSummary is the listing view of a stored document.
type DocumentSummary struct {
	DocumentID string
	Filename   string
	FileType   string
	UploadedAt time.Time
	Chunks     int
}

// DocumentService manages uploaded notes.
type DocumentService interface {
	// Upload parses, chunks and stores a file for the user.
	Upload(ctx context.Context, req UploadRequest) (UploadResult, error)
	// List returns the user's documents, newest first.
	List(ctx context.Context, userID string) ([]DocumentSummary, error)
	// Delete removes a document with its chunks and returns the number of chunks removed.
	Delete(ctx context.Context, userID, documentID string) (int, error)
}

// documentService implements DocumentService.
type documentService struct {
	documents storage.DocumentStore
	chunks    storage.ChunkStore
	cfg       DocumentConfig
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(documents storage.DocumentStore, chunks storage.ChunkStore, cfg DocumentConfig) DocumentService {
	return &documentService{
		documents: documents,
		chunks:    chunks,
		cfg:       cfg,
	}
}

// Upload runs the ingest pipeline: quota, validation, parse, chunk, store.
func (s *documentService) Upload(ctx context.Context, req UploadRequest) (UploadResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := validateRequest(req); err != nil {
		return UploadResult{}, err
	}

	// A failed count does not block the upload.
	count, err := s.documents.CountByUser(ctx, req.UserID)
	if err != nil {
		logger.WarnContext(ctx, "failed to check document count", "error", err)
	} else if count >= s.cfg.DocumentLimit {
		logger.InfoContext(ctx, "document quota reached", "count", count, "limit", s.cfg.DocumentLimit)
		return UploadResult{}, &QuotaError{Current: count, Limit: s.cfg.DocumentLimit}
	}

	if len(req.Data) == 0 {
		return UploadResult{}, &ValidationError{Field: "file", Message: "no file provided"}
	}
	if !parser.IsAllowed(req.Filename, req.MimeType) {
		return UploadResult{}, &ValidationError{Field: "file", Message: "only PDF, DOCX, TXT and MD files are allowed"}
	}
	if int64(len(req.Data)) > s.cfg.MaxFileSize {
		return UploadResult{}, &ValidationError{
			Field:   "file",
			Message: fmt.Sprintf("file size exceeds %s limit", FormatSize(s.cfg.MaxFileSize)),
		}
	}

	parsed, err := parser.Parse(req.Data, req.Filename, req.MimeType)
	if err != nil {
		var unsupported *parser.UnsupportedTypeError
		if errors.As(err, &unsupported) {
			return UploadResult{}, &ValidationError{Field: "file", Message: unsupported.Error()}
		}
		logger.WarnContext(ctx, "failed to parse document", "filename", req.Filename, "error", err)
		return UploadResult{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	chunks, err := chunker.ChunkText(parsed.Text, s.cfg.ChunkOptions)
	if err != nil {
		return UploadResult{}, WrapError(err, "failed to chunk document")
	}

	doc := &storage.DocumentRecord{
		UserID:      req.UserID,
		Filename:    parsed.Metadata.Filename,
		FileType:    string(parsed.Metadata.FileType),
		FileSize:    int64(len(req.Data)),
		PageCount:   parsed.Metadata.PageCount,
		WordCount:   parsed.Metadata.WordCount,
		ChunksCount: len(chunks),
	}
	if err := s.documents.Insert(ctx, doc); err != nil {
		logger.ErrorContext(ctx, "failed to store document metadata", "error", err)
		return UploadResult{}, WrapError(err, "failed to store document metadata")
	}

	records := make([]*storage.ChunkRecord, len(chunks))
	for i, c := range chunks {
		records[i] = &storage.ChunkRecord{
			UserID:     req.UserID,
			DocumentID: doc.ID,
			Filename:   doc.Filename,
			FileType:   doc.FileType,
			ChunkIndex: c.ChunkIndex,
			Text:       c.Text,
			StartIndex: c.StartIndex,
			EndIndex:   c.EndIndex,
		}
	}
	if err := s.chunks.InsertBatch(ctx, records); err != nil {
		logger.ErrorContext(ctx, "failed to store document chunks", "document_id", doc.ID, "error", err)
		if _, delErr := s.documents.Delete(ctx, req.UserID, doc.ID); delErr != nil {
			logger.ErrorContext(ctx, "failed to remove document after chunk failure", "document_id", doc.ID, "error", delErr)
		}
		return UploadResult{}, WrapError(err, "failed to store document chunks")
	}

	stats := chunker.Stats(chunks)
	logger.InfoContext(ctx, "document uploaded",
		"document_id", doc.ID,
		"file_type", doc.FileType,
		"bytes", doc.FileSize,
		"words", doc.WordCount,
		"chunks", stats.Count,
		"chunk_runes_mean", stats.MeanRunes,
		"chunk_runes_p95", stats.P95Runes,
		"chunk_runes_max", stats.MaxRunes,
	)

	return UploadResult{
		DocumentID: doc.ID,
		Filename:   doc.Filename,
		Chunks:     len(chunks),
		Metadata:   parsed.Metadata,
	}, nil
}

// List returns the user's documents, newest first.
func (s *documentService) List(ctx context.Context, userID string) ([]DocumentSummary, error) {
	if userID == "" {
		return nil, &ValidationError{Field: "userID", Message: "is required"}
	}

	docs, err := s.documents.ListByUser(ctx, userID)
	if err != nil {
		return nil, WrapError(err, "failed to fetch documents")
	}

	summaries := make([]DocumentSummary, len(docs))
	for i, d := range docs {
		summaries[i] = DocumentSummary{
			DocumentID: d.ID,
			Filename:   d.Filename,
			FileType:   d.FileType,
			UploadedAt: d.UploadedAt,
			Chunks:     d.ChunksCount,
		}
	}
	return summaries, nil
}

// Delete removes a document and its chunks. Deleting an unknown document is
// not an error; it reports zero chunks removed.
func (s *documentService) Delete(ctx context.Context, userID, documentID string) (int, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if documentID == "" {
		return 0, &ValidationError{Field: "documentId", Message: "is required"}
	}

	doc, err := s.documents.GetByID(ctx, userID, documentID)
	if errors.Is(err, storage.ErrNotFound) {
		logger.InfoContext(ctx, "document already absent", "document_id", documentID)
		return 0, nil
	}
	if err != nil {
		return 0, WrapError(err, "failed to look up document")
	}

	count, err := s.chunks.CountByDocument(ctx, userID, documentID)
	if err != nil {
		return 0, WrapError(err, "failed to count document chunks")
	}

	if _, err := s.chunks.DeleteByDocument(ctx, userID, documentID); err != nil {
		return 0, WrapError(err, "failed to delete document chunks")
	}
	if _, err := s.documents.Delete(ctx, userID, documentID); err != nil {
		return 0, WrapError(err, "failed to delete document")
	}

	logger.InfoContext(ctx, "document deleted", "document_id", documentID, "filename", doc.Filename, "chunks", count)
	return count, nil
}

// FormatSize renders a byte count in the largest unit that divides it evenly.
func FormatSize(n int64) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return fmt.Sprintf("%dMB", n>>20)
	case n >= 1<<10 && n%(1<<10) == 0:
		return fmt.Sprintf("%dKB", n>>10)
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}
