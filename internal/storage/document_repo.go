package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_store.go -package=mocks studyhub/internal/storage DocumentStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// DocumentStore defines the interface for document metadata operations.
// Every query is scoped to the owning user.
type DocumentStore interface {
	// Insert stores a new document. ID and UploadedAt are filled in when empty.
	Insert(ctx context.Context, doc *DocumentRecord) error
	// CountByUser returns how many documents a user owns.
	CountByUser(ctx context.Context, userID string) (int, error)
	// ListByUser returns a user's documents, newest first.
	ListByUser(ctx context.Context, userID string) ([]*DocumentRecord, error)
	// GetByID gets one document. Returns ErrNotFound if missing or owned by someone else.
	GetByID(ctx context.Context, userID, id string) (*DocumentRecord, error)
	// Delete removes a document and, through the foreign key, its chunks.
	// It returns the number of document rows removed.
	Delete(ctx context.Context, userID, id string) (int64, error)
}

// DocumentRepo provides methods for document operations.
// It implements the DocumentStore interface.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// Insert stores a new document.
func (r *DocumentRepo) Insert(ctx context.Context, doc *DocumentRecord) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (id, user_id, filename, file_type, file_size, page_count, word_count, chunks_count, uploaded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.UserID, doc.Filename, doc.FileType, doc.FileSize, doc.PageCount, doc.WordCount, doc.ChunksCount, doc.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// CountByUser returns how many documents a user owns.
func (r *DocumentRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents WHERE user_id = ?", userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// ListByUser returns a user's documents, newest first.
// Returns an empty slice if the user has none.
func (r *DocumentRepo) ListByUser(ctx context.Context, userID string) ([]*DocumentRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, filename, file_type, file_size, page_count, word_count, chunks_count, uploaded_at
		 FROM documents WHERE user_id = ? ORDER BY uploaded_at DESC, rowid DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	docs := []*DocumentRecord{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return docs, nil
}

// GetByID gets one document owned by userID.
func (r *DocumentRepo) GetByID(ctx context.Context, userID, id string) (*DocumentRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, filename, file_type, file_size, page_count, word_count, chunks_count, uploaded_at
		 FROM documents WHERE user_id = ? AND id = ?`,
		userID, id,
	)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Delete removes a document owned by userID.
func (r *DocumentRepo) Delete(ctx context.Context, userID, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE user_id = ? AND id = ?", userID, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read deleted rows: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*DocumentRecord, error) {
	var doc DocumentRecord
	err := row.Scan(&doc.ID, &doc.UserID, &doc.Filename, &doc.FileType, &doc.FileSize,
		&doc.PageCount, &doc.WordCount, &doc.ChunksCount, &doc.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}
	return &doc, nil
}
