package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chunk_store.go -package=mocks studyhub/internal/storage ChunkStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// insertBatchSize bounds the rows written by one INSERT statement.
const insertBatchSize = 100

// ErrFullTextUnavailable is returned by SearchText when the database has no
// full-text index.
var ErrFullTextUnavailable = errors.New("full-text search unavailable")

// ChunkStore defines the interface for chunk storage operations.
type ChunkStore interface {
	// InsertBatch inserts chunks in one transaction, batchSize rows per statement.
	// Missing chunk IDs are generated.
	InsertBatch(ctx context.Context, chunks []*ChunkRecord) error
	// ListByDocument returns up to limit chunks of one document ordered by chunk_index.
	// A limit <= 0 returns every chunk.
	ListByDocument(ctx context.Context, userID, documentID string, limit int) ([]*ChunkRecord, error)
	// ListByUser returns up to limit chunks owned by userID, optionally restricted
	// to one document when documentID is non-empty.
	ListByUser(ctx context.Context, userID, documentID string, limit int) ([]*ChunkRecord, error)
	// SearchText ranks chunks of userID matching any of terms with bm25 and
	// returns up to limit of them, most relevant first.
	SearchText(ctx context.Context, userID string, terms []string, documentID string, limit int) ([]*ChunkMatch, error)
	// CountByDocument returns the number of chunks stored for a document.
	CountByDocument(ctx context.Context, userID, documentID string) (int, error)
	// DeleteByDocument deletes all chunks for a document and returns how many were removed.
	DeleteByDocument(ctx context.Context, userID, documentID string) (int64, error)
}

// ChunkRepo provides methods for chunk operations.
// It implements the ChunkStore interface.
type ChunkRepo struct {
	db *sql.DB
}

// NewChunkRepo creates a new ChunkRepo.
func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

const chunkColumns = "id, user_id, document_id, filename, file_type, chunk_index, text, start_index, end_index"

// InsertBatch inserts chunks in batches inside a single transaction.
func (r *ChunkRepo) InsertBatch(ctx context.Context, chunks []*ChunkRecord) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for start := 0; start < len(chunks); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		placeholders := make([]string, len(batch))
		args := make([]any, 0, len(batch)*9)
		for i, c := range batch {
			if c.ID == "" {
				c.ID = uuid.New().String()
			}
			placeholders[i] = "(?, ?, ?, ?, ?, ?, ?, ?, ?)"
			args = append(args, c.ID, c.UserID, c.DocumentID, c.Filename, c.FileType, c.ChunkIndex, c.Text, c.StartIndex, c.EndIndex)
		}

		query := "INSERT INTO document_chunks (" + chunkColumns + ") VALUES " + strings.Join(placeholders, ", ")
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert chunk batch at %d: %w", start, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chunks: %w", err)
	}
	return nil
}

// ListByDocument returns chunks of one document ordered by chunk_index.
func (r *ChunkRepo) ListByDocument(ctx context.Context, userID, documentID string, limit int) ([]*ChunkRecord, error) {
	query := "SELECT " + chunkColumns + " FROM document_chunks WHERE user_id = ? AND document_id = ? ORDER BY chunk_index"
	args := []any{userID, documentID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return r.query(ctx, query, args...)
}

// ListByUser returns chunks owned by userID, optionally for one document.
func (r *ChunkRepo) ListByUser(ctx context.Context, userID, documentID string, limit int) ([]*ChunkRecord, error) {
	query := "SELECT " + chunkColumns + " FROM document_chunks WHERE user_id = ?"
	args := []any{userID}
	if documentID != "" {
		query += " AND document_id = ?"
		args = append(args, documentID)
	}
	query += " ORDER BY rowid"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return r.query(ctx, query, args...)
}

// SearchText runs an FTS5 MATCH over chunk text. Terms are quoted so user
// input cannot inject query syntax.
func (r *ChunkRepo) SearchText(ctx context.Context, userID string, terms []string, documentID string, limit int) ([]*ChunkMatch, error) {
	match := matchExpression(terms)
	if match == "" {
		return []*ChunkMatch{}, nil
	}

	query := `SELECT c.id, c.user_id, c.document_id, c.filename, c.file_type, c.chunk_index,
		c.text, c.start_index, c.end_index, bm25(document_chunks_fts) AS score
		FROM document_chunks_fts
		JOIN document_chunks c ON c.rowid = document_chunks_fts.rowid
		WHERE document_chunks_fts MATCH ? AND c.user_id = ?`
	args := []any{match, userID}
	if documentID != "" {
		query += " AND c.document_id = ?"
		args = append(args, documentID)
	}
	query += " ORDER BY score"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		if strings.Contains(err.Error(), "no such table: document_chunks_fts") {
			return nil, ErrFullTextUnavailable
		}
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	matches := []*ChunkMatch{}
	for rows.Next() {
		var c ChunkRecord
		var score float64
		if err := rows.Scan(&c.ID, &c.UserID, &c.DocumentID, &c.Filename, &c.FileType,
			&c.ChunkIndex, &c.Text, &c.StartIndex, &c.EndIndex, &score); err != nil {
			return nil, fmt.Errorf("failed to scan chunk match: %w", err)
		}
		matches = append(matches, &ChunkMatch{Chunk: &c, Rank: -score})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return matches, nil
}

// matchExpression ORs the terms as FTS5 string literals.
func matchExpression(terms []string) string {
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		quoted = append(quoted, `"`+strings.ReplaceAll(t, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " OR ")
}

// CountByDocument returns the number of chunks stored for a document.
func (r *ChunkRepo) CountByDocument(ctx context.Context, userID, documentID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM document_chunks WHERE user_id = ? AND document_id = ?",
		userID, documentID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}

// DeleteByDocument deletes all chunks for a document.
func (r *ChunkRepo) DeleteByDocument(ctx context.Context, userID, documentID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM document_chunks WHERE user_id = ? AND document_id = ?",
		userID, documentID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete chunks by document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read deleted rows: %w", err)
	}
	return n, nil
}

func (r *ChunkRepo) query(ctx context.Context, query string, args ...any) ([]*ChunkRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	chunks := []*ChunkRecord{}
	for rows.Next() {
		var c ChunkRecord
		if err := rows.Scan(&c.ID, &c.UserID, &c.DocumentID, &c.Filename, &c.FileType,
			&c.ChunkIndex, &c.Text, &c.StartIndex, &c.EndIndex); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunks = append(chunks, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return chunks, nil
}
