package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_message_store.go -package=mocks studyhub/internal/storage MessageStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageStore defines the interface for chat history operations.
// A nil documentID addresses the general chat that is not tied to a document.
type MessageStore interface {
	// Insert saves a message. ID and CreatedAt are filled in when empty.
	Insert(ctx context.Context, msg *MessageRecord) error
	// List returns a conversation oldest first.
	List(ctx context.Context, userID string, documentID *string) ([]*MessageRecord, error)
	// Delete clears a conversation and returns how many messages were removed.
	Delete(ctx context.Context, userID string, documentID *string) (int64, error)
}

// MessageRepo provides methods for chat message operations.
// It implements the MessageStore interface.
type MessageRepo struct {
	db *sql.DB
}

// NewMessageRepo creates a new MessageRepo.
func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Insert saves a message.
func (r *MessageRepo) Insert(ctx context.Context, msg *MessageRecord) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	var sources sql.NullString
	if msg.Sources != nil {
		raw, err := json.Marshal(msg.Sources)
		if err != nil {
			return fmt.Errorf("failed to encode sources: %w", err)
		}
		sources = sql.NullString{String: string(raw), Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO chat_messages (id, user_id, document_id, message_text, sender, sources, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.UserID, nullString(msg.DocumentID), msg.MessageText, msg.Sender, sources, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// List returns a conversation oldest first.
func (r *MessageRepo) List(ctx context.Context, userID string, documentID *string) ([]*MessageRecord, error) {
	query := "SELECT id, user_id, document_id, message_text, sender, sources, created_at FROM chat_messages WHERE user_id = ?"
	args := []any{userID}
	query, args = scopeDocument(query, args, documentID)
	query += " ORDER BY created_at ASC, rowid ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	messages := []*MessageRecord{}
	for rows.Next() {
		var (
			msg     MessageRecord
			docID   sql.NullString
			sources sql.NullString
		)
		if err := rows.Scan(&msg.ID, &msg.UserID, &docID, &msg.MessageText, &msg.Sender, &sources, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if docID.Valid {
			id := docID.String
			msg.DocumentID = &id
		}
		if sources.Valid {
			if err := json.Unmarshal([]byte(sources.String), &msg.Sources); err != nil {
				return nil, fmt.Errorf("failed to decode sources for message %s: %w", msg.ID, err)
			}
		}
		messages = append(messages, &msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return messages, nil
}

// Delete clears a conversation.
func (r *MessageRepo) Delete(ctx context.Context, userID string, documentID *string) (int64, error) {
	query, args := scopeDocument("DELETE FROM chat_messages WHERE user_id = ?", []any{userID}, documentID)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete messages: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read deleted rows: %w", err)
	}
	return n, nil
}

func scopeDocument(query string, args []any, documentID *string) (string, []any) {
	if documentID == nil {
		return query + " AND document_id IS NULL", args
	}
	return query + " AND document_id = ?", append(args, *documentID)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
