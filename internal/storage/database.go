package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// New opens a SQLite database connection at the given path.
// Foreign keys are enabled through the DSN so every pooled connection enforces them.
func New(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate runs database migrations to create the required tables.
// It is idempotent and can be run multiple times safely.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			filename TEXT NOT NULL,
			file_type TEXT NOT NULL,
			file_size INTEGER NOT NULL DEFAULT 0,
			page_count INTEGER NOT NULL DEFAULT 0,
			word_count INTEGER NOT NULL DEFAULT 0,
			chunks_count INTEGER NOT NULL DEFAULT 0,
			uploaded_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_user ON documents (user_id, uploaded_at);`,
		`CREATE TABLE IF NOT EXISTS document_chunks (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			document_id TEXT NOT NULL,
			filename TEXT NOT NULL,
			file_type TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			text TEXT NOT NULL,
			start_index INTEGER NOT NULL,
			end_index INTEGER NOT NULL,
			FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE,
			UNIQUE (document_id, chunk_index)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_document_chunks_user ON document_chunks (user_id, document_id, chunk_index);`,
		`CREATE TABLE IF NOT EXISTS chat_messages (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			document_id TEXT,
			message_text TEXT NOT NULL,
			sender TEXT NOT NULL CHECK (sender IN ('user', 'assistant')),
			sources TEXT,
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chat_messages_user ON chat_messages (user_id, document_id, created_at);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return migrateFullText(db)
}

// fullTextSchema indexes chunk text in an external-content FTS5 table kept
// in sync by triggers, so chunk writes need no extra statements.
var fullTextSchema = []string{
	`CREATE VIRTUAL TABLE IF NOT EXISTS document_chunks_fts USING fts5(
		text,
		content='document_chunks',
		content_rowid='rowid'
	);`,
	`CREATE TRIGGER IF NOT EXISTS document_chunks_fts_insert AFTER INSERT ON document_chunks BEGIN
		INSERT INTO document_chunks_fts (rowid, text) VALUES (new.rowid, new.text);
	END;`,
	`CREATE TRIGGER IF NOT EXISTS document_chunks_fts_delete AFTER DELETE ON document_chunks BEGIN
		INSERT INTO document_chunks_fts (document_chunks_fts, rowid, text) VALUES ('delete', old.rowid, old.text);
	END;`,
	`CREATE TRIGGER IF NOT EXISTS document_chunks_fts_update AFTER UPDATE OF text ON document_chunks BEGIN
		INSERT INTO document_chunks_fts (document_chunks_fts, rowid, text) VALUES ('delete', old.rowid, old.text);
		INSERT INTO document_chunks_fts (rowid, text) VALUES (new.rowid, new.text);
	END;`,
}

// migrateFullText creates the chunk search index. A driver built without
// FTS5 (the sqlite_fts5 build tag) leaves search on the keyword scan.
func migrateFullText(db *sql.DB) error {
	var existing int
	if err := db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'document_chunks_fts'",
	).Scan(&existing); err != nil {
		return fmt.Errorf("failed to inspect schema: %w", err)
	}

	for _, stmt := range fullTextSchema {
		if _, err := db.Exec(stmt); err != nil {
			if isMissingFTS5(err) {
				slog.Warn("full-text search unavailable, build with -tags sqlite_fts5 to enable it")
				return nil
			}
			return fmt.Errorf("failed to create full-text index: %w", err)
		}
	}

	// Rows written before the index existed.
	if existing == 0 {
		if _, err := db.Exec("INSERT INTO document_chunks_fts (document_chunks_fts) VALUES ('rebuild')"); err != nil {
			return fmt.Errorf("failed to build full-text index: %w", err)
		}
	}
	return nil
}

func isMissingFTS5(err error) bool {
	return strings.Contains(err.Error(), "no such module: fts5")
}
