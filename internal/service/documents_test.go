package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"studyhub/internal/chunker"
	"studyhub/internal/service"
	"studyhub/internal/storage"
	"studyhub/internal/storage/mocks"

	"go.uber.org/mock/gomock"
)

func init() {
	// Set default logger to discard output for cleaner test output
	// This suppresses logs from slog.Default() used in the service layer
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// testContext returns a context for testing.
// The default logger is already set to discard in init().
func testContext() context.Context {
	return context.Background()
}

func newDocumentService(ctrl *gomock.Controller) (service.DocumentService, *mocks.MockDocumentStore, *mocks.MockChunkStore) {
	docs := mocks.NewMockDocumentStore(ctrl)
	chunks := mocks.NewMockChunkStore(ctrl)
	cfg := service.DefaultDocumentConfig()
	cfg.ChunkOptions = chunker.Options{ChunkSize: 40, Overlap: 10}
	return service.NewDocumentService(docs, chunks, cfg), docs, chunks
}

const lectureText = "Cells are the basic unit of life. Mitochondria produce energy. Ribosomes build proteins."

func TestDocumentService_Upload(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, docs, chunks := newDocumentService(ctrl)

	var stored *storage.DocumentRecord
	docs.EXPECT().CountByUser(gomock.Any(), "user-1").Return(3, nil)
	docs.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, doc *storage.DocumentRecord) error {
		doc.ID = "doc-1"
		stored = doc
		return nil
	})
	chunks.EXPECT().InsertBatch(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, records []*storage.ChunkRecord) error {
		if len(records) != 3 {
			t.Errorf("InsertBatch() got %d chunks, want 3", len(records))
		}
		for i, r := range records {
			if r.DocumentID != "doc-1" || r.UserID != "user-1" || r.ChunkIndex != i {
				t.Errorf("chunk %d = %+v, want document doc-1 of user-1 at index %d", i, r, i)
			}
			if r.Filename != "lecture.txt" || r.FileType != "txt" {
				t.Errorf("chunk %d file = %s/%s, want lecture.txt/txt", i, r.Filename, r.FileType)
			}
		}
		return nil
	})

	result, err := svc.Upload(testContext(), service.UploadRequest{
		UserID:   "user-1",
		Filename: "lecture.txt",
		MimeType: "text/plain",
		Data:     []byte(lectureText),
	})
	if err != nil {
		t.Fatalf("Upload() unexpected error: %v", err)
	}

	if result.DocumentID != "doc-1" || result.Filename != "lecture.txt" || result.Chunks != 3 {
		t.Errorf("Upload() = %+v", result)
	}
	if result.Metadata.WordCount != 13 {
		t.Errorf("Upload() word count = %d, want 13", result.Metadata.WordCount)
	}
	if stored.ChunksCount != 3 || stored.FileSize != int64(len(lectureText)) || stored.FileType != "txt" {
		t.Errorf("stored document = %+v", stored)
	}
}

func TestDocumentService_Upload_Errors(t *testing.T) {
	tests := []struct {
		name      string
		req       service.UploadRequest
		mockSetup func(docs *mocks.MockDocumentStore)
		checkErr  func(error) bool
	}{
		{
			name: "missing user",
			req:  service.UploadRequest{Filename: "a.txt", Data: []byte("x")},
			checkErr: func(err error) bool {
				var validationErr *service.ValidationError
				return errors.As(err, &validationErr) && validationErr.Field == "userID"
			},
		},
		{
			name: "quota exceeded",
			req:  service.UploadRequest{UserID: "user-1", Filename: "a.txt", Data: []byte("x")},
			mockSetup: func(docs *mocks.MockDocumentStore) {
				docs.EXPECT().CountByUser(gomock.Any(), "user-1").Return(10, nil)
			},
			checkErr: func(err error) bool {
				var quotaErr *service.QuotaError
				return errors.As(err, &quotaErr) && quotaErr.Current == 10 && quotaErr.Limit == 10
			},
		},
		{
			name: "empty file",
			req:  service.UploadRequest{UserID: "user-1", Filename: "a.txt"},
			mockSetup: func(docs *mocks.MockDocumentStore) {
				docs.EXPECT().CountByUser(gomock.Any(), "user-1").Return(0, nil)
			},
			checkErr: func(err error) bool {
				var validationErr *service.ValidationError
				return errors.As(err, &validationErr) && validationErr.Field == "file"
			},
		},
		{
			name: "disallowed type",
			req:  service.UploadRequest{UserID: "user-1", Filename: "photo.png", MimeType: "image/png", Data: []byte("x")},
			mockSetup: func(docs *mocks.MockDocumentStore) {
				docs.EXPECT().CountByUser(gomock.Any(), "user-1").Return(0, nil)
			},
			checkErr: func(err error) bool {
				return errors.Is(err, service.ErrInvalidInput)
			},
		},
		{
			name: "too large",
			req: service.UploadRequest{
				UserID:   "user-1",
				Filename: "big.txt",
				MimeType: "text/plain",
				Data:     []byte(strings.Repeat("a", service.DefaultMaxFileSize+1)),
			},
			mockSetup: func(docs *mocks.MockDocumentStore) {
				docs.EXPECT().CountByUser(gomock.Any(), "user-1").Return(0, nil)
			},
			checkErr: func(err error) bool {
				var validationErr *service.ValidationError
				return errors.As(err, &validationErr) && strings.Contains(validationErr.Message, "10MB")
			},
		},
		{
			name: "corrupt pdf",
			req:  service.UploadRequest{UserID: "user-1", Filename: "broken.pdf", MimeType: "application/pdf", Data: []byte("not a pdf")},
			mockSetup: func(docs *mocks.MockDocumentStore) {
				docs.EXPECT().CountByUser(gomock.Any(), "user-1").Return(0, nil)
			},
			checkErr: func(err error) bool {
				return errors.Is(err, service.ErrInvalidInput)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc, docs, _ := newDocumentService(ctrl)
			if tt.mockSetup != nil {
				tt.mockSetup(docs)
			}

			_, err := svc.Upload(testContext(), tt.req)
			if err == nil {
				t.Fatal("Upload() expected error, got nil")
			}
			if !tt.checkErr(err) {
				t.Errorf("Upload() error type mismatch: %v", err)
			}
		})
	}
}

func TestDocumentService_Upload_CountFailureDoesNotBlock(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, docs, chunks := newDocumentService(ctrl)

	docs.EXPECT().CountByUser(gomock.Any(), "user-1").Return(0, errors.New("database is locked"))
	docs.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
	chunks.EXPECT().InsertBatch(gomock.Any(), gomock.Any()).Return(nil)

	if _, err := svc.Upload(testContext(), service.UploadRequest{UserID: "user-1", Filename: "a.md", Data: []byte("# Title\n\nSome notes.")}); err != nil {
		t.Errorf("Upload() unexpected error: %v", err)
	}
}

func TestDocumentService_Upload_ChunkFailureRemovesDocument(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, docs, chunks := newDocumentService(ctrl)

	chunkErr := errors.New("disk full")
	gomock.InOrder(
		docs.EXPECT().CountByUser(gomock.Any(), "user-1").Return(0, nil),
		docs.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, doc *storage.DocumentRecord) error {
			doc.ID = "doc-9"
			return nil
		}),
		chunks.EXPECT().InsertBatch(gomock.Any(), gomock.Any()).Return(chunkErr),
		docs.EXPECT().Delete(gomock.Any(), "user-1", "doc-9").Return(int64(1), nil),
	)

	_, err := svc.Upload(testContext(), service.UploadRequest{UserID: "user-1", Filename: "a.txt", Data: []byte(lectureText)})
	if !errors.Is(err, chunkErr) {
		t.Errorf("Upload() error = %v, want wrapped chunk error", err)
	}
}

func TestDocumentService_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, docs, _ := newDocumentService(ctrl)

	uploaded := time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)
	docs.EXPECT().ListByUser(gomock.Any(), "user-1").Return([]*storage.DocumentRecord{
		{ID: "d2", Filename: "b.pdf", FileType: "pdf", ChunksCount: 7, UploadedAt: uploaded},
		{ID: "d1", Filename: "a.txt", FileType: "txt", ChunksCount: 0, UploadedAt: uploaded.Add(-time.Hour)},
	}, nil)

	got, err := svc.List(testContext(), "user-1")
	if err != nil {
		t.Fatalf("List() unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("List() returned %d documents, want 2", len(got))
	}
	want := service.DocumentSummary{DocumentID: "d2", Filename: "b.pdf", FileType: "pdf", UploadedAt: uploaded, Chunks: 7}
	if got[0] != want {
		t.Errorf("List()[0] = %+v, want %+v", got[0], want)
	}
}

func TestDocumentService_Delete(t *testing.T) {
	tests := []struct {
		name      string
		docID     string
		mockSetup func(docs *mocks.MockDocumentStore, chunks *mocks.MockChunkStore)
		want      int
		wantErr   bool
		checkErr  func(error) bool
	}{
		{
			name:  "deletes chunks then document",
			docID: "doc-1",
			mockSetup: func(docs *mocks.MockDocumentStore, chunks *mocks.MockChunkStore) {
				gomock.InOrder(
					docs.EXPECT().GetByID(gomock.Any(), "user-1", "doc-1").Return(&storage.DocumentRecord{ID: "doc-1", Filename: "bio.pdf"}, nil),
					chunks.EXPECT().CountByDocument(gomock.Any(), "user-1", "doc-1").Return(12, nil),
					chunks.EXPECT().DeleteByDocument(gomock.Any(), "user-1", "doc-1").Return(int64(12), nil),
					docs.EXPECT().Delete(gomock.Any(), "user-1", "doc-1").Return(int64(1), nil),
				)
			},
			want: 12,
		},
		{
			name:    "missing document id",
			docID:   "",
			wantErr: true,
			checkErr: func(err error) bool {
				var validationErr *service.ValidationError
				return errors.As(err, &validationErr) && validationErr.Field == "documentId"
			},
		},
		{
			name:  "unknown document deletes nothing",
			docID: "doc-404",
			mockSetup: func(docs *mocks.MockDocumentStore, chunks *mocks.MockChunkStore) {
				docs.EXPECT().GetByID(gomock.Any(), "user-1", "doc-404").Return(nil, storage.ErrNotFound)
			},
			want: 0,
		},
		{
			name:  "lookup failure",
			docID: "doc-1",
			mockSetup: func(docs *mocks.MockDocumentStore, chunks *mocks.MockChunkStore) {
				docs.EXPECT().GetByID(gomock.Any(), "user-1", "doc-1").Return(nil, errors.New("db locked"))
			},
			wantErr: true,
		},
		{
			name:  "store failure",
			docID: "doc-1",
			mockSetup: func(docs *mocks.MockDocumentStore, chunks *mocks.MockChunkStore) {
				docs.EXPECT().GetByID(gomock.Any(), "user-1", "doc-1").Return(&storage.DocumentRecord{ID: "doc-1"}, nil)
				chunks.EXPECT().CountByDocument(gomock.Any(), "user-1", "doc-1").Return(2, nil)
				chunks.EXPECT().DeleteByDocument(gomock.Any(), "user-1", "doc-1").Return(int64(0), errors.New("boom"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc, docs, chunks := newDocumentService(ctrl)
			if tt.mockSetup != nil {
				tt.mockSetup(docs, chunks)
			}

			got, err := svc.Delete(testContext(), "user-1", tt.docID)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Delete() expected error, got nil")
				}
				if tt.checkErr != nil && !tt.checkErr(err) {
					t.Errorf("Delete() error type mismatch: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Delete() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Delete() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{in: 10 << 20, want: "10MB"},
		{in: 512 << 10, want: "512KB"},
		{in: 1500, want: "1500 bytes"},
		{in: 1, want: "1 bytes"},
	}
	for _, tt := range tests {
		if got := service.FormatSize(tt.in); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
