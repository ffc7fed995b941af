package parser

import (
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// FileType identifies a supported document format.
type FileType string

const (
	FileTypePDF      FileType = "pdf"
	FileTypeDOCX     FileType = "docx"
	FileTypeText     FileType = "txt"
	FileTypeMarkdown FileType = "md"
)

const (
	mimePDF      = "application/pdf"
	mimeDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeText     = "text/plain"
	mimeMarkdown = "text/markdown"
	mimeOctet    = "application/octet-stream"
)

var (
	// ErrUnsupportedType is returned when no parser handles a file.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrParseFailed is returned when a decoder cannot extract text.
	ErrParseFailed = errors.New("failed to parse document")
)

// UnsupportedTypeError names the MIME type or extension that was rejected.
type UnsupportedTypeError struct {
	Type string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported file type: %s", e.Type)
}

func (e *UnsupportedTypeError) Unwrap() error {
	return ErrUnsupportedType
}

// Metadata describes a parsed document.
type Metadata struct {
	Filename  string   `json:"filename"`
	FileType  FileType `json:"fileType"`
	PageCount int      `json:"pageCount,omitempty"`
	WordCount int      `json:"wordCount"`
}

// ParsedDocument is the plain text extracted from an uploaded file.
type ParsedDocument struct {
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// Parser extracts plain text from raw document bytes.
type Parser interface {
	Parse(data []byte, filename string) (*ParsedDocument, error)
}

// Parse detects the document format and extracts its text.
// The declared MIME type wins over the extension. An empty or generic MIME
// type is replaced by content sniffing before dispatch.
func Parse(data []byte, filename, mimeType string) (*ParsedDocument, error) {
	p, err := ForFile(filename, resolveMIME(data, mimeType))
	if err != nil {
		return nil, err
	}
	return p.Parse(data, filename)
}

// ForFile returns the parser for a file, checking formats in PDF, DOCX,
// Markdown, text order. A format matches on either its MIME type or its extension.
func ForFile(filename, mimeType string) (Parser, error) {
	typ, ext := baseMIME(mimeType), extension(filename)
	switch {
	case typ == mimePDF || ext == "pdf":
		return &PDFParser{}, nil
	case typ == mimeDOCX || ext == "docx":
		return &DOCXParser{}, nil
	case typ == mimeMarkdown || ext == "md" || ext == "markdown":
		return NewMarkdownParser(), nil
	case typ == mimeText || ext == "txt":
		return &TextParser{}, nil
	}

	if typ == "" {
		typ = ext
	}
	return nil, &UnsupportedTypeError{Type: typ}
}

// IsAllowed reports whether an upload with this name and declared type may be accepted.
func IsAllowed(filename, mimeType string) bool {
	switch baseMIME(mimeType) {
	case mimePDF, mimeDOCX, mimeText, mimeMarkdown:
		return true
	}
	switch extension(filename) {
	case "pdf", "docx", "txt", "md", "markdown":
		return true
	}
	return false
}

// resolveMIME sniffs the content type when the client did not send a useful one.
func resolveMIME(data []byte, declared string) string {
	if b := baseMIME(declared); b != "" && b != mimeOctet {
		return b
	}
	return baseMIME(mimetype.Detect(data).String())
}

func baseMIME(mimeType string) string {
	if mimeType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(mimeType))
	}
	return mediaType
}

func extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// CountWords returns the number of whitespace-separated words in text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}
