package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fumiama/go-docx"
)

// DOCXParser extracts paragraph and table text from .docx files.
type DOCXParser struct{}

func (p *DOCXParser) Parse(data []byte, filename string) (*ParsedDocument, error) {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse DOCX file: %v", ErrParseFailed, err)
	}

	var parts []string
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			parts = append(parts, it.String())
		case *docx.Table:
			parts = append(parts, it.String())
		}
	}

	text := strings.Join(parts, "\n")
	return &ParsedDocument{
		Text: text,
		Metadata: Metadata{
			Filename:  filename,
			FileType:  FileTypeDOCX,
			WordCount: CountWords(text),
		},
	}, nil
}
