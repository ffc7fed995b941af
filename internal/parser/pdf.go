package parser

import (
	"bytes"
	"fmt"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser extracts page text from PDF files.
type PDFParser struct{}

func (p *PDFParser) Parse(data []byte, filename string) (doc *ParsedDocument, err error) {
	// The pdf reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("%w: failed to parse PDF file: %v", ErrParseFailed, r)
		}
	}()

	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse PDF file: %v", ErrParseFailed, err)
	}

	numPages := reader.NumPage()
	var buf strings.Builder
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(text)
	}

	text := buf.String()
	return &ParsedDocument{
		Text: text,
		Metadata: Metadata{
			Filename:  filename,
			FileType:  FileTypePDF,
			PageCount: numPages,
			WordCount: CountWords(text),
		},
	}, nil
}
