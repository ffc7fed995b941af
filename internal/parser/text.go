package parser

import "strings"

// TextParser handles plain UTF-8 text files.
type TextParser struct{}

// Parse decodes data as UTF-8, replacing invalid sequences.
func (p *TextParser) Parse(data []byte, filename string) (*ParsedDocument, error) {
	text := strings.ToValidUTF8(string(data), "\uFFFD")
	return &ParsedDocument{
		Text: text,
		Metadata: Metadata{
			Filename:  filename,
			FileType:  FileTypeText,
			WordCount: CountWords(text),
		},
	}, nil
}
