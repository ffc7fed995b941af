package rag

import (
	"fmt"
	"strings"

	"studyhub/internal/storage"
)

// contextSeparator separates chunk blocks in the prompt context.
const contextSeparator = "\n\n---\n\n"

// BuildContext renders chunks as "[From <filename>]\n<text>" blocks joined by a
// horizontal rule, in the given order.
func BuildContext(chunks []ScoredChunk) string {
	blocks := make([]string, len(chunks))
	for i, c := range chunks {
		blocks[i] = fmt.Sprintf("[From %s]\n%s", c.Filename(), c.Chunk.Text)
	}
	return strings.Join(blocks, contextSeparator)
}

// UniqueSources returns one source per document in first-seen order.
// A later chunk of the same document overwrites the filename, keeping the position.
func UniqueSources(chunks []ScoredChunk) []storage.Source {
	sources := []storage.Source{}
	index := make(map[string]int, len(chunks))
	for _, c := range chunks {
		if i, ok := index[c.DocumentID()]; ok {
			sources[i].Filename = c.Filename()
			continue
		}
		index[c.DocumentID()] = len(sources)
		sources = append(sources, storage.Source{DocumentID: c.DocumentID(), Filename: c.Filename()})
	}
	return sources
}
