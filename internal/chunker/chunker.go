package chunker

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultChunkSize is the target maximum chunk length in characters.
	DefaultChunkSize = 1000
	// DefaultOverlap is the number of trailing characters carried into the next chunk.
	DefaultOverlap = 200
)

var (
	// ErrInvalidChunkSize is returned when the chunk size is not positive.
	ErrInvalidChunkSize = errors.New("chunk size must be greater than 0")
	// ErrInvalidOverlap is returned when the overlap is negative or not smaller than the chunk size.
	ErrInvalidOverlap = errors.New("overlap must be in [0, chunk size)")
)

// whitespace mirrors the ECMAScript \s class so sentence splitting and trimming
// behave the same on NBSP, ideographic spaces and BOMs.
const whitespace = `\t\n\v\f\r \x{00A0}\x{1680}\x{2000}-\x{200A}\x{2028}\x{2029}\x{202F}\x{205F}\x{3000}\x{FEFF}`

// sentenceBoundary matches terminal punctuation followed by a whitespace run.
// The punctuation byte stays with the preceding sentence; the run is dropped.
var sentenceBoundary = regexp.MustCompile(`[.!?][` + whitespace + `]+`)

// Chunk is one overlapping window of document text.
type Chunk struct {
	Text string `json:"text"`
	// StartIndex and EndIndex are positional hints, not exact offsets into the source.
	StartIndex int `json:"startIndex"`
	EndIndex   int `json:"endIndex"`
	ChunkIndex int `json:"chunkIndex"`
}

// Options controls chunk sizing.
type Options struct {
	ChunkSize int
	Overlap   int
}

// DefaultOptions returns the 1000/200 configuration used for uploaded notes.
func DefaultOptions() Options {
	return Options{ChunkSize: DefaultChunkSize, Overlap: DefaultOverlap}
}

// Validate reports whether the options can be used for chunking.
func (o Options) Validate() error {
	if o.ChunkSize <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidChunkSize, o.ChunkSize)
	}
	if o.Overlap < 0 || o.Overlap >= o.ChunkSize {
		return fmt.Errorf("%w: got overlap %d with chunk size %d", ErrInvalidOverlap, o.Overlap, o.ChunkSize)
	}
	return nil
}

// SplitSentences splits text after '.', '!' or '?' followed by whitespace.
// It is a heuristic: abbreviations and decimals are not special-cased.
// An empty string yields a single empty sentence.
func SplitSentences(text string) []string {
	matches := sentenceBoundary.FindAllStringIndex(text, -1)
	sentences := make([]string, 0, len(matches)+1)
	prev := 0
	for _, m := range matches {
		sentences = append(sentences, text[prev:m[0]+1])
		prev = m[1]
	}
	return append(sentences, text[prev:])
}

// ChunkText partitions text into sentence-aligned windows of roughly
// opts.ChunkSize characters, each seeded with the last opts.Overlap characters
// of the previous window. A sentence is never split, so a single sentence
// longer than ChunkSize becomes its own oversized chunk.
//
// Lengths are counted in runes.
func ChunkText(text string, opts Options) ([]Chunk, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var (
		chunks     []Chunk
		current    string
		currentLen int
		startIndex int
		chunkIndex int
	)

	for _, sentence := range SplitSentences(text) {
		sentenceLen := utf8.RuneCountInString(sentence)

		potential, potentialLen := sentence, sentenceLen
		if current != "" {
			potential = current + " " + sentence
			potentialLen = currentLen + 1 + sentenceLen
		}

		if potentialLen <= opts.ChunkSize || current == "" {
			current, currentLen = potential, potentialLen
			continue
		}

		chunks = append(chunks, Chunk{
			Text:       trim(current),
			StartIndex: startIndex,
			EndIndex:   startIndex + currentLen,
			ChunkIndex: chunkIndex,
		})
		chunkIndex++

		overlapText := lastRunes(current, opts.Overlap)
		current = overlapText + " " + sentence
		currentLen = utf8.RuneCountInString(overlapText) + 1 + sentenceLen
		// Approximate: tracks the window start the way stored chunks always have.
		startIndex = startIndex + currentLen - opts.Overlap - sentenceLen
	}

	if trim(current) != "" {
		chunks = append(chunks, Chunk{
			Text:       trim(current),
			StartIndex: startIndex,
			EndIndex:   startIndex + currentLen,
			ChunkIndex: chunkIndex,
		})
	}

	return chunks, nil
}

// lastRunes returns the final n runes of s, or all of s when it is shorter.
func lastRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := len(s)
	for ; n > 0 && i > 0; n-- {
		_, size := utf8.DecodeLastRuneInString(s[:i])
		i -= size
	}
	return s[i:]
}

func trim(s string) string {
	return strings.TrimFunc(s, isSpace)
}

func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ', '\u00a0', '\u1680', '\u2028', '\u2029', '\u202f', '\u205f', '\u3000', '\ufeff':
		return true
	}
	return r >= '\u2000' && r <= '\u200a'
}
