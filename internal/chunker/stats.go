package chunker

import (
	"math"
	"sort"
	"unicode/utf8"
)

// ChunkStats summarises the rune lengths of a chunk list.
type ChunkStats struct {
	// Count is the number of chunks.
	Count int `json:"count"`
	// MinRunes is the shortest chunk text length.
	MinRunes int `json:"min_runes"`
	// MaxRunes is the longest chunk text length.
	MaxRunes int `json:"max_runes"`
	// MeanRunes is the mean chunk text length.
	MeanRunes float64 `json:"mean_runes"`
	// P95Runes is the 95th percentile chunk text length.
	P95Runes int `json:"p95_runes"`
}

// Stats computes length statistics for chunks. An empty list yields zero stats.
func Stats(chunks []Chunk) ChunkStats {
	if len(chunks) == 0 {
		return ChunkStats{}
	}

	lengths := make([]int, len(chunks))
	total := 0
	for i, c := range chunks {
		lengths[i] = utf8.RuneCountInString(c.Text)
		total += lengths[i]
	}
	sort.Ints(lengths)

	p95 := int(math.Ceil(float64(len(lengths)) * 0.95))
	if p95 >= len(lengths) {
		p95 = len(lengths) - 1
	}

	return ChunkStats{
		Count:     len(chunks),
		MinRunes:  lengths[0],
		MaxRunes:  lengths[len(lengths)-1],
		MeanRunes: float64(total) / float64(len(chunks)),
		P95Runes:  lengths[p95],
	}
}
