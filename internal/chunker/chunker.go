// Package chunker splits raw document text into overlapping passages sized
// for embedding. Sizes and the overlap are counted in runes so multi-byte
// text never gets cut inside a character.
package chunker

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned when chunking parameters are internally
// inconsistent.
var ErrInvalidConfig = errors.New("chunker: invalid configuration")

// separators, tried in order of preference. The splitter always takes the
// largest boundary that still fits the chunk budget and only falls back to a
// bare character boundary when no separator fits.
var separators = [][]rune{
	[]rune("\n\n"),
	[]rune("\n"),
	[]rune(". "),
	[]rune("! "),
	[]rune("? "),
	[]rune(" "),
}

// Splitter produces chunks of at most ChunkSize runes where consecutive
// chunks from the same text share exactly Overlap runes.
type Splitter struct {
	chunkSize int
	overlap   int
}

// New validates the parameters and returns a Splitter.
func New(chunkSize, overlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d must be positive", ErrInvalidConfig, chunkSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: overlap %d must not be negative", ErrInvalidConfig, overlap)
	}
	if overlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d", ErrInvalidConfig, overlap, chunkSize)
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}, nil
}

// ChunkSize returns the configured chunk ceiling in runes.
func (s *Splitter) ChunkSize() int { return s.chunkSize }

// Overlap returns the configured overlap in runes.
func (s *Splitter) Overlap() int { return s.overlap }

// Split chunks text. Every rune of the input appears in at least one chunk;
// each chunk after the first begins with the last Overlap runes of its
// predecessor. Text no longer than the chunk size comes back as a single
// chunk, and empty text yields no chunks.
func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= s.chunkSize {
		return []string{text}
	}
	var chunks []string
	start := 0
	for {
		limit := start + s.chunkSize
		if limit >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			return chunks
		}
		end := s.boundary(runes, start, limit)
		chunks = append(chunks, string(runes[start:end]))
		start = end - s.overlap
	}
}

// boundary picks the split position in (start+overlap, limit], preferring
// the largest separator. The lower bound keeps the next chunk strictly
// advancing past the overlap window.
func (s *Splitter) boundary(runes []rune, start, limit int) int {
	min := start + s.overlap + 1
	window := runes[start:limit]
	for _, sep := range separators {
		idx := lastIndex(window, sep)
		if idx < 0 {
			continue
		}
		end := start + idx + len(sep)
		if end >= min {
			return end
		}
	}
	return limit
}

// lastIndex finds the last occurrence of sep in window, or -1.
func lastIndex(window, sep []rune) int {
	for i := len(window) - len(sep); i >= 0; i-- {
		match := true
		for j := range sep {
			if window[i+j] != sep[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
