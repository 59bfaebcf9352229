// Package chunker provides a fixed-size sliding-window text splitter.
package chunker

import (
	"fmt"

	"github.com/pocketml/pocketrag/internal/core/domain"
)

// DefaultMaxSize is the default window width in bytes.
const DefaultMaxSize = domain.DefaultChunkMaxSize

// DefaultOverlap is the default number of bytes shared by consecutive
// windows.
const DefaultOverlap = domain.DefaultChunkOverlap

// Chunker splits raw text into overlapping fixed-size windows.
// Boundaries are fully determined by (text, maxSize, overlap), so splitting
// identical input is deterministic.
type Chunker struct {
	maxSize int
	overlap int
}

// New validates the window parameters and returns a chunker.
// maxSize must be positive and overlap must be in [0, maxSize).
func New(maxSize, overlap int) (*Chunker, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("%w: chunk max size must be positive, got %d",
			domain.ErrInvalidConfiguration, maxSize)
	}
	if overlap < 0 || overlap >= maxSize {
		return nil, fmt.Errorf("%w: chunk overlap must be in [0, %d), got %d",
			domain.ErrInvalidConfiguration, maxSize, overlap)
	}
	return &Chunker{maxSize: maxSize, overlap: overlap}, nil
}

// MaxSize returns the window width.
func (c *Chunker) MaxSize() int { return c.maxSize }

// Overlap returns the window overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Split walks the text with a sliding window of width maxSize. Each window
// starts at the previous end minus overlap, clamped so the walk always
// makes forward progress. The final chunk may be shorter than maxSize;
// empty input yields no chunks and no chunk is ever empty.
func (c *Chunker) Split(text string) []string {
	if text == "" {
		return nil
	}

	estimated := len(text)/(c.maxSize-c.overlap) + 1
	chunks := make([]string, 0, estimated)

	start := 0
	for start < len(text) {
		end := start + c.maxSize
		if end > len(text) {
			end = len(text)
		}

		chunks = append(chunks, text[start:end])

		if end == len(text) {
			break
		}

		next := end - c.overlap
		if next <= start {
			// Clamp: never regress past the previous start.
			next = start + 1
		}
		start = next
	}

	return chunks
}
