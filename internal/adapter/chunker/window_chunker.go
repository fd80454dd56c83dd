package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"iter"

	"edurag/internal/domain"
)

// WindowChunker splits text into fixed-size rune windows where consecutive
// windows share exactly overlap runes.
type WindowChunker struct {
	size    int
	overlap int
}

func NewWindowChunker(size, overlap int) *WindowChunker {
	return &WindowChunker{size: size, overlap: overlap}
}

// Validate checks the window parameters.
func Validate(size, overlap int) error {
	if size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidInput, size)
	}
	if overlap < 0 || overlap >= size {
		return fmt.Errorf("%w: overlap must be in [0, %d), got %d", domain.ErrInvalidInput, size, overlap)
	}
	return nil
}

// Chunk returns a lazy sequence of (ordinal, text) windows in document order.
// The last window may be shorter than the chunk size. Empty text yields nothing.
func (c *WindowChunker) Chunk(text string) (iter.Seq2[int, string], error) {
	if err := Validate(c.size, c.overlap); err != nil {
		return nil, err
	}

	runes := []rune(text)
	step := c.size - c.overlap
	size := c.size

	return func(yield func(int, string) bool) {
		n := len(runes)
		for ord, start := 0, 0; start < n; ord, start = ord+1, start+step {
			end := min(start+size, n)
			if !yield(ord, string(runes[start:end])) {
				return
			}
			if end == n {
				return
			}
		}
	}, nil
}

// Overlap returns the number of runes shared by consecutive windows.
func (c *WindowChunker) Overlap() int {
	return c.overlap
}

// PassageID derives a stable passage id from its document and ordinal.
func PassageID(docID string, ordinal int) string {
	data := fmt.Sprintf("%s:%d", docID, ordinal)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:8])
}
