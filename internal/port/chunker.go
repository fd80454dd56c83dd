package port

import "iter"

type Chunker interface {
	// Chunk lazily yields (ordinal, text) windows in document order.
	Chunk(text string) (iter.Seq2[int, string], error)
}
