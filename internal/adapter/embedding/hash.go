package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	"edurag/internal/adapter/analyzer"
	"edurag/internal/domain"
	"edurag/internal/port"
)

// HashEmbedder is a deterministic bag-of-words embedder. Stemmed terms are
// hashed into a fixed number of buckets and the result is L2 normalized, so
// texts sharing vocabulary get a positive cosine similarity. It needs no
// network and is used for tests and offline runs.
type HashEmbedder struct {
	dimension int
	tokenizer port.Tokenizer
}

func NewHashEmbedder(dimension int) *HashEmbedder {
	return &HashEmbedder{
		dimension: dimension,
		tokenizer: analyzer.NewTokenizer(true),
	}
}

func (e *HashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := e.embedOne(text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = v
	}
	return embeddings, nil
}

func (e *HashEmbedder) embedOne(text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: cannot embed empty text", domain.ErrInvalidInput)
	}

	terms := e.tokenizer.Tokenize(text)
	if len(terms) == 0 {
		// only stopwords or punctuation
		terms = []string{strings.ToLower(strings.TrimSpace(text))}
	}

	v := make([]float32, e.dimension)
	for _, term := range terms {
		h := fnv.New32a()
		h.Write([]byte(term))
		v[h.Sum32()%uint32(e.dimension)]++
	}
	l2normalize(v)
	return v, nil
}

func (e *HashEmbedder) Dimension() int {
	return e.dimension
}

func (e *HashEmbedder) ModelName() string {
	return "hash"
}

func l2normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
}
