package retriever

import (
	"context"
	"fmt"
	"strings"
	"time"

	"edurag/internal/domain"
	"edurag/internal/port"
)

// SemanticRetriever embeds the query and ranks an institution's passages by
// cosine similarity.
type SemanticRetriever struct {
	index    port.Index
	embedder port.Embedder
	timeout  time.Duration
}

// NewSemanticRetriever creates a retriever. A zero timeout leaves the
// embedding call bounded only by the caller's context.
func NewSemanticRetriever(index port.Index, embedder port.Embedder, timeout time.Duration) *SemanticRetriever {
	return &SemanticRetriever{
		index:    index,
		embedder: embedder,
		timeout:  timeout,
	}
}

func (r *SemanticRetriever) Retrieve(ctx context.Context, institutionID, query string, k int) ([]domain.ScoredPassage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrInvalidQuery
	}
	if k <= 0 {
		return []domain.ScoredPassage{}, nil
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	embeddings, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", domain.AsEmbeddingUnavailable(err))
	}
	if len(embeddings) != 1 {
		return nil, fmt.Errorf("%w: expected 1 query embedding, got %d", domain.ErrEmbeddingUnavailable, len(embeddings))
	}

	results, err := r.index.Search(institutionID, embeddings[0], k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	return results, nil
}
