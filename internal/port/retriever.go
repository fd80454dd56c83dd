package port

import (
	"context"

	"edurag/internal/domain"
)

// Retriever finds the passages of one institution most similar to a query.
type Retriever interface {
	Retrieve(ctx context.Context, institutionID, query string, k int) ([]domain.ScoredPassage, error)
}
