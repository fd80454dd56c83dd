package usecase

import (
	"context"
	"strings"

	"edurag/internal/domain"
	"edurag/internal/port"
)

// DefaultTopK is the number of passages used when a caller does not ask for one.
const DefaultTopK = 4

// RetrieveUseCase handles search and retrieval operations.
type RetrieveUseCase struct {
	retriever         port.Retriever
	defaultK          int
	minScoreThreshold float64 // Filter results below this score (0 = disabled)
}

// NewRetrieveUseCase creates a new retrieve use case.
func NewRetrieveUseCase(retriever port.Retriever, defaultK int, minScoreThreshold float64) *RetrieveUseCase {
	if defaultK <= 0 {
		defaultK = DefaultTopK
	}
	return &RetrieveUseCase{
		retriever:         retriever,
		defaultK:          defaultK,
		minScoreThreshold: minScoreThreshold,
	}
}

// Retrieve returns the institution's passages most similar to query, best
// first. k <= 0 selects the default. An empty result is not an error.
func (u *RetrieveUseCase) Retrieve(ctx context.Context, institutionID, query string, k int) ([]domain.ScoredPassage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrInvalidQuery
	}
	if k <= 0 {
		k = u.defaultK
	}

	results, err := u.retriever.Retrieve(ctx, institutionID, query, k)
	if err != nil {
		return nil, err
	}

	if u.minScoreThreshold > 0 {
		results = u.filterByThreshold(results)
	}
	return results, nil
}

// DefaultK returns the k used for non-positive requests.
func (u *RetrieveUseCase) DefaultK() int {
	return u.defaultK
}

// filterByThreshold removes results below the minimum score threshold.
func (u *RetrieveUseCase) filterByThreshold(results []domain.ScoredPassage) []domain.ScoredPassage {
	filtered := make([]domain.ScoredPassage, 0, len(results))
	for _, r := range results {
		if r.Score >= u.minScoreThreshold {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
