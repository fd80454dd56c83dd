package embedding

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"edurag/internal/domain"
	"edurag/internal/port"
)

// RateLimited throttles calls to a wrapped embedder.
type RateLimited struct {
	next    port.Embedder
	limiter *rate.Limiter
}

// NewRateLimited allows perSecond requests with a burst of one.
func NewRateLimited(next port.Embedder, perSecond float64) *RateLimited {
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

func (r *RateLimited) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %w", domain.ErrEmbeddingUnavailable, err)
	}
	return r.next.Embed(ctx, texts)
}

func (r *RateLimited) Dimension() int {
	return r.next.Dimension()
}

func (r *RateLimited) ModelName() string {
	return r.next.ModelName()
}
