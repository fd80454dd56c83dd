package port

import (
	"context"

	"edurag/internal/domain"
)

// DocumentStore persists document records and their processing state.
type DocumentStore interface {
	Put(ctx context.Context, doc domain.Document) error

	// Get returns domain.ErrNotFound for unknown ids.
	Get(ctx context.Context, id string) (domain.Document, error)

	List(ctx context.Context) ([]domain.Document, error)

	ListByInstitution(ctx context.Context, institutionID string) ([]domain.Document, error)

	SetState(ctx context.Context, id string, state domain.ProcessingState, reason string) error

	Delete(ctx context.Context, id string) error

	Close() error
}
