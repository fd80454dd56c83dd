package port

import "edurag/internal/domain"

// Index is the per-institution semantic index.
type Index interface {
	// Insert atomically replaces every passage of documentID within the
	// institution's partition. On failure the previous set is kept.
	Insert(institutionID, documentID string, passages []domain.Passage) error

	// Search returns at most k passages of the institution ordered by
	// descending cosine similarity.
	Search(institutionID string, query []float32, k int) ([]domain.ScoredPassage, error)

	// Remove deletes all passages of documentID. Removing an absent document is a no-op.
	Remove(institutionID, documentID string) error

	Stats(institutionID string) domain.IndexStats

	// Version changes whenever the institution's partition is written.
	Version(institutionID string) uint64
}
