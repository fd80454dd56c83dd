package domain

import (
	"errors"
	"fmt"
)

// Failure kinds surfaced by the retrieval core. Callers match them with errors.Is.
var (
	// ErrInvalidInput indicates a caller error such as bad chunking parameters.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidQuery indicates an empty or whitespace-only query.
	ErrInvalidQuery = fmt.Errorf("invalid query: %w", ErrInvalidInput)

	// ErrEmptyDocument indicates a document without any text to ingest.
	ErrEmptyDocument = errors.New("empty document")

	// ErrEmbeddingUnavailable indicates the embedding service failed, timed out
	// or returned malformed output.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrGenerationUnavailable indicates the text generation service failed or timed out.
	ErrGenerationUnavailable = errors.New("generation service unavailable")

	// ErrDimensionMismatch indicates a vector whose length differs from the index dimension.
	// It points at embedder configuration drift.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrIndexWriteFailed indicates a passage set could not be swapped into the index.
	ErrIndexWriteFailed = errors.New("index write failed")

	// ErrNotFound indicates a requested document does not exist.
	ErrNotFound = errors.New("not found")
)

// IngestionError reports why ingesting a document failed.
type IngestionError struct {
	DocumentID string
	Kind       error
	Err        error
}

func (e *IngestionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("ingest document %s: %v", e.DocumentID, e.Kind)
	}
	if errors.Is(e.Err, e.Kind) {
		return fmt.Sprintf("ingest document %s: %v", e.DocumentID, e.Err)
	}
	return fmt.Sprintf("ingest document %s: %v: %v", e.DocumentID, e.Kind, e.Err)
}

func (e *IngestionError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewIngestionError builds an IngestionError of the given kind.
func NewIngestionError(docID string, kind, err error) *IngestionError {
	return &IngestionError{DocumentID: docID, Kind: kind, Err: err}
}

// AsEmbeddingUnavailable makes a failed embedding call, including a timeout,
// match ErrEmbeddingUnavailable.
func AsEmbeddingUnavailable(err error) error {
	return ensureKind(err, ErrEmbeddingUnavailable)
}

// AsGenerationUnavailable makes a failed generation call, including a timeout,
// match ErrGenerationUnavailable.
func AsGenerationUnavailable(err error) error {
	return ensureKind(err, ErrGenerationUnavailable)
}

func ensureKind(err, kind error) error {
	if err == nil || errors.Is(err, kind) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}
