package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvalidQueryIsInvalidInput(t *testing.T) {
	assert.ErrorIs(t, ErrInvalidQuery, ErrInvalidInput)
	assert.NotErrorIs(t, ErrInvalidInput, ErrInvalidQuery)
}

func TestIngestionError(t *testing.T) {
	cause := errors.New("socket closed")
	err := NewIngestionError("D1", ErrEmbeddingUnavailable, cause)

	assert.ErrorIs(t, err, ErrEmbeddingUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "ingest document D1: embedding service unavailable: socket closed", err.Error())

	var target *IngestionError
	wrapped := fmt.Errorf("worker: %w", err)
	assert.True(t, errors.As(wrapped, &target))
	assert.Equal(t, "D1", target.DocumentID)
}

func TestIngestionError_NoCause(t *testing.T) {
	err := NewIngestionError("D2", ErrEmptyDocument, nil)
	assert.ErrorIs(t, err, ErrEmptyDocument)
	assert.Equal(t, "ingest document D2: empty document", err.Error())
}

func TestIngestionError_CauseAlreadyOfKind(t *testing.T) {
	cause := fmt.Errorf("%w: 3 of 4 vectors", ErrEmbeddingUnavailable)
	err := NewIngestionError("D3", ErrEmbeddingUnavailable, cause)
	assert.Equal(t, "ingest document D3: embedding service unavailable: 3 of 4 vectors", err.Error())
}

func TestAsUnavailable(t *testing.T) {
	assert.NoError(t, AsEmbeddingUnavailable(nil))
	assert.NoError(t, AsGenerationUnavailable(nil))

	err := AsGenerationUnavailable(context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrGenerationUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	already := fmt.Errorf("%w: bad json", ErrEmbeddingUnavailable)
	assert.Same(t, already, AsEmbeddingUnavailable(already))
}

func TestProcessingState(t *testing.T) {
	assert.True(t, StateProcessed.Valid())
	assert.False(t, ProcessingState("queued").Valid())
	assert.True(t, Document{State: StateProcessed}.IsProcessed())
	assert.False(t, Document{State: StateFailed}.IsProcessed())
}
