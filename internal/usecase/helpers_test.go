package usecase

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"edurag/internal/adapter/analyzer"
	"edurag/internal/adapter/chunker"
	"edurag/internal/adapter/embedding"
	"edurag/internal/adapter/llm"
	"edurag/internal/adapter/memstore"
	"edurag/internal/adapter/retriever"
	"edurag/internal/adapter/vectorindex"
	"edurag/internal/domain"
	"edurag/internal/logging"
	"edurag/internal/port"
)

const testDim = 256

// countingLLM wraps a generator and counts calls.
type countingLLM struct {
	next  port.LLM
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (c *countingLLM) GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	c.calls.Add(1)
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if c.err != nil {
		return "", c.err
	}
	return c.next.GenerateWithSystem(ctx, systemPrompt, userPrompt)
}

func (c *countingLLM) ModelName() string { return "counting" }

// failingEmbedder always errors.
type failingEmbedder struct {
	err error
}

func (f failingEmbedder) Embed(context.Context, []string) ([][]float32, error) { return nil, f.err }
func (f failingEmbedder) Dimension() int                                       { return testDim }
func (f failingEmbedder) ModelName() string                                    { return "failing" }

type harness struct {
	store    *memstore.MemoryStore
	index    *vectorindex.MemoryIndex
	embedder port.Embedder
	ingest   *IngestUseCase
	docs     *DocumentService
	llm      *countingLLM
	answer   *AnswerUseCase
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWith(t, embedding.NewHashEmbedder(testDim), vectorindex.NewMemoryIndex(0))
}

func newHarnessWith(t *testing.T, embedder port.Embedder, index *vectorindex.MemoryIndex) *harness {
	t.Helper()
	logger := logging.Discard()

	h := &harness{
		store:    memstore.NewMemoryStore(),
		index:    index,
		embedder: embedder,
		llm:      &countingLLM{next: llm.NewExtractive()},
	}
	h.ingest = NewIngestUseCase(h.store, h.index, chunker.NewWindowChunker(800, 100), embedder,
		IngestOptions{BatchSize: 8, Concurrency: 2, Timeout: time.Second}, logger)
	h.docs = NewDocumentService(h.store, h.index, h.ingest, nil, logger)

	sem := retriever.NewSemanticRetriever(h.index, embedder, time.Second)
	retrieve := NewRetrieveUseCase(sem, DefaultTopK, 0)
	packer := NewPacker(analyzer.NewTokenizer(false), 0)
	h.answer = NewAnswerUseCase(retrieve, packer, h.llm, time.Second, logger)
	return h
}

func (h *harness) upload(t *testing.T, id, institutionID, title, text string) domain.Document {
	t.Helper()
	doc, err := h.docs.Upload(context.Background(), UploadRequest{
		ID:            id,
		InstitutionID: institutionID,
		Title:         title,
		Text:          text,
	})
	require.NoError(t, err)
	return doc
}

const (
	admissionText = "Admission requires a WAEC certificate with five credits including English and Mathematics."
	feesText      = "Tuition is paid at the bursary before the start of each semester."
)
