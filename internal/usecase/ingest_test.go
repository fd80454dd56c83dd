package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edurag/internal/adapter/embedding"
	"edurag/internal/adapter/vectorindex"
	"edurag/internal/domain"
)

func TestIngest_MarksProcessed(t *testing.T) {
	h := newHarness(t)
	doc := h.upload(t, "D1", "unilag", "Admission Requirements", admissionText)

	assert.Equal(t, domain.StateProcessed, doc.State)
	assert.True(t, doc.IsProcessed())
	assert.Empty(t, doc.FailureReason)

	stats := h.index.Stats("unilag")
	assert.Equal(t, 1, stats.Documents)
	assert.Equal(t, 1, stats.Passages)
	assert.Equal(t, testDim, stats.Dimension)
}

func TestIngest_ChunksLongDocuments(t *testing.T) {
	h := newHarness(t)
	long := ""
	for len(long) < 3000 {
		long += admissionText + " "
	}
	h.upload(t, "D1", "unilag", "Handbook", long)

	assert.Greater(t, h.index.Stats("unilag").Passages, 3)
}

func TestIngest_EmptyTextReingestKeepsOldPassages(t *testing.T) {
	h := newHarness(t)
	h.upload(t, "D1", "unilag", "Admission Requirements", admissionText)
	before := h.index.Version("unilag")

	empty := "   \n"
	doc, err := h.docs.Reingest(context.Background(), "D1", &empty)
	require.NoError(t, err)

	assert.Equal(t, domain.StateFailed, doc.State)
	assert.Contains(t, doc.FailureReason, domain.ErrEmptyDocument.Error())
	assert.Equal(t, before, h.index.Version("unilag"), "index must be untouched")
	assert.Equal(t, 1, h.index.Stats("unilag").Passages)

	ans, err := h.answer.Answer(context.Background(), "unilag", "admission requirements", 4)
	require.NoError(t, err)
	assert.Contains(t, ans.Text, "WAEC certificate")
}

func TestIngest_EmptyDocumentError(t *testing.T) {
	h := newHarness(t)
	doc := h.upload(t, "D1", "unilag", "Blank", "")
	assert.Equal(t, domain.StateFailed, doc.State)

	err := h.ingest.Ingest(context.Background(), doc.ID)
	assert.ErrorIs(t, err, domain.ErrEmptyDocument)

	var ingestErr *domain.IngestionError
	require.True(t, errors.As(err, &ingestErr))
	assert.Equal(t, "D1", ingestErr.DocumentID)
	assert.Equal(t, 0, h.index.Stats("unilag").Passages)
}

func TestIngest_ReingestReplacesPassages(t *testing.T) {
	h := newHarness(t)
	h.upload(t, "D1", "unilag", "Admission Requirements", admissionText)

	replacement := "Applicants must now present a NECO certificate."
	doc, err := h.docs.Reingest(context.Background(), "D1", &replacement)
	require.NoError(t, err)
	assert.Equal(t, domain.StateProcessed, doc.State)

	results, err := h.index.Search("unilag", mustEmbed(t, h, "certificate"), 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, replacement, results[0].Passage.Text)
}

func TestIngest_EmbeddingUnavailable(t *testing.T) {
	h := newHarnessWith(t, failingEmbedder{err: errors.New("rate limited")}, vectorindex.NewMemoryIndex(0))
	doc := h.upload(t, "D1", "unilag", "Admission Requirements", admissionText)

	assert.Equal(t, domain.StateFailed, doc.State)
	assert.Contains(t, doc.FailureReason, "rate limited")

	err := h.ingest.Ingest(context.Background(), doc.ID)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestIngest_DimensionMismatchIsIndexWriteFailure(t *testing.T) {
	h := newHarnessWith(t, embedding.NewHashEmbedder(16), vectorindex.NewMemoryIndex(32))
	doc := h.upload(t, "D1", "unilag", "Admission Requirements", admissionText)
	assert.Equal(t, domain.StateFailed, doc.State)

	err := h.ingest.Ingest(context.Background(), doc.ID)
	assert.ErrorIs(t, err, domain.ErrIndexWriteFailed)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestIngest_MissingDocument(t *testing.T) {
	h := newHarness(t)

	err := h.ingest.Ingest(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 0, h.index.Stats("unilag").Passages)
}

func TestIngest_IndexesStoredRecord(t *testing.T) {
	h := newHarness(t)
	stale := h.upload(t, "D1", "unilag", "School Fees", feesText)

	// a newer text lands in the store after stale was read
	updated := stale
	updated.Text = admissionText
	updated.State = domain.StateUnprocessed
	require.NoError(t, h.store.Put(context.Background(), updated))

	require.NoError(t, h.ingest.Ingest(context.Background(), stale.ID))

	results, err := h.index.Search("unilag", mustEmbed(t, h, "WAEC certificate"), 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, admissionText, results[0].Passage.Text)

	doc, err := h.docs.Get(context.Background(), "D1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateProcessed, doc.State)
}

func TestIngest_ConcurrentReingestsOfSameDocument(t *testing.T) {
	h := newHarness(t)
	h.upload(t, "D1", "unilag", "Admission Requirements", admissionText)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			text := feesText
			_, err := h.docs.Reingest(context.Background(), "D1", &text)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stats := h.index.Stats("unilag")
	assert.Equal(t, 1, stats.Documents)
	assert.Equal(t, 1, stats.Passages)
	assert.Equal(t, 0, h.ingest.locks.size())
}

func TestEmbeddingInput(t *testing.T) {
	assert.Equal(t, "Fees\nPay early.", embeddingInput("Fees", "Pay early."))
	assert.Equal(t, "Pay early.", embeddingInput("  ", "Pay early."))
}

func mustEmbed(t *testing.T, h *harness, text string) []float32 {
	t.Helper()
	vecs, err := h.embedder.Embed(context.Background(), []string{text})
	require.NoError(t, err)
	return vecs[0]
}
