package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"edurag/internal/adapter/chunker"
	"edurag/internal/domain"
	"edurag/internal/port"
)

// IngestOptions tunes how passages are embedded.
type IngestOptions struct {
	BatchSize   int           // texts per embedding call
	Concurrency int           // embedding calls in flight
	Timeout     time.Duration // per embedding call, 0 = none
}

// IngestUseCase turns a stored document into searchable passages.
type IngestUseCase struct {
	store    port.DocumentStore
	index    port.Index
	chunker  port.Chunker
	embedder port.Embedder
	opts     IngestOptions
	locks    *keyedMutex
	logger   *slog.Logger
}

// NewIngestUseCase creates a new ingest use case.
func NewIngestUseCase(
	store port.DocumentStore,
	index port.Index,
	chunker port.Chunker,
	embedder port.Embedder,
	opts IngestOptions,
	logger *slog.Logger,
) *IngestUseCase {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 64
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestUseCase{
		store:    store,
		index:    index,
		chunker:  chunker,
		embedder: embedder,
		opts:     opts,
		locks:    newKeyedMutex(),
		logger:   logger,
	}
}

// Ingest chunks, embeds and indexes the stored document, replacing any
// passages it had, and records the outcome as the document's processing state.
// The record is read under the document lock, so a copy taken before a
// re-upload or re-ingest can never be indexed. The text is validated before
// the index is touched, so a failed re-ingestion keeps the previous passages
// searchable.
//
// Failures are *domain.IngestionError values.
func (u *IngestUseCase) Ingest(ctx context.Context, documentID string) error {
	unlock := u.locks.Lock(documentID)
	defer unlock()

	// state writes must land even when ctx was cancelled mid-ingestion
	stateCtx := context.WithoutCancel(ctx)

	doc, err := u.store.Get(stateCtx, documentID)
	if err != nil {
		// deleted while queued, or never stored
		return domain.NewIngestionError(documentID, domain.ErrNotFound, err)
	}

	start := time.Now()
	passages, err := u.ingest(ctx, doc)
	if err != nil {
		if serr := u.store.SetState(stateCtx, doc.ID, domain.StateFailed, err.Error()); serr != nil {
			u.logger.Error("failed to record ingestion failure", "document_id", doc.ID, "error", serr)
		}
		u.logger.Warn("ingestion failed",
			"document_id", doc.ID,
			"institution_id", doc.InstitutionID,
			"error", err)
		return err
	}

	if err := u.store.SetState(stateCtx, doc.ID, domain.StateProcessed, ""); err != nil {
		return fmt.Errorf("mark document %s processed: %w", doc.ID, err)
	}

	u.logger.Info("document ingested",
		"document_id", doc.ID,
		"institution_id", doc.InstitutionID,
		"passages", passages,
		"duration", time.Since(start))
	return nil
}

// withDocumentLock runs fn while holding the lock Ingest and Delete take.
func (u *IngestUseCase) withDocumentLock(documentID string, fn func() error) error {
	unlock := u.locks.Lock(documentID)
	defer unlock()
	return fn()
}

func (u *IngestUseCase) ingest(ctx context.Context, doc domain.Document) (int, error) {
	if strings.TrimSpace(doc.Text) == "" {
		return 0, domain.NewIngestionError(doc.ID, domain.ErrEmptyDocument, nil)
	}

	seq, err := u.chunker.Chunk(doc.Text)
	if err != nil {
		return 0, domain.NewIngestionError(doc.ID, domain.ErrInvalidInput, err)
	}

	var texts, inputs []string
	for _, text := range seq {
		texts = append(texts, text)
		inputs = append(inputs, embeddingInput(doc.Title, text))
	}

	vectors, err := u.embed(ctx, inputs)
	if err != nil {
		return 0, domain.NewIngestionError(doc.ID, domain.ErrEmbeddingUnavailable, err)
	}

	passages := make([]domain.Passage, len(texts))
	for i, text := range texts {
		passages[i] = domain.Passage{
			ID:            chunker.PassageID(doc.ID, i),
			DocumentID:    doc.ID,
			DocumentTitle: doc.Title,
			InstitutionID: doc.InstitutionID,
			Ordinal:       i,
			Text:          text,
			Vector:        vectors[i],
		}
	}

	if err := u.index.Insert(doc.InstitutionID, doc.ID, passages); err != nil {
		if !errors.Is(err, domain.ErrIndexWriteFailed) {
			err = fmt.Errorf("%w: %w", domain.ErrIndexWriteFailed, err)
		}
		return 0, domain.NewIngestionError(doc.ID, domain.ErrIndexWriteFailed, err)
	}
	return len(passages), nil
}

// embeddingInput prefixes the passage with its document title.
func embeddingInput(title, text string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return text
	}
	return title + "\n" + text
}

// embed runs batches concurrently and keeps the input order.
func (u *IngestUseCase) embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.opts.Concurrency)
	for start := 0; start < len(texts); start += u.opts.BatchSize {
		end := min(start+u.opts.BatchSize, len(texts))
		g.Go(func() error {
			cctx := gctx
			if u.opts.Timeout > 0 {
				var cancel context.CancelFunc
				cctx, cancel = context.WithTimeout(gctx, u.opts.Timeout)
				defer cancel()
			}

			vecs, err := u.embedder.Embed(cctx, texts[start:end])
			if err != nil {
				return domain.AsEmbeddingUnavailable(err)
			}
			if len(vecs) != end-start {
				return fmt.Errorf("%w: expected %d embeddings, got %d",
					domain.ErrEmbeddingUnavailable, end-start, len(vecs))
			}
			for i, v := range vecs {
				if len(v) == 0 {
					return fmt.Errorf("%w: empty embedding for passage %d", domain.ErrEmbeddingUnavailable, start+i)
				}
			}
			copy(out[start:end], vecs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete drops every passage of the stored document from the index and then
// the document record. Holding the document lock across both keeps a queued
// ingestion from re-adding passages in between.
func (u *IngestUseCase) Delete(ctx context.Context, documentID string) error {
	unlock := u.locks.Lock(documentID)
	defer unlock()

	doc, err := u.store.Get(ctx, documentID)
	if err != nil {
		return err
	}
	if err := u.index.Remove(doc.InstitutionID, doc.ID); err != nil {
		return fmt.Errorf("remove passages of %s: %w", doc.ID, err)
	}
	if err := u.store.Delete(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete document %s: %w", doc.ID, err)
	}
	u.logger.Info("document deleted", "document_id", doc.ID, "institution_id", doc.InstitutionID)
	return nil
}
