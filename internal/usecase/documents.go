package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"edurag/internal/domain"
	"edurag/internal/port"
)

// Scheduler hands a stored document to background ingestion.
type Scheduler interface {
	Enqueue(ctx context.Context, documentID string) error
}

// UploadRequest describes a new document. ID is generated when empty.
type UploadRequest struct {
	ID            string
	InstitutionID string
	Title         string
	Description   string
	FileURL       string
	UploadedBy    string
	Text          string
}

// RebuildResult summarizes a full index rebuild.
type RebuildResult struct {
	Documents int
	Processed int
	Failed    int
	Duration  time.Duration
}

// DocumentService manages document records and keeps the index in step with them.
type DocumentService struct {
	store     port.DocumentStore
	index     port.Index
	ingest    *IngestUseCase
	scheduler Scheduler
	now       func() time.Time
	logger    *slog.Logger
}

// NewDocumentService wires the document lifecycle. With a nil scheduler,
// ingestion runs inline before Upload and Reingest return.
func NewDocumentService(store port.DocumentStore, index port.Index, ingest *IngestUseCase, scheduler Scheduler, logger *slog.Logger) *DocumentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentService{
		store:     store,
		index:     index,
		ingest:    ingest,
		scheduler: scheduler,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger,
	}
}

// Upload stores a document as unprocessed and schedules its ingestion.
// Uploading an existing id replaces the record and keeps its creation time;
// a document never changes institution, so an id owned by another
// institution is rejected.
func (s *DocumentService) Upload(ctx context.Context, req UploadRequest) (domain.Document, error) {
	institutionID := strings.TrimSpace(req.InstitutionID)
	title := strings.TrimSpace(req.Title)
	if institutionID == "" {
		return domain.Document{}, fmt.Errorf("institution id is required: %w", domain.ErrInvalidInput)
	}
	if title == "" {
		return domain.Document{}, fmt.Errorf("title is required: %w", domain.ErrInvalidInput)
	}

	now := s.now()
	doc := domain.Document{
		ID:            req.ID,
		InstitutionID: institutionID,
		Title:         title,
		Description:   req.Description,
		FileURL:       req.FileURL,
		UploadedBy:    req.UploadedBy,
		Text:          req.Text,
		State:         domain.StateUnprocessed,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	err := s.ingest.withDocumentLock(doc.ID, func() error {
		existing, err := s.store.Get(ctx, doc.ID)
		switch {
		case err == nil:
			if existing.InstitutionID != institutionID {
				return fmt.Errorf("document %s belongs to institution %s: %w",
					doc.ID, existing.InstitutionID, domain.ErrInvalidInput)
			}
			doc.CreatedAt = existing.CreatedAt
		case !errors.Is(err, domain.ErrNotFound):
			return fmt.Errorf("load document %s: %w", doc.ID, err)
		}

		if err := s.store.Put(ctx, doc); err != nil {
			return fmt.Errorf("store document %s: %w", doc.ID, err)
		}
		return nil
	})
	if err != nil {
		return domain.Document{}, err
	}
	s.logger.Info("document uploaded",
		"document_id", doc.ID,
		"institution_id", doc.InstitutionID,
		"title", doc.Title)

	return s.schedule(ctx, doc)
}

// Get returns the stored document, domain.ErrNotFound if there is none.
func (s *DocumentService) Get(ctx context.Context, id string) (domain.Document, error) {
	return s.store.Get(ctx, id)
}

// List returns an institution's documents, oldest first.
func (s *DocumentService) List(ctx context.Context, institutionID string) ([]domain.Document, error) {
	return s.store.ListByInstitution(ctx, institutionID)
}

// Delete removes a document and its passages.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	return s.ingest.Delete(ctx, id)
}

// Reingest schedules a fresh ingestion of a stored document. A non-nil text
// replaces the stored text first.
func (s *DocumentService) Reingest(ctx context.Context, id string, text *string) (domain.Document, error) {
	var doc domain.Document
	err := s.ingest.withDocumentLock(id, func() error {
		var err error
		doc, err = s.store.Get(ctx, id)
		if err != nil {
			return err
		}
		if text != nil {
			doc.Text = *text
		}
		doc.State = domain.StateUnprocessed
		doc.FailureReason = ""
		doc.UpdatedAt = s.now()

		if err := s.store.Put(ctx, doc); err != nil {
			return fmt.Errorf("store document %s: %w", doc.ID, err)
		}
		return nil
	})
	if err != nil {
		return domain.Document{}, err
	}
	return s.schedule(ctx, doc)
}

func (s *DocumentService) schedule(ctx context.Context, doc domain.Document) (domain.Document, error) {
	if s.scheduler != nil {
		if err := s.scheduler.Enqueue(ctx, doc.ID); err != nil {
			return doc, fmt.Errorf("schedule ingestion of %s: %w", doc.ID, err)
		}
		return doc, nil
	}

	// the outcome is recorded on the document
	_ = s.ingest.Ingest(ctx, doc.ID)
	return s.store.Get(ctx, doc.ID)
}

// RebuildIndex re-ingests every stored document of institutionID, or of all
// institutions when it is empty. The index lives in memory, so this is how a
// restarted process becomes searchable again.
func (s *DocumentService) RebuildIndex(ctx context.Context, institutionID string, progress func(done, total int)) (RebuildResult, error) {
	start := time.Now()

	var (
		docs []domain.Document
		err  error
	)
	if institutionID == "" {
		docs, err = s.store.List(ctx)
	} else {
		docs, err = s.store.ListByInstitution(ctx, institutionID)
	}
	if err != nil {
		return RebuildResult{}, fmt.Errorf("list documents: %w", err)
	}

	result := RebuildResult{Documents: len(docs)}
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := s.ingest.Ingest(ctx, doc.ID); err != nil {
			result.Failed++
		} else {
			result.Processed++
		}
		if progress != nil {
			progress(i+1, len(docs))
		}
	}
	result.Duration = time.Since(start)

	s.logger.Info("index rebuilt",
		"institution_id", institutionID,
		"documents", result.Documents,
		"processed", result.Processed,
		"failed", result.Failed,
		"duration", result.Duration)
	return result, nil
}

// Stats reports the index partition of an institution.
func (s *DocumentService) Stats(institutionID string) domain.IndexStats {
	return s.index.Stats(institutionID)
}
