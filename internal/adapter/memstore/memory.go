package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"edurag/internal/domain"
)

// MemoryStore keeps document records in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	docs     map[string]domain.Document
	instDocs map[string]map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:     make(map[string]domain.Document),
		instDocs: make(map[string]map[string]struct{}),
	}
}

func (s *MemoryStore) Put(_ context.Context, doc domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.docs[doc.ID]; ok && old.InstitutionID != doc.InstitutionID {
		delete(s.instDocs[old.InstitutionID], doc.ID)
	}
	s.docs[doc.ID] = doc
	ids, ok := s.instDocs[doc.InstitutionID]
	if !ok {
		ids = make(map[string]struct{})
		s.instDocs[doc.InstitutionID] = ids
	}
	ids[doc.ID] = struct{}{}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return domain.Document{}, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return doc, nil
}

func (s *MemoryStore) List(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]domain.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		docs = append(docs, doc)
	}
	sortDocuments(docs)
	return docs, nil
}

func (s *MemoryStore) ListByInstitution(_ context.Context, institutionID string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.instDocs[institutionID]
	docs := make([]domain.Document, 0, len(ids))
	for id := range ids {
		docs = append(docs, s.docs[id])
	}
	sortDocuments(docs)
	return docs, nil
}

func (s *MemoryStore) SetState(_ context.Context, id string, state domain.ProcessingState, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	doc.State = state
	doc.FailureReason = reason
	doc.UpdatedAt = time.Now().UTC()
	s.docs[id] = doc
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	delete(s.instDocs[doc.InstitutionID], id)
	delete(s.docs, id)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func sortDocuments(docs []domain.Document) {
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.Before(docs[j].CreatedAt)
		}
		return docs[i].ID < docs[j].ID
	})
}
