package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"edurag/internal/domain"
)

var (
	bucketDocs     = []byte("docs")
	bucketInstDocs = []byte("inst_docs")
	bucketMeta     = []byte("meta")
)

// BoltStore keeps document records in a single bbolt file.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketDocs, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &BoltStore{db: db}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

type docRecord struct {
	InstitutionID string                 `json:"institution_id"`
	Title         string                 `json:"title"`
	Description   string                 `json:"description,omitempty"`
	FileURL       string                 `json:"file_url,omitempty"`
	UploadedBy    string                 `json:"uploaded_by,omitempty"`
	Text          string                 `json:"text"`
	State         domain.ProcessingState `json:"state"`
	FailureReason string                 `json:"failure_reason,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

func toRecord(doc domain.Document) docRecord {
	return docRecord{
		InstitutionID: doc.InstitutionID,
		Title:         doc.Title,
		Description:   doc.Description,
		FileURL:       doc.FileURL,
		UploadedBy:    doc.UploadedBy,
		Text:          doc.Text,
		State:         doc.State,
		FailureReason: doc.FailureReason,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
}

func (r docRecord) document(id string) domain.Document {
	return domain.Document{
		ID:            id,
		InstitutionID: r.InstitutionID,
		Title:         r.Title,
		Description:   r.Description,
		FileURL:       r.FileURL,
		UploadedBy:    r.UploadedBy,
		Text:          r.Text,
		State:         r.State,
		FailureReason: r.FailureReason,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// instKey orders documents by institution in the inst_docs bucket.
func instKey(institutionID, docID string) []byte {
	return []byte(institutionID + "\x00" + docID)
}

func getRecord(tx *bbolt.Tx, id string) (docRecord, error) {
	var rec docRecord
	data := tx.Bucket(bucketDocs).Get([]byte(id))
	if data == nil {
		return rec, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("decode document %s: %w", id, err)
	}
	return rec, nil
}

func putRecord(tx *bbolt.Tx, id string, rec docRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return tx.Bucket(bucketDocs).Put([]byte(id), data)
}

func (s *BoltStore) Put(_ context.Context, doc domain.Document) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if old, err := getRecord(tx, doc.ID); err == nil && old.InstitutionID != doc.InstitutionID {
			if err := tx.Bucket(bucketInstDocs).Delete(instKey(old.InstitutionID, doc.ID)); err != nil {
				return err
			}
		}
		if err := putRecord(tx, doc.ID, toRecord(doc)); err != nil {
			return err
		}
		return tx.Bucket(bucketInstDocs).Put(instKey(doc.InstitutionID, doc.ID), []byte{})
	})
}

func (s *BoltStore) Get(_ context.Context, id string) (domain.Document, error) {
	var doc domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		rec, err := getRecord(tx, id)
		if err != nil {
			return err
		}
		doc = rec.document(id)
		return nil
	})
	return doc, err
}

func (s *BoltStore) List(_ context.Context) ([]domain.Document, error) {
	var docs []domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocs).ForEach(func(k, v []byte) error {
			var rec docRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode document %s: %w", k, err)
			}
			docs = append(docs, rec.document(string(k)))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortDocuments(docs)
	return docs, nil
}

func (s *BoltStore) ListByInstitution(_ context.Context, institutionID string) ([]domain.Document, error) {
	var docs []domain.Document
	prefix := instKey(institutionID, "")
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketInstDocs).Cursor()
		for k, _ := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, _ = c.Next() {
			id := string(k[len(prefix):])
			rec, err := getRecord(tx, id)
			if err != nil {
				return err
			}
			docs = append(docs, rec.document(id))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortDocuments(docs)
	return docs, nil
}

func (s *BoltStore) SetState(_ context.Context, id string, state domain.ProcessingState, reason string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		rec, err := getRecord(tx, id)
		if err != nil {
			return err
		}
		rec.State = state
		rec.FailureReason = reason
		rec.UpdatedAt = time.Now().UTC()
		return putRecord(tx, id, rec)
	})
}

func (s *BoltStore) Delete(_ context.Context, id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		rec, err := getRecord(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketInstDocs).Delete(instKey(rec.InstitutionID, id)); err != nil {
			return err
		}
		return tx.Bucket(bucketDocs).Delete([]byte(id))
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func hasPrefix(k, prefix []byte) bool {
	return len(k) >= len(prefix) && string(k[:len(prefix)]) == string(prefix)
}

// sortDocuments orders by creation time, then id.
func sortDocuments(docs []domain.Document) {
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.Before(docs[j].CreatedAt)
		}
		return docs[i].ID < docs[j].ID
	})
}
