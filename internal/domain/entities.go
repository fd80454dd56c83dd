package domain

import "time"

// ProcessingState tracks how far ingestion got for a document.
type ProcessingState string

const (
	StateUnprocessed ProcessingState = "unprocessed"
	StateProcessed   ProcessingState = "processed"
	StateFailed      ProcessingState = "failed"
)

// Valid reports whether s is one of the known states.
func (s ProcessingState) Valid() bool {
	switch s {
	case StateUnprocessed, StateProcessed, StateFailed:
		return true
	}
	return false
}

// Document is an uploaded source owned by an institution.
type Document struct {
	ID            string          `json:"id"`
	InstitutionID string          `json:"institution_id"`
	Title         string          `json:"title"`
	Description   string          `json:"description,omitempty"`
	FileURL       string          `json:"file_url,omitempty"`
	UploadedBy    string          `json:"uploaded_by,omitempty"`
	Text          string          `json:"-"`
	State         ProcessingState `json:"state"`
	FailureReason string          `json:"failure_reason,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// IsProcessed mirrors the is_processed flag reported to API clients.
func (d Document) IsProcessed() bool {
	return d.State == StateProcessed
}

// Passage is one chunk of a document together with its embedding.
type Passage struct {
	ID            string
	DocumentID    string
	DocumentTitle string
	InstitutionID string
	Ordinal       int
	Text          string
	Vector        []float32
}

type ScoredPassage struct {
	Passage Passage
	Score   float64
}

// Source is a citation attached to an answer.
type Source struct {
	DocumentID string `json:"id"`
	Title      string `json:"title"`
}

// Answer is a grounded response for one institution-scoped question.
type Answer struct {
	Text          string   `json:"answer"`
	Sources       []Source `json:"sources"`
	InstitutionID string   `json:"institution_id"`
}

// IndexStats summarizes one institution partition.
type IndexStats struct {
	InstitutionID string `json:"institution_id"`
	Documents     int    `json:"documents"`
	Passages      int    `json:"passages"`
	Dimension     int    `json:"dimension"`
}
