package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"edurag/internal/domain"
)

var validate = validator.New()

// validateStruct returns field -> failed tag, or nil when v is valid.
func validateStruct(v any) map[string]string {
	if err := validate.Struct(v); err != nil {
		var errs validator.ValidationErrors
		if !errors.As(err, &errs) {
			return map[string]string{"request": err.Error()}
		}
		out := make(map[string]string, len(errs))
		for _, e := range errs {
			out[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
		}
		return out
	}
	return nil
}

type UploadParams struct {
	ID          string `json:"id" validate:"omitempty,max=128"`
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"max=2000"`
	FileURL     string `json:"file_url" validate:"omitempty,url"`
	UploadedBy  string `json:"uploaded_by" validate:"max=128"`
	Text        string `json:"text"`
}

type ReingestParams struct {
	Text *string `json:"text"`
}

type QueryParams struct {
	Query string `json:"query" validate:"required,max=2000"`
	TopK  int    `json:"top_k" validate:"gte=0,lte=50"`
}

type DocumentResponse struct {
	ID            string                 `json:"id"`
	InstitutionID string                 `json:"institution_id"`
	Title         string                 `json:"title"`
	Description   string                 `json:"description,omitempty"`
	FileURL       string                 `json:"file_url,omitempty"`
	UploadedBy    string                 `json:"uploaded_by,omitempty"`
	IsProcessed   bool                   `json:"is_processed"`
	State         domain.ProcessingState `json:"state"`
	FailureReason string                 `json:"failure_reason,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

func newDocumentResponse(doc domain.Document) DocumentResponse {
	return DocumentResponse{
		ID:            doc.ID,
		InstitutionID: doc.InstitutionID,
		Title:         doc.Title,
		Description:   doc.Description,
		FileURL:       doc.FileURL,
		UploadedBy:    doc.UploadedBy,
		IsProcessed:   doc.IsProcessed(),
		State:         doc.State,
		FailureReason: doc.FailureReason,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
}

type QueryResponse struct {
	Success       bool            `json:"success"`
	Answer        string          `json:"answer"`
	Sources       []domain.Source `json:"sources"`
	InstitutionID string          `json:"institution_id"`
}
