package api

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"edurag/internal/domain"
	"edurag/internal/usecase"
)

// Documents is the document lifecycle the HTTP layer drives.
type Documents interface {
	Upload(ctx context.Context, req usecase.UploadRequest) (domain.Document, error)
	Get(ctx context.Context, id string) (domain.Document, error)
	List(ctx context.Context, institutionID string) ([]domain.Document, error)
	Delete(ctx context.Context, id string) error
	Reingest(ctx context.Context, id string, text *string) (domain.Document, error)
	Stats(institutionID string) domain.IndexStats
}

// Answerer composes grounded answers.
type Answerer interface {
	Answer(ctx context.Context, institutionID, query string, k int) (domain.Answer, error)
}

type DocumentHandler struct {
	docs Documents
}

func NewDocumentHandler(docs Documents) *DocumentHandler {
	return &DocumentHandler{docs: docs}
}

func (h *DocumentHandler) HandleUpload(c *fiber.Ctx) error {
	var params UploadParams
	if err := c.BodyParser(&params); err != nil {
		return ErrBadRequest()
	}
	if errs := validateStruct(&params); len(errs) > 0 {
		return NewValidationError(errs)
	}

	doc, err := h.docs.Upload(c.UserContext(), usecase.UploadRequest{
		ID:            params.ID,
		InstitutionID: c.Params("institution_id"),
		Title:         params.Title,
		Description:   params.Description,
		FileURL:       params.FileURL,
		UploadedBy:    params.UploadedBy,
		Text:          params.Text,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(newDocumentResponse(doc))
}

func (h *DocumentHandler) HandleList(c *fiber.Ctx) error {
	docs, err := h.docs.List(c.UserContext(), c.Params("institution_id"))
	if err != nil {
		return err
	}
	resp := make([]DocumentResponse, len(docs))
	for i, doc := range docs {
		resp[i] = newDocumentResponse(doc)
	}
	return c.JSON(resp)
}

func (h *DocumentHandler) HandleGet(c *fiber.Ctx) error {
	id := c.Params("document_id")
	doc, err := h.docs.Get(c.UserContext(), id)
	if errors.Is(err, domain.ErrNotFound) {
		return ErrNotFound(id, "document")
	}
	if err != nil {
		return err
	}
	return c.JSON(newDocumentResponse(doc))
}

func (h *DocumentHandler) HandleDelete(c *fiber.Ctx) error {
	id := c.Params("document_id")
	err := h.docs.Delete(c.UserContext(), id)
	if errors.Is(err, domain.ErrNotFound) {
		return ErrNotFound(id, "document")
	}
	if err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *DocumentHandler) HandleReingest(c *fiber.Ctx) error {
	var params ReingestParams
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&params); err != nil {
			return ErrBadRequest()
		}
	}

	id := c.Params("document_id")
	doc, err := h.docs.Reingest(c.UserContext(), id, params.Text)
	if errors.Is(err, domain.ErrNotFound) {
		return ErrNotFound(id, "document")
	}
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(newDocumentResponse(doc))
}

func (h *DocumentHandler) HandleStats(c *fiber.Ctx) error {
	return c.JSON(h.docs.Stats(c.Params("institution_id")))
}

type ChatHandler struct {
	answerer Answerer
}

func NewChatHandler(answerer Answerer) *ChatHandler {
	return &ChatHandler{answerer: answerer}
}

// HandleQuery accepts the question as a JSON body or as ?query=&top_k= parameters.
func (h *ChatHandler) HandleQuery(c *fiber.Ctx) error {
	var params QueryParams
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&params); err != nil {
			return ErrBadRequest()
		}
	}
	if params.Query == "" {
		params.Query = c.Query("query")
	}
	if params.TopK == 0 {
		params.TopK = c.QueryInt("top_k", 0)
	}
	if errs := validateStruct(&params); len(errs) > 0 {
		return NewValidationError(errs)
	}

	institutionID := c.Params("institution_id")
	ans, err := h.answerer.Answer(c.UserContext(), institutionID, params.Query, params.TopK)
	if err != nil {
		return err
	}
	return c.JSON(QueryResponse{
		Success:       true,
		Answer:        ans.Text,
		Sources:       ans.Sources,
		InstitutionID: institutionID,
	})
}

type CheckHandler struct{}

func NewCheckHandler() *CheckHandler {
	return &CheckHandler{}
}

func (h *CheckHandler) HandleHealthy(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
