package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

type Server struct {
	listenAddr string
	app        *fiber.App
	logger     *slog.Logger
}

// NewServer registers every route on a fresh fiber app.
func NewServer(addr string, docs Documents, answerer Answerer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		app = fiber.New(fiber.Config{
			ErrorHandler:          NewErrorHandler(logger),
			DisableStartupMessage: true,
		})
		checkHandler    = NewCheckHandler()
		documentHandler = NewDocumentHandler(docs)
		chatHandler     = NewChatHandler(answerer)
		check           = app.Group("/check")
		apiv1           = app.Group("/api/v1", requestLogger(logger))
	)

	check.Get("/healthy", checkHandler.HandleHealthy)

	apiv1.Post("/institutions/:institution_id/documents", documentHandler.HandleUpload)
	apiv1.Get("/institutions/:institution_id/documents", documentHandler.HandleList)
	apiv1.Get("/institutions/:institution_id/index/stats", documentHandler.HandleStats)
	apiv1.Post("/institutions/:institution_id/chatbot/query", chatHandler.HandleQuery)
	apiv1.Get("/documents/:document_id", documentHandler.HandleGet)
	apiv1.Delete("/documents/:document_id", documentHandler.HandleDelete)
	apiv1.Post("/documents/:document_id/reingest", documentHandler.HandleReingest)

	return &Server{
		listenAddr: addr,
		app:        app,
		logger:     logger,
	}
}

// App exposes the fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run blocks serving requests until Shutdown.
func (s *Server) Run() error {
	s.logger.Info("server listening", "addr", s.listenAddr)
	return s.app.Listen(s.listenAddr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	err := s.app.ShutdownWithContext(ctx)
	s.logger.Info("server stopped")
	return err
}

func requestLogger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		if err := c.Next(); err != nil {
			// render the error now so the logged status is the one sent
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		logger.Debug("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration", time.Since(start))
		return nil
	}
}
