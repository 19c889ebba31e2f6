package handlers

import (
	"errors"

	mw "go-dblog/internal/middleware"
	"go-dblog/internal/pkg/validation"
	"go-dblog/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// LogHandler accepts log records over HTTP and hands them to the sink.
type LogHandler struct {
	ingestService services.IngestService
}

// NewLogHandler creates a new LogHandler
func NewLogHandler(ingestService services.IngestService) *LogHandler {
	return &LogHandler{ingestService: ingestService}
}

// Ingest handles POST /logs requests
func (h *LogHandler) Ingest(c *fiber.Ctx) error {
	var req services.IngestRequest
	fileLogger := mw.GetRequestFileLogger(c)

	if !validation.ParseAndValidate(c, &req) {
		fileLogger.Warn("Log ingestion request validation failed or bad request body")
		return nil
	}

	result, err := h.ingestService.Ingest(c.UserContext(), req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidLevel) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		fileLogger.Error("Failed to store log record", zap.String("channel", req.Channel), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store log record",
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"level":   result.Level.String(),
		"handled": result.Handled,
		"stopped": result.Stopped,
	})
}

// SetupLogRoutes registers the ingestion route behind the given middleware.
func (h *LogHandler) SetupLogRoutes(router fiber.Router, protected fiber.Handler) {
	router.Post("/logs", protected, h.Ingest)
}
