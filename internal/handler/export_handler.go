package handler

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/markdesk/markdesk-api/internal/service"
)

// ExportHandler wires the moderation report download.
type ExportHandler struct {
	service service.ExportService
	logger  zerolog.Logger
}

// NewExportHandler constructs an export handler.
func NewExportHandler(service service.ExportService, logger zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		service: service,
		logger:  logger.With().Str("component", "export_handler").Logger(),
	}
}

// Register binds export routes under the provided router group.
func (h *ExportHandler) Register(router fiber.Router) {
	router.Get("/report", h.report)
	router.Get("/scripts/:file", h.studentReport)
}

func (h *ExportHandler) report(c *fiber.Ctx) error {
	pdf, err := h.service.Report(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err, "failed to build report")
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="grading-report.pdf"`)
	return c.Send(pdf)
}

func (h *ExportHandler) studentReport(c *fiber.Ctx) error {
	pdf, filename, err := h.service.StudentReport(c.Context(), c.Params("id"), c.Params("file"))
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err, "failed to build grade report")
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(pdf)
}
