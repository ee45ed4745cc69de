package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/markdesk/markdesk-api/internal/dto"
	"github.com/markdesk/markdesk-api/internal/service"
	"github.com/markdesk/markdesk-api/internal/utils"
)

// SchemeHandler wires marking scheme endpoints.
type SchemeHandler struct {
	service service.SchemeService
	logger  zerolog.Logger
}

// NewSchemeHandler constructs a scheme handler.
func NewSchemeHandler(service service.SchemeService, logger zerolog.Logger) *SchemeHandler {
	return &SchemeHandler{
		service: service,
		logger:  logger.With().Str("component", "scheme_handler").Logger(),
	}
}

// Register binds scheme routes under the provided router group.
func (h *SchemeHandler) Register(router fiber.Router) {
	router.Get("", h.get)
	router.Put("/total", h.setTotal)
	router.Put("/questions", h.setQuestionCount)
	router.Put("/questions/marks", h.setQuestionMarks)
}

func (h *SchemeHandler) get(c *fiber.Ctx) error {
	result, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err, "failed to load scheme")
	}
	return utils.SendSuccess(c, "scheme retrieved", result)
}

func (h *SchemeHandler) setTotal(c *fiber.Ctx) error {
	var payload dto.SchemeTotalRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.SetTotal(c.Context(), c.Params("id"), payload)
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err, "failed to update total")
	}
	return utils.SendSuccess(c, "total updated", result)
}

func (h *SchemeHandler) setQuestionCount(c *fiber.Ctx) error {
	var payload dto.SchemeQuestionCountRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.SetQuestionCount(c.Context(), c.Params("id"), payload)
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err, "failed to update question count")
	}
	return utils.SendSuccess(c, "question count updated", result)
}

func (h *SchemeHandler) setQuestionMarks(c *fiber.Ctx) error {
	var payload dto.SchemeQuestionMarksRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.SetQuestionMarks(c.Context(), c.Params("id"), payload)
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err, "failed to allocate marks")
	}
	return utils.SendSuccess(c, "marks allocated", result)
}
