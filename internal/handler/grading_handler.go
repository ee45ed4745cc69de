package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/markdesk/markdesk-api/internal/dto"
	"github.com/markdesk/markdesk-api/internal/service"
	"github.com/markdesk/markdesk-api/internal/utils"
)

// GradingHandler wires per-script and per-page grading metadata endpoints.
type GradingHandler struct {
	service service.GradingService
	logger  zerolog.Logger
}

// NewGradingHandler constructs a grading handler.
func NewGradingHandler(service service.GradingService, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		service: service,
		logger:  logger.With().Str("component", "grading_handler").Logger(),
	}
}

// Register binds grading routes under the provided router group.
func (h *GradingHandler) Register(router fiber.Router) {
	router.Put("/scripts/:file/student", h.setStudentNumber)
	router.Put("/scripts/:file/pages/:page/question", h.setPageQuestion)
	router.Put("/scripts/:file/pages/:page/score", h.setPageScore)
	router.Get("/scripts/:file/record", h.record)
	router.Post("/scripts/:file/submit", h.submit)
}

func (h *GradingHandler) setStudentNumber(c *fiber.Ctx) error {
	var payload dto.StudentNumberRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.service.SetStudentNumber(c.Context(), c.Params("id"), c.Params("file"), payload); err != nil {
		return respondError(c, requestLogger(h.logger, c), err, "failed to set student number")
	}
	return utils.SendSuccess(c, "student number recorded", nil)
}

func (h *GradingHandler) setPageQuestion(c *fiber.Ctx) error {
	var payload dto.PageQuestionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.service.SetPageQuestion(c.Context(), c.Params("id"), pageRefFromParams(c), payload); err != nil {
		return respondError(c, requestLogger(h.logger, c), err, "failed to set page question")
	}
	return utils.SendSuccess(c, "page question recorded", nil)
}

func (h *GradingHandler) setPageScore(c *fiber.Ctx) error {
	var payload dto.PageScoreRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.service.SetPageScore(c.Context(), c.Params("id"), pageRefFromParams(c), payload); err != nil {
		return respondError(c, requestLogger(h.logger, c), err, "failed to set page score")
	}
	return utils.SendSuccess(c, "page score recorded", nil)
}

func (h *GradingHandler) record(c *fiber.Ctx) error {
	result, err := h.service.Record(c.Context(), c.Params("id"), c.Params("file"))
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err, "failed to load grading record")
	}
	return utils.SendSuccess(c, "grading record retrieved", result)
}

func (h *GradingHandler) submit(c *fiber.Ctx) error {
	if err := h.service.Submit(c.Context(), c.Params("id"), c.Params("file")); err != nil {
		return respondError(c, requestLogger(h.logger, c), err, "failed to submit script")
	}
	return utils.SendSuccess(c, "script submitted", nil)
}
