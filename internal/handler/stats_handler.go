package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/markdesk/markdesk-api/internal/service"
	"github.com/markdesk/markdesk-api/internal/utils"
)

// StatsHandler wires mark distribution and rubric usage endpoints.
type StatsHandler struct {
	service service.StatsService
	logger  zerolog.Logger
}

// NewStatsHandler constructs a statistics handler.
func NewStatsHandler(service service.StatsService, logger zerolog.Logger) *StatsHandler {
	return &StatsHandler{
		service: service,
		logger:  logger.With().Str("component", "stats_handler").Logger(),
	}
}

// Register binds statistics routes under the provided router group.
func (h *StatsHandler) Register(router fiber.Router) {
	router.Get("/questions", h.allQuestions)
	router.Get("/questions/:question", h.question)
	router.Get("/questions/:question/usage", h.usage)
	router.Get("/totals", h.totals)
	router.Get("/histogram", h.histogram)
}

func (h *StatsHandler) allQuestions(c *fiber.Ctx) error {
	result, err := h.service.AllQuestionStats(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err, "failed to compute question statistics")
	}
	return utils.SendSuccess(c, "question statistics retrieved", result)
}

func (h *StatsHandler) question(c *fiber.Ctx) error {
	question, err := strconv.Atoi(c.Params("question"))
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid question number")
	}

	result, err := h.service.QuestionStats(c.Context(), c.Params("id"), question)
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err, "failed to compute question statistics")
	}
	return utils.SendSuccess(c, "question statistics retrieved", result)
}

func (h *StatsHandler) usage(c *fiber.Ctx) error {
	question, err := strconv.Atoi(c.Params("question"))
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid question number")
	}

	result, err := h.service.Usage(c.Context(), c.Params("id"), question)
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err, "failed to compute rubric usage")
	}
	return utils.SendSuccess(c, "rubric usage retrieved", result)
}

func (h *StatsHandler) totals(c *fiber.Ctx) error {
	result, err := h.service.Totals(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err, "failed to compute totals")
	}
	return utils.SendSuccess(c, "totals retrieved", result)
}

func (h *StatsHandler) histogram(c *fiber.Ctx) error {
	result, err := h.service.Histogram(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err, "failed to compute score histogram")
	}
	return utils.SendSuccess(c, "score histogram retrieved", result)
}
