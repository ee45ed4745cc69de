package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/markdesk/markdesk-api/internal/dto"
	"github.com/markdesk/markdesk-api/internal/service"
	"github.com/markdesk/markdesk-api/internal/utils"
)

// RubricHandler wires rubric item and propagation endpoints.
type RubricHandler struct {
	service service.RubricService
	logger  zerolog.Logger
}

// NewRubricHandler constructs a rubric handler.
func NewRubricHandler(service service.RubricService, logger zerolog.Logger) *RubricHandler {
	return &RubricHandler{
		service: service,
		logger:  logger.With().Str("component", "rubric_handler").Logger(),
	}
}

// Register binds rubric routes under the provided router group.
func (h *RubricHandler) Register(router fiber.Router) {
	router.Get("/pages/:file/:page/items", h.list)
	router.Post("/items", h.add)
	router.Put("/pages/:file/:page/items/:idx", h.edit)
	router.Delete("/pages/:file/:page/items/:idx", h.remove)
	router.Get("/proposal", h.pending)
	router.Post("/proposal/resolve", h.resolve)
	router.Get("/suggest", h.suggest)
}

func (h *RubricHandler) list(c *fiber.Ctx) error {
	result, err := h.service.List(c.Context(), c.Params("id"), pageRefFromParams(c))
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err, "failed to list rubric items")
	}
	return utils.SendSuccess(c, "rubric items retrieved", result)
}

func (h *RubricHandler) add(c *fiber.Ctx) error {
	var payload dto.RubricItemCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Add(c.Context(), c.Params("id"), payload)
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err, "failed to add rubric item")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "rubric item added", result)
}

func (h *RubricHandler) edit(c *fiber.Ctx) error {
	itemIdx, err := strconv.Atoi(c.Params("idx"))
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid item index")
	}

	var payload dto.RubricItemEditRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Edit(c.Context(), c.Params("id"), pageRefFromParams(c), itemIdx, payload)
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err, "failed to edit rubric item")
	}
	return utils.SendSuccess(c, "rubric item updated", result)
}

func (h *RubricHandler) remove(c *fiber.Ctx) error {
	itemIdx, err := strconv.Atoi(c.Params("idx"))
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid item index")
	}

	if err := h.service.Delete(c.Context(), c.Params("id"), pageRefFromParams(c), itemIdx); err != nil {
		return respondError(c, requestLogger(h.logger, c), err, "failed to delete rubric item")
	}
	return utils.SendSuccess(c, "rubric item deleted", nil)
}

func (h *RubricHandler) pending(c *fiber.Ctx) error {
	result, err := h.service.Pending(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err, "failed to load proposal")
	}
	return utils.SendSuccess(c, "proposal retrieved", result)
}

func (h *RubricHandler) resolve(c *fiber.Ctx) error {
	var payload dto.ResolveRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Resolve(c.Context(), c.Params("id"), payload)
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err, "failed to resolve proposal")
	}
	return utils.SendSuccess(c, "proposal resolved", result)
}

func (h *RubricHandler) suggest(c *fiber.Ctx) error {
	marks, err := parseQueryInt(c, "marks")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid marks")
	}
	question, err := parseQueryInt(c, "question")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid question")
	}

	description, err := h.service.Suggest(c.Context(), c.Params("id"), marks, question)
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err, "failed to suggest description")
	}
	return utils.SendSuccess(c, "suggestion generated", fiber.Map{"description": description})
}
