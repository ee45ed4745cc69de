package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/markdesk/markdesk-api/internal/service"
	"github.com/markdesk/markdesk-api/internal/utils"
)

// ScriptHandler wires script upload, listing and page render endpoints.
type ScriptHandler struct {
	scripts service.ScriptService
	render  service.RenderService
	logger  zerolog.Logger
}

// NewScriptHandler constructs a script handler.
func NewScriptHandler(scripts service.ScriptService, render service.RenderService, logger zerolog.Logger) *ScriptHandler {
	return &ScriptHandler{
		scripts: scripts,
		render:  render,
		logger:  logger.With().Str("component", "script_handler").Logger(),
	}
}

// Register binds script routes under the provided router group.
func (h *ScriptHandler) Register(router fiber.Router) {
	router.Post("", h.upload)
	router.Get("", h.list)
	router.Get("/:file/pages/:page", h.page)
}

func (h *ScriptHandler) upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "script file is required")
	}

	result, err := h.scripts.Upload(c.Context(), c.Params("id"), file)
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err, "script upload failed")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "script uploaded", result)
}

func (h *ScriptHandler) list(c *fiber.Ctx) error {
	result, err := h.scripts.List(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err, "failed to list scripts")
	}
	return utils.SendSuccess(c, "scripts retrieved", result)
}

func (h *ScriptHandler) page(c *fiber.Ctx) error {
	page, err := strconv.Atoi(c.Params("page"))
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page number")
	}
	mode, err := parseQueryInt(c, "mode")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid render mode")
	}

	data, contentType, err := h.render.Page(c.Context(), c.Params("id"), c.Params("file"), page, mode)
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err, "failed to render page")
	}

	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(data)
}
