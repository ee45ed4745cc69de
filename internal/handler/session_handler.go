package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/markdesk/markdesk-api/internal/dto"
	"github.com/markdesk/markdesk-api/internal/middleware"
	"github.com/markdesk/markdesk-api/internal/service"
	"github.com/markdesk/markdesk-api/internal/utils"
)

// SessionHandler wires grading session lifecycle endpoints.
type SessionHandler struct {
	service service.SessionService
	logger  zerolog.Logger
}

// NewSessionHandler constructs a session handler.
func NewSessionHandler(service service.SessionService, logger zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		service: service,
		logger:  logger.With().Str("component", "session_handler").Logger(),
	}
}

// Register binds session routes under the provided router group.
func (h *SessionHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("", h.list)
	router.Post("/:id/open", h.open)
	router.Post("/:id/checkpoint", h.checkpoint)
	router.Get("/:id/state", h.export)
	router.Put("/:id/state", h.importState)
	router.Delete("/:id", h.close)
}

func (h *SessionHandler) create(c *fiber.Ctx) error {
	var payload dto.SessionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Create(c.Context(), middleware.GraderID(c), payload)
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err, "failed to create session")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "session created", result)
}

func (h *SessionHandler) list(c *fiber.Ctx) error {
	result, err := h.service.List(c.Context())
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err, "failed to list sessions")
	}
	return utils.SendSuccess(c, "sessions retrieved", result)
}

func (h *SessionHandler) open(c *fiber.Ctx) error {
	result, err := h.service.Open(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err, "failed to open session")
	}
	return utils.SendSuccess(c, "session opened", result)
}

func (h *SessionHandler) checkpoint(c *fiber.Ctx) error {
	if err := h.service.Checkpoint(c.Context(), c.Params("id")); err != nil {
		return respondError(c, requestLogger(h.logger, c), err, "failed to checkpoint session")
	}
	return utils.SendSuccess(c, "session checkpointed", nil)
}

func (h *SessionHandler) export(c *fiber.Ctx) error {
	state, err := h.service.Export(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err, "failed to export session state")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="session-state.json"`)
	return c.Send(state)
}

func (h *SessionHandler) importState(c *fiber.Ctx) error {
	if err := h.service.Import(c.Context(), c.Params("id"), c.Body()); err != nil {
		logger := requestLogger(h.logger, c)
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		return respondError(c, logger, err, "failed to import session state")
	}
	return utils.SendSuccess(c, "session state imported", nil)
}

func (h *SessionHandler) close(c *fiber.Ctx) error {
	if err := h.service.Close(c.Context(), c.Params("id")); err != nil {
		return respondError(c, requestLogger(h.logger, c), err, "failed to close session")
	}
	return utils.SendSuccess(c, "session closed", nil)
}
