package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/markdesk/markdesk-api/internal/service"
)

// ActivityHandler wires the live session feed websocket.
type ActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewActivityHandler constructs an activity handler.
func NewActivityHandler(service service.ActivityService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register binds the websocket upgrade under the provided router group.
func (h *ActivityHandler) Register(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("session_id", c.Params("id"))
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/ws", websocket.New(h.handleConnection))
}

func (h *ActivityHandler) handleConnection(conn *websocket.Conn) {
	sessionID, _ := conn.Locals("session_id").(string)
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(fiber.StatusBadRequest, "session id missing"))
		_ = conn.Close()
		return
	}

	events, cleanup := h.service.Subscribe(sessionID)
	defer cleanup()

	h.logger.Info().Str("session_id", sessionID).Msg("activity websocket connected")
	defer h.logger.Info().Str("session_id", sessionID).Msg("activity websocket disconnected")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
