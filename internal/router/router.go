package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/markdesk/markdesk-api/internal/config"
	"github.com/markdesk/markdesk-api/internal/handler"
	"github.com/markdesk/markdesk-api/internal/middleware"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	SessionHandler  *handler.SessionHandler
	SchemeHandler   *handler.SchemeHandler
	ScriptHandler   *handler.ScriptHandler
	RubricHandler   *handler.RubricHandler
	GradingHandler  *handler.GradingHandler
	StatsHandler    *handler.StatsHandler
	ExportHandler   *handler.ExportHandler
	ActivityHandler *handler.ActivityHandler
	JWTMiddleware   fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	sessions := app.Group("/api/v2/sessions", jwtMiddleware)
	if deps.SessionHandler != nil {
		deps.SessionHandler.Register(sessions)
	}

	// Everything below operates on one open session.
	if deps.SchemeHandler != nil {
		deps.SchemeHandler.Register(sessions.Group("/:id/scheme"))
	}
	if deps.ScriptHandler != nil {
		deps.ScriptHandler.Register(sessions.Group("/:id/scripts", middleware.RateLimit("scripts", 60, time.Minute)))
	}
	if deps.RubricHandler != nil {
		deps.RubricHandler.Register(sessions.Group("/:id/rubric"))
	}
	if deps.GradingHandler != nil {
		deps.GradingHandler.Register(sessions.Group("/:id/grading"))
	}
	if deps.StatsHandler != nil {
		deps.StatsHandler.Register(sessions.Group("/:id/stats"))
	}
	if deps.ExportHandler != nil {
		deps.ExportHandler.Register(sessions.Group("/:id/export", middleware.RateLimit("export", 10, time.Minute)))
	}
	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(sessions.Group("/:id/activity"))
	}
}
