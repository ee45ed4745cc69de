package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/markdesk/markdesk-api/internal/grading"
	"github.com/markdesk/markdesk-api/internal/middleware"
	"github.com/markdesk/markdesk-api/internal/service"
	"github.com/markdesk/markdesk-api/internal/session"
	"github.com/markdesk/markdesk-api/internal/utils"
	"github.com/markdesk/markdesk-api/pkg/pdfpage"
)

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func pageRefFromParams(c *fiber.Ctx) grading.PageRef {
	return grading.PageRef{File: c.Params("file"), Page: c.Params("page")}
}

// respondError translates service-layer failures into HTTP responses. The
// fallback message covers unexpected errors without leaking internals.
func respondError(c *fiber.Ctx, logger *zerolog.Logger, err error, fallback string) error {
	switch {
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, grading.ErrItemNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, grading.ErrSchemeOverflow),
		errors.Is(err, grading.ErrUnknownQuestion),
		errors.Is(err, grading.ErrInvalidTotal),
		errors.Is(err, grading.ErrInvalidMarks),
		errors.Is(err, grading.ErrEmptyDescription),
		errors.Is(err, service.ErrPageNotConfigured),
		errors.Is(err, service.ErrUnknownRenderMode),
		errors.Is(err, service.ErrUploadNotPDF),
		errors.Is(err, service.ErrStudentNumberRequired),
		errors.Is(err, pdfpage.ErrPageOutOfRange):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUploadTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrExportEmpty):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	default:
		logger.Error().Err(err).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}
