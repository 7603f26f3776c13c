package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/ceu-go-api/internal/middleware"
	"github.com/noah-isme/ceu-go-api/internal/service"
	"github.com/noah-isme/ceu-go-api/internal/utils"
)

func learnerFromContext(c *fiber.Ctx) (service.Learner, bool) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return service.Learner{}, false
	}
	return service.Learner{UserID: identity.UserID, Email: identity.Email}, true
}

func parsePathUint(c *fiber.Ctx, key string) (uint, error) {
	value := strings.TrimSpace(c.Params(key))
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid identifier")
	}
	return uint(parsed), nil
}

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

// handleError maps service errors onto HTTP statuses.
func handleError(c *fiber.Ctx, logger zerolog.Logger, err error, fallback string) error {
	switch {
	case isValidationError(err):
		return utils.SendValidationError(c, err)
	case errors.Is(err, service.ErrCourseIDRequired):
		return utils.SendError(c, fiber.StatusBadRequest, "courseId is required")
	case errors.Is(err, service.ErrUserIDRequired):
		return utils.SendError(c, fiber.StatusBadRequest, "userId is required")
	case errors.Is(err, service.ErrInvalidCertificateNumber):
		return utils.SendError(c, fiber.StatusBadRequest, "invalid certificate number format")
	case errors.Is(err, service.ErrQuizScoreRequired):
		return utils.SendError(c, fiber.StatusBadRequest, "quiz_score or total_questions is required")
	case errors.Is(err, service.ErrEnrollmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "no active enrollment for this course")
	case errors.Is(err, service.ErrCourseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "course not found")
	case errors.Is(err, service.ErrProgressNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "progress not found")
	case errors.Is(err, service.ErrCertificateNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "certificate not found")
	case errors.Is(err, service.ErrAlreadyEnrolled):
		return utils.SendError(c, fiber.StatusConflict, "user is already enrolled in this course")
	case errors.Is(err, service.ErrCompletionNotReady):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	default:
		requestLogger(logger, c).Error().Err(err).Str("route", c.Path()).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}

func chain(handlers ...fiber.Handler) []fiber.Handler {
	out := make([]fiber.Handler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}
