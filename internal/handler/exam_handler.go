package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/ceu-go-api/internal/dto"
	"github.com/noah-isme/ceu-go-api/internal/service"
	"github.com/noah-isme/ceu-go-api/internal/utils"
)

// ExamHandler records exam submissions.
type ExamHandler struct {
	service service.ExamService
	logger  zerolog.Logger
}

// NewExamHandler constructs an exam handler.
func NewExamHandler(service service.ExamService, logger zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		service: service,
		logger:  logger.With().Str("component", "exam_handler").Logger(),
	}
}

// Register wires exam routes.
func (h *ExamHandler) Register(router fiber.Router, script fiber.Handler) {
	router.Post("/submit", append(chain(script), h.submit)...)
}

func (h *ExamHandler) submit(c *fiber.Ctx) error {
	learner, ok := learnerFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var payload dto.ExamSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.Submit(c.UserContext(), learner, payload)
	if err != nil {
		return handleError(c, h.logger, err, "failed to record exam result")
	}
	return utils.SendJSON(c, fiber.StatusOK, dto.ExamSubmitResponse{Success: true, ExamResult: result})
}
