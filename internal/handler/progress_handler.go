package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/ceu-go-api/internal/dto"
	"github.com/noah-isme/ceu-go-api/internal/service"
	"github.com/noah-isme/ceu-go-api/internal/utils"
)

// ProgressRoutes are the per-route guards for the progress endpoints.
type ProgressRoutes struct {
	Script        fiber.Handler
	UpdateLimit   fiber.Handler
	CompleteLimit fiber.Handler
}

// ProgressHandler serves the learner progress endpoints.
type ProgressHandler struct {
	service service.ProgressService
	logger  zerolog.Logger
}

// NewProgressHandler constructs a progress handler.
func NewProgressHandler(service service.ProgressService, logger zerolog.Logger) *ProgressHandler {
	return &ProgressHandler{
		service: service,
		logger:  logger.With().Str("component", "progress_handler").Logger(),
	}
}

// Register wires progress routes. The router must already require authentication.
func (h *ProgressHandler) Register(router fiber.Router, routes ProgressRoutes) {
	router.Post("/update", append(chain(routes.UpdateLimit, routes.Script), h.update)...)
	router.Post("/complete", append(chain(routes.CompleteLimit, routes.Script), h.complete)...)
	router.Get("/:courseId", h.get)
}

func (h *ProgressHandler) update(c *fiber.Ctx) error {
	learner, ok := learnerFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var payload dto.ProgressUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	snapshot, err := h.service.Update(c.UserContext(), learner, payload)
	if err != nil {
		return handleError(c, h.logger, err, "failed to update progress")
	}
	return utils.SendJSON(c, fiber.StatusOK, dto.ProgressResponse{Success: true, Progress: snapshot})
}

func (h *ProgressHandler) complete(c *fiber.Ctx) error {
	learner, ok := learnerFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var payload dto.ProgressCompleteRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.Complete(c.UserContext(), learner, payload)
	if err != nil {
		return handleError(c, h.logger, err, "failed to complete course")
	}
	return utils.SendJSON(c, fiber.StatusOK, dto.CompletionResponse{Success: true, CompletionResult: result})
}

func (h *ProgressHandler) get(c *fiber.Ctx) error {
	learner, ok := learnerFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	snapshot, err := h.service.Get(c.UserContext(), learner, c.Params("courseId"))
	if err != nil {
		return handleError(c, h.logger, err, "failed to load progress")
	}
	return utils.SendJSON(c, fiber.StatusOK, dto.ProgressResponse{Success: true, Progress: snapshot})
}
