package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/ceu-go-api/internal/access"
	"github.com/noah-isme/ceu-go-api/internal/dto"
	"github.com/noah-isme/ceu-go-api/internal/middleware"
	"github.com/noah-isme/ceu-go-api/internal/utils"
)

// AccessHandler answers the page-embedded course access check.
type AccessHandler struct {
	evaluator middleware.AccessEvaluator
	redirects access.Redirects
	variant   string
}

// NewAccessHandler constructs an access handler reporting decisions under variant.
func NewAccessHandler(evaluator middleware.AccessEvaluator, redirects access.Redirects, variant string) *AccessHandler {
	return &AccessHandler{evaluator: evaluator, redirects: redirects, variant: variant}
}

// Register wires the access check. The router must run middleware.JWTOptional first.
func (h *AccessHandler) Register(router fiber.Router) {
	router.Get("/check", h.check)
}

func (h *AccessHandler) check(c *fiber.Ctx) error {
	course := c.Query("course")
	decision := h.evaluator.Evaluate(c.UserContext(), access.Request{
		CourseRef: course,
		Session:   middleware.CurrentSession(c),
	}, h.variant)

	returnTo := c.Query("return")
	if returnTo == "" {
		returnTo = course
	}

	c.Set(fiber.HeaderCacheControl, "no-store")
	return utils.SendJSON(c, fiber.StatusOK, dto.AccessCheckResponse{
		Allowed:  decision.Allowed(),
		Reason:   string(decision.Reason),
		CourseID: decision.CourseID,
		Redirect: h.redirects.Location(decision, returnTo),
	})
}
