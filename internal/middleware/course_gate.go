package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/ceu-go-api/internal/access"
)

// AccessEvaluator takes course access decisions.
type AccessEvaluator interface {
	Evaluate(ctx context.Context, req access.Request, variant string) access.Decision
}

// CourseGateConfig configures CourseGate.
type CourseGateConfig struct {
	Evaluator  AccessEvaluator
	Verifier   *TokenVerifier
	CookieName string
	Redirects  access.Redirects
	Variant    string
}

// CourseGate guards course pages before they are served. Non-page assets pass through.
// Denied requests are redirected with 302 to the login or catalog page.
func CourseGate(cfg CourseGateConfig) fiber.Handler {
	variant := cfg.Variant
	if variant == "" {
		variant = "edge"
	}

	return func(c *fiber.Ctx) error {
		if !strings.HasSuffix(strings.ToLower(c.Path()), ".html") {
			return c.Next()
		}

		session := SessionFromRequest(c, cfg.Verifier, cfg.CookieName)
		decision := cfg.Evaluator.Evaluate(c.UserContext(), access.Request{CourseRef: c.Path(), Session: session}, variant)
		if decision.Allowed() {
			c.Set(fiber.HeaderCacheControl, "private, no-store")
			return c.Next()
		}

		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.Redirect(cfg.Redirects.Location(decision, c.OriginalURL()), fiber.StatusFound)
	}
}
