package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/ceu-go-api/internal/utils"
)

// AdminChecker reports whether a user holds administrator rights.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// RequireAdmin must run after JWTProtected. Unauthenticated callers get 401, authenticated
// non-admins 403. A failed lookup is treated as a denial.
func RequireAdmin(checker AdminChecker, logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := CurrentIdentity(c)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}

		isAdmin, err := checker.IsAdmin(c.UserContext(), identity.UserID)
		if err != nil {
			logger.Error().Err(err).Str("user_id", identity.UserID).Str("correlation_id", GetCorrelationID(c)).Msg("admin lookup failed")
			return utils.SendError(c, fiber.StatusForbidden, "unable to verify permissions")
		}
		if !isAdmin {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}
