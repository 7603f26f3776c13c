package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/ceu-go-api/internal/utils"
)

// RequireScriptContext only admits requests issued by page scripts, identified by
// X-Requested-With set to XMLHttpRequest or fetch.
func RequireScriptContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch strings.ToLower(strings.TrimSpace(c.Get(fiber.HeaderXRequestedWith))) {
		case "xmlhttprequest", "fetch":
			return c.Next()
		default:
			return utils.SendError(c, fiber.StatusForbidden, "requests must originate from course pages")
		}
	}
}
