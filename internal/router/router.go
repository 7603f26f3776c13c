package router

import (
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/ceu-go-api/internal/access"
	"github.com/noah-isme/ceu-go-api/internal/config"
	"github.com/noah-isme/ceu-go-api/internal/handler"
	"github.com/noah-isme/ceu-go-api/internal/middleware"
	"github.com/noah-isme/ceu-go-api/internal/observability"
	"github.com/noah-isme/ceu-go-api/internal/service"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ProgressHandler    *handler.ProgressHandler
	ExamHandler        *handler.ExamHandler
	CertificateHandler *handler.CertificateHandler
	AdminHandler       *handler.AdminHandler
	AccessEvaluator    middleware.AccessEvaluator
	AdminChecker       middleware.AdminChecker
	Verifier           *middleware.TokenVerifier
	HealthChecks       map[string]handler.Pinger
	Metrics            bool
	Logger             zerolog.Logger
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthChecks))

	if deps.Metrics {
		app.Get("/metrics", observability.MetricsHandler())
	}

	if deps.Verifier == nil {
		return
	}
	protected := middleware.JWTProtected(deps.Verifier)
	script := middleware.RequireScriptContext()

	if deps.ProgressHandler != nil {
		deps.ProgressHandler.Register(api.Group("/progress", protected), handler.ProgressRoutes{
			Script:        script,
			UpdateLimit:   middleware.RateLimit("progress_update", 100, time.Hour),
			CompleteLimit: middleware.RateLimit("progress_complete", 5, time.Hour),
		})
	}

	if deps.ExamHandler != nil {
		deps.ExamHandler.Register(api.Group("/exams", protected), script)
	}

	if deps.CertificateHandler != nil {
		deps.CertificateHandler.Register(api.Group("/certificates"), handler.CertificateRoutes{
			Auth:        protected,
			VerifyLimit: middleware.RateLimit("certificate_verify", 20, time.Minute),
		})
	}

	redirects := access.Redirects{LoginURL: cfg.GuardLoginURL, CatalogURL: cfg.GuardCatalogURL}
	if deps.AccessEvaluator != nil {
		handler.NewAccessHandler(deps.AccessEvaluator, redirects, service.GuardVariantPage).
			Register(api.Group("/access", middleware.JWTOptional(deps.Verifier)))

		if cfg.GuardContentDir != "" {
			app.Use("/courses", middleware.CourseGate(middleware.CourseGateConfig{
				Evaluator:  deps.AccessEvaluator,
				Verifier:   deps.Verifier,
				CookieName: cfg.AuthCookieName,
				Redirects:  redirects,
				Variant:    service.GuardVariantEdge,
			}))
			app.Static("/courses", cfg.GuardContentDir, fiber.Static{
				Next: func(c *fiber.Ctx) bool {
					return isDirectoryRequest(cfg.GuardContentDir, strings.TrimPrefix(c.Path(), "/courses"))
				},
			})
		}
	}

	if deps.AdminHandler != nil && deps.AdminChecker != nil {
		admin := api.Group("/admin", protected, middleware.RequireAdmin(deps.AdminChecker, deps.Logger))
		deps.AdminHandler.Register(admin, middleware.RateLimit("certificate_issue", 20, time.Minute))
	}
}

// isDirectoryRequest reports whether rel addresses a directory under root.
// Directory indexes never pass the course gate, so they are not served.
func isDirectoryRequest(root, rel string) bool {
	if rel == "" || strings.HasSuffix(rel, "/") {
		return true
	}
	info, err := os.Stat(filepath.Join(root, filepath.FromSlash(path.Clean("/"+rel))))
	return err == nil && info.IsDir()
}
