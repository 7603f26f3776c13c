package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/ceu-go-api/internal/dto"
	"github.com/noah-isme/ceu-go-api/internal/service"
	"github.com/noah-isme/ceu-go-api/internal/utils"
)

// CertificateRoutes are the per-route guards for the certificate endpoints.
type CertificateRoutes struct {
	Auth        fiber.Handler
	VerifyLimit fiber.Handler
}

// CertificateHandler serves learner certificate listings and public verification.
type CertificateHandler struct {
	service service.CertificateService
	logger  zerolog.Logger
}

// NewCertificateHandler constructs a certificate handler.
func NewCertificateHandler(service service.CertificateService, logger zerolog.Logger) *CertificateHandler {
	return &CertificateHandler{
		service: service,
		logger:  logger.With().Str("component", "certificate_handler").Logger(),
	}
}

// Register wires certificate routes. Verification is public; the listing needs routes.Auth.
func (h *CertificateHandler) Register(router fiber.Router, routes CertificateRoutes) {
	router.Get("/verify", append(chain(routes.VerifyLimit), h.verify)...)
	router.Get("", append(chain(routes.Auth), h.list)...)
}

func (h *CertificateHandler) verify(c *fiber.Ctx) error {
	number := c.Query("number")
	if number == "" {
		number = c.Query("cert")
	}

	result, err := h.service.Verify(c.UserContext(), number)
	switch {
	case err == nil:
		return utils.SendJSON(c, fiber.StatusOK, result)
	case errors.Is(err, service.ErrInvalidCertificateNumber):
		return utils.SendJSON(c, fiber.StatusBadRequest, dto.CertificateVerification{Valid: false, Message: "Invalid certificate number format"})
	case errors.Is(err, service.ErrCertificateNotFound):
		return utils.SendJSON(c, fiber.StatusNotFound, result)
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("certificate verification failed")
		return utils.SendJSON(c, fiber.StatusInternalServerError, dto.CertificateVerification{Valid: false, Message: "Verification temporarily unavailable"})
	}
}

func (h *CertificateHandler) list(c *fiber.Ctx) error {
	learner, ok := learnerFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	certificates, err := h.service.ListForUser(c.UserContext(), learner.UserID)
	if err != nil {
		return handleError(c, h.logger, err, "failed to list certificates")
	}
	return utils.SendJSON(c, fiber.StatusOK, dto.CertificateListResponse{Success: true, Certificates: certificates})
}
