package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/ceu-go-api/internal/dto"
	"github.com/noah-isme/ceu-go-api/internal/service"
	"github.com/noah-isme/ceu-go-api/internal/utils"
)

// AdminHandler exposes administrator overrides of the certification flow.
type AdminHandler struct {
	certificates service.CertificateService
	admin        service.AdminService
	validator    *validator.Validate
	logger       zerolog.Logger
}

// NewAdminHandler constructs an admin handler.
func NewAdminHandler(certificates service.CertificateService, admin service.AdminService, validate *validator.Validate, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		certificates: certificates,
		admin:        admin,
		validator:    validate,
		logger:       logger.With().Str("component", "admin_handler").Logger(),
	}
}

// Register wires admin routes. The router must already enforce admin access.
func (h *AdminHandler) Register(router fiber.Router, issueLimit fiber.Handler) {
	router.Post("/certificates/issue", append(chain(issueLimit), h.issueCertificate)...)
	router.Post("/certificates/revoke", h.revokeCertificate)
	router.Post("/enrollments", h.enroll)
	router.Delete("/enrollments/:id", h.unenroll)
	router.Post("/progress/reset", h.resetProgress)
}

func (h *AdminHandler) issueCertificate(c *fiber.Ctx) error {
	var payload dto.CertificateIssueRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendValidationError(c, err)
	}

	result, err := h.certificates.Issue(c.UserContext(), service.IssueRequest{
		UserID:        payload.UserID,
		CourseID:      payload.CourseID,
		CompletionID:  payload.CompletionID,
		Reissue:       payload.Reissue,
		Email:         payload.UserEmail,
		RecipientName: payload.UserName,
		CourseTitle:   payload.CourseTitle,
		CEUHours:      payload.CEUHours,
	})
	if err != nil {
		return handleError(c, h.logger, err, "failed to issue certificate")
	}

	snapshot := dto.NewCertificateSnapshot(result.Certificate)
	return utils.SendJSON(c, fiber.StatusOK, dto.CertificateIssueResponse{
		Success:     true,
		Certificate: snapshot,
		CertNumber:  snapshot.CertificateNumber,
		EmailSent:   result.EmailSent,
		Created:     result.Created,
		Reissued:    result.Reissued,
	})
}

func (h *AdminHandler) revokeCertificate(c *fiber.Ctx) error {
	var payload dto.CertificateRevokeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendValidationError(c, err)
	}

	snapshot, err := h.certificates.Revoke(c.UserContext(), payload)
	if err != nil {
		return handleError(c, h.logger, err, "failed to revoke certificate")
	}
	return utils.SendJSON(c, fiber.StatusOK, dto.CertificateResponse{Success: true, Certificate: snapshot})
}

func (h *AdminHandler) enroll(c *fiber.Ctx) error {
	var payload dto.ManualEnrollRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	enrollment, err := h.admin.ManualEnroll(c.UserContext(), payload)
	if err != nil {
		return handleError(c, h.logger, err, "failed to enroll user")
	}
	return utils.SendJSON(c, fiber.StatusCreated, dto.EnrollmentResponse{Success: true, Enrollment: enrollment})
}

func (h *AdminHandler) unenroll(c *fiber.Ctx) error {
	id, err := parsePathUint(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid enrollment id")
	}

	if err := h.admin.RemoveEnrollment(c.UserContext(), id); err != nil {
		return handleError(c, h.logger, err, "failed to remove enrollment")
	}
	return utils.SendJSON(c, fiber.StatusOK, fiber.Map{"success": true})
}

func (h *AdminHandler) resetProgress(c *fiber.Ctx) error {
	var payload dto.ProgressResetRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	if err := h.admin.ResetProgress(c.UserContext(), payload); err != nil {
		return handleError(c, h.logger, err, "failed to reset progress")
	}
	return utils.SendJSON(c, fiber.StatusOK, fiber.Map{"success": true})
}
