package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/ceu-go-api/internal/dto"
	"github.com/noah-isme/ceu-go-api/internal/models"
	"github.com/noah-isme/ceu-go-api/internal/repository"
)

// AdminService exposes privileged overrides of the learner flow.
type AdminService interface {
	ManualEnroll(ctx context.Context, req dto.ManualEnrollRequest) (dto.EnrollmentSnapshot, error)
	RemoveEnrollment(ctx context.Context, enrollmentID uint) error
	ResetProgress(ctx context.Context, req dto.ProgressResetRequest) error
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

type adminService struct {
	enrollments repository.EnrollmentRepository
	progress    repository.ProgressRepository
	courses     repository.CourseRepository
	profiles    repository.ProfileRepository
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAdminService constructs the admin override service.
func NewAdminService(enrollments repository.EnrollmentRepository, progress repository.ProgressRepository, courses repository.CourseRepository, profiles repository.ProfileRepository, validate *validator.Validate, logger zerolog.Logger) AdminService {
	return &adminService{
		enrollments: enrollments,
		progress:    progress,
		courses:     courses,
		profiles:    profiles,
		validator:   validate,
		logger:      logger.With().Str("component", "admin_service").Logger(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ManualEnroll grants access without a payment: null payment reference and zero amount.
func (s *adminService) ManualEnroll(ctx context.Context, req dto.ManualEnrollRequest) (dto.EnrollmentSnapshot, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	req.CourseID = strings.TrimSpace(req.CourseID)
	if err := s.validator.Struct(req); err != nil {
		return dto.EnrollmentSnapshot{}, err
	}

	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentSnapshot{}, ErrCourseNotFound
		}
		return dto.EnrollmentSnapshot{}, fmt.Errorf("load course: %w", err)
	}

	if _, err := s.enrollments.FindActive(ctx, req.UserID, req.CourseID); err == nil {
		return dto.EnrollmentSnapshot{}, ErrAlreadyEnrolled
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.EnrollmentSnapshot{}, fmt.Errorf("lookup enrollment: %w", err)
	}

	enrollment := models.Enrollment{
		UserID:          req.UserID,
		CourseID:        req.CourseID,
		PurchasedAt:     s.now(),
		AmountPaidCents: 0,
		IsActive:        true,
	}
	if err := s.enrollments.Create(ctx, &enrollment); err != nil {
		return dto.EnrollmentSnapshot{}, fmt.Errorf("create enrollment: %w", err)
	}

	s.logger.Info().Str("user_id", req.UserID).Str("course_id", req.CourseID).Msg("manual enrollment granted")
	return dto.NewEnrollmentSnapshot(enrollment), nil
}

// RemoveEnrollment deactivates the enrollment and deletes its progress row.
func (s *adminService) RemoveEnrollment(ctx context.Context, enrollmentID uint) error {
	if enrollmentID == 0 {
		return ErrEnrollmentNotFound
	}
	enrollment, err := s.enrollments.FindByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEnrollmentNotFound
		}
		return fmt.Errorf("lookup enrollment: %w", err)
	}

	if err := s.enrollments.Deactivate(ctx, enrollment.ID); err != nil {
		return fmt.Errorf("deactivate enrollment: %w", err)
	}
	deleted, err := s.progress.DeleteByEnrollment(ctx, enrollment.ID)
	if err != nil {
		return fmt.Errorf("delete progress: %w", err)
	}
	if deleted == 0 {
		// Rows created before enrollment linkage only carry the (user, course) key.
		if _, err := s.progress.DeleteByUserAndCourse(ctx, enrollment.UserID, enrollment.CourseID); err != nil {
			return fmt.Errorf("delete progress: %w", err)
		}
	}

	s.logger.Info().Uint("enrollment_id", enrollment.ID).Str("course_id", enrollment.CourseID).Msg("enrollment removed")
	return nil
}

func (s *adminService) ResetProgress(ctx context.Context, req dto.ProgressResetRequest) error {
	req.UserID = strings.TrimSpace(req.UserID)
	req.CourseID = strings.TrimSpace(req.CourseID)
	if err := s.validator.Struct(req); err != nil {
		return err
	}
	deleted, err := s.progress.DeleteByUserAndCourse(ctx, req.UserID, req.CourseID)
	if err != nil {
		return fmt.Errorf("delete progress: %w", err)
	}
	if deleted == 0 {
		return ErrProgressNotFound
	}
	s.logger.Info().Str("user_id", req.UserID).Str("course_id", req.CourseID).Msg("progress reset")
	return nil
}

// IsAdmin reports whether the profile carries the administrator flag. Unknown users are not admins.
func (s *adminService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	if strings.TrimSpace(userID) == "" {
		return false, nil
	}
	profile, err := s.profiles.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return profile.IsAdmin, nil
}
