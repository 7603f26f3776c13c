package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/ceu-go-api/internal/access"
	"github.com/noah-isme/ceu-go-api/internal/observability"
	"github.com/noah-isme/ceu-go-api/internal/repository"
)

// Guard variants label where an access decision was taken.
const (
	GuardVariantEdge = "edge"
	GuardVariantPage = "page"
)

// AccessService evaluates course access for the edge gate and the page check.
type AccessService interface {
	Evaluate(ctx context.Context, req access.Request, variant string) access.Decision
}

type accessService struct {
	enrollments        repository.EnrollmentRepository
	courses            repository.CourseRepository
	profiles           repository.ProfileRepository
	allowMissingCourse bool
	logger             zerolog.Logger
}

// NewAccessService builds the access evaluator over the entitlement repositories.
func NewAccessService(enrollments repository.EnrollmentRepository, courses repository.CourseRepository, profiles repository.ProfileRepository, allowMissingCourse bool, logger zerolog.Logger) AccessService {
	return &accessService{
		enrollments:        enrollments,
		courses:            courses,
		profiles:           profiles,
		allowMissingCourse: allowMissingCourse,
		logger:             logger.With().Str("component", "access_service").Logger(),
	}
}

func (s *accessService) Evaluate(ctx context.Context, req access.Request, variant string) access.Decision {
	decision := s.evaluate(ctx, req)

	observability.GuardDecisions().WithLabelValues(variant, string(decision.Reason)).Inc()

	event := s.logger.Debug()
	switch {
	case decision.Reason == access.ReasonLookupFailed:
		event = s.logger.Error().Err(decision.Err)
	case decision.Reason == access.ReasonNoCourse && decision.Allowed():
		event = s.logger.Warn()
	case decision.Err != nil:
		event = s.logger.Warn().Err(decision.Err)
	}
	event.
		Str("variant", variant).
		Str("course_ref", req.CourseRef).
		Str("user_id", req.Session.UserID).
		Str("outcome", string(decision.Outcome)).
		Str("reason", string(decision.Reason)).
		Msg("access decision")

	return decision
}

func (s *accessService) evaluate(ctx context.Context, req access.Request) access.Decision {
	policy := access.Policy{AllowMissingCourse: s.allowMissingCourse}
	if strings.TrimSpace(req.CourseRef) != "" && req.Session.Err == nil && req.Session.UserID != "" {
		prefixes, err := s.courses.FilePrefixes(ctx)
		if err != nil {
			return access.Decision{Outcome: access.Denied, Reason: access.ReasonLookupFailed, Err: fmt.Errorf("load course file map: %w", err)}
		}
		policy.Resolver = access.NewResolver(prefixes)
	}
	return access.Authorize(ctx, req, s, policy)
}

// IsAdmin satisfies access.Directory.
func (s *accessService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	profile, err := s.profiles.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return profile.IsAdmin, nil
}

// ActiveCourseIDs satisfies access.Directory.
func (s *accessService) ActiveCourseIDs(ctx context.Context, userID string) ([]string, error) {
	return s.enrollments.ActiveCourseIDs(ctx, userID)
}
