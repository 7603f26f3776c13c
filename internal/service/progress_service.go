package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/ceu-go-api/internal/dto"
	"github.com/noah-isme/ceu-go-api/internal/models"
	"github.com/noah-isme/ceu-go-api/internal/observability"
	"github.com/noah-isme/ceu-go-api/internal/repository"
)

// Learner is the authenticated caller of a learner-facing operation.
type Learner struct {
	UserID string
	Email  string
}

// ProgressService is the authoritative writer of course progress.
type ProgressService interface {
	Update(ctx context.Context, learner Learner, req dto.ProgressUpdateRequest) (dto.ProgressSnapshot, error)
	Complete(ctx context.Context, learner Learner, req dto.ProgressCompleteRequest) (dto.CompletionResult, error)
	Get(ctx context.Context, learner Learner, courseID string) (dto.ProgressSnapshot, error)
}

// ProgressServiceConfig groups the collaborators of the progress service.
type ProgressServiceConfig struct {
	Progress     repository.ProgressRepository
	Enrollments  repository.EnrollmentRepository
	Courses      repository.CourseRepository
	Certificates CertificateService
	Events       EventPublisher
	Policy       CompletionPolicy
}

type progressService struct {
	progress     repository.ProgressRepository
	enrollments  repository.EnrollmentRepository
	courses      repository.CourseRepository
	certificates CertificateService
	events       EventPublisher
	policy       CompletionPolicy
	validator    *validator.Validate
	logger       zerolog.Logger
	tracer       trace.Tracer
	now          func() time.Time
}

// NewProgressService constructs the progress service.
func NewProgressService(cfg ProgressServiceConfig, validate *validator.Validate, logger zerolog.Logger) ProgressService {
	events := cfg.Events
	if events == nil {
		events = NewNopPublisher()
	}
	return &progressService{
		progress:     cfg.Progress,
		enrollments:  cfg.Enrollments,
		courses:      cfg.Courses,
		certificates: cfg.Certificates,
		events:       events,
		policy:       cfg.Policy,
		validator:    validate,
		logger:       logger.With().Str("component", "progress_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/ceu-go-api/internal/service/progress"),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *progressService) Update(ctx context.Context, learner Learner, req dto.ProgressUpdateRequest) (dto.ProgressSnapshot, error) {
	ctx, span := s.tracer.Start(ctx, "progress.update")
	defer span.End()

	req.CourseID = strings.TrimSpace(req.CourseID)
	if err := s.validate(req.CourseID, req); err != nil {
		span.SetStatus(codes.Error, "invalid request")
		return dto.ProgressSnapshot{}, err
	}
	span.SetAttributes(attribute.String("progress.course_id", req.CourseID))

	enrollment, err := s.activeEnrollment(ctx, learner.UserID, req.CourseID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "enrollment check failed")
		observability.ProgressWrites().WithLabelValues("rejected").Inc()
		return dto.ProgressSnapshot{}, err
	}

	now := s.now()
	percent := clampPercent(req.ProgressPercent, UpdateProgressCap)
	patch := repository.ProgressPatch{
		Status:           statusForPercent(percent),
		Percent:          percent,
		TimeSpentSeconds: clampTimeSpent(req.TimeSpentSeconds),
		ModulesCompleted: normalizeModules(req.ModulesCompleted),
		At:               now,
	}

	existing, found, err := s.load(ctx, learner.UserID, req.CourseID)
	if err != nil {
		span.RecordError(err)
		return dto.ProgressSnapshot{}, err
	}

	if found {
		err = s.progress.ApplyUpdate(ctx, existing.ID, patch)
	} else {
		row := models.CourseProgress{
			UserID:           learner.UserID,
			CourseID:         req.CourseID,
			EnrollmentID:     enrollment.ID,
			Status:           patch.Status,
			ProgressPercent:  patch.Percent,
			ModulesCompleted: patch.ModulesCompleted,
			TimeSpentSeconds: patch.TimeSpentSeconds,
			StartedAt:        &now,
		}
		err = s.progress.Create(ctx, &row)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the insert race; fall back to the conditional update.
			existing, found, err = s.load(ctx, learner.UserID, req.CourseID)
			if err == nil && found {
				err = s.progress.ApplyUpdate(ctx, existing.ID, patch)
			}
		}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		observability.ProgressWrites().WithLabelValues("error").Inc()
		return dto.ProgressSnapshot{}, fmt.Errorf("persist progress: %w", err)
	}

	stored, err := s.progress.FindByUserAndCourse(ctx, learner.UserID, req.CourseID)
	if err != nil {
		span.RecordError(err)
		return dto.ProgressSnapshot{}, fmt.Errorf("reload progress: %w", err)
	}

	outcome := "applied"
	if stored.ProgressPercent > percent {
		outcome = "kept_existing"
	}
	observability.ProgressWrites().WithLabelValues(outcome).Inc()
	s.logger.Debug().
		Str("user_id", learner.UserID).
		Str("course_id", req.CourseID).
		Int("requested_percent", percent).
		Int("stored_percent", stored.ProgressPercent).
		Msg("progress updated")

	span.SetStatus(codes.Ok, "updated")
	return dto.NewProgressSnapshot(stored), nil
}

func (s *progressService) Complete(ctx context.Context, learner Learner, req dto.ProgressCompleteRequest) (dto.CompletionResult, error) {
	ctx, span := s.tracer.Start(ctx, "progress.complete")
	defer span.End()

	req.CourseID = strings.TrimSpace(req.CourseID)
	if err := s.validate(req.CourseID, req); err != nil {
		span.SetStatus(codes.Error, "invalid request")
		return dto.CompletionResult{}, err
	}
	span.SetAttributes(attribute.String("progress.course_id", req.CourseID))

	enrollment, err := s.activeEnrollment(ctx, learner.UserID, req.CourseID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "enrollment check failed")
		observability.CourseCompletions().WithLabelValues("rejected").Inc()
		return dto.CompletionResult{}, err
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CompletionResult{}, ErrCourseNotFound
		}
		return dto.CompletionResult{}, fmt.Errorf("load course: %w", err)
	}

	existing, found, err := s.load(ctx, learner.UserID, req.CourseID)
	if err != nil {
		span.RecordError(err)
		return dto.CompletionResult{}, err
	}

	transitioned := false
	if !found || !existing.IsCompleted() {
		now := s.now()
		var current *models.CourseProgress
		if found {
			current = &existing
		}
		if err := s.policy.Check(current, course, now); err != nil {
			observability.CourseCompletions().WithLabelValues("not_ready").Inc()
			span.SetStatus(codes.Error, "not ready")
			return dto.CompletionResult{}, err
		}

		if err := s.markCompleted(ctx, learner, enrollment, req, existing, found, now); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "persistence failed")
			observability.CourseCompletions().WithLabelValues("error").Inc()
			return dto.CompletionResult{}, fmt.Errorf("persist completion: %w", err)
		}
		transitioned = true
	}

	stored, err := s.progress.FindByUserAndCourse(ctx, learner.UserID, req.CourseID)
	if err != nil {
		span.RecordError(err)
		return dto.CompletionResult{}, fmt.Errorf("reload progress: %w", err)
	}

	if transitioned {
		observability.CourseCompletions().WithLabelValues("completed").Inc()
		publishEvent(ctx, s.events, s.logger, DomainEvent{
			Type:       EventCourseCompleted,
			UserID:     learner.UserID,
			CourseID:   req.CourseID,
			OccurredAt: s.now(),
		})
		s.logger.Info().Str("user_id", learner.UserID).Str("course_id", req.CourseID).Msg("course completed")
	} else {
		observability.CourseCompletions().WithLabelValues("replayed").Inc()
	}

	completionID := stored.ID
	hours := course.CEUHours
	issued, err := s.certificates.Issue(ctx, IssueRequest{
		UserID:       learner.UserID,
		CourseID:     req.CourseID,
		CompletionID: &completionID,
		Email:        learner.Email,
		CourseTitle:  course.Title,
		CEUHours:     &hours,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "certificate issuance failed")
		return dto.CompletionResult{}, fmt.Errorf("issue certificate: %w", err)
	}

	certificate := dto.NewCertificateSnapshot(issued.Certificate)
	span.SetStatus(codes.Ok, "completed")
	return dto.CompletionResult{
		Progress:    dto.NewProgressSnapshot(stored),
		Certificate: &certificate,
		EmailSent:   issued.EmailSent,
	}, nil
}

func (s *progressService) markCompleted(ctx context.Context, learner Learner, enrollment models.Enrollment, req dto.ProgressCompleteRequest, existing models.CourseProgress, found bool, now time.Time) error {
	patch := repository.CompletionPatch{
		ModulesCompleted: normalizeModules(req.ModulesCompleted),
		At:               now,
	}
	if req.TimeSpentSeconds != nil {
		seconds := clampTimeSpent(req.TimeSpentSeconds)
		patch.TimeSpentSeconds = &seconds
	}

	if found {
		return s.progress.MarkCompleted(ctx, existing.ID, patch)
	}

	row := models.CourseProgress{
		UserID:           learner.UserID,
		CourseID:         req.CourseID,
		EnrollmentID:     enrollment.ID,
		Status:           models.ProgressCompleted,
		ProgressPercent:  100,
		ModulesCompleted: patch.ModulesCompleted,
		StartedAt:        &now,
		CompletedAt:      &now,
	}
	if patch.TimeSpentSeconds != nil {
		row.TimeSpentSeconds = *patch.TimeSpentSeconds
	}

	err := s.progress.Create(ctx, &row)
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}

	current, found, err := s.load(ctx, learner.UserID, req.CourseID)
	if err != nil {
		return err
	}
	if !found {
		return gorm.ErrRecordNotFound
	}
	return s.progress.MarkCompleted(ctx, current.ID, patch)
}

func (s *progressService) Get(ctx context.Context, learner Learner, courseID string) (dto.ProgressSnapshot, error) {
	courseID = strings.TrimSpace(courseID)
	if courseID == "" {
		return dto.ProgressSnapshot{}, ErrCourseIDRequired
	}
	row, found, err := s.load(ctx, learner.UserID, courseID)
	if err != nil {
		return dto.ProgressSnapshot{}, err
	}
	if !found {
		return dto.ProgressSnapshot{}, ErrProgressNotFound
	}
	return dto.NewProgressSnapshot(row), nil
}

func (s *progressService) validate(courseID string, req interface{}) error {
	if courseID == "" {
		return ErrCourseIDRequired
	}
	if s.validator != nil {
		if err := s.validator.Struct(req); err != nil {
			return err
		}
	}
	return nil
}

func (s *progressService) activeEnrollment(ctx context.Context, userID, courseID string) (models.Enrollment, error) {
	if strings.TrimSpace(userID) == "" {
		return models.Enrollment{}, ErrUserIDRequired
	}
	enrollment, err := s.enrollments.FindActive(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Enrollment{}, ErrEnrollmentNotFound
		}
		return models.Enrollment{}, fmt.Errorf("lookup enrollment: %w", err)
	}
	return enrollment, nil
}

func (s *progressService) load(ctx context.Context, userID, courseID string) (models.CourseProgress, bool, error) {
	row, err := s.progress.FindByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.CourseProgress{}, false, nil
		}
		return models.CourseProgress{}, false, fmt.Errorf("load progress: %w", err)
	}
	return row, true, nil
}
