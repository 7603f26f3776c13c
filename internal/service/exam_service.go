package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/ceu-go-api/internal/dto"
	"github.com/noah-isme/ceu-go-api/internal/models"
	"github.com/noah-isme/ceu-go-api/internal/observability"
	"github.com/noah-isme/ceu-go-api/internal/repository"
)

// ExamService records exam results on the learner's progress row.
type ExamService interface {
	Submit(ctx context.Context, learner Learner, req dto.ExamSubmitRequest) (dto.ExamResult, error)
}

type examService struct {
	progress       repository.ProgressRepository
	enrollments    repository.EnrollmentRepository
	courses        repository.CourseRepository
	validator      *validator.Validate
	defaultPassing int
	logger         zerolog.Logger
	now            func() time.Time
}

// NewExamService constructs the exam submission service. defaultPassing applies when a
// course has no passing score of its own.
func NewExamService(progress repository.ProgressRepository, enrollments repository.EnrollmentRepository, courses repository.CourseRepository, validate *validator.Validate, defaultPassing int, logger zerolog.Logger) ExamService {
	if defaultPassing <= 0 || defaultPassing > 100 {
		defaultPassing = 70
	}
	return &examService{
		progress:       progress,
		enrollments:    enrollments,
		courses:        courses,
		validator:      validate,
		defaultPassing: defaultPassing,
		logger:         logger.With().Str("component", "exam_service").Logger(),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *examService) Submit(ctx context.Context, learner Learner, req dto.ExamSubmitRequest) (dto.ExamResult, error) {
	req.CourseID = strings.TrimSpace(req.CourseID)
	if req.CourseID == "" {
		return dto.ExamResult{}, ErrCourseIDRequired
	}
	if s.validator != nil {
		if err := s.validator.Struct(req); err != nil {
			return dto.ExamResult{}, err
		}
	}

	enrollment, err := s.enrollments.FindActive(ctx, learner.UserID, req.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ExamResult{}, ErrEnrollmentNotFound
		}
		return dto.ExamResult{}, fmt.Errorf("lookup enrollment: %w", err)
	}

	total, correct := clampAnswerCounts(req.TotalQuestions, req.CorrectAnswers)
	score, err := examScore(req.QuizScore, total, correct)
	if err != nil {
		return dto.ExamResult{}, err
	}
	threshold := s.passingThreshold(ctx, req.CourseID, req.PassingScore)
	passed := score >= threshold

	now := s.now()
	row, err := s.progress.FindByUserAndCourse(ctx, learner.UserID, req.CourseID)
	switch {
	case err == nil:
		err = s.progress.SetQuizResult(ctx, row.ID, score, passed, now)
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = models.CourseProgress{
			UserID:       learner.UserID,
			CourseID:     req.CourseID,
			EnrollmentID: enrollment.ID,
			Status:       models.ProgressInProgress,
			QuizScore:    &score,
			QuizPassed:   &passed,
			StartedAt:    &now,
		}
		err = s.progress.Create(ctx, &row)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if row, err = s.progress.FindByUserAndCourse(ctx, learner.UserID, req.CourseID); err == nil {
				err = s.progress.SetQuizResult(ctx, row.ID, score, passed, now)
			}
		}
	}
	if err != nil {
		return dto.ExamResult{}, fmt.Errorf("record exam result: %w", err)
	}

	stored, err := s.progress.FindByUserAndCourse(ctx, learner.UserID, req.CourseID)
	if err != nil {
		return dto.ExamResult{}, fmt.Errorf("reload progress: %w", err)
	}

	observability.ExamSubmissions().WithLabelValues(strconv.FormatBool(passed)).Inc()
	s.logger.Info().
		Str("user_id", learner.UserID).
		Str("course_id", req.CourseID).
		Int("quiz_score", score).
		Int("passing_score", threshold).
		Bool("quiz_passed", passed).
		Msg("exam result recorded")

	return dto.ExamResult{
		QuizScore:      score,
		QuizPassed:     passed,
		PassingScore:   threshold,
		TotalQuestions: total,
		CorrectAnswers: correct,
		Progress:       dto.NewProgressSnapshot(stored),
	}, nil
}

// passingThreshold uses the course score (or the default). A client-supplied score only
// applies when it is stricter.
func (s *examService) passingThreshold(ctx context.Context, courseID string, requested *float64) int {
	threshold := s.defaultPassing
	if s.courses != nil {
		course, err := s.courses.FindByID(ctx, courseID)
		switch {
		case err == nil:
			threshold = course.PassingThreshold(s.defaultPassing)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			s.logger.Warn().Err(err).Str("course_id", courseID).Msg("course lookup failed, using default passing score")
		}
	}
	if requested != nil {
		if client := clampScore(*requested); client > threshold {
			threshold = client
		}
	}
	return threshold
}

func clampScore(value float64) int {
	if math.IsNaN(value) || value <= 0 {
		return 0
	}
	if value >= 100 {
		return 100
	}
	return int(math.Round(value))
}

func clampAnswerCounts(total, correct *int) (int, int) {
	t, c := 0, 0
	if total != nil && *total > 0 {
		t = *total
	}
	if correct != nil && *correct > 0 {
		c = *correct
	}
	if t > 0 && c > t {
		c = t
	}
	return t, c
}

func examScore(submitted *float64, total, correct int) (int, error) {
	if submitted != nil {
		return clampScore(*submitted), nil
	}
	if total > 0 {
		return int(math.Round(100 * float64(correct) / float64(total))), nil
	}
	return 0, ErrQuizScoreRequired
}
