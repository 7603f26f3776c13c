package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/ceu-go-api/internal/models"
	"github.com/noah-isme/ceu-go-api/internal/repository"
)

var serviceDBCounter int64

type recordingMailer struct {
	mu   sync.Mutex
	sent []CertificateEmail
	err  error
}

func (m *recordingMailer) SendCertificate(ctx context.Context, email CertificateEmail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, email)
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []DomainEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, event := range p.events {
		out = append(out, event.Type)
	}
	return out
}

type testEnv struct {
	db           *gorm.DB
	enrollments  repository.EnrollmentRepository
	progressRepo repository.ProgressRepository
	courses      repository.CourseRepository
	profiles     repository.ProfileRepository
	certRepo     repository.CertificateRepository
	mailer       *recordingMailer
	events       *recordingPublisher
	certificates CertificateService
	progress     ProgressService
	exams        ExamService
	admin        AdminService
	access       AccessService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:service_test_%d?mode=memory&cache=shared", atomic.AddInt64(&serviceDBCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	logger := zerolog.New(io.Discard)
	validate := validator.New()

	env := &testEnv{
		db:           db,
		enrollments:  repository.NewEnrollmentRepository(db),
		progressRepo: repository.NewProgressRepository(db),
		courses:      repository.NewCourseRepository(db),
		profiles:     repository.NewProfileRepository(db),
		certRepo:     repository.NewCertificateRepository(db),
		mailer:       &recordingMailer{},
		events:       &recordingPublisher{},
	}
	env.certificates = NewCertificateService(CertificateServiceConfig{
		Certificates: env.certRepo,
		Courses:      env.courses,
		Profiles:     env.profiles,
		Mailer:       env.mailer,
		Events:       env.events,
		Numbers:      NewCertificateNumberGenerator("DRTROY"),
	}, logger)
	env.progress = NewProgressService(ProgressServiceConfig{
		Progress:     env.progressRepo,
		Enrollments:  env.enrollments,
		Courses:      env.courses,
		Certificates: env.certificates,
		Events:       env.events,
	}, validate, logger)
	env.exams = NewExamService(env.progressRepo, env.enrollments, env.courses, validate, 70, logger)
	env.admin = NewAdminService(env.enrollments, env.progressRepo, env.courses, env.profiles, validate, logger)
	env.access = NewAccessService(env.enrollments, env.courses, env.profiles, true, logger)

	env.seedCourse(t, models.Course{ID: "pt-msk-001", Title: "Musculoskeletal Foundations", CEUHours: 2, PassingScore: 70, FilePrefix: "pt-msk-001"})
	env.seedCourse(t, models.Course{ID: "core-balance-001", Title: "Balance and Gait", CEUHours: 1.5, FilePrefix: "balance-gait-001"})
	require.NoError(t, db.Create(&models.Profile{ID: "user-1", Email: "learner@example.com", FirstName: "Jane", LastName: "doe"}).Error)
	require.NoError(t, db.Create(&models.Profile{ID: "admin-1", Email: "admin@example.com", FirstName: "Ada", IsAdmin: true}).Error)
	return env
}

func (e *testEnv) seedCourse(t *testing.T, course models.Course) {
	t.Helper()
	require.NoError(t, e.db.Create(&course).Error)
}

func (e *testEnv) enroll(t *testing.T, userID, courseID string) models.Enrollment {
	t.Helper()
	reference := "pi_" + courseID
	enrollment := models.Enrollment{
		UserID:           userID,
		CourseID:         courseID,
		PurchasedAt:      time.Now().UTC(),
		PaymentReference: &reference,
		AmountPaidCents:  4900,
		IsActive:         true,
	}
	require.NoError(t, e.db.Create(&enrollment).Error)
	return enrollment
}

func (e *testEnv) certificateCount(t *testing.T, userID, courseID string) int64 {
	t.Helper()
	var count int64
	require.NoError(t, e.db.Model(&models.Certificate{}).Where("user_id = ? AND course_id = ?", userID, courseID).Count(&count).Error)
	return count
}

func (e *testEnv) progressCount(t *testing.T, userID, courseID string) int64 {
	t.Helper()
	var count int64
	require.NoError(t, e.db.Model(&models.CourseProgress{}).Where("user_id = ? AND course_id = ?", userID, courseID).Count(&count).Error)
	return count
}

var errDeliveryFailed = errors.New("smtp unavailable")

var testLearner = Learner{UserID: "user-1", Email: "learner@example.com"}

func zerologDiscard() zerolog.Logger {
	return zerolog.New(io.Discard)
}
