package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
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

const maxCertificateNumberAttempts = 5

// ErrCertificateNumberExhausted indicates repeated certificate number collisions.
var ErrCertificateNumberExhausted = errors.New("unable to allocate a unique certificate number")

// IssueRequest describes a certificate issuance. Empty notification fields are filled from the
// learner profile and course catalog when available.
type IssueRequest struct {
	UserID        string
	CourseID      string
	CompletionID  *uint
	Reissue       bool
	Email         string
	RecipientName string
	CourseTitle   string
	CEUHours      *float64
}

// IssueResult reports what the issuer did.
type IssueResult struct {
	Certificate models.Certificate
	Created     bool
	Reissued    bool
	EmailSent   bool
}

// CertificateService issues, verifies and maintains certificates.
type CertificateService interface {
	Issue(ctx context.Context, req IssueRequest) (IssueResult, error)
	Verify(ctx context.Context, number string) (dto.CertificateVerification, error)
	Revoke(ctx context.Context, req dto.CertificateRevokeRequest) (dto.CertificateSnapshot, error)
	ListForUser(ctx context.Context, userID string) ([]dto.CertificateSnapshot, error)
	RetryPendingEmails(ctx context.Context, window time.Duration, limit int) (int, error)
}

// CertificateServiceConfig groups the collaborators of the certificate service.
type CertificateServiceConfig struct {
	Certificates repository.CertificateRepository
	Courses      repository.CourseRepository
	Profiles     repository.ProfileRepository
	Mailer       CertificateMailer
	Events       EventPublisher
	Numbers      *CertificateNumberGenerator
	Cache        *redis.Client
	CacheTTL     time.Duration
}

type certificateService struct {
	certificates repository.CertificateRepository
	courses      repository.CourseRepository
	profiles     repository.ProfileRepository
	mailer       CertificateMailer
	events       EventPublisher
	numbers      *CertificateNumberGenerator
	cache        *verificationCache
	logger       zerolog.Logger
	tracer       trace.Tracer
	now          func() time.Time
}

type certificateMetadata struct {
	email    string
	name     string
	title    string
	ceuHours float64
}

// NewCertificateService constructs the certificate issuer and verifier.
func NewCertificateService(cfg CertificateServiceConfig, logger zerolog.Logger) CertificateService {
	logger = logger.With().Str("component", "certificate_service").Logger()
	numbers := cfg.Numbers
	if numbers == nil {
		numbers = NewCertificateNumberGenerator("")
	}
	mailer := cfg.Mailer
	if mailer == nil {
		mailer = NewLogCertificateMailer(logger)
	}
	events := cfg.Events
	if events == nil {
		events = NewNopPublisher()
	}

	return &certificateService{
		certificates: cfg.Certificates,
		courses:      cfg.Courses,
		profiles:     cfg.Profiles,
		mailer:       mailer,
		events:       events,
		numbers:      numbers,
		cache:        newVerificationCache(cfg.Cache, cfg.CacheTTL, logger),
		logger:       logger,
		tracer:       otel.Tracer("github.com/noah-isme/ceu-go-api/internal/service/certificate"),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *certificateService) Issue(ctx context.Context, req IssueRequest) (IssueResult, error) {
	ctx, span := s.tracer.Start(ctx, "certificate.issue")
	defer span.End()

	req.UserID = strings.TrimSpace(req.UserID)
	req.CourseID = strings.TrimSpace(req.CourseID)
	if req.UserID == "" {
		return IssueResult{}, ErrUserIDRequired
	}
	if req.CourseID == "" {
		return IssueResult{}, ErrCourseIDRequired
	}
	span.SetAttributes(
		attribute.String("certificate.course_id", req.CourseID),
		attribute.Bool("certificate.reissue", req.Reissue),
	)

	existing, err := s.certificates.FindByUserAndCourse(ctx, req.UserID, req.CourseID)
	found := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		observability.CertificateIssuance().WithLabelValues("error").Inc()
		return IssueResult{}, fmt.Errorf("lookup certificate: %w", err)
	}

	meta := s.resolveMetadata(ctx, req)

	var result IssueResult
	switch {
	case found && req.Reissue:
		cert, reissueErr := s.reissue(ctx, existing)
		if reissueErr != nil {
			span.RecordError(reissueErr)
			span.SetStatus(codes.Error, "reissue failed")
			observability.CertificateIssuance().WithLabelValues("error").Inc()
			return IssueResult{}, reissueErr
		}
		result = IssueResult{Certificate: cert, Reissued: true}
	case found:
		result = IssueResult{Certificate: existing}
	default:
		cert, created, createErr := s.create(ctx, req, meta.email)
		if createErr != nil {
			span.RecordError(createErr)
			span.SetStatus(codes.Error, "create failed")
			observability.CertificateIssuance().WithLabelValues("error").Inc()
			return IssueResult{}, createErr
		}
		result = IssueResult{Certificate: cert, Created: created}
	}

	switch {
	case result.Reissued:
		observability.CertificateIssuance().WithLabelValues("reissued").Inc()
	case result.Created:
		observability.CertificateIssuance().WithLabelValues("created").Inc()
	default:
		observability.CertificateIssuance().WithLabelValues("existing").Inc()
	}

	if result.Created || result.Reissued {
		publishEvent(ctx, s.events, s.logger, DomainEvent{
			Type:              EventCertificateIssued,
			UserID:            req.UserID,
			CourseID:          req.CourseID,
			CertificateNumber: result.Certificate.CertificateNumber,
			OccurredAt:        s.now(),
		})
		s.logger.Info().
			Str("user_id", req.UserID).
			Str("course_id", req.CourseID).
			Str("certificate_number", result.Certificate.CertificateNumber).
			Bool("reissued", result.Reissued).
			Msg("certificate issued")
	}

	if result.Certificate.EmailedAt == nil {
		result.EmailSent = s.notify(ctx, &result.Certificate, meta, result.Reissued)
	}

	span.SetStatus(codes.Ok, "issued")
	return result, nil
}

func (s *certificateService) create(ctx context.Context, req IssueRequest, email string) (models.Certificate, bool, error) {
	for attempt := 0; attempt < maxCertificateNumberAttempts; attempt++ {
		issuedAt := s.now()
		number, err := s.numbers.Next(issuedAt)
		if err != nil {
			return models.Certificate{}, false, err
		}

		cert := models.Certificate{
			UserID:            req.UserID,
			CourseID:          req.CourseID,
			CompletionID:      req.CompletionID,
			CertificateNumber: number,
			EmailAddress:      email,
			IssuedAt:          issuedAt,
		}
		err = s.certificates.Create(ctx, &cert)
		if err == nil {
			return cert, true, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.Certificate{}, false, fmt.Errorf("create certificate: %w", err)
		}

		// A concurrent issuance won the (user, course) slot, or the number collided.
		current, lookupErr := s.certificates.FindByUserAndCourse(ctx, req.UserID, req.CourseID)
		if lookupErr == nil {
			return current, false, nil
		}
		if !errors.Is(lookupErr, gorm.ErrRecordNotFound) {
			return models.Certificate{}, false, fmt.Errorf("lookup certificate: %w", lookupErr)
		}
	}
	return models.Certificate{}, false, ErrCertificateNumberExhausted
}

func (s *certificateService) reissue(ctx context.Context, existing models.Certificate) (models.Certificate, error) {
	for attempt := 0; attempt < maxCertificateNumberAttempts; attempt++ {
		issuedAt := s.now()
		number, err := s.numbers.Next(issuedAt)
		if err != nil {
			return models.Certificate{}, err
		}
		err = s.certificates.Reissue(ctx, existing.ID, number, issuedAt)
		if err == nil {
			s.cache.invalidate(ctx, existing.CertificateNumber, number)
			updated := existing
			updated.CertificateNumber = number
			updated.IssuedAt = issuedAt
			updated.EmailedAt = nil
			updated.RevokedAt = nil
			updated.RevocationReason = ""
			return updated, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.Certificate{}, fmt.Errorf("reissue certificate: %w", err)
		}
	}
	return models.Certificate{}, ErrCertificateNumberExhausted
}

// notify sends the certificate email and stamps emailed_at. Failures are logged, never returned.
func (s *certificateService) notify(ctx context.Context, cert *models.Certificate, meta certificateMetadata, reissued bool) bool {
	to := meta.email
	if to == "" {
		to = cert.EmailAddress
	}
	if to == "" || cert.IsRevoked() {
		observability.CertificateEmails().WithLabelValues("skipped").Inc()
		return false
	}

	err := s.mailer.SendCertificate(ctx, CertificateEmail{
		To:                to,
		RecipientName:     meta.name,
		CourseTitle:       meta.title,
		CertificateNumber: cert.CertificateNumber,
		CEUHours:          meta.ceuHours,
		IssuedAt:          cert.IssuedAt,
		Reissued:          reissued,
	})
	if err != nil {
		observability.CertificateEmails().WithLabelValues("failed").Inc()
		s.logger.Warn().Err(err).
			Str("certificate_number", cert.CertificateNumber).
			Str("email", maskEmail(to)).
			Msg("certificate email delivery failed")
		return false
	}

	sentAt := s.now()
	if err := s.certificates.MarkEmailed(ctx, cert.ID, sentAt); err != nil {
		s.logger.Warn().Err(err).Str("certificate_number", cert.CertificateNumber).Msg("failed to record certificate email delivery")
	} else {
		cert.EmailedAt = &sentAt
	}
	observability.CertificateEmails().WithLabelValues("sent").Inc()
	return true
}

func (s *certificateService) resolveMetadata(ctx context.Context, req IssueRequest) certificateMetadata {
	meta := certificateMetadata{
		email: strings.TrimSpace(req.Email),
		name:  strings.TrimSpace(req.RecipientName),
		title: strings.TrimSpace(req.CourseTitle),
	}
	if req.CEUHours != nil {
		meta.ceuHours = *req.CEUHours
	}

	if (meta.email == "" || meta.name == "") && s.profiles != nil {
		if profile, err := s.profiles.FindByID(ctx, req.UserID); err == nil {
			if meta.email == "" {
				meta.email = strings.TrimSpace(profile.Email)
			}
			if meta.name == "" {
				meta.name = profile.FullName()
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn().Err(err).Str("user_id", req.UserID).Msg("profile lookup failed")
		}
	}

	if (meta.title == "" || req.CEUHours == nil) && s.courses != nil {
		if course, err := s.courses.FindByID(ctx, req.CourseID); err == nil {
			if meta.title == "" {
				meta.title = course.Title
			}
			if req.CEUHours == nil {
				meta.ceuHours = course.CEUHours
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn().Err(err).Str("course_id", req.CourseID).Msg("course lookup failed")
		}
	}
	if meta.title == "" {
		meta.title = req.CourseID
	}

	return meta
}

func (s *certificateService) Verify(ctx context.Context, number string) (dto.CertificateVerification, error) {
	ctx, span := s.tracer.Start(ctx, "certificate.verify")
	defer span.End()

	normalized, err := NormalizeCertificateNumber(number)
	if err != nil {
		observability.CertificateVerifications().WithLabelValues("invalid").Inc()
		span.SetStatus(codes.Error, "invalid number")
		return dto.CertificateVerification{}, err
	}

	if cached, ok := s.cache.get(ctx, normalized); ok {
		observability.CertificateVerifications().WithLabelValues("cache_hit").Inc()
		return cached, nil
	}

	cert, err := s.certificates.FindByNumber(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.CertificateVerifications().WithLabelValues("not_found").Inc()
			return dto.CertificateVerification{Valid: false, Message: "Certificate not found"}, ErrCertificateNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return dto.CertificateVerification{}, fmt.Errorf("lookup certificate: %w", err)
	}

	var result dto.CertificateVerification
	if cert.IsRevoked() {
		result = dto.CertificateVerification{
			Valid:     false,
			Message:   "Certificate has been revoked",
			RevokedAt: cert.RevokedAt,
		}
		observability.CertificateVerifications().WithLabelValues("revoked").Inc()
	} else {
		issuedAt := cert.IssuedAt
		result = dto.CertificateVerification{
			Valid:             true,
			CertificateNumber: cert.CertificateNumber,
			IssuedAt:          &issuedAt,
			RecipientName:     "N/A",
			CourseTitle:       cert.CourseID,
		}
		if s.profiles != nil {
			if profile, profileErr := s.profiles.FindByID(ctx, cert.UserID); profileErr == nil {
				result.RecipientName = RecipientInitials(profile.FirstName, profile.LastName)
			}
		}
		if s.courses != nil {
			if course, courseErr := s.courses.FindByID(ctx, cert.CourseID); courseErr == nil {
				hours := course.CEUHours
				result.CourseTitle = course.Title
				result.CEUHours = &hours
			}
		}
		observability.CertificateVerifications().WithLabelValues("valid").Inc()
	}

	s.cache.set(ctx, normalized, result)
	return result, nil
}

// RecipientInitials renders "First L." so public verification never exposes a full name.
func RecipientInitials(first, last string) string {
	first = strings.TrimSpace(first)
	last = strings.TrimSpace(last)
	switch {
	case first == "" && last == "":
		return "N/A"
	case last == "":
		return first
	case first == "":
		return strings.ToUpper(string([]rune(last)[:1])) + "."
	default:
		return first + " " + strings.ToUpper(string([]rune(last)[:1])) + "."
	}
}

func (s *certificateService) Revoke(ctx context.Context, req dto.CertificateRevokeRequest) (dto.CertificateSnapshot, error) {
	normalized, err := NormalizeCertificateNumber(req.CertificateNumber)
	if err != nil {
		return dto.CertificateSnapshot{}, err
	}

	cert, err := s.certificates.FindByNumber(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CertificateSnapshot{}, ErrCertificateNotFound
		}
		return dto.CertificateSnapshot{}, fmt.Errorf("lookup certificate: %w", err)
	}

	if !cert.IsRevoked() {
		revokedAt := s.now()
		reason := strings.TrimSpace(req.Reason)
		if err := s.certificates.Revoke(ctx, cert.ID, revokedAt, reason); err != nil {
			return dto.CertificateSnapshot{}, fmt.Errorf("revoke certificate: %w", err)
		}
		cert.RevokedAt = &revokedAt
		cert.RevocationReason = reason
		s.cache.invalidate(ctx, cert.CertificateNumber)
		publishEvent(ctx, s.events, s.logger, DomainEvent{
			Type:              EventCertificateRevoked,
			UserID:            cert.UserID,
			CourseID:          cert.CourseID,
			CertificateNumber: cert.CertificateNumber,
			OccurredAt:        revokedAt,
		})
		s.logger.Info().Str("certificate_number", cert.CertificateNumber).Msg("certificate revoked")
	}

	return dto.NewCertificateSnapshot(cert), nil
}

func (s *certificateService) ListForUser(ctx context.Context, userID string) ([]dto.CertificateSnapshot, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserIDRequired
	}
	certs, err := s.certificates.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	snapshots := make([]dto.CertificateSnapshot, 0, len(certs))
	for _, cert := range certs {
		snapshots = append(snapshots, dto.NewCertificateSnapshot(cert))
	}
	return snapshots, nil
}

// RetryPendingEmails resends notifications for certificates issued within window that were
// never delivered. It returns the number delivered.
func (s *certificateService) RetryPendingEmails(ctx context.Context, window time.Duration, limit int) (int, error) {
	since := s.now().Add(-window)
	pending, err := s.certificates.ListPendingEmail(ctx, since, limit)
	if err != nil {
		return 0, fmt.Errorf("list pending certificate emails: %w", err)
	}

	delivered := 0
	for i := range pending {
		if err := ctx.Err(); err != nil {
			return delivered, err
		}
		cert := pending[i]
		meta := s.resolveMetadata(ctx, IssueRequest{UserID: cert.UserID, CourseID: cert.CourseID, Email: cert.EmailAddress})
		if s.notify(ctx, &cert, meta, false) {
			delivered++
		}
	}
	return delivered, nil
}
