package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/ceu-go-api/internal/models"
)

// CertificateRepository persists issued certificates.
type CertificateRepository interface {
	FindByUserAndCourse(ctx context.Context, userID, courseID string) (models.Certificate, error)
	FindByNumber(ctx context.Context, number string) (models.Certificate, error)
	ListByUser(ctx context.Context, userID string) ([]models.Certificate, error)
	ListPendingEmail(ctx context.Context, issuedSince time.Time, limit int) ([]models.Certificate, error)
	Create(ctx context.Context, certificate *models.Certificate) error
	Reissue(ctx context.Context, id uint, number string, issuedAt time.Time) error
	MarkEmailed(ctx context.Context, id uint, at time.Time) error
	Revoke(ctx context.Context, id uint, at time.Time, reason string) error
}

type certificateRepository struct {
	db *gorm.DB
}

// NewCertificateRepository constructs a repository backed by GORM.
func NewCertificateRepository(db *gorm.DB) CertificateRepository {
	return &certificateRepository{db: db}
}

func (r *certificateRepository) FindByUserAndCourse(ctx context.Context, userID, courseID string) (models.Certificate, error) {
	var certificate models.Certificate
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("issued_at DESC").
		First(&certificate).Error
	return certificate, err
}

func (r *certificateRepository) FindByNumber(ctx context.Context, number string) (models.Certificate, error) {
	var certificate models.Certificate
	err := r.db.WithContext(ctx).
		Where("certificate_number = ?", number).
		First(&certificate).Error
	return certificate, err
}

func (r *certificateRepository) ListByUser(ctx context.Context, userID string) ([]models.Certificate, error) {
	var certificates []models.Certificate
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("issued_at DESC").
		Find(&certificates).Error
	return certificates, err
}

// ListPendingEmail returns valid certificates whose notification has not been delivered yet.
func (r *certificateRepository) ListPendingEmail(ctx context.Context, issuedSince time.Time, limit int) ([]models.Certificate, error) {
	if limit <= 0 {
		limit = 50
	}

	var certificates []models.Certificate
	err := r.db.WithContext(ctx).
		Where("emailed_at IS NULL AND revoked_at IS NULL AND email_address <> ? AND issued_at >= ?", "", issuedSince).
		Order("issued_at ASC").
		Limit(limit).
		Find(&certificates).Error
	return certificates, err
}

func (r *certificateRepository) Create(ctx context.Context, certificate *models.Certificate) error {
	return r.db.WithContext(ctx).Create(certificate).Error
}

// Reissue assigns a new number to the same certificate row and clears delivery and revocation state.
func (r *certificateRepository) Reissue(ctx context.Context, id uint, number string, issuedAt time.Time) error {
	return r.updateByID(ctx, id, map[string]interface{}{
		"certificate_number": number,
		"issued_at":          issuedAt,
		"emailed_at":         nil,
		"revoked_at":         nil,
		"revocation_reason":  "",
	})
}

func (r *certificateRepository) MarkEmailed(ctx context.Context, id uint, at time.Time) error {
	return r.updateByID(ctx, id, map[string]interface{}{"emailed_at": at})
}

func (r *certificateRepository) Revoke(ctx context.Context, id uint, at time.Time, reason string) error {
	return r.updateByID(ctx, id, map[string]interface{}{
		"revoked_at":        at,
		"revocation_reason": reason,
	})
}

func (r *certificateRepository) updateByID(ctx context.Context, id uint, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&models.Certificate{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
