package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/ceu-go-api/internal/models"
)

// EnrollmentRepository reads and maintains course enrollments.
type EnrollmentRepository interface {
	FindActive(ctx context.Context, userID, courseID string) (models.Enrollment, error)
	FindByID(ctx context.Context, id uint) (models.Enrollment, error)
	ActiveCourseIDs(ctx context.Context, userID string) ([]string, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Deactivate(ctx context.Context, id uint) error
}

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository constructs a repository backed by GORM.
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) FindActive(ctx context.Context, userID, courseID string) (models.Enrollment, error) {
	var enrollment models.Enrollment
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ? AND is_active = ?", userID, courseID, true).
		Order("purchased_at DESC").
		First(&enrollment).Error
	return enrollment, err
}

func (r *enrollmentRepository) FindByID(ctx context.Context, id uint) (models.Enrollment, error) {
	var enrollment models.Enrollment
	err := r.db.WithContext(ctx).First(&enrollment, id).Error
	return enrollment, err
}

func (r *enrollmentRepository) ActiveCourseIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Distinct().
		Pluck("course_id", &ids).Error
	return ids, err
}

func (r *enrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	return r.db.WithContext(ctx).Create(enrollment).Error
}

func (r *enrollmentRepository) Deactivate(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("id = ?", id).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
