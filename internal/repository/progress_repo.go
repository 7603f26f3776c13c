package repository

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/ceu-go-api/internal/models"
)

// ProgressPatch is a partial progress write. Stored values larger than the patch are kept.
type ProgressPatch struct {
	Status           models.ProgressStatus
	Percent          int
	TimeSpentSeconds int64
	ModulesCompleted datatypes.JSON
	At               time.Time
}

// CompletionPatch is the terminal progress write.
type CompletionPatch struct {
	TimeSpentSeconds *int64
	ModulesCompleted datatypes.JSON
	At               time.Time
}

// ProgressRepository persists course progress rows keyed by (user, course).
type ProgressRepository interface {
	FindByUserAndCourse(ctx context.Context, userID, courseID string) (models.CourseProgress, error)
	Create(ctx context.Context, progress *models.CourseProgress) error
	ApplyUpdate(ctx context.Context, id uint, patch ProgressPatch) error
	MarkCompleted(ctx context.Context, id uint, patch CompletionPatch) error
	SetQuizResult(ctx context.Context, id uint, score int, passed bool, at time.Time) error
	DeleteByUserAndCourse(ctx context.Context, userID, courseID string) (int64, error)
	DeleteByEnrollment(ctx context.Context, enrollmentID uint) (int64, error)
}

type progressRepository struct {
	db *gorm.DB
}

// NewProgressRepository constructs a repository backed by GORM.
func NewProgressRepository(db *gorm.DB) ProgressRepository {
	return &progressRepository{db: db}
}

func (r *progressRepository) FindByUserAndCourse(ctx context.Context, userID, courseID string) (models.CourseProgress, error) {
	var progress models.CourseProgress
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&progress).Error
	return progress, err
}

func (r *progressRepository) Create(ctx context.Context, progress *models.CourseProgress) error {
	return r.db.WithContext(ctx).Create(progress).Error
}

// ApplyUpdate compares against the stored row inside the UPDATE itself so late or
// concurrent writes cannot regress percent, time spent or status.
func (r *progressRepository) ApplyUpdate(ctx context.Context, id uint, patch ProgressPatch) error {
	updates := map[string]interface{}{
		"progress_percent": gorm.Expr(
			"CASE WHEN status <> ? AND progress_percent > ? THEN progress_percent ELSE ? END",
			string(models.ProgressNotStarted), patch.Percent, patch.Percent,
		),
		"time_spent_seconds": gorm.Expr(
			"CASE WHEN time_spent_seconds > ? THEN time_spent_seconds ELSE ? END",
			patch.TimeSpentSeconds, patch.TimeSpentSeconds,
		),
		"status": gorm.Expr(
			"CASE WHEN status IN (?, ?) THEN status ELSE ? END",
			string(models.ProgressInProgress), string(models.ProgressCompleted), string(patch.Status),
		),
		"updated_at": patch.At,
	}
	if len(patch.ModulesCompleted) > 0 {
		updates["modules_completed"] = patch.ModulesCompleted
	}

	return r.updateByID(ctx, id, updates)
}

// MarkCompleted forces the terminal state. completed_at and started_at are only set when empty.
func (r *progressRepository) MarkCompleted(ctx context.Context, id uint, patch CompletionPatch) error {
	updates := map[string]interface{}{
		"status":           string(models.ProgressCompleted),
		"progress_percent": 100,
		"completed_at":     gorm.Expr("CASE WHEN completed_at IS NULL THEN ? ELSE completed_at END", patch.At),
		"started_at":       gorm.Expr("CASE WHEN started_at IS NULL THEN ? ELSE started_at END", patch.At),
		"updated_at":       patch.At,
	}
	if patch.TimeSpentSeconds != nil {
		updates["time_spent_seconds"] = gorm.Expr(
			"CASE WHEN time_spent_seconds > ? THEN time_spent_seconds ELSE ? END",
			*patch.TimeSpentSeconds, *patch.TimeSpentSeconds,
		)
	}
	if len(patch.ModulesCompleted) > 0 {
		updates["modules_completed"] = patch.ModulesCompleted
	}

	return r.updateByID(ctx, id, updates)
}

func (r *progressRepository) SetQuizResult(ctx context.Context, id uint, score int, passed bool, at time.Time) error {
	return r.updateByID(ctx, id, map[string]interface{}{
		"quiz_score":  score,
		"quiz_passed": passed,
		"updated_at":  at,
	})
}

func (r *progressRepository) DeleteByUserAndCourse(ctx context.Context, userID, courseID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Delete(&models.CourseProgress{})
	return result.RowsAffected, result.Error
}

func (r *progressRepository) DeleteByEnrollment(ctx context.Context, enrollmentID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		Delete(&models.CourseProgress{})
	return result.RowsAffected, result.Error
}

func (r *progressRepository) updateByID(ctx context.Context, id uint, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&models.CourseProgress{}).
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
