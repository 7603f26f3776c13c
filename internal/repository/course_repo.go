package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/ceu-go-api/internal/models"
)

// CourseRepository exposes catalog lookups needed by the certification flow.
type CourseRepository interface {
	FindByID(ctx context.Context, id string) (models.Course, error)
	FilePrefixes(ctx context.Context) (map[string]string, error)
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository constructs a repository backed by GORM.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) FindByID(ctx context.Context, id string) (models.Course, error) {
	var course models.Course
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&course).Error
	return course, err
}

// FilePrefixes maps course ids to the filename prefix of their content pages.
func (r *courseRepository) FilePrefixes(ctx context.Context) (map[string]string, error) {
	var rows []models.Course
	if err := r.db.WithContext(ctx).
		Select("id", "file_prefix").
		Where("file_prefix <> ?", "").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	prefixes := make(map[string]string, len(rows))
	for _, row := range rows {
		prefixes[row.ID] = row.FilePrefix
	}
	return prefixes, nil
}
