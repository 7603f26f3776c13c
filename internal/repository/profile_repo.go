package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/ceu-go-api/internal/models"
)

// ProfileRepository reads learner profiles.
type ProfileRepository interface {
	FindByID(ctx context.Context, id string) (models.Profile, error)
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository constructs a repository backed by GORM.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) FindByID(ctx context.Context, id string) (models.Profile, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error
	return profile, err
}
