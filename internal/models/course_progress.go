package models

import (
	"time"

	"gorm.io/datatypes"
)

// ProgressStatus is the lifecycle state of a course progress record.
type ProgressStatus string

const (
	// ProgressNotStarted means the learner has not recorded any progress yet.
	ProgressNotStarted ProgressStatus = "not_started"
	// ProgressInProgress means progress has been recorded but the course is not complete.
	ProgressInProgress ProgressStatus = "in_progress"
	// ProgressCompleted is terminal for learner-driven writes.
	ProgressCompleted ProgressStatus = "completed"
)

// CourseProgress is the authoritative per-learner, per-course progress record.
type CourseProgress struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	UserID           string         `gorm:"size:64;not null;uniqueIndex:idx_progress_user_course" json:"user_id"`
	CourseID         string         `gorm:"size:64;not null;uniqueIndex:idx_progress_user_course" json:"course_id"`
	EnrollmentID     uint           `gorm:"index" json:"enrollment_id"`
	Status           ProgressStatus `gorm:"size:32;not null;default:'not_started'" json:"status"`
	ProgressPercent  int            `gorm:"not null;default:0" json:"progress_percent"`
	ModulesCompleted datatypes.JSON `json:"modules_completed"`
	TimeSpentSeconds int64          `gorm:"not null;default:0" json:"time_spent_seconds"`
	QuizScore        *int           `json:"quiz_score"`
	QuizPassed       *bool          `json:"quiz_passed"`
	StartedAt        *time.Time     `json:"started_at"`
	CompletedAt      *time.Time     `json:"completed_at"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// TableName pins the table name used by the progress repository.
func (CourseProgress) TableName() string {
	return "course_progress"
}

// IsCompleted reports whether the record reached the terminal state.
func (p CourseProgress) IsCompleted() bool {
	return p.Status == ProgressCompleted
}
