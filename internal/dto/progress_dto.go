package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/ceu-go-api/internal/models"
)

// ProgressUpdateRequest is the learner payload for a partial progress write.
type ProgressUpdateRequest struct {
	CourseID         string          `json:"courseId" validate:"max=64"`
	ProgressPercent  float64         `json:"progressPercent"`
	ModulesCompleted json.RawMessage `json:"modulesCompleted,omitempty"`
	TimeSpentSeconds *float64        `json:"timeSpentSeconds,omitempty"`
}

// ProgressCompleteRequest is the learner payload for the terminal completion write.
type ProgressCompleteRequest struct {
	CourseID         string          `json:"courseId" validate:"max=64"`
	ModulesCompleted json.RawMessage `json:"modulesCompleted,omitempty"`
	TimeSpentSeconds *float64        `json:"timeSpentSeconds,omitempty"`
}

// ProgressSnapshot is the serialized view of a course progress row.
type ProgressSnapshot struct {
	ID               uint            `json:"id"`
	UserID           string          `json:"user_id"`
	CourseID         string          `json:"course_id"`
	EnrollmentID     uint            `json:"enrollment_id"`
	Status           string          `json:"status"`
	ProgressPercent  int             `json:"progress_percent"`
	ModulesCompleted json.RawMessage `json:"modules_completed"`
	TimeSpentSeconds int64           `json:"time_spent_seconds"`
	QuizScore        *int            `json:"quiz_score"`
	QuizPassed       *bool           `json:"quiz_passed"`
	StartedAt        *time.Time      `json:"started_at"`
	CompletedAt      *time.Time      `json:"completed_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ProgressResponse wraps a single snapshot.
type ProgressResponse struct {
	Success  bool             `json:"success"`
	Progress ProgressSnapshot `json:"progress"`
}

// CompletionResult is returned by the completion operation.
type CompletionResult struct {
	Progress    ProgressSnapshot     `json:"progress"`
	Certificate *CertificateSnapshot `json:"certificate"`
	EmailSent   bool                 `json:"emailSent"`
}

// CompletionResponse is the HTTP body of a completion call.
type CompletionResponse struct {
	Success bool `json:"success"`
	CompletionResult
}

// NewProgressSnapshot maps a progress model to its API representation.
func NewProgressSnapshot(p models.CourseProgress) ProgressSnapshot {
	var modules json.RawMessage
	if len(p.ModulesCompleted) > 0 {
		modules = json.RawMessage(p.ModulesCompleted)
	}

	return ProgressSnapshot{
		ID:               p.ID,
		UserID:           p.UserID,
		CourseID:         p.CourseID,
		EnrollmentID:     p.EnrollmentID,
		Status:           string(p.Status),
		ProgressPercent:  p.ProgressPercent,
		ModulesCompleted: modules,
		TimeSpentSeconds: p.TimeSpentSeconds,
		QuizScore:        p.QuizScore,
		QuizPassed:       p.QuizPassed,
		StartedAt:        p.StartedAt,
		CompletedAt:      p.CompletedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}
