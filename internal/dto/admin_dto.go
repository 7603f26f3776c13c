package dto

import (
	"time"

	"github.com/noah-isme/ceu-go-api/internal/models"
)

// ManualEnrollRequest grants course access without a payment.
type ManualEnrollRequest struct {
	UserID   string `json:"userId" validate:"required,max=64"`
	CourseID string `json:"courseId" validate:"required,max=64"`
}

// ProgressResetRequest removes the progress row for a learner and course.
type ProgressResetRequest struct {
	UserID   string `json:"userId" validate:"required,max=64"`
	CourseID string `json:"courseId" validate:"required,max=64"`
}

// EnrollmentSnapshot is the serialized view of an enrollment.
type EnrollmentSnapshot struct {
	ID               uint      `json:"id"`
	UserID           string    `json:"user_id"`
	CourseID         string    `json:"course_id"`
	PurchasedAt      time.Time `json:"purchased_at"`
	PaymentReference *string   `json:"payment_reference"`
	AmountPaidCents  int64     `json:"amount_paid_cents"`
	IsActive         bool      `json:"is_active"`
}

// EnrollmentResponse wraps a single enrollment.
type EnrollmentResponse struct {
	Success    bool               `json:"success"`
	Enrollment EnrollmentSnapshot `json:"enrollment"`
}

// NewEnrollmentSnapshot maps an enrollment model to its API representation.
func NewEnrollmentSnapshot(e models.Enrollment) EnrollmentSnapshot {
	return EnrollmentSnapshot{
		ID:               e.ID,
		UserID:           e.UserID,
		CourseID:         e.CourseID,
		PurchasedAt:      e.PurchasedAt,
		PaymentReference: e.PaymentReference,
		AmountPaidCents:  e.AmountPaidCents,
		IsActive:         e.IsActive,
	}
}
