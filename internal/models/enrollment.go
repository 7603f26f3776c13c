package models

import "time"

// Enrollment records a learner's paid or manually granted access to a course.
type Enrollment struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           string    `gorm:"size:64;not null;index:idx_enrollment_user_course" json:"user_id"`
	CourseID         string    `gorm:"size:64;not null;index:idx_enrollment_user_course" json:"course_id"`
	PurchasedAt      time.Time `gorm:"not null" json:"purchased_at"`
	PaymentReference *string   `gorm:"size:255" json:"payment_reference"`
	AmountPaidCents  int64     `gorm:"not null;default:0" json:"amount_paid_cents"`
	IsActive         bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// IsManual reports whether the enrollment was granted without a payment.
func (e Enrollment) IsManual() bool {
	return e.PaymentReference == nil && e.AmountPaidCents == 0
}
