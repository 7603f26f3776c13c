package models

import "time"

// Certificate is the completion credential issued once per learner and course.
type Certificate struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	UserID            string     `gorm:"size:64;not null;uniqueIndex:idx_certificate_user_course" json:"user_id"`
	CourseID          string     `gorm:"size:64;not null;uniqueIndex:idx_certificate_user_course" json:"course_id"`
	CompletionID      *uint      `json:"completion_id"`
	CertificateNumber string     `gorm:"size:64;not null;uniqueIndex" json:"certificate_number"`
	EmailAddress      string     `gorm:"size:255" json:"email_address"`
	IssuedAt          time.Time  `gorm:"not null" json:"issued_at"`
	EmailedAt         *time.Time `json:"emailed_at"`
	RevokedAt         *time.Time `json:"revoked_at"`
	RevocationReason  string     `gorm:"size:255" json:"revocation_reason,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// IsRevoked reports whether the certificate has been revoked.
func (c Certificate) IsRevoked() bool {
	return c.RevokedAt != nil
}
