package dto

import (
	"time"

	"github.com/noah-isme/ceu-go-api/internal/models"
)

// CertificateSnapshot is the serialized view of a certificate row.
type CertificateSnapshot struct {
	ID                uint       `json:"id"`
	UserID            string     `json:"user_id"`
	CourseID          string     `json:"course_id"`
	CompletionID      *uint      `json:"completion_id"`
	CertificateNumber string     `json:"certificate_number"`
	EmailAddress      string     `json:"email_address"`
	IssuedAt          time.Time  `json:"issued_at"`
	EmailedAt         *time.Time `json:"emailed_at"`
	RevokedAt         *time.Time `json:"revoked_at"`
}

// NewCertificateSnapshot maps a certificate model to its API representation.
func NewCertificateSnapshot(c models.Certificate) CertificateSnapshot {
	return CertificateSnapshot{
		ID:                c.ID,
		UserID:            c.UserID,
		CourseID:          c.CourseID,
		CompletionID:      c.CompletionID,
		CertificateNumber: c.CertificateNumber,
		EmailAddress:      c.EmailAddress,
		IssuedAt:          c.IssuedAt,
		EmailedAt:         c.EmailedAt,
		RevokedAt:         c.RevokedAt,
	}
}

// CertificateIssueRequest is the admin payload for issuing or re-issuing a certificate.
type CertificateIssueRequest struct {
	UserID       string   `json:"userId" validate:"max=64"`
	CourseID     string   `json:"courseId" validate:"max=64"`
	UserEmail    string   `json:"userEmail" validate:"omitempty,email"`
	UserName     string   `json:"userName" validate:"max=255"`
	CourseTitle  string   `json:"courseTitle" validate:"max=255"`
	CEUHours     *float64 `json:"ceuHours" validate:"omitempty,gte=0"`
	CompletionID *uint    `json:"completionId"`
	Reissue      bool     `json:"reissue"`
}

// CertificateIssueResponse is the HTTP body of an issuance call.
type CertificateIssueResponse struct {
	Success     bool                `json:"success"`
	Certificate CertificateSnapshot `json:"certificate"`
	CertNumber  string              `json:"certNumber"`
	EmailSent   bool                `json:"emailSent"`
	Created     bool                `json:"created"`
	Reissued    bool                `json:"reissued"`
}

// CertificateRevokeRequest is the admin payload for invalidating a certificate.
type CertificateRevokeRequest struct {
	CertificateNumber string `json:"certificateNumber" validate:"required,max=64"`
	Reason            string `json:"reason" validate:"max=255"`
}

// CertificateResponse wraps a single certificate.
type CertificateResponse struct {
	Success     bool                `json:"success"`
	Certificate CertificateSnapshot `json:"certificate"`
}

// CertificateListResponse lists the caller's certificates.
type CertificateListResponse struct {
	Success      bool                  `json:"success"`
	Certificates []CertificateSnapshot `json:"certificates"`
}

// CertificateVerification is the public verification payload. It never carries full PII.
type CertificateVerification struct {
	Valid             bool       `json:"valid"`
	Message           string     `json:"message,omitempty"`
	CertificateNumber string     `json:"certificateNumber,omitempty"`
	IssuedAt          *time.Time `json:"issuedAt,omitempty"`
	RecipientName     string     `json:"recipientName,omitempty"`
	CourseTitle       string     `json:"courseTitle,omitempty"`
	CEUHours          *float64   `json:"ceuHours,omitempty"`
	RevokedAt         *time.Time `json:"revokedAt,omitempty"`
}
