package models

import (
	"strings"
	"time"
)

// Profile holds learner identity details and the administrator flag.
type Profile struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Email     string    `gorm:"size:255" json:"email"`
	FirstName string    `gorm:"size:120" json:"first_name"`
	LastName  string    `gorm:"size:120" json:"last_name"`
	IsAdmin   bool      `gorm:"not null;default:false" json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullName joins the first and last name.
func (p Profile) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
}
