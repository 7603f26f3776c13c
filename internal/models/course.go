package models

import "time"

// Course is a catalog entry that can be enrolled in and certified.
type Course struct {
	ID           string    `gorm:"primaryKey;size:64" json:"id"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	CEUHours     float64   `gorm:"not null;default:0" json:"ceu_hours"`
	TotalModules int       `gorm:"not null;default:0" json:"total_modules"`
	PassingScore int       `gorm:"not null;default:0" json:"passing_score"`
	FilePrefix   string    `gorm:"size:128" json:"file_prefix"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PassingThreshold returns the course passing score, or fallback when none is configured.
func (c Course) PassingThreshold(fallback int) int {
	if c.PassingScore > 0 && c.PassingScore <= 100 {
		return c.PassingScore
	}
	return fallback
}
