package domain

import "time"

// Upload is the extracted text of a candidate's resume.
type Upload struct {
	ID             uint   `gorm:"primaryKey"`
	CandidateName  string `gorm:"size:255"`
	CandidateEmail string `gorm:"size:255"`
	FileName       string `gorm:"size:255"`
	ResumeText     string `gorm:"type:longtext;not null"`
	CreatedAt      time.Time
}
