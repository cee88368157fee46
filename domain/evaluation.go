package domain

import "time"

const (
	EvaluationQueued     = "queued"
	EvaluationProcessing = "processing"
	EvaluationCompleted  = "completed"
	EvaluationFailed     = "failed"
)

// Evaluation tracks one asynchronous resume analysis for an application.
type Evaluation struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ApplicationID uint      `gorm:"not null;index" json:"application_id"`
	UploadID      uint      `gorm:"not null" json:"upload_id"`
	JobID         uint      `gorm:"not null" json:"job_id"`
	Status        string    `gorm:"size:16;not null;default:'queued'" json:"status"`
	MatchScore    *float64  `gorm:"column:match_score" json:"match_score,omitempty"`
	Feedback      string    `gorm:"type:text" json:"feedback,omitempty"`
	Summary       string    `gorm:"type:text" json:"summary,omitempty"`
	Error         string    `gorm:"type:text" json:"error,omitempty"`
	ResultJSON    *string   `gorm:"type:text" json:"-"` // raw scorer answer, nil until it arrives
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ResumeAnalysis is what a resume scorer returns. MatchScore is 0–100.
type ResumeAnalysis struct {
	MatchScore float64 `json:"match_score"`
	Feedback   string  `json:"feedback"`
	Summary    string  `json:"summary"`
}
