package domain

import (
	"time"

	"recruit-pipeline/pipeline"
)

// Job is a posting candidates apply to. Pipeline holds the job's stage
// policy; it is written only through the validated update path.
type Job struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	Title       string           `gorm:"size:255;not null" json:"title"`
	Description string           `gorm:"type:text;not null" json:"description"`
	Rubric      string           `gorm:"type:text" json:"rubric,omitempty"`
	Pipeline    *pipeline.Config `gorm:"type:json;serializer:json" json:"pipeline,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}
