package domain

import (
	"time"

	"recruit-pipeline/pipeline"
)

// EvaluationJob asks the worker to analyze an application's resume.
type EvaluationJob struct {
	EvaluationID  uint `json:"evaluation_id"`
	ApplicationID uint `json:"application_id"`
	UploadID      uint `json:"upload_id"`
	JobID         uint `json:"job_id"`
}

// StageCompletedEvent is sent by the process owning a stage (MCQ test,
// async interview) when a candidate finishes it.
type StageCompletedEvent struct {
	ApplicationID uint           `json:"application_id"`
	Stage         pipeline.Stage `json:"stage"`
	Score         float64        `json:"score"`
}

// StageChangedEvent is emitted after an application moved, so email and
// in-app notification senders can pick a template.
type StageChangedEvent struct {
	ApplicationID uint            `json:"application_id"`
	JobID         uint            `json:"job_id"`
	From          pipeline.Stage  `json:"from"`
	To            pipeline.Stage  `json:"to"`
	Status        pipeline.Status `json:"status"`
	AutoAdvanced  bool            `json:"auto_advanced"`
	AdvancedBy    *string         `json:"advanced_by,omitempty"`
	OverallScore  int             `json:"overall_score"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
