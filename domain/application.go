package domain

import (
	"time"

	"recruit-pipeline/pipeline"
)

// Application is one candidate's attempt at one job, together with its
// pipeline state. CurrentStage, Status, StageHistory and OverallScore are
// only changed through ApplyPipelineState.
type Application struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	JobID          uint   `gorm:"not null;index" json:"job_id"`
	UploadID       uint   `gorm:"not null" json:"upload_id"`
	CandidateName  string `gorm:"size:255" json:"candidate_name"`
	CandidateEmail string `gorm:"size:255" json:"candidate_email"`

	CurrentStage pipeline.Stage          `gorm:"size:32;not null;default:'resume_screening';index" json:"current_stage"`
	Status       pipeline.Status         `gorm:"size:32;not null;default:'screening'" json:"status"`
	StageHistory []pipeline.HistoryEntry `gorm:"type:json;serializer:json" json:"stage_history"`

	ResumeMatchScore   *float64 `json:"resume_match_score"`
	TestScore          *float64 `json:"test_score"`
	InterviewScore     *float64 `json:"interview_score"`
	LiveInterviewScore *float64 `json:"live_interview_score"`
	OverallScore       int      `gorm:"not null;default:0" json:"overall_score"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewApplication returns an application in its initial stage.
func NewApplication(jobID, uploadID uint, name, email string) *Application {
	app := &Application{
		JobID:          jobID,
		UploadID:       uploadID,
		CandidateName:  name,
		CandidateEmail: email,
	}
	app.ApplyPipelineState(pipeline.NewApplicationState())
	return app
}

func (a *Application) Scores() pipeline.Scores {
	return pipeline.Scores{
		Resume:         a.ResumeMatchScore,
		MCQ:            a.TestScore,
		AsyncInterview: a.InterviewScore,
		LiveInterview:  a.LiveInterviewScore,
	}
}

// PipelineState is the view the decision core works on.
func (a *Application) PipelineState() pipeline.ApplicationState {
	return pipeline.ApplicationState{
		CurrentStage: a.CurrentStage,
		Status:       a.Status,
		History:      a.StageHistory,
		Scores:       a.Scores(),
		OverallScore: a.OverallScore,
	}
}

// ApplyPipelineState copies a state returned by the core back onto the row.
func (a *Application) ApplyPipelineState(s pipeline.ApplicationState) {
	a.CurrentStage = s.CurrentStage
	a.Status = s.Status
	a.StageHistory = s.History
	a.ResumeMatchScore = s.Scores.Resume
	a.TestScore = s.Scores.MCQ
	a.InterviewScore = s.Scores.AsyncInterview
	a.LiveInterviewScore = s.Scores.LiveInterview
	a.OverallScore = s.OverallScore
}
