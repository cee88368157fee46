package service

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"recruit-pipeline/domain"
	"recruit-pipeline/logger"
	"recruit-pipeline/pipeline"
)

// ErrScoreAlreadyRecorded rejects a second, different score for a stage.
var ErrScoreAlreadyRecorded = errors.New("score already recorded for this stage")

type JobStore interface {
	CreateJob(ctx context.Context, job *domain.Job) error
	GetJob(ctx context.Context, id uint) (*domain.Job, error)
	GetPipelineConfig(ctx context.Context, jobID uint) (*pipeline.Config, error)
	SetPipelineConfig(ctx context.Context, jobID uint, cfg pipeline.Config, rescore func(app domain.Application) int) (int, error)
}

type ApplicationStore interface {
	CreateApplication(ctx context.Context, upload *domain.Upload, app *domain.Application, eval *domain.Evaluation) error
	GetApplication(ctx context.Context, id uint) (*domain.Application, error)
	ListApplications(ctx context.Context, jobID uint) ([]domain.Application, error)
	UpdateApplication(ctx context.Context, id uint, fn func(app *domain.Application, cfg *pipeline.Config) error) error
	GetUpload(ctx context.Context, id uint) (*domain.Upload, error)
	GetEvaluation(ctx context.Context, id uint) (*domain.Evaluation, error)
	UpdateEvaluation(ctx context.Context, id uint, updates map[string]interface{}) error
}

// Notifier receives transitions after they are committed.
type Notifier interface {
	StageChanged(ctx context.Context, ev domain.StageChangedEvent) error
}

// EvaluationQueue hands resume analyses to the worker.
type EvaluationQueue interface {
	PublishEvaluation(ctx context.Context, job domain.EvaluationJob) error
}

type ResumeScorer interface {
	ScoreResume(ctx context.Context, job domain.Job, resumeText string) (domain.ResumeAnalysis, error)
}

// PipelineService loads applications, runs the decision core on them under
// a row lock, saves the result and emits notifications.
type PipelineService struct {
	jobs     JobStore
	apps     ApplicationStore
	engine   *pipeline.Engine
	notifier Notifier
	queue    EvaluationQueue
	scorer   ResumeScorer
	log      *logger.Logger
}

type Deps struct {
	Jobs     JobStore
	Apps     ApplicationStore
	Engine   *pipeline.Engine
	Notifier Notifier
	Queue    EvaluationQueue
	Scorer   ResumeScorer
	Log      *logger.Logger
}

func NewPipelineService(d Deps) *PipelineService {
	engine := d.Engine
	if engine == nil {
		engine = pipeline.NewEngine()
	}
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	return &PipelineService{
		jobs:     d.Jobs,
		apps:     d.Apps,
		engine:   engine,
		notifier: d.Notifier,
		queue:    d.Queue,
		scorer:   d.Scorer,
		log:      log.With("component", "pipeline_service"),
	}
}

type NewJob struct {
	Title       string
	Description string
	Rubric      string
	Pipeline    *pipeline.Config
}

// CreateJob stores a job with its own pipeline, or with the defaults when
// none is supplied.
func (s *PipelineService) CreateJob(ctx context.Context, in NewJob) (*domain.Job, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, errors.New("title is required")
	}
	cfg := pipeline.DefaultConfig()
	if in.Pipeline != nil {
		if err := pipeline.Validate(*in.Pipeline); err != nil {
			return nil, err
		}
		cfg = in.Pipeline.Clone()
	}
	job := &domain.Job{
		Title:       in.Title,
		Description: in.Description,
		Rubric:      in.Rubric,
		Pipeline:    &cfg,
	}
	if err := s.jobs.CreateJob(ctx, job); err != nil {
		return nil, err
	}
	s.log.Info("job created", "job_id", job.ID)
	return job, nil
}

// GetPipelineConfig returns the policy in force for the job.
func (s *PipelineService) GetPipelineConfig(ctx context.Context, jobID uint) (pipeline.Config, error) {
	stored, err := s.jobs.GetPipelineConfig(ctx, jobID)
	if err != nil {
		return pipeline.Config{}, err
	}
	return pipeline.ResolveConfig(stored), nil
}

// UpdatePipelineConfig replaces the job's policy and refreshes the overall
// score of every application still in progress, all in one store
// transaction. Stage history and the scores of hired or rejected candidates
// are left as they were.
func (s *PipelineService) UpdatePipelineConfig(ctx context.Context, jobID uint, cfg pipeline.Config) error {
	weights := cfg.ScoringWeights
	rescored, err := s.jobs.SetPipelineConfig(ctx, jobID, cfg, func(app domain.Application) int {
		if app.CurrentStage.Terminal() {
			return app.OverallScore
		}
		return pipeline.ComputeOverallScore(app.Scores(), weights)
	})
	if err != nil {
		return err
	}
	s.log.Info("pipeline configuration updated", "job_id", jobID, "rescored", rescored)
	return nil
}

type NewApplication struct {
	JobID          uint
	CandidateName  string
	CandidateEmail string
	FileName       string
	ResumeText     string
}

// SubmitApplication records the application at resume screening and queues
// the resume analysis. A queue failure marks the evaluation failed; the
// application itself is still accepted.
func (s *PipelineService) SubmitApplication(ctx context.Context, in NewApplication) (*domain.Application, *domain.Evaluation, error) {
	if _, err := s.jobs.GetJob(ctx, in.JobID); err != nil {
		return nil, nil, err
	}

	upload := &domain.Upload{
		CandidateName:  in.CandidateName,
		CandidateEmail: in.CandidateEmail,
		FileName:       in.FileName,
		ResumeText:     in.ResumeText,
	}
	app := domain.NewApplication(in.JobID, 0, in.CandidateName, in.CandidateEmail)
	eval := &domain.Evaluation{Status: domain.EvaluationQueued}
	if err := s.apps.CreateApplication(ctx, upload, app, eval); err != nil {
		return nil, nil, err
	}

	err := s.queue.PublishEvaluation(ctx, domain.EvaluationJob{
		EvaluationID:  eval.ID,
		ApplicationID: app.ID,
		UploadID:      upload.ID,
		JobID:         app.JobID,
	})
	if err != nil {
		s.log.Error("failed to queue resume evaluation", "application_id", app.ID, "evaluation_id", eval.ID, "error", err)
		eval.Status = domain.EvaluationFailed
		eval.Error = err.Error()
		if uerr := s.apps.UpdateEvaluation(ctx, eval.ID, map[string]interface{}{"status": eval.Status, "error": eval.Error}); uerr != nil {
			s.log.Error("failed to mark evaluation failed", "evaluation_id", eval.ID, "error", uerr)
		}
	}

	s.log.Info("application submitted", "application_id", app.ID, "job_id", app.JobID)
	return app, eval, nil
}

// RecordStageScore stores the score a stage produced and lets the engine
// decide whether the candidate moves on. The returned outcome says why when
// nothing moved. Offer carries no score of its own, so an offer score only
// drives the decision.
func (s *PipelineService) RecordStageScore(ctx context.Context, appID uint, stage pipeline.Stage, score float64) (pipeline.Outcome, error) {
	if !stage.Valid() {
		return pipeline.Outcome{}, &pipeline.InvalidStageError{Stage: stage, Reason: "unknown stage"}
	}
	key, scored := pipeline.ScoreKeyFor(stage)
	if math.IsNaN(score) || score < 0 || score > 100 {
		return pipeline.Outcome{}, errors.Wrapf(pipeline.ErrScoreOutOfRange, "%s score %v", stage, score)
	}

	var (
		outcome pipeline.Outcome
		changed *domain.StageChangedEvent
	)
	err := s.apps.UpdateApplication(ctx, appID, func(app *domain.Application, cfg *pipeline.Config) error {
		resolved := pipeline.ResolveConfig(cfg)

		state := app.PipelineState()
		if scored {
			if prev := state.Scores.Get(key); prev != nil && *prev != score {
				return errors.Wrapf(ErrScoreAlreadyRecorded, "%s already scored %v", stage, *prev)
			}
			state.Scores = state.Scores.With(key, score)
			state.OverallScore = pipeline.ComputeOverallScore(state.Scores, resolved.ScoringWeights)
		}

		var err error
		outcome, err = s.engine.CompleteStage(state, stage, score, &resolved)
		if err != nil {
			return err
		}
		app.ApplyPipelineState(outcome.State)
		if outcome.Advanced {
			changed = stageChangedEvent(app, outcome)
		}
		return nil
	})
	if err != nil {
		return pipeline.Outcome{}, err
	}

	s.log.Info("stage score recorded",
		"application_id", appID, "stage", stage, "score", score,
		"advanced", outcome.Advanced, "reason", outcome.Reason)
	s.notify(ctx, changed)
	return outcome, nil
}

// AdvanceManually applies an operator's decision, bypassing thresholds.
func (s *PipelineService) AdvanceManually(ctx context.Context, appID uint, req pipeline.ManualAdvance) (pipeline.Outcome, error) {
	var (
		outcome pipeline.Outcome
		changed *domain.StageChangedEvent
	)
	err := s.apps.UpdateApplication(ctx, appID, func(app *domain.Application, cfg *pipeline.Config) error {
		var err error
		outcome, err = s.engine.AdvanceManually(app.PipelineState(), req, cfg)
		if err != nil {
			return err
		}
		app.ApplyPipelineState(outcome.State)
		changed = stageChangedEvent(app, outcome)
		return nil
	})
	if err != nil {
		return pipeline.Outcome{}, err
	}

	s.log.Info("application advanced manually",
		"application_id", appID, "from", outcome.PreviousStage, "to", outcome.NewStage, "actor", req.ActorID)
	s.notify(ctx, changed)
	return outcome, nil
}

// ProcessEvaluation runs one queued resume analysis. A failed analysis is
// recorded on the evaluation and never touches the pipeline state.
func (s *PipelineService) ProcessEvaluation(ctx context.Context, job domain.EvaluationJob) error {
	log := s.log.With("evaluation_id", job.EvaluationID, "application_id", job.ApplicationID)
	fail := func(err error) error {
		log.Error("resume evaluation failed", "error", err)
		if uerr := s.apps.UpdateEvaluation(ctx, job.EvaluationID, map[string]interface{}{
			"status": domain.EvaluationFailed,
			"error":  err.Error(),
		}); uerr != nil {
			log.Error("failed to mark evaluation failed", "error", uerr)
		}
		return err
	}

	if err := s.apps.UpdateEvaluation(ctx, job.EvaluationID, map[string]interface{}{"status": domain.EvaluationProcessing}); err != nil {
		return fail(err)
	}
	jobMeta, err := s.jobs.GetJob(ctx, job.JobID)
	if err != nil {
		return fail(err)
	}
	upload, err := s.apps.GetUpload(ctx, job.UploadID)
	if err != nil {
		return fail(err)
	}
	analysis, err := s.scorer.ScoreResume(ctx, *jobMeta, upload.ResumeText)
	if err != nil {
		return fail(err)
	}

	raw, err := json.Marshal(analysis)
	if err != nil {
		return fail(errors.Wrap(err, "failed to encode analysis"))
	}
	if err := s.apps.UpdateEvaluation(ctx, job.EvaluationID, map[string]interface{}{
		"status":      domain.EvaluationCompleted,
		"match_score": analysis.MatchScore,
		"feedback":    analysis.Feedback,
		"summary":     analysis.Summary,
		"result_json": string(raw),
	}); err != nil {
		return fail(err)
	}

	if _, err := s.RecordStageScore(ctx, job.ApplicationID, pipeline.StageResumeScreening, analysis.MatchScore); err != nil {
		log.Error("failed to record resume score", "error", err)
		return err
	}
	log.Info("resume evaluation completed", "match_score", analysis.MatchScore)
	return nil
}

func (s *PipelineService) GetApplication(ctx context.Context, id uint) (*domain.Application, error) {
	return s.apps.GetApplication(ctx, id)
}

func (s *PipelineService) GetEvaluation(ctx context.Context, id uint) (*domain.Evaluation, error) {
	return s.apps.GetEvaluation(ctx, id)
}

// PipelineReport returns the job and its applications, best overall score first.
func (s *PipelineService) PipelineReport(ctx context.Context, jobID uint) (*domain.Job, []domain.Application, error) {
	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, nil, err
	}
	apps, err := s.apps.ListApplications(ctx, jobID)
	if err != nil {
		return nil, nil, err
	}
	return job, apps, nil
}

// notify never fails the caller: the transition is already committed.
func (s *PipelineService) notify(ctx context.Context, ev *domain.StageChangedEvent) {
	if ev == nil || s.notifier == nil {
		return
	}
	if err := s.notifier.StageChanged(ctx, *ev); err != nil {
		s.log.Warn("failed to publish stage change", "application_id", ev.ApplicationID, "to", ev.To, "error", err)
	}
}

func stageChangedEvent(app *domain.Application, out pipeline.Outcome) *domain.StageChangedEvent {
	ev := &domain.StageChangedEvent{
		ApplicationID: app.ID,
		JobID:         app.JobID,
		From:          out.PreviousStage,
		To:            out.NewStage,
		Status:        out.State.Status,
		OverallScore:  out.State.OverallScore,
		OccurredAt:    time.Now().UTC(),
	}
	if n := len(out.State.History); n > 0 {
		last := out.State.History[n-1]
		ev.AutoAdvanced = last.AutoAdvanced
		ev.AdvancedBy = last.AdvancedBy
		ev.OccurredAt = last.Timestamp
	}
	return ev
}
