package interfaces

import (
	"context"
	"time"

	"recruit-pipeline/domain"
	"recruit-pipeline/logger"
	"recruit-pipeline/pipeline"
	"recruit-pipeline/service"
)

// MessageSource is the broker side of the worker.
type MessageSource interface {
	ConsumeEvaluations(handler func(domain.EvaluationJob)) error
	ConsumeStageEvents(handler func(domain.StageCompletedEvent)) error
}

// Worker feeds queued resume analyses and stage completion events into the
// pipeline service.
type Worker struct {
	svc     *service.PipelineService
	log     *logger.Logger
	timeout time.Duration
}

func NewWorker(svc *service.PipelineService, log *logger.Logger) *Worker {
	return &Worker{svc: svc, log: log.With("component", "worker"), timeout: 3 * time.Minute}
}

// Start registers both consumers. Deliveries are handled on the broker's
// goroutines until the connection closes.
func (w *Worker) Start(src MessageSource) error {
	if err := src.ConsumeEvaluations(w.HandleEvaluation); err != nil {
		return err
	}
	return src.ConsumeStageEvents(w.HandleStageCompleted)
}

func (w *Worker) HandleEvaluation(job domain.EvaluationJob) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	w.log.Info("processing resume evaluation", "evaluation_id", job.EvaluationID, "application_id", job.ApplicationID)
	if err := w.svc.ProcessEvaluation(ctx, job); err != nil {
		w.log.Warn("resume evaluation did not complete", "evaluation_id", job.EvaluationID, "error", err)
	}
}

// HandleStageCompleted records a score sent by the process that owns the
// stage. Rejected events are logged and dropped; retrying cannot fix them.
func (w *Worker) HandleStageCompleted(ev domain.StageCompletedEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	stage, err := pipeline.ParseStage(string(ev.Stage))
	if err != nil {
		w.log.Warn("stage event rejected", "application_id", ev.ApplicationID, "error", err)
		return
	}
	out, err := w.svc.RecordStageScore(ctx, ev.ApplicationID, stage, ev.Score)
	if err != nil {
		w.log.Warn("stage event rejected", "application_id", ev.ApplicationID, "stage", stage, "error", err)
		return
	}
	w.log.Info("stage event applied",
		"application_id", ev.ApplicationID, "stage", stage, "advanced", out.Advanced, "reason", out.Reason)
}
