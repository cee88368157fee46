package interfaces

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"recruit-pipeline/domain"
	"recruit-pipeline/infrastructure"
	"recruit-pipeline/logger"
	"recruit-pipeline/pipeline"
	"recruit-pipeline/service"
)

const maxResumeBytes = 10 << 20

// TextExtractor turns an uploaded resume into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, filename string) (string, error)
}

type HTTPHandler struct {
	svc       *service.PipelineService
	extractor TextExtractor
	log       *logger.Logger
}

func NewHTTPHandler(svc *service.PipelineService, extractor TextExtractor, log *logger.Logger) *HTTPHandler {
	return &HTTPHandler{svc: svc, extractor: extractor, log: log.With("component", "http")}
}

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(h *HTTPHandler, corsOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger(h.log), CORS(corsOrigins))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	jobs := router.Group("/jobs")
	jobs.POST("", h.CreateJob)
	jobs.GET("/:id/pipeline", h.GetPipelineConfig)
	jobs.PUT("/:id/pipeline", h.UpdatePipelineConfig)
	jobs.GET("/:id/report", h.PipelineReport)

	apps := router.Group("/applications")
	apps.POST("", h.SubmitApplication)
	apps.GET("/:id", h.GetApplication)
	apps.POST("/:id/scores", h.RecordStageScore)
	apps.POST("/:id/advance", h.AdvanceManually)

	router.GET("/evaluations/:id", h.GetEvaluation)
	return router
}

type createJobRequest struct {
	Title       string           `json:"title" binding:"required"`
	Description string           `json:"description"`
	Rubric      string           `json:"rubric"`
	Pipeline    *pipeline.Config `json:"pipeline"`
}

func (h *HTTPHandler) CreateJob(c *gin.Context) {
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	job, err := h.svc.CreateJob(c.Request.Context(), service.NewJob{
		Title:       req.Title,
		Description: req.Description,
		Rubric:      req.Rubric,
		Pipeline:    req.Pipeline,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

func (h *HTTPHandler) GetPipelineConfig(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	cfg, err := h.svc.GetPipelineConfig(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *HTTPHandler) UpdatePipelineConfig(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var cfg pipeline.Config
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.UpdatePipelineConfig(c.Request.Context(), id, cfg); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *HTTPHandler) PipelineReport(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	job, apps, err := h.svc.PipelineReport(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	var buf bytes.Buffer
	if err := infrastructure.WritePipelineReport(&buf, *job, apps); err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="job-%d-pipeline.xlsx"`, job.ID))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// SubmitApplication accepts a multipart form: job_id, candidate_name,
// candidate_email and resume_file.
func (h *HTTPHandler) SubmitApplication(c *gin.Context) {
	jobID, err := strconv.ParseUint(strings.TrimSpace(c.PostForm("job_id")), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job_id is required"})
		return
	}
	header, err := c.FormFile("resume_file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "resume_file is required"})
		return
	}
	if header.Size > maxResumeBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "resume_file is too large"})
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open resume file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxResumeBytes))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read resume file"})
		return
	}
	text, err := h.extractor.Extract(c.Request.Context(), data, header.Filename)
	if err != nil {
		if errors.Is(err, infrastructure.ErrUnsupportedFileType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.log.Error("failed to extract resume text", "file_name", header.Filename, "error", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "failed to extract resume text"})
		return
	}

	app, eval, err := h.svc.SubmitApplication(c.Request.Context(), service.NewApplication{
		JobID:          uint(jobID),
		CandidateName:  strings.TrimSpace(c.PostForm("candidate_name")),
		CandidateEmail: strings.TrimSpace(c.PostForm("candidate_email")),
		FileName:       header.Filename,
		ResumeText:     text,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"application":       app,
		"evaluation_id":     eval.ID,
		"evaluation_status": eval.Status,
	})
}

func (h *HTTPHandler) GetApplication(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	app, err := h.svc.GetApplication(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

type stageScoreRequest struct {
	Stage string   `json:"stage" binding:"required"`
	Score *float64 `json:"score" binding:"required"`
}

func (h *HTTPHandler) RecordStageScore(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req stageScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	stage, err := pipeline.ParseStage(req.Stage)
	if err != nil {
		h.fail(c, err)
		return
	}
	out, err := h.svc.RecordStageScore(c.Request.Context(), id, stage, *req.Score)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, outcomeResponse(id, out))
}

type advanceRequest struct {
	TargetStage string   `json:"target_stage"`
	Score       *float64 `json:"score"`
	Notes       *string  `json:"notes"`
	ActorID     string   `json:"actor_id"`
}

func (h *HTTPHandler) AdvanceManually(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req advanceRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out, err := h.svc.AdvanceManually(c.Request.Context(), id, pipeline.ManualAdvance{
		Target:  pipeline.Stage(strings.TrimSpace(req.TargetStage)),
		Score:   req.Score,
		Notes:   req.Notes,
		ActorID: req.ActorID,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, outcomeResponse(id, out))
}

func (h *HTTPHandler) GetEvaluation(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	eval, err := h.svc.GetEvaluation(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, eval)
}

func outcomeResponse(appID uint, out pipeline.Outcome) gin.H {
	resp := gin.H{
		"application_id": appID,
		"advanced":       out.Advanced,
		"previous_stage": out.PreviousStage,
		"current_stage":  out.State.CurrentStage,
		"status":         out.State.Status,
		"overall_score":  out.State.OverallScore,
		"reason":         out.Reason,
	}
	if out.Advanced {
		resp["new_stage"] = out.NewStage
	}
	return resp
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

// fail maps service errors to status codes. Unknown errors are logged and
// hidden behind a generic message.
func (h *HTTPHandler) fail(c *gin.Context, err error) {
	var cfgErr *pipeline.ConfigurationError
	switch {
	case errors.As(err, &cfgErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": cfgErr.Error(), "problems": cfgErr.Problems})
	case pipeline.IsInvalidStage(err), errors.Is(err, pipeline.ErrScoreOutOfRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case pipeline.IsNoNextStage(err), errors.Is(err, service.ErrScoreAlreadyRecorded):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.log.Error("request failed", "path", c.FullPath(), "request_id", c.GetString("request_id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
