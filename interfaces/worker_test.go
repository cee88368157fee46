package interfaces

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recruit-pipeline/domain"
	"recruit-pipeline/logger"
	"recruit-pipeline/pipeline"
)

type fakeSource struct {
	evaluations func(domain.EvaluationJob)
	stages      func(domain.StageCompletedEvent)
}

func (f *fakeSource) ConsumeEvaluations(h func(domain.EvaluationJob)) error {
	f.evaluations = h
	return nil
}

func (f *fakeSource) ConsumeStageEvents(h func(domain.StageCompletedEvent)) error {
	f.stages = h
	return nil
}

func TestWorkerAppliesStageEvents(t *testing.T) {
	s := newTestServer(t)
	jobID := s.createJob(t, gin.H{"title": "Backend Engineer"})
	require.Equal(t, http.StatusAccepted, s.submit(t, jobID, "ada.txt", "Go").Code)
	appID := s.broker.evaluations[0].ApplicationID

	src := &fakeSource{}
	require.NoError(t, NewWorker(s.svc, logger.Nop()).Start(src))
	require.NotNil(t, src.evaluations)
	require.NotNil(t, src.stages)

	src.stages(domain.StageCompletedEvent{ApplicationID: appID, Stage: pipeline.StageResumeScreening, Score: 88})
	// malformed events are dropped without touching the application
	src.stages(domain.StageCompletedEvent{ApplicationID: appID, Stage: "phone_screen", Score: 99})

	app, err := s.svc.GetApplication(context.Background(), appID)
	require.NoError(t, err)
	assert.Equal(t, pipeline.StageMCQTest, app.CurrentStage)
	assert.Len(t, app.StageHistory, 1)
	require.Len(t, s.broker.changes, 1)
	assert.True(t, s.broker.changes[0].AutoAdvanced)
}
