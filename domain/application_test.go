package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recruit-pipeline/pipeline"
)

func TestNewApplicationStartsInScreening(t *testing.T) {
	app := NewApplication(3, 9, "Ada", "ada@example.com")

	assert.Equal(t, pipeline.StageResumeScreening, app.CurrentStage)
	assert.Equal(t, pipeline.StatusScreening, app.Status)
	assert.Empty(t, app.StageHistory)
	assert.Zero(t, app.OverallScore)
}

func TestApplicationPipelineStateRoundTrip(t *testing.T) {
	app := NewApplication(1, 1, "Ada", "ada@example.com")
	app.ResumeMatchScore = ptr(72)

	out, err := pipeline.NewEngine().CompleteStage(app.PipelineState(), pipeline.StageResumeScreening, 72, nil)
	require.NoError(t, err)
	out.State.Scores = out.State.Scores.With(pipeline.ScoreMCQ, 64)
	out.State.OverallScore = 70
	app.ApplyPipelineState(out.State)

	assert.Equal(t, pipeline.StageMCQTest, app.CurrentStage)
	assert.Equal(t, pipeline.StatusTesting, app.Status)
	assert.Len(t, app.StageHistory, 1)
	require.NotNil(t, app.TestScore)
	assert.Equal(t, 64.0, *app.TestScore)
	assert.Equal(t, 72.0, *app.ResumeMatchScore)
	assert.Equal(t, 70, app.OverallScore)
}

func ptr(f float64) *float64 { return &f }
