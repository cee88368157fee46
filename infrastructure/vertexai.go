package infrastructure

import (
	"context"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"github.com/cockroachdb/errors"

	"recruit-pipeline/domain"
	"recruit-pipeline/logger"
)

const vertexModel = "gemini-1.5-flash"

// VertexAIClient scores resumes through the Vertex AI SDK, for deployments
// that authenticate with a service account instead of an API key.
type VertexAIClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
	log    *logger.Logger
}

func NewVertexAIClient(ctx context.Context, projectID, location string, log *logger.Logger) (*VertexAIClient, error) {
	client, err := genai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Vertex AI client")
	}

	model := client.GenerativeModel(vertexModel)
	model.SetTemperature(0.1)
	model.SetTopK(40)
	model.SetTopP(0.8)
	model.SetMaxOutputTokens(2048)
	model.ResponseMIMEType = "application/json"

	return &VertexAIClient{client: client, model: model, log: log.With("component", "vertexai")}, nil
}

func (v *VertexAIClient) ScoreResume(ctx context.Context, job domain.Job, resumeText string) (domain.ResumeAnalysis, error) {
	resp, err := v.model.GenerateContent(ctx, genai.Text(buildResumePrompt(job, resumeText)))
	if err != nil {
		return domain.ResumeAnalysis{}, errors.Wrap(err, "failed to generate content")
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return domain.ResumeAnalysis{}, errors.New("no response candidates returned")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	analysis, err := parseResumeAnalysis(sb.String())
	if err != nil {
		return domain.ResumeAnalysis{}, err
	}
	v.log.Debug("resume scored", "model", vertexModel, "match_score", analysis.MatchScore)
	return analysis, nil
}

func (v *VertexAIClient) Close() error {
	return v.client.Close()
}
