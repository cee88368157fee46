package infrastructure

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"recruit-pipeline/domain"
	"recruit-pipeline/logger"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// Tried in order until one answers.
var geminiModels = []string{
	"gemini-2.0-flash-001",
	"gemini-2.0-flash",
	"gemini-2.5-flash",
	"gemini-flash-latest",
}

// GeminiClient scores resumes and reads scanned PDFs through the Gemini REST API.
type GeminiClient struct {
	apiKey  string
	baseURL string
	models  []string
	http    *http.Client
	log     *logger.Logger
}

func NewGeminiClient(apiKey string, log *logger.Logger) *GeminiClient {
	return &GeminiClient{
		apiKey:  apiKey,
		baseURL: geminiBaseURL,
		models:  geminiModels,
		http:    &http.Client{Timeout: 120 * time.Second},
		log:     log.With("component", "gemini"),
	}
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig map[string]interface{} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func newGeminiRequest(generation map[string]interface{}, parts ...geminiPart) geminiRequest {
	return geminiRequest{
		Contents:         []geminiContent{{Parts: parts}},
		GenerationConfig: generation,
	}
}

// ScoreResume asks Gemini how well resumeText matches the job.
func (g *GeminiClient) ScoreResume(ctx context.Context, job domain.Job, resumeText string) (domain.ResumeAnalysis, error) {
	req := newGeminiRequest(map[string]interface{}{
		"temperature": 0.1,
		"topP":        0.8,
		"topK":        40,
	}, geminiPart{Text: buildResumePrompt(job, resumeText)})

	lastErr := errors.New("no models configured")
	for _, model := range g.models {
		text, err := g.generate(ctx, model, req)
		if err != nil {
			g.log.Warn("model failed for resume scoring", "model", model, "error", err)
			lastErr = err
			continue
		}
		analysis, err := parseResumeAnalysis(text)
		if err != nil {
			lastErr = err
			continue
		}
		g.log.Debug("resume scored", "model", model, "match_score", analysis.MatchScore)
		return analysis, nil
	}
	return domain.ResumeAnalysis{}, errors.Wrap(lastErr, "all Gemini models failed")
}

// ExtractPDFText is the fallback for PDFs without a text layer.
func (g *GeminiClient) ExtractPDFText(ctx context.Context, data []byte) (string, error) {
	generation := map[string]interface{}{
		"temperature":     0.1,
		"maxOutputTokens": 8192,
	}
	pdf := &geminiInlineData{MimeType: "application/pdf", Data: base64.StdEncoding.EncodeToString(data)}
	req := newGeminiRequest(generation, geminiPart{Text: pdfExtractionPrompt}, geminiPart{InlineData: pdf})

	lastErr := errors.New("no models configured")
	for _, model := range g.models {
		text, err := g.generate(ctx, model, req)
		if err != nil {
			lastErr = err
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			return text, nil
		}
		lastErr = errors.Newf("model %s returned no text", model)
	}
	return "", errors.Wrap(lastErr, "all Gemini models failed for PDF extraction")
}

func (g *GeminiClient) generate(ctx context.Context, model string, body geminiRequest) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal request")
	}

	url := fmt.Sprintf("%s/%s:generateContent", g.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "failed to read response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.Newf("API request failed with status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", errors.Wrap(err, "failed to parse API response")
	}
	if len(parsed.Candidates) == 0 {
		return "", errors.New("no candidates in response")
	}
	parts := parsed.Candidates[0].Content.Parts
	if len(parts) == 0 || parts[0].Text == "" {
		return "", errors.New("no text in response")
	}
	return parts[0].Text, nil
}

const pdfExtractionPrompt = `Extract ALL text content from this resume. Return ONLY the raw extracted text without comments or formatting. Include personal information, education, work experience, skills, certifications and projects exactly as they appear.`

func buildResumePrompt(job domain.Job, resumeText string) string {
	var sb strings.Builder
	sb.WriteString("You are screening a job applicant's resume.\n\n")
	sb.WriteString("## JOB\n")
	fmt.Fprintf(&sb, "Title: %s\n", job.Title)
	fmt.Fprintf(&sb, "Description: %s\n", job.Description)
	if strings.TrimSpace(job.Rubric) != "" {
		fmt.Fprintf(&sb, "Rubric: %s\n", job.Rubric)
	}
	sb.WriteString("\n## RESUME\n")
	sb.WriteString(resumeText)
	sb.WriteString("\n\n## INSTRUCTIONS\n")
	sb.WriteString("Rate how well the resume matches the job: technical skills, experience level, relevant achievements, communication.\n")
	sb.WriteString("Return strict JSON:\n")
	sb.WriteString(`{"match_score": <number 0-100>, "feedback": "<strengths and gaps>", "summary": "<one paragraph>"}` + "\n")
	sb.WriteString("Return ONLY the raw JSON without markdown or code fences.\n")
	return sb.String()
}

func parseResumeAnalysis(text string) (domain.ResumeAnalysis, error) {
	cleaned := cleanJSONResponse(text)
	var out domain.ResumeAnalysis
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return domain.ResumeAnalysis{}, errors.Wrapf(err, "failed to parse JSON: %s", cleaned)
	}
	if out.MatchScore < 0 || out.MatchScore > 100 {
		return domain.ResumeAnalysis{}, errors.Newf("match_score %v outside [0,100]", out.MatchScore)
	}
	return out, nil
}

// cleanJSONResponse strips code fences and any prose around the first JSON object.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start != -1 && end > start {
		content = content[start : end+1]
	}
	return strings.TrimSpace(content)
}
