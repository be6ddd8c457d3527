// Package analyzer wraps the generative-AI collaborator: portfolio
// analysis producing interview questions, and on-demand grading of
// typed answers.
package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"myinterview/api/internal/store"
)

// ErrNotPortfolio is the analyzer's domain rejection: the uploaded
// document is readable but is not a portfolio. Callers surface it with
// a specific message, distinct from transport or parse failures.
var ErrNotPortfolio = errors.New("the uploaded document is not a portfolio")

const defaultModel = "gemini-2.5-flash-lite"

// Gemini calls the Gemini API for analysis and feedback.
type Gemini struct {
	client  *genai.Client
	model   string
	prompts PromptConfig
}

// NewGemini creates the collaborator client. The API key is required;
// its absence is a startup failure, checked by the caller.
func NewGemini(ctx context.Context, apiKey, model string, prompts PromptConfig) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	if model == "" {
		model = defaultModel
	}
	return &Gemini{client: client, model: model, prompts: prompts}, nil
}

// AnalyzePortfolio sends the PDF with the analysis prompt and parses
// the structured response. Returns ErrNotPortfolio on domain rejection.
func (g *Gemini) AnalyzePortfolio(ctx context.Context, pdf []byte, requirements string) (*store.AnalysisResult, error) {
	parts := []*genai.Part{
		genai.NewPartFromBytes(pdf, "application/pdf"),
		genai.NewPartFromText(g.prompts.AnalysisPrompt(requirements)),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	temp := float32(0.4)
	cfg := &genai.GenerateContentConfig{
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
	}

	res, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}

	return ParseAnalysis(res.Text())
}

// GradeAnswer asks the collaborator to grade a typed answer against
// the model answer. The response is free-form markdown, returned
// verbatim.
func (g *Gemini) GradeAnswer(ctx context.Context, question, modelAnswer, userAnswer string) (string, error) {
	prompt := g.prompts.FeedbackPrompt(question, modelAnswer, userAnswer)
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	temp := float32(0.7)
	cfg := &genai.GenerateContentConfig{Temperature: &temp}

	res, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := strings.TrimSpace(res.Text())
	if text == "" {
		return "", fmt.Errorf("gemini returned empty feedback")
	}
	return text, nil
}

// analysisEnvelope is the analyzer's wire format. isPortfolio=false is
// the domain rejection.
type analysisEnvelope struct {
	IsPortfolio *bool                     `json:"isPortfolio"`
	Error       string                    `json:"error"`
	Summary     string                    `json:"summary"`
	Questions   []store.InterviewQuestion `json:"questions"`
}

// ParseAnalysis decodes the analyzer's response text. Models sometimes
// wrap JSON in markdown fences even when asked not to; fences are
// stripped before decoding.
func ParseAnalysis(text string) (*store.AnalysisResult, error) {
	cleaned := stripFences(text)

	var envelope analysisEnvelope
	if err := json.Unmarshal([]byte(cleaned), &envelope); err != nil {
		return nil, fmt.Errorf("malformed analyzer response: %w", err)
	}

	if (envelope.IsPortfolio != nil && !*envelope.IsPortfolio) || envelope.Error == "NOT_PORTFOLIO" {
		return nil, ErrNotPortfolio
	}

	if len(envelope.Questions) == 0 {
		return nil, fmt.Errorf("analyzer returned no questions")
	}

	questions := make([]store.InterviewQuestion, len(envelope.Questions))
	for i, q := range envelope.Questions {
		if !store.ValidDifficulty(q.Difficulty) {
			q.Difficulty = store.DifficultyMedium
		}
		if q.RelatedPage < 1 {
			// Renderer contract: pages are 1-based.
			q.RelatedPage = 1
		}
		questions[i] = q
	}

	return &store.AnalysisResult{
		Summary:   envelope.Summary,
		Questions: questions,
	}, nil
}

func stripFences(text string) string {
	cleaned := strings.TrimSpace(text)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}
