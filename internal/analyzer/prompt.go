package analyzer

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// PromptConfig tunes question generation. Loaded from an optional YAML
// file so interviewers can adjust the question mix without a rebuild.
type PromptConfig struct {
	MinQuestions   int      `yaml:"min_questions"`
	Categories     []string `yaml:"categories"`
	AnswerMinLines int      `yaml:"answer_min_lines"`
	AnswerMaxLines int      `yaml:"answer_max_lines"`
}

// DefaultPromptConfig mirrors the built-in question mix.
func DefaultPromptConfig() PromptConfig {
	return PromptConfig{
		MinQuestions:   10,
		Categories:     []string{"tech", "experience", "project", "collaboration"},
		AnswerMinLines: 3,
		AnswerMaxLines: 5,
	}
}

// LoadPromptConfig reads prompt tuning from path. An empty path yields
// the defaults.
func LoadPromptConfig(path string) (PromptConfig, error) {
	if path == "" {
		return DefaultPromptConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return PromptConfig{}, fmt.Errorf("read prompt config %s: %w", path, err)
	}

	cfg := DefaultPromptConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return PromptConfig{}, fmt.Errorf("parse prompt config: %w", err)
	}

	if err := validatePromptConfig(cfg); err != nil {
		return PromptConfig{}, fmt.Errorf("validate prompt config: %w", err)
	}
	return cfg, nil
}

func validatePromptConfig(cfg PromptConfig) error {
	if cfg.MinQuestions <= 0 {
		return fmt.Errorf("min_questions must be greater than 0")
	}
	if len(cfg.Categories) == 0 {
		return fmt.Errorf("at least one category is required")
	}
	for i, category := range cfg.Categories {
		if strings.TrimSpace(category) == "" {
			return fmt.Errorf("category %d is empty", i)
		}
	}
	if cfg.AnswerMinLines <= 0 || cfg.AnswerMaxLines < cfg.AnswerMinLines {
		return fmt.Errorf("answer line bounds are invalid: min=%d max=%d", cfg.AnswerMinLines, cfg.AnswerMaxLines)
	}
	return nil
}

// AnalysisPrompt builds the two-stage analysis prompt: first verify
// the PDF is a portfolio, then generate page-anchored questions with
// model answers.
func (c PromptConfig) AnalysisPrompt(requirements string) string {
	var b strings.Builder

	b.WriteString("You are an interviewer at a technology company. Analyze the attached PDF.\n\n")

	b.WriteString("Step 1 - portfolio verification.\n")
	b.WriteString("First confirm that this PDF is a portfolio. A portfolio contains at least one of: ")
	b.WriteString("personal or team project descriptions, a technology stack, work history or experience, ")
	b.WriteString("deliverables and outcomes, or development/design work.\n")
	b.WriteString("If the PDF is NOT a portfolio, respond with exactly:\n")
	b.WriteString(`{"isPortfolio": false, "error": "NOT_PORTFOLIO"}` + "\n\n")

	b.WriteString("Step 2 - interview question generation.\n")
	b.WriteString("If the PDF is a portfolio, respond with JSON of this shape:\n")
	b.WriteString(`{"isPortfolio": true, "summary": "...", "questions": [{"id": 1, "question": "...", "category": "...", "difficulty": "easy|medium|hard", "relatedPage": 1, "answer": "..."}]}` + "\n\n")

	b.WriteString("Requirements:\n")
	fmt.Fprintf(&b, "- Generate at least %d questions.\n", c.MinQuestions)
	fmt.Fprintf(&b, "- Use categories from: %s.\n", strings.Join(c.Categories, ", "))
	b.WriteString("- Questions must be concrete and grounded in the stack and projects the portfolio describes.\n")
	b.WriteString("- Spread difficulties evenly across easy, medium and hard.\n")
	b.WriteString("- relatedPage is mandatory on every question: the 1-based PDF page most relevant to it.\n")
	fmt.Fprintf(&b, "- answer is mandatory on every question: a model answer of %d-%d sentences built from what the portfolio actually states.\n", c.AnswerMinLines, c.AnswerMaxLines)
	if trimmed := strings.TrimSpace(requirements); trimmed != "" {
		fmt.Fprintf(&b, "\nAdditional requirements from the candidate: %s\n", trimmed)
	}
	b.WriteString("\nRespond with valid JSON only.\n")

	return b.String()
}

// FeedbackPrompt asks for a markdown critique of a typed answer.
func (c PromptConfig) FeedbackPrompt(question, modelAnswer, userAnswer string) string {
	var b strings.Builder
	b.WriteString("You are an interviewer grading a candidate's answer.\n\n")
	fmt.Fprintf(&b, "Question: %s\n\n", question)
	fmt.Fprintf(&b, "Model answer: %s\n\n", modelAnswer)
	fmt.Fprintf(&b, "Candidate's answer: %s\n\n", userAnswer)
	b.WriteString("Give short, constructive feedback in markdown: what the answer gets right, ")
	b.WriteString("what it misses compared to the model answer, and one concrete way to improve it. ")
	b.WriteString("Address the candidate directly.\n")
	return b.String()
}
