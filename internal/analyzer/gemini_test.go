package analyzer

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"myinterview/api/internal/store"
)

func TestParseAnalysisPlainJSON(t *testing.T) {
	raw := `{"isPortfolio": true, "summary": "Backend-heavy portfolio.", "questions": [
		{"id": 1, "question": "Why gRPC here?", "category": "tech", "difficulty": "hard", "relatedPage": 4, "answer": "Latency requirements."}
	]}`

	result, err := ParseAnalysis(raw)
	if err != nil {
		t.Fatalf("ParseAnalysis failed: %v", err)
	}
	if result.Summary != "Backend-heavy portfolio." {
		t.Errorf("summary = %q", result.Summary)
	}
	if len(result.Questions) != 1 || result.Questions[0].RelatedPage != 4 {
		t.Errorf("questions = %+v", result.Questions)
	}
}

func TestParseAnalysisStripsFences(t *testing.T) {
	raw := "```json\n{\"summary\": \"ok\", \"questions\": [{\"id\": 1, \"question\": \"q\", \"category\": \"tech\", \"difficulty\": \"easy\", \"relatedPage\": 1, \"answer\": \"a\"}]}\n```"

	result, err := ParseAnalysis(raw)
	if err != nil {
		t.Fatalf("ParseAnalysis failed on fenced JSON: %v", err)
	}
	if result.Summary != "ok" {
		t.Errorf("summary = %q", result.Summary)
	}
}

func TestParseAnalysisNotPortfolio(t *testing.T) {
	for _, raw := range []string{
		`{"isPortfolio": false, "error": "NOT_PORTFOLIO"}`,
		`{"error": "NOT_PORTFOLIO"}`,
	} {
		_, err := ParseAnalysis(raw)
		if !errors.Is(err, ErrNotPortfolio) {
			t.Errorf("ParseAnalysis(%s) = %v, want ErrNotPortfolio", raw, err)
		}
	}
}

func TestParseAnalysisMalformed(t *testing.T) {
	_, err := ParseAnalysis("The portfolio looks great, here are some questions...")
	if err == nil || errors.Is(err, ErrNotPortfolio) {
		t.Errorf("expected a parse error distinct from the domain rejection, got %v", err)
	}
}

func TestParseAnalysisRejectsEmptyQuestions(t *testing.T) {
	_, err := ParseAnalysis(`{"isPortfolio": true, "summary": "thin", "questions": []}`)
	if err == nil {
		t.Error("empty question list must be rejected at parse time")
	}
}

func TestParseAnalysisNormalizesBadFields(t *testing.T) {
	raw := `{"summary": "s", "questions": [
		{"id": 1, "question": "q", "category": "tech", "difficulty": "brutal", "relatedPage": 0, "answer": "a"}
	]}`

	result, err := ParseAnalysis(raw)
	if err != nil {
		t.Fatalf("ParseAnalysis failed: %v", err)
	}
	q := result.Questions[0]
	if q.Difficulty != store.DifficultyMedium {
		t.Errorf("difficulty = %q, want medium fallback", q.Difficulty)
	}
	if q.RelatedPage != 1 {
		t.Errorf("relatedPage = %d, want 1-based floor", q.RelatedPage)
	}
}

func TestLoadPromptConfigDefaults(t *testing.T) {
	cfg, err := LoadPromptConfig("")
	if err != nil {
		t.Fatalf("LoadPromptConfig failed: %v", err)
	}
	if cfg.MinQuestions != 10 || len(cfg.Categories) == 0 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadPromptConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	contents := "min_questions: 15\ncategories:\n  - systems\n  - leadership\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadPromptConfig(path)
	if err != nil {
		t.Fatalf("LoadPromptConfig failed: %v", err)
	}
	if cfg.MinQuestions != 15 {
		t.Errorf("min_questions = %d, want 15", cfg.MinQuestions)
	}
	if len(cfg.Categories) != 2 || cfg.Categories[0] != "systems" {
		t.Errorf("categories = %v", cfg.Categories)
	}
	if cfg.AnswerMinLines != 3 {
		t.Errorf("unset fields should keep defaults, got %+v", cfg)
	}
}

func TestLoadPromptConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	if err := os.WriteFile(path, []byte("min_questions: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadPromptConfig(path); err == nil {
		t.Error("expected validation error for min_questions: 0")
	}
}

func TestAnalysisPromptIncludesRequirements(t *testing.T) {
	cfg := DefaultPromptConfig()

	withReq := cfg.AnalysisPrompt("focus on the Kubernetes migration")
	if !strings.Contains(withReq, "focus on the Kubernetes migration") {
		t.Error("trimmed requirements must appear in the prompt")
	}

	withoutReq := cfg.AnalysisPrompt("   ")
	if strings.Contains(withoutReq, "Additional requirements") {
		t.Error("whitespace-only requirements must be omitted")
	}
}
