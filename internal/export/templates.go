package export

import (
	"bytes"
	"html/template"
	"strings"
	"time"
)

var transcriptTemplate = template.Must(template.New("transcript").Funcs(template.FuncMap{
	"title": func(s string) string {
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
}).Parse(transcriptHTML))

// TemplateData holds data for transcript rendering.
type TemplateData struct {
	FileName    string
	Summary     string
	GeneratedAt time.Time
	Questions   []TemplateQuestion
}

// TemplateQuestion is one question row of the transcript.
type TemplateQuestion struct {
	Number      int
	Question    string
	Category    string
	Difficulty  string
	RelatedPage int
	Answer      string
	UserAnswer  string
	Feedback    string
}

// RenderTranscriptHTML renders the transcript template.
func RenderTranscriptHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := transcriptTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const transcriptHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>Interview Transcript</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; max-width: 800px; margin: 2rem auto; color: #1f2933; }
    h1 { border-bottom: 2px solid #333; padding-bottom: 0.5rem; }
    .meta { color: #666; font-size: 0.9em; margin-bottom: 2rem; }
    .summary { background: #fff7ed; padding: 1rem; border-left: 3px solid #ea580c; margin-bottom: 2rem; }
    .question { page-break-inside: avoid; margin: 1.5rem 0; padding: 1rem; border: 1px solid #ddd; border-radius: 6px; }
    .tags { font-size: 0.85em; color: #666; margin-bottom: 0.5rem; }
    .answer { background: #eff6ff; padding: 0.75rem; margin-top: 0.75rem; border-left: 3px solid #2563eb; }
    .user-answer { background: #f0fdf4; padding: 0.75rem; margin-top: 0.75rem; border-left: 3px solid #16a34a; }
    .feedback { background: #f5f5f5; padding: 0.75rem; margin-top: 0.75rem; border-left: 3px solid #333; white-space: pre-wrap; }
    .label { font-weight: bold; font-size: 0.85em; display: block; margin-bottom: 0.25rem; }
  </style>
</head>
<body>
  <h1>Interview Transcript</h1>
  <div class="meta">{{.FileName}} | {{.GeneratedAt.Format "Jan 2, 2006 15:04"}}</div>
  <div class="summary">
    <span class="label">Portfolio summary</span>
    {{.Summary}}
  </div>
  {{range .Questions}}
  <div class="question">
    <div class="tags">Question {{.Number}} | {{title .Category}} | {{title .Difficulty}} | Page {{.RelatedPage}}</div>
    <h3>{{.Question}}</h3>
    <div class="answer">
      <span class="label">Model answer</span>
      {{.Answer}}
    </div>
    {{if .UserAnswer}}
    <div class="user-answer">
      <span class="label">Candidate answer</span>
      {{.UserAnswer}}
    </div>
    {{end}}
    {{if .Feedback}}
    <div class="feedback">
      <span class="label">Feedback</span>
      {{.Feedback}}
    </div>
    {{end}}
  </div>
  {{end}}
</body>
</html>`
