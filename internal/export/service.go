package export

import (
	"fmt"
	"time"
)

// Service renders interview transcripts.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// Export renders the transcript HTML and converts it to PDF.
func (s *Service) Export(req Request) (*Result, error) {
	html, err := RenderTranscriptHTML(buildTemplateData(req))
	if err != nil {
		return nil, fmt.Errorf("render transcript: %w", err)
	}

	title := "interview-" + req.AnalysisID
	if req.AnalysisID == "" {
		title = "interview-transcript"
	}
	return exportPDF(html, title)
}

func buildTemplateData(req Request) TemplateData {
	data := TemplateData{
		FileName:    req.FileName,
		Summary:     req.Result.Summary,
		GeneratedAt: time.Now(),
	}
	for i, q := range req.Result.Questions {
		tq := TemplateQuestion{
			Number:      i + 1,
			Question:    q.Question,
			Category:    q.Category,
			Difficulty:  q.Difficulty,
			RelatedPage: q.RelatedPage,
			Answer:      q.Answer,
		}
		// Transient review state exists only for the question on
		// screen; include it where it belongs.
		if req.Current != nil && req.Current.Index == i {
			tq.UserAnswer = req.Current.Transient.UserAnswer
			tq.Feedback = req.Current.Transient.Feedback
		}
		data.Questions = append(data.Questions, tq)
	}
	return data
}
