package app

import (
	"context"
	"encoding/base64"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"

	"myinterview/api/internal/analyzer"
	"myinterview/api/internal/config"
	"myinterview/api/internal/export"
	"myinterview/api/internal/review"
	"myinterview/api/internal/session"
	"myinterview/api/internal/store"
	"myinterview/api/internal/util"
)

// analyzerClient is the generative-AI collaborator boundary.
type analyzerClient interface {
	AnalyzePortfolio(ctx context.Context, pdf []byte, requirements string) (*store.AnalysisResult, error)
	GradeAnswer(ctx context.Context, question, modelAnswer, userAnswer string) (string, error)
}

// exporter renders the session transcript.
type exporter interface {
	Export(req export.Request) (*export.Result, error)
}

// SessionView is the summary consumers poll before entering review.
type SessionView struct {
	State         string `json:"state"`
	HasResult     bool   `json:"hasResult"`
	HasFile       bool   `json:"hasFile"`
	FileName      string `json:"fileName,omitempty"`
	QuestionCount int    `json:"questionCount"`
}

// FileView is the reloadable payload for the client-side document
// renderer.
type FileView struct {
	FileData string `json:"fileData"`
	FileName string `json:"fileName"`
}

type Service struct {
	cfg      config.Config
	sessions *session.Controller
	store    store.SlotStore
	analyzer analyzerClient
	exporter exporter

	mu        sync.Mutex
	flow      *review.Flow
	analyzing bool
	grading   bool
}

func New(cfg config.Config, st store.SlotStore, sessions *session.Controller, ai analyzerClient, ex exporter) *Service {
	return &Service{
		cfg:      cfg,
		sessions: sessions,
		store:    st,
		analyzer: ai,
		exporter: ex,
	}
}

// Hydrate reconstructs the session from the store. Called once at
// startup, before the server accepts traffic.
func (s *Service) Hydrate(ctx context.Context) {
	s.sessions.Hydrate(ctx)
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Analyze runs the upload flow: call the collaborator, and on success
// commit the result and file into the session and reset review
// navigation. Prior session state is untouched on any failure.
func (s *Service) Analyze(ctx context.Context, fileName string, pdf []byte, requirements string) (*store.AnalysisResult, error) {
	s.mu.Lock()
	if s.analyzing {
		s.mu.Unlock()
		return nil, domainError(http.StatusConflict, "ANALYSIS_IN_FLIGHT", "An analysis is already running", nil)
	}
	s.analyzing = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.analyzing = false
		s.mu.Unlock()
	}()

	result, err := s.analyzer.AnalyzePortfolio(ctx, pdf, strings.TrimSpace(requirements))
	if err != nil {
		if errors.Is(err, analyzer.ErrNotPortfolio) {
			return nil, domainError(http.StatusUnprocessableEntity, "NOT_PORTFOLIO", "Please attach a valid portfolio", nil)
		}
		log.Printf("analyze failed: %v", err)
		return nil, domainError(http.StatusBadGateway, "ANALYZER_ERROR", "Could not analyze the portfolio", nil)
	}
	if len(result.Questions) == 0 {
		// Contract violation by the collaborator; never commit it.
		log.Printf("analyze returned zero questions, rejecting")
		return nil, domainError(http.StatusBadGateway, "ANALYZER_ERROR", "Could not analyze the portfolio", nil)
	}

	result.AnalysisID = util.NewAnalysisID()
	s.sessions.SetResult(result)
	s.sessions.SetFile(fileName, pdf)

	s.mu.Lock()
	s.flow = review.New(result.Questions)
	s.mu.Unlock()

	log.Printf("analysis %s committed: %d questions from %s", result.AnalysisID, len(result.Questions), fileName)
	return result, nil
}

// Session reports the controller's state without tripping the review
// entry guard; hydrating is reported so clients do not treat an empty
// session as confirmed empty.
func (s *Service) Session() SessionView {
	snap := s.sessions.Snapshot()
	view := SessionView{
		State:    snap.Lifecycle.String(),
		HasFile:  snap.HasFile(),
		FileName: snap.FileName,
	}
	if snap.Result != nil {
		view.HasResult = true
		view.QuestionCount = len(snap.Result.Questions)
	}
	return view
}

// Result returns the committed analysis result.
func (s *Service) Result() (*store.AnalysisResult, error) {
	snap := s.sessions.Snapshot()
	if snap.Lifecycle != session.Ready {
		return nil, domainError(http.StatusServiceUnavailable, "HYDRATING", "Session is still loading", nil)
	}
	if snap.Result == nil {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "No analysis result", nil)
	}
	return snap.Result, nil
}

// File returns the reloadable payload for the document renderer. When
// the durable encoding has not completed yet, the in-memory upload is
// encoded on the fly so the caller never observes a gap.
func (s *Service) File() (FileView, error) {
	snap := s.sessions.Snapshot()
	if snap.Lifecycle != session.Ready {
		return FileView{}, domainError(http.StatusServiceUnavailable, "HYDRATING", "Session is still loading", nil)
	}
	if snap.FileData != "" {
		return FileView{FileData: snap.FileData, FileName: snap.FileName}, nil
	}
	if len(snap.File) > 0 {
		return FileView{FileData: base64.StdEncoding.EncodeToString(snap.File), FileName: snap.FileName}, nil
	}
	return FileView{}, domainError(http.StatusNotFound, "NOT_FOUND", "No uploaded file", nil)
}

// reviewFlow applies the review entry guard: hydration must be done,
// and a session needs both a result and a viewable source document.
func (s *Service) reviewFlow() (*review.Flow, error) {
	snap := s.sessions.Snapshot()
	if snap.Lifecycle != session.Ready {
		return nil, domainError(http.StatusServiceUnavailable, "HYDRATING", "Session is still loading", nil)
	}
	if snap.Result == nil || !snap.HasFile() {
		return nil, domainError(http.StatusConflict, "NO_SESSION", "No active interview session", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flow == nil {
		// First entry after hydration.
		s.flow = review.New(snap.Result.Questions)
	}
	return s.flow, nil
}

func (s *Service) Review() (review.View, error) {
	flow, err := s.reviewFlow()
	if err != nil {
		return review.View{}, err
	}
	return flow.View(), nil
}

func (s *Service) ReviewNext() (review.View, error) {
	flow, err := s.reviewFlow()
	if err != nil {
		return review.View{}, err
	}
	flow.Next()
	return flow.View(), nil
}

func (s *Service) ReviewPrev() (review.View, error) {
	flow, err := s.reviewFlow()
	if err != nil {
		return review.View{}, err
	}
	flow.Prev()
	return flow.View(), nil
}

func (s *Service) ReviewDraft(answer string) (review.View, error) {
	flow, err := s.reviewFlow()
	if err != nil {
		return review.View{}, err
	}
	flow.SetDraft(answer)
	return flow.View(), nil
}

func (s *Service) ReviewToggleAnswer() (review.View, error) {
	flow, err := s.reviewFlow()
	if err != nil {
		return review.View{}, err
	}
	flow.ToggleAnswer()
	return flow.View(), nil
}

func (s *Service) ReviewHideFeedback() (review.View, error) {
	flow, err := s.reviewFlow()
	if err != nil {
		return review.View{}, err
	}
	flow.HideFeedback()
	return flow.View(), nil
}

func (s *Service) ReviewPane(ratio float64) (review.View, error) {
	flow, err := s.reviewFlow()
	if err != nil {
		return review.View{}, err
	}
	if !flow.SetPaneRatio(ratio) {
		return review.View{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "ratio must be between 20 and 80", nil)
	}
	return flow.View(), nil
}

// RequestFeedback grades the typed answer for the question on screen.
// An empty answer is rejected before the collaborator is contacted; a
// collaborator failure leaves the typed answer intact so the
// candidate can retry.
func (s *Service) RequestFeedback(ctx context.Context, answer string) (review.View, error) {
	flow, err := s.reviewFlow()
	if err != nil {
		return review.View{}, err
	}

	if trimmed := strings.TrimSpace(answer); trimmed != "" {
		flow.SetDraft(answer)
	}
	draft := strings.TrimSpace(flow.Draft())
	if draft == "" {
		return review.View{}, domainError(http.StatusUnprocessableEntity, "EMPTY_ANSWER", "Type an answer before requesting feedback", nil)
	}

	s.mu.Lock()
	if s.grading {
		s.mu.Unlock()
		return review.View{}, domainError(http.StatusConflict, "FEEDBACK_IN_FLIGHT", "A feedback request is already running", nil)
	}
	s.grading = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.grading = false
		s.mu.Unlock()
	}()

	question := flow.Current()
	startIndex := flow.View().Index

	feedback, err := s.analyzer.GradeAnswer(ctx, question.Question, question.Answer, draft)
	if err != nil {
		log.Printf("feedback failed for question %d: %v", question.ID, err)
		return review.View{}, domainError(http.StatusBadGateway, "FEEDBACK_ERROR", "Could not grade the answer", nil)
	}

	// The candidate may have navigated or exited while the call was
	// in flight; a stale completion is discarded silently.
	s.mu.Lock()
	current := s.flow
	s.mu.Unlock()
	if current != flow || flow.View().Index != startIndex {
		return flow.View(), nil
	}

	flow.ApplyFeedback(feedback)
	return flow.View(), nil
}

// Exit ends the session: in-memory state reset, both store slots
// erased, navigation discarded. Unconfirmed exits are rejected before
// anything is touched.
func (s *Service) Exit(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return domainError(http.StatusUnprocessableEntity, "CONFIRM_REQUIRED", "Exit must be confirmed", nil)
	}

	s.mu.Lock()
	s.flow = nil
	s.mu.Unlock()

	if err := s.sessions.Clear(ctx); err != nil {
		log.Printf("session clear failed: %v", err)
		return domainError(http.StatusInternalServerError, "CLEAR_FAILED", "Could not erase the stored session", nil)
	}
	return nil
}

// ExportTranscript renders the current session as a PDF.
func (s *Service) ExportTranscript() (*export.Result, error) {
	if !s.cfg.ExportEnabled || s.exporter == nil {
		return nil, domainError(http.StatusServiceUnavailable, "EXPORT_DISABLED", "Transcript export is not enabled", nil)
	}

	snap := s.sessions.Snapshot()
	if snap.Lifecycle != session.Ready {
		return nil, domainError(http.StatusServiceUnavailable, "HYDRATING", "Session is still loading", nil)
	}
	if snap.Result == nil {
		return nil, domainError(http.StatusConflict, "NO_SESSION", "No active interview session", nil)
	}

	req := export.Request{
		FileName:   snap.FileName,
		AnalysisID: snap.Result.AnalysisID,
		Result:     *snap.Result,
	}
	s.mu.Lock()
	if s.flow != nil {
		view := s.flow.View()
		req.Current = &view
	}
	s.mu.Unlock()

	result, err := s.exporter.Export(req)
	if err != nil {
		log.Printf("transcript export failed: %v", err)
		if errors.Is(err, export.ErrPDFDependencyMissing) {
			return nil, domainError(http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "PDF renderer is not installed", nil)
		}
		return nil, domainError(http.StatusInternalServerError, "EXPORT_FAILED", "Could not render the transcript", nil)
	}
	return result, nil
}

// Flush waits for pending session write-throughs; used on shutdown.
func (s *Service) Flush() {
	s.sessions.Flush()
}
