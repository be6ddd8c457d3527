package app

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"myinterview/api/internal/analyzer"
	"myinterview/api/internal/store"
)

func newTestServer(t *testing.T, ai *fakeAnalyzer) (*HTTPServer, *Service) {
	t.Helper()
	svc := newTestService(t, nil, ai)
	return NewHTTPServer(svc, "*"), svc
}

func doJSON(t *testing.T, server *HTTPServer, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	var payload map[string]any
	if rr.Body.Len() > 0 {
		if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
			t.Fatalf("response is not JSON: %v\n%s", err, rr.Body.String())
		}
	}
	return rr, payload
}

func uploadPortfolio(t *testing.T, server *HTTPServer, fileName, requirements string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if fileName != "" {
		part, err := writer.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write([]byte("%PDF-1.7 test")); err != nil {
			t.Fatal(err)
		}
	}
	if requirements != "" {
		if err := writer.WriteField("requirements", requirements); err != nil {
			t.Fatal(err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	var payload map[string]any
	if rr.Body.Len() > 0 {
		_ = json.Unmarshal(rr.Body.Bytes(), &payload)
	}
	return rr, payload
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t, nil)

	rr, payload := doJSON(t, server, http.MethodGet, "/api/health", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d", rr.Code)
	}
	if ok, _ := payload["ok"].(bool); !ok {
		t.Errorf("payload = %v", payload)
	}
}

func TestReadyEndpoint(t *testing.T) {
	server, _ := newTestServer(t, nil)

	rr, payload := doJSON(t, server, http.MethodGet, "/api/ready", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d", rr.Code)
	}
	if status, _ := payload["status"].(string); status != "ready" {
		t.Errorf("status field = %v", payload)
	}
}

func TestAnalyzeWithoutFile(t *testing.T) {
	ai := &fakeAnalyzer{}
	server, svc := newTestServer(t, ai)

	rr, payload := uploadPortfolio(t, server, "", "some requirements")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rr.Code)
	}
	if code, _ := payload["code"].(string); code != "FILE_REQUIRED" {
		t.Errorf("code = %v", payload["code"])
	}
	if calls, _ := ai.calls(); calls != 0 {
		t.Error("the analyzer must not be contacted without a file")
	}
	if svc.Session().HasResult {
		t.Error("state must be unchanged")
	}
}

func TestAnalyzeHappyPath(t *testing.T) {
	server, _ := newTestServer(t, nil)

	rr, payload := uploadPortfolio(t, server, "portfolio.pdf", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %v", rr.Code, payload)
	}
	questions, _ := payload["questions"].([]any)
	if len(questions) != 12 {
		t.Fatalf("question count = %d, want 12", len(questions))
	}

	// The review flow starts at the first of twelve questions.
	rr, review := doJSON(t, server, http.MethodGet, "/api/review", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("review status = %d: %v", rr.Code, review)
	}
	if idx, _ := review["index"].(float64); idx != 0 {
		t.Errorf("index = %v, want 0", review["index"])
	}
	if total, _ := review["total"].(float64); total != 12 {
		t.Errorf("total = %v, want 12", review["total"])
	}
}

func TestAnalyzeNotPortfolioMessage(t *testing.T) {
	ai := &fakeAnalyzer{
		analyzeFn: func([]byte, string) (*store.AnalysisResult, error) {
			return nil, analyzer.ErrNotPortfolio
		},
	}
	server, _ := newTestServer(t, ai)

	rr, payload := uploadPortfolio(t, server, "recipe-book.pdf", "")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rr.Code)
	}
	if code, _ := payload["code"].(string); code != "NOT_PORTFOLIO" {
		t.Errorf("code = %v, want the specific rejection", payload["code"])
	}
	if msg, _ := payload["error"].(string); !strings.Contains(msg, "portfolio") {
		t.Errorf("message = %q, want a portfolio-specific message", msg)
	}
}

func TestReviewGuardWithoutSession(t *testing.T) {
	server, _ := newTestServer(t, nil)

	rr, payload := doJSON(t, server, http.MethodGet, "/api/review", nil)
	if rr.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rr.Code)
	}
	if code, _ := payload["code"].(string); code != "NO_SESSION" {
		t.Errorf("code = %v", payload["code"])
	}
}

func TestReviewNavigationBounds(t *testing.T) {
	server, _ := newTestServer(t, nil)
	uploadPortfolio(t, server, "p.pdf", "")

	// Prev at the first question is a no-op.
	rr, view := doJSON(t, server, http.MethodPost, "/api/review/prev", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if idx, _ := view["index"].(float64); idx != 0 {
		t.Errorf("index = %v after prev at start", view["index"])
	}

	// Walk to the end; next at the last question is a no-op.
	for i := 0; i < 11; i++ {
		doJSON(t, server, http.MethodPost, "/api/review/next", nil)
	}
	_, view = doJSON(t, server, http.MethodPost, "/api/review/next", nil)
	if idx, _ := view["index"].(float64); idx != 11 {
		t.Errorf("index = %v after next at end, want 11", view["index"])
	}
	if last, _ := view["last"].(bool); !last {
		t.Error("last flag missing at the final question")
	}
}

func TestReviewNavigationResetsTransient(t *testing.T) {
	server, _ := newTestServer(t, nil)
	uploadPortfolio(t, server, "p.pdf", "")

	doJSON(t, server, http.MethodPost, "/api/review/answer", map[string]string{"answer": "draft text"})
	doJSON(t, server, http.MethodPost, "/api/review/reveal", nil)

	_, view := doJSON(t, server, http.MethodPost, "/api/review/next", nil)
	transient, _ := view["transient"].(map[string]any)
	if transient == nil {
		t.Fatalf("view = %v", view)
	}
	if answer, _ := transient["userAnswer"].(string); answer != "" {
		t.Errorf("draft survived navigation: %q", answer)
	}
	if show, _ := transient["showAnswer"].(bool); show {
		t.Error("answer reveal survived navigation")
	}
}

func TestFeedbackWhitespaceAnswerBlocked(t *testing.T) {
	ai := &fakeAnalyzer{}
	server, _ := newTestServer(t, ai)
	uploadPortfolio(t, server, "p.pdf", "")

	rr, payload := doJSON(t, server, http.MethodPost, "/api/review/feedback", map[string]string{"answer": "  \t "})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rr.Code)
	}
	if code, _ := payload["code"].(string); code != "EMPTY_ANSWER" {
		t.Errorf("code = %v", payload["code"])
	}
	if _, grades := ai.calls(); grades != 0 {
		t.Error("no collaborator call for a whitespace answer")
	}
}

func TestFeedbackFlow(t *testing.T) {
	server, _ := newTestServer(t, nil)
	uploadPortfolio(t, server, "p.pdf", "")

	rr, view := doJSON(t, server, http.MethodPost, "/api/review/feedback", map[string]string{"answer": "I sharded by tenant."})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %v", rr.Code, view)
	}
	transient, _ := view["transient"].(map[string]any)
	if visible, _ := transient["feedbackVisible"].(bool); !visible {
		t.Error("feedback modal should be revealed")
	}

	_, view = doJSON(t, server, http.MethodPost, "/api/review/feedback/dismiss", nil)
	transient, _ = view["transient"].(map[string]any)
	if visible, _ := transient["feedbackVisible"].(bool); visible {
		t.Error("dismiss should hide the modal")
	}
}

func TestPaneRatioEndpoint(t *testing.T) {
	server, _ := newTestServer(t, nil)
	uploadPortfolio(t, server, "p.pdf", "")

	rr, _ := doJSON(t, server, http.MethodPost, "/api/review/pane", map[string]float64{"ratio": 55})
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d for an in-range ratio", rr.Code)
	}

	rr, payload := doJSON(t, server, http.MethodPost, "/api/review/pane", map[string]float64{"ratio": 95})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422 for an out-of-range ratio", rr.Code)
	}
	if code, _ := payload["code"].(string); code != "VALIDATION_ERROR" {
		t.Errorf("code = %v", payload["code"])
	}
}

func TestSessionFileEndpoint(t *testing.T) {
	server, svc := newTestServer(t, nil)
	uploadPortfolio(t, server, "portfolio.pdf", "")
	svc.Flush()

	rr, payload := doJSON(t, server, http.MethodGet, "/api/session/file", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if name, _ := payload["fileName"].(string); name != "portfolio.pdf" {
		t.Errorf("fileName = %v", payload["fileName"])
	}
	if data, _ := payload["fileData"].(string); data == "" {
		t.Error("fileData missing")
	}
}

func TestExitEndpoint(t *testing.T) {
	server, _ := newTestServer(t, nil)
	uploadPortfolio(t, server, "p.pdf", "")

	// Unconfirmed exit is a no-op.
	rr, _ := doJSON(t, server, http.MethodDelete, "/api/session", map[string]bool{"confirm": false})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422 without confirmation", rr.Code)
	}
	if rr, _ := doJSON(t, server, http.MethodGet, "/api/review", nil); rr.Code != http.StatusOK {
		t.Error("session must survive an unconfirmed exit")
	}

	rr, _ = doJSON(t, server, http.MethodDelete, "/api/session", map[string]bool{"confirm": true})
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d", rr.Code)
	}
	if rr, _ := doJSON(t, server, http.MethodGet, "/api/review", nil); rr.Code != http.StatusConflict {
		t.Error("review guard must fail after a confirmed exit")
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	server, _ := newTestServer(t, nil)
	rr, _ := doJSON(t, server, http.MethodGet, "/api/nope", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d", rr.Code)
	}
}
