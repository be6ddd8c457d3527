// Package review drives the linear walk through a session's interview
// questions: one position, per-question transient state that resets on
// every move, and the split-pane ratio for the document viewer.
package review

import (
	"sync"

	"myinterview/api/internal/store"
)

const (
	// Pane ratio bounds, percent of viewport width.
	paneMin = 20
	paneMax = 80

	defaultPaneRatio = 35
)

// Transient is the per-question UI state. Never persisted; a fresh
// zero value replaces it on every navigation so nothing leaks between
// questions.
type Transient struct {
	ShowAnswer      bool   `json:"showAnswer"`
	UserAnswer      string `json:"userAnswer"`
	Feedback        string `json:"feedback,omitempty"`
	FeedbackVisible bool   `json:"feedbackVisible"`
}

// Flow is the navigation state machine over an ordered question list.
type Flow struct {
	mu        sync.Mutex
	questions []store.InterviewQuestion
	pos       int
	transient Transient
	paneRatio float64
}

// View is a point-in-time read of the flow for one question.
type View struct {
	Index     int                     `json:"index"`
	Total     int                     `json:"total"`
	First     bool                    `json:"first"`
	Last      bool                    `json:"last"`
	Question  store.InterviewQuestion `json:"question"`
	Transient Transient               `json:"transient"`
	PaneRatio float64                 `json:"paneRatio"`
}

// New starts a flow at the first question.
func New(questions []store.InterviewQuestion) *Flow {
	return &Flow{
		questions: questions,
		paneRatio: defaultPaneRatio,
	}
}

// Next advances one question. A call at the last question is a no-op,
// not an error. Reports whether the position moved.
func (f *Flow) Next() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pos >= len(f.questions)-1 {
		return false
	}
	f.pos++
	f.transient = Transient{}
	return true
}

// Prev moves back one question. A call at the first question is a
// no-op. Reports whether the position moved.
func (f *Flow) Prev() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pos <= 0 {
		return false
	}
	f.pos--
	f.transient = Transient{}
	return true
}

// SetDraft stores the typed answer for the current question.
func (f *Flow) SetDraft(answer string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transient.UserAnswer = answer
}

// Draft returns the typed answer for the current question.
func (f *Flow) Draft() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.transient.UserAnswer
}

// ToggleAnswer flips the model-answer reveal and returns the new state.
func (f *Flow) ToggleAnswer() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transient.ShowAnswer = !f.transient.ShowAnswer
	return f.transient.ShowAnswer
}

// ApplyFeedback stores graded feedback for the current question and
// reveals it. The typed answer is left intact so the candidate can
// edit and retry.
func (f *Flow) ApplyFeedback(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transient.Feedback = text
	f.transient.FeedbackVisible = true
}

// HideFeedback dismisses the feedback modal, keeping its text.
func (f *Flow) HideFeedback() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transient.FeedbackVisible = false
}

// SetPaneRatio applies a drag update. Values outside [20, 80] are
// ignored, mirroring the clamp during an active drag. Reports whether
// the ratio was applied.
func (f *Flow) SetPaneRatio(ratio float64) bool {
	if ratio < paneMin || ratio > paneMax {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paneRatio = ratio
	return true
}

// Current returns the question at the current position.
func (f *Flow) Current() store.InterviewQuestion {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.questions[f.pos]
}

// View snapshots the flow.
func (f *Flow) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return View{
		Index:     f.pos,
		Total:     len(f.questions),
		First:     f.pos == 0,
		Last:      f.pos == len(f.questions)-1,
		Question:  f.questions[f.pos],
		Transient: f.transient,
		PaneRatio: f.paneRatio,
	}
}
