// Package export renders the active interview session as a PDF
// transcript: portfolio summary, every generated question with its
// model answer, and any graded answer still on screen.
package export

import (
	"errors"

	"myinterview/api/internal/review"
	"myinterview/api/internal/store"
)

// Request carries the session data to render.
type Request struct {
	FileName   string
	AnalysisID string
	Result     store.AnalysisResult
	// Current is the review position, if the caller wants the typed
	// answer and feedback of the question on screen included.
	Current *review.View
}

// Result contains the export output.
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

// ErrPDFDependencyMissing indicates the headless chromium runtime is
// unavailable.
var ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
