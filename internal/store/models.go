package store

// Difficulty levels the analyzer is allowed to assign.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// InterviewQuestion is one generated question tied to a portfolio page.
// Immutable once part of a result.
type InterviewQuestion struct {
	ID          int    `json:"id"`
	Question    string `json:"question"`
	Category    string `json:"category"`
	Difficulty  string `json:"difficulty"`
	RelatedPage int    `json:"relatedPage"`
	Answer      string `json:"answer"`
}

// AnalysisResult is the analyzer's output for one upload. Replaced
// wholesale on a new upload, never merged.
type AnalysisResult struct {
	AnalysisID string              `json:"analysisId,omitempty"`
	Summary    string              `json:"summary"`
	Questions  []InterviewQuestion `json:"questions"`
}

// StoredFile is the reloadable copy of the uploaded portfolio: the
// base64-encoded payload plus its display name, saved as one unit.
type StoredFile struct {
	Payload string `json:"payload"`
	Name    string `json:"name"`
}

// ValidDifficulty reports whether d is one of the enumerated levels.
func ValidDifficulty(d string) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}
