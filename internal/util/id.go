package util

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// NewRequestID returns a short hex id for request correlation.
func NewRequestID() string {
	bytes := make([]byte, 8)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// NewAnalysisID tags one committed analysis result for logs and
// export filenames.
func NewAnalysisID() string {
	return uuid.New().String()
}
