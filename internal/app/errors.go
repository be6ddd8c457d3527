package app

import "fmt"

// DomainError is the service layer's error contract: an HTTP status,
// a stable machine-readable code (NOT_PORTFOLIO, NO_SESSION, ...) and
// a user-facing message. mapError turns anything else into a generic
// SERVER_ERROR so internal detail never reaches a client.
type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}
