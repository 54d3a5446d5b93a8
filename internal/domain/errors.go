package domain

import "fmt"

// APIError is a structured backend failure. Conflict detection relies on the
// status code plus the echoed session id, never on message text.
type APIError struct {
	Status    int
	Message   string
	SessionID string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return e.Message
}

// IsConflict reports whether the error indicates a pre-existing active
// session that must be force-stopped before a new one can start.
func (e *APIError) IsConflict() bool {
	return e.Status == 409 && e.SessionID != ""
}
