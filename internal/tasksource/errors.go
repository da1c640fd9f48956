package tasksource

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrTaskNotFound is returned when a task cannot be found.
	ErrTaskNotFound = errors.New("task not found")

	// ErrConflict is returned when the service rejects a write as conflicting.
	ErrConflict = errors.New("task conflict")

	// ErrValidation is returned when a record is rejected as invalid.
	ErrValidation = errors.New("invalid task")

	// ErrUnreachable is returned when the service cannot be reached.
	ErrUnreachable = errors.New("task service unreachable")

	// ErrInvalidConfig is returned when source configuration is invalid.
	ErrInvalidConfig = errors.New("invalid source configuration")
)

// APIError describes a non-success response that has no more specific
// classification.
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s returned status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s returned status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// classifyStatus maps a non-2xx response to a sentinel error, wrapping the
// APIError so callers can still reach the details with errors.As.
func classifyStatus(apiErr *APIError) error {
	switch apiErr.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrTaskNotFound, apiErr)
	case http.StatusConflict:
		return fmt.Errorf("%w: %w", ErrConflict, apiErr)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %w", ErrValidation, apiErr)
	}
	return apiErr
}
