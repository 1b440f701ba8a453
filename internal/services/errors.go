package services

import "fmt"

// ValidationError is returned for unusable chat requests.
type ValidationError struct{ Message string }

func (e *ValidationError) Error() string { return e.Message }

// ProviderError is returned when the LLM provider refuses the request or
// cannot be reached. StatusCode is 0 for transport failures.
type ProviderError struct {
	StatusCode int
	Body       string
	Cause      error
}

func (e *ProviderError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("LLM Error: %v", e.Cause)
	}
	return fmt.Sprintf("LLM Error: %d - %s", e.StatusCode, e.Body)
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// InternalError wraps anything else that went wrong while relaying.
type InternalError struct{ Cause error }

func (e *InternalError) Error() string { return e.Cause.Error() }

func (e *InternalError) Unwrap() error { return e.Cause }
