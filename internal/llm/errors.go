package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned when no API credential is configured.
	// Fatal for the call, surfaced to the operator, never retried.
	ErrNotConfigured = errors.New("llm: api key is not configured")
)

// TransportError wraps network and timeout failures reaching the upstream
// service. Callers may retry with backoff; the client itself never does.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("llm: transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UpstreamError is a non-success response from the model service.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("llm: upstream returned %d: %s", e.StatusCode, e.Message)
}
