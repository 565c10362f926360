package gemini

import (
	"fmt"
)

// AuthenticationError reports a missing or rejected API credential
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("gemini authentication: %s", e.Message)
}

// UpstreamError reports a reachable endpoint that returned a failure
// status. Body holds the (truncated) response body for diagnostics.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("gemini API error: status %d", e.Status)
}

// NetworkError reports a transport-level failure with no response
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("gemini request failed: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
