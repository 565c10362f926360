package planner

import (
	"errors"
	"fmt"
)

// ErrPlanNotFound is returned when a study plan does not exist
var ErrPlanNotFound = errors.New("study plan not found")

// ValidationError reports malformed or incomplete local input. It is
// never sent upstream; the caller re-prompts the user for the data.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// MalformedResponseError reports a generation response that does not
// conform to the schedule-item schema. Raw retains the offending text
// for diagnostics.
type MalformedResponseError struct {
	Reason string
	Raw    string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed generation response: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed generation response: %s", e.Reason)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// ConflictError reports generated sessions that overlap each other or an
// existing commitment. The generation model cannot be trusted to honor
// the no-overlap constraint, so this is checked after parsing.
type ConflictError struct {
	First  string
	Second string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("generated schedule conflict: %q overlaps %q", e.First, e.Second)
}
