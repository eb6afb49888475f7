package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrRecordNotFound is returned when a referenced content record is missing.
var ErrRecordNotFound = errors.New("record not found")

// ErrNoFlowMatched is returned by the arbiter when no flow claims an event
// and no menu action applies.
var ErrNoFlowMatched = errors.New("no flow matched event")

// ValidationError marks user input that fails a flow's local check. It never
// escapes the flow engine: the flow re-prompts and stays in the same state.
type ValidationError struct {
	// Message is the user-facing re-prompt text.
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s", e.Message)
}

// Validation builds a ValidationError with a user-facing message.
func Validation(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// AsValidation unwraps a ValidationError from an error chain.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// StateIntegrityError marks an engine defect: a session claims to be active
// but no (flow, state) pair matches it. The engine logs it and forcibly
// clears the session.
type StateIntegrityError struct {
	FlowID string
	State  string
}

func (e *StateIntegrityError) Error() string {
	return fmt.Sprintf("dangling session state: flow=%q state=%q", e.FlowID, e.State)
}
