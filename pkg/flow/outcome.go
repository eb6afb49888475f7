package flow

// OutcomeKind tags the result of one handler step.
type OutcomeKind string

const (
	// OutcomeTransition advances the flow to another state.
	OutcomeTransition OutcomeKind = "transition"
	// OutcomeReentrant keeps the flow in the same state, typically after
	// a validation failure re-prompt.
	OutcomeReentrant OutcomeKind = "reentrant"
	// OutcomeTerminal completes the flow and releases the session.
	OutcomeTerminal OutcomeKind = "terminal"
)

// Outcome is the tagged result of a state handler. Construct it with
// Transition, Reentrant or Terminal.
type Outcome struct {
	Kind OutcomeKind
	Next string
}

// Transition moves the flow to the named state.
func Transition(next string) Outcome {
	return Outcome{Kind: OutcomeTransition, Next: next}
}

// Reentrant keeps the flow in its current state.
func Reentrant() Outcome {
	return Outcome{Kind: OutcomeReentrant}
}

// Terminal completes the flow.
func Terminal() Outcome {
	return Outcome{Kind: OutcomeTerminal}
}
