package flow

import (
	"context"
	"fmt"
)

// HandlerFunc executes one dialogue step. It may read and write scratch,
// call the generation facade, persist records, and reply through the turn.
// Returning a *domain.ValidationError re-prompts in place; any other error
// terminates the flow and clears the session.
type HandlerFunc func(ctx context.Context, t *Turn) (Outcome, error)

// Binding pairs an event pattern with its handler. Within a state the
// engine evaluates bindings in declaration order, so specific patterns
// (exact callbacks) must be declared before generic ones (AnyText).
type Binding struct {
	Match  Matcher
	Handle HandlerFunc
}

// State is one node of a flow's dialogue graph.
type State struct {
	Name     string
	Bindings []Binding
}

// Definition is a static flow: an entry pattern plus a table of named
// states. Definitions are immutable after registration and shared across
// users; all per-user data lives in the session.
type Definition struct {
	// ID names the flow and is recorded in the session while active.
	ID string

	// Entry is the event pattern that starts the flow.
	Entry Matcher

	// OnEntry runs when the flow starts, after scratch is cleared. It
	// usually sends the first prompt and returns Transition(Initial).
	OnEntry HandlerFunc

	// Initial is the state the flow starts in.
	Initial string

	States []State
}

// Validate checks the table's internal consistency at registration time.
func (d *Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("flow definition missing id")
	}
	if d.Entry == nil {
		return fmt.Errorf("flow %s: missing entry matcher", d.ID)
	}
	if d.OnEntry == nil {
		return fmt.Errorf("flow %s: missing entry handler", d.ID)
	}
	if d.Initial == "" {
		return fmt.Errorf("flow %s: missing initial state", d.ID)
	}
	if d.state(d.Initial) == nil {
		return fmt.Errorf("flow %s: initial state %q not defined", d.ID, d.Initial)
	}
	seen := make(map[string]struct{}, len(d.States))
	for _, st := range d.States {
		if st.Name == "" {
			return fmt.Errorf("flow %s: state with empty name", d.ID)
		}
		if _, dup := seen[st.Name]; dup {
			return fmt.Errorf("flow %s: duplicate state %q", d.ID, st.Name)
		}
		seen[st.Name] = struct{}{}
		if len(st.Bindings) == 0 {
			return fmt.Errorf("flow %s: state %q has no bindings", d.ID, st.Name)
		}
	}
	return nil
}

func (d *Definition) state(name string) *State {
	for i := range d.States {
		if d.States[i].Name == name {
			return &d.States[i]
		}
	}
	return nil
}
