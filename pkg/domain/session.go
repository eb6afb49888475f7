package domain

import "time"

// Session is the per-user ephemeral dialogue state. It tracks which flow
// (if any) owns the next input, which step that flow is on, and the data
// collected so far. Sessions may be dropped at any time; flows are designed
// to restart cleanly.
type Session struct {
	UserID string

	// FlowID and State are meaningful only while Active is true.
	// At most one flow owns a session at any time.
	FlowID string
	State  string
	Active bool

	// Scratch accumulates answers across steps. Flows decode it into their
	// own typed scratch structs rather than reading keys directly.
	Scratch map[string]any

	// LastSeen drives idle eviction in bounded stores.
	LastSeen time.Time
}

// NewSession creates an empty, inactive session for a user.
func NewSession(userID string) *Session {
	return &Session{
		UserID:   userID,
		Scratch:  make(map[string]any),
		LastSeen: time.Now(),
	}
}

// Begin hands ownership of the session to a flow, resetting scratch.
// A flow re-entering while another instance of itself (or any other flow)
// is active replaces it: last entry wins, there is no flow stack.
func (s *Session) Begin(flowID, state string) {
	s.FlowID = flowID
	s.State = state
	s.Active = true
	s.Scratch = make(map[string]any)
}

// Advance moves the session to the next state within the active flow.
func (s *Session) Advance(state string) {
	s.State = state
}

// Reset clears flow ownership and scratch. Called on cancel, completion,
// and any unrecoverable handler failure.
func (s *Session) Reset() {
	s.FlowID = ""
	s.State = ""
	s.Active = false
	s.Scratch = make(map[string]any)
}

// Clone returns a deep copy so stores can hand out isolated snapshots.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Scratch = make(map[string]any, len(s.Scratch))
	for k, v := range s.Scratch {
		cp.Scratch[k] = v
	}
	return &cp
}
