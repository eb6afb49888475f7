// Package flow implements the generic dialogue state machine: static flow
// definitions executed one handler step per inbound event, with session
// state persisted between turns.
package flow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Wyvern137/hackathon/internal/logging"
	"github.com/Wyvern137/hackathon/internal/metrics"
	"github.com/Wyvern137/hackathon/pkg/domain"
	"github.com/Wyvern137/hackathon/pkg/ports"
)

const (
	defaultCancelReply  = "Действие отменено. Возвращаю в главное меню."
	defaultFailureReply = "Произошла ошибка. Попробуй ещё раз."
)

// lockEntry holds a per-user mutex and its reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Engine executes exactly one state-handler step per inbound event.
//
// The transport is expected to deliver a user's events in order; the
// engine additionally serializes steps per user with ref-counted mutexes,
// so no two events from the same user are ever interleaved mid-step even
// if the transport cannot guarantee it. Different users proceed fully
// independently.
type Engine struct {
	sessions  ports.SessionStore
	transport ports.Transport

	flows   map[string]*Definition
	ordered []*Definition

	cancel       Matcher
	cancelReply  string
	failureReply string

	mu    sync.Mutex
	locks map[string]*lockEntry

	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures the engine.
type Option func(*Engine)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics wires the Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithCancelMatcher overrides the global escape-hatch pattern. Cancel is
// checked before state-specific patterns in every state.
func WithCancelMatcher(m Matcher) Option {
	return func(e *Engine) {
		e.cancel = m
	}
}

// WithReplies overrides the user-facing cancel and failure messages.
func WithReplies(cancelReply, failureReply string) Option {
	return func(e *Engine) {
		e.cancelReply = cancelReply
		e.failureReply = failureReply
	}
}

// NewEngine creates an engine over the given session store and transport.
func NewEngine(sessions ports.SessionStore, transport ports.Transport, opts ...Option) *Engine {
	e := &Engine{
		sessions:  sessions,
		transport: transport,
		flows:     make(map[string]*Definition),
		locks:     make(map[string]*lockEntry),
		cancel: Any(
			OnTextLabel("❌ Отмена"),
			OnTextLabel("◀️ Назад"),
			OnCallback("cancel"),
			OnCallback("back"),
		),
		cancelReply:  defaultCancelReply,
		failureReply: defaultFailureReply,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Register adds a flow definition. Registration order decides entry-point
// precedence when several flows could claim the same event.
func (e *Engine) Register(defs ...*Definition) error {
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return err
		}
		if _, dup := e.flows[d.ID]; dup {
			return fmt.Errorf("flow %s registered twice", d.ID)
		}
		e.flows[d.ID] = d
		e.ordered = append(e.ordered, d)
	}
	return nil
}

// Flows lists registered flow ids in registration order.
func (e *Engine) Flows() []string {
	ids := make([]string, 0, len(e.ordered))
	for _, d := range e.ordered {
		ids = append(ids, d.ID)
	}
	return ids
}

// Step routes one event for one user through the state machine. It returns
// domain.ErrNoFlowMatched when no flow is active and no entry point claims
// the event; the dispatcher then falls through to the default menu.
//
// Any other failure inside a handler is contained here: logged, surfaced
// to the user as a generic failure message, and the session cleared. A
// flow never leaves a session stuck in active=true after an unrecoverable
// error.
func (e *Engine) Step(ctx context.Context, event domain.Event) error {
	entry := e.acquire(event.UserID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		e.release(event.UserID)
	}()

	sess, err := e.sessions.Get(ctx, event.UserID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	if !sess.Active {
		if def := e.matchEntry(event); def != nil {
			return e.begin(ctx, def, event, sess)
		}
		return domain.ErrNoFlowMatched
	}

	def := e.flows[sess.FlowID]
	var state *State
	if def != nil {
		state = def.state(sess.State)
	}
	if def == nil || state == nil {
		// Dangling state is an engine defect: recoverable for the user,
		// fatal for the flow.
		integrityErr := &domain.StateIntegrityError{FlowID: sess.FlowID, State: sess.State}
		e.logger.Error("session state integrity violation",
			"user", event.UserID, "flow", sess.FlowID, "state", sess.State)
		e.fail(ctx, event, sess)
		return integrityErr
	}

	// Cancel and back are universal escape hatches, checked before any
	// state-specific pattern.
	if e.cancel(event) {
		e.observe(def.ID, "cancel")
		e.clear(ctx, sess)
		t := &Turn{Event: event, Session: sess, transport: e.transport}
		if err := t.ReplyText(ctx, e.cancelReply); err != nil {
			e.logger.Warn("cancel reply failed", "user", event.UserID, "err", err)
		}
		return nil
	}

	for _, binding := range state.Bindings {
		if binding.Match(event) {
			return e.execute(ctx, def, binding.Handle, event, sess)
		}
	}

	// No transition matched. Another flow's entry point may take over
	// (last entry wins, no stacking); an entry of the same definition
	// replaces the running instance.
	if next := e.matchEntry(event); next != nil {
		e.observe(def.ID, "preempted")
		return e.begin(ctx, next, event, sess)
	}

	// Unrelated event mid-flow: the owning flow keeps the session, the
	// event is dropped.
	e.logger.Debug("event unmatched in active flow",
		"user", event.UserID, "flow", def.ID, "state", sess.State, "kind", event.Kind)
	return nil
}

func (e *Engine) matchEntry(event domain.Event) *Definition {
	for _, d := range e.ordered {
		if d.Entry(event) {
			return d
		}
	}
	return nil
}

func (e *Engine) begin(ctx context.Context, def *Definition, event domain.Event, sess *domain.Session) error {
	wasActive := sess.Active
	sess.Begin(def.ID, def.Initial)
	if e.metrics != nil && !wasActive {
		e.metrics.ActiveSessions.Inc()
	}
	return e.execute(ctx, def, def.OnEntry, event, sess)
}

// execute runs one handler with panic containment and applies its outcome.
func (e *Engine) execute(ctx context.Context, def *Definition, handler HandlerFunc, event domain.Event, sess *domain.Session) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("handler panic",
				"user", event.UserID, "flow", def.ID, "state", sess.State, "panic", r)
			e.observe(def.ID, "panic")
			e.fail(ctx, event, sess)
			err = fmt.Errorf("flow %s panicked in state %s: %v", def.ID, sess.State, r)
		}
	}()

	t := &Turn{Event: event, Session: sess, transport: e.transport}
	outcome, herr := handler(ctx, t)

	if herr != nil {
		if ve, ok := domain.AsValidation(herr); ok {
			// Validation failures never escape the engine: re-prompt and
			// stay in place.
			e.observe(def.ID, "validation")
			if rerr := t.ReplyText(ctx, ve.Message); rerr != nil {
				e.logger.Warn("validation reply failed", "user", event.UserID, "err", rerr)
			}
			return e.sessions.Save(ctx, sess)
		}

		e.logger.Error("flow step failed",
			"user", event.UserID, "flow", def.ID, "state", sess.State, "err", herr)
		e.observe(def.ID, "error")
		e.fail(ctx, event, sess)
		return herr
	}

	switch outcome.Kind {
	case OutcomeTransition:
		if def.state(outcome.Next) == nil {
			integrityErr := &domain.StateIntegrityError{FlowID: def.ID, State: outcome.Next}
			e.logger.Error("transition to undefined state",
				"flow", def.ID, "from", sess.State, "to", outcome.Next)
			e.observe(def.ID, "integrity")
			e.fail(ctx, event, sess)
			return integrityErr
		}
		sess.Advance(outcome.Next)
		e.observe(def.ID, "transition")
	case OutcomeReentrant:
		e.observe(def.ID, "reentrant")
	case OutcomeTerminal:
		e.observe(def.ID, "terminal")
		e.clear(ctx, sess)
		return nil
	default:
		integrityErr := fmt.Errorf("flow %s returned unknown outcome %q", def.ID, outcome.Kind)
		e.observe(def.ID, "integrity")
		e.fail(ctx, event, sess)
		return integrityErr
	}

	return e.sessions.Save(ctx, sess)
}

// fail surfaces a generic failure to the user and releases the session.
func (e *Engine) fail(ctx context.Context, event domain.Event, sess *domain.Session) {
	e.clear(ctx, sess)
	t := &Turn{Event: event, Session: sess, transport: e.transport}
	if err := t.ReplyText(ctx, e.failureReply); err != nil {
		e.logger.Warn("failure reply failed", "user", event.UserID, "err", err)
	}
}

func (e *Engine) clear(ctx context.Context, sess *domain.Session) {
	if e.metrics != nil && sess.Active {
		e.metrics.ActiveSessions.Dec()
	}
	sess.Reset()
	if err := e.sessions.Clear(ctx, sess.UserID); err != nil {
		e.logger.Warn("session clear failed", "user", sess.UserID, "err", err)
	}
}

func (e *Engine) observe(flowID, outcome string) {
	if e.metrics != nil {
		e.metrics.FlowSteps.WithLabelValues(flowID, outcome).Inc()
	}
}

// acquire gets or creates a lock entry and increments its reference count.
func (e *Engine) acquire(userID string) *lockEntry {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.locks[userID]
	if !ok {
		entry = &lockEntry{}
		e.locks[userID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and drops the entry at zero.
func (e *Engine) release(userID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.locks[userID]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(e.locks, userID)
	}
}
