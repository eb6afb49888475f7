// Package dispatch routes inbound events between the flow engine and the
// top-level menu. An active flow always wins; only unclaimed events reach
// the menu table.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Wyvern137/hackathon/internal/logging"
	"github.com/Wyvern137/hackathon/pkg/domain"
	"github.com/Wyvern137/hackathon/pkg/flow"
	"github.com/Wyvern137/hackathon/pkg/ports"
)

// Handler reacts to an event the engine did not claim, typically by
// starting nothing and just replying (help text, the main menu).
type Handler func(ctx context.Context, event domain.Event) error

// Dispatcher is the single entry point for inbound events.
type Dispatcher struct {
	engine      *flow.Engine
	menu        map[string]Handler
	fallback    Handler
	transcriber ports.Transcriber
	files       ports.Transport
	logger      *slog.Logger
}

// Option configures the dispatcher.
type Option func(*Dispatcher)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithFallback handles unclaimed text that matches no menu label. Without
// it such text is dropped.
func WithFallback(h Handler) Option {
	return func(d *Dispatcher) {
		d.fallback = h
	}
}

// WithTranscriber turns voice events into text events before routing: the
// audio is fetched through the transport and the transcript re-enters
// dispatch as if the user had typed it. Without a transcriber voice events
// pass through untouched and follow the usual non-text rules.
func WithTranscriber(tr ports.Transcriber, files ports.Transport) Option {
	return func(d *Dispatcher) {
		d.transcriber = tr
		d.files = files
	}
}

// New creates a dispatcher over a configured engine.
func New(engine *flow.Engine, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		engine: engine,
		menu:   make(map[string]Handler),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle binds a menu label (exact text after trimming) to a handler.
// Menu labels are only consulted when no flow owns the user's input.
func (d *Dispatcher) Handle(label string, h Handler) {
	d.menu[strings.TrimSpace(label)] = h
}

// Dispatch routes one event. Resolution order:
//
//  1. The flow engine: an active flow owns every event of its user, and
//     flow entry points claim events for idle users.
//  2. The menu table, for unclaimed text matching a label exactly.
//  3. The fallback handler, for any other unclaimed text.
//
// Unclaimed non-text events are dropped without a user-visible reaction.
// With a transcriber configured, voice events are converted to text first
// and routed like any typed message.
func (d *Dispatcher) Dispatch(ctx context.Context, event domain.Event) error {
	if event.Kind == domain.EventVoice && d.transcriber != nil {
		transcribed, err := d.transcribe(ctx, event)
		if err != nil {
			return err
		}
		event = transcribed
	}

	err := d.engine.Step(ctx, event)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNoFlowMatched) {
		return err
	}

	if event.Kind != domain.EventText {
		d.logger.Debug("unclaimed non-text event dropped",
			"user", event.UserID, "kind", event.Kind)
		return nil
	}

	label := strings.TrimSpace(event.Text)
	if h, ok := d.menu[label]; ok {
		return h(ctx, event)
	}
	if d.fallback != nil {
		return d.fallback(ctx, event)
	}
	d.logger.Debug("unclaimed text dropped", "user", event.UserID)
	return nil
}

func (d *Dispatcher) transcribe(ctx context.Context, event domain.Event) (domain.Event, error) {
	audio, err := d.files.Download(ctx, event.FileRef)
	if err != nil {
		return domain.Event{}, fmt.Errorf("download voice message: %w", err)
	}
	text, err := d.transcriber.Transcribe(ctx, audio)
	if err != nil {
		return domain.Event{}, fmt.Errorf("transcribe voice message: %w", err)
	}
	d.logger.Debug("voice transcribed", "user", event.UserID, "chars", len(text))
	return domain.TextEvent(event.UserID, event.ChatID, text), nil
}
