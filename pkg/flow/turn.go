package flow

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/Wyvern137/hackathon/pkg/domain"
	"github.com/Wyvern137/hackathon/pkg/ports"
)

// Turn is the per-step context handed to handlers: the triggering event,
// the user's session, and a reply channel bound to the originating chat.
type Turn struct {
	Event   domain.Event
	Session *domain.Session

	transport ports.Transport
}

// Reply sends a message back to the chat the event came from.
func (t *Turn) Reply(ctx context.Context, msg ports.Message) error {
	_, err := t.transport.Send(ctx, t.Event.ChatID, msg)
	return err
}

// ReplyText sends a plain text reply.
func (t *Turn) ReplyText(ctx context.Context, text string) error {
	return t.Reply(ctx, ports.Message{Text: text})
}

// Scratch decodes the session's accumulated answers into a flow-specific
// typed struct. Each flow defines its own scratch record instead of
// reading stringly-typed keys. Decoding is weakly typed because session
// stores that round-trip through JSON widen ints to float64.
func (t *Turn) Scratch(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("build scratch decoder: %w", err)
	}
	if err := dec.Decode(t.Session.Scratch); err != nil {
		return fmt.Errorf("decode scratch: %w", err)
	}
	return nil
}

// PutScratch encodes a typed scratch struct back into the session.
func (t *Turn) PutScratch(in any) error {
	scratch := make(map[string]any)
	if err := mapstructure.Decode(in, &scratch); err != nil {
		return fmt.Errorf("encode scratch: %w", err)
	}
	t.Session.Scratch = scratch
	return nil
}

// MergeScratch overlays the fields of a typed struct onto the session's
// scratch, keeping keys the struct does not mention. Shared states use it
// to update their slice of the scratch without knowing the owning flow's
// full record.
func (t *Turn) MergeScratch(in any) error {
	patch := make(map[string]any)
	if err := mapstructure.Decode(in, &patch); err != nil {
		return fmt.Errorf("encode scratch: %w", err)
	}
	if t.Session.Scratch == nil {
		t.Session.Scratch = make(map[string]any, len(patch))
	}
	for k, v := range patch {
		t.Session.Scratch[k] = v
	}
	return nil
}
