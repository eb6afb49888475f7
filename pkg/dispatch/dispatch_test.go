package dispatch_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wyvern137/hackathon/internal/adapters/memory"
	"github.com/Wyvern137/hackathon/pkg/dispatch"
	"github.com/Wyvern137/hackathon/pkg/domain"
	"github.com/Wyvern137/hackathon/pkg/flow"
	"github.com/Wyvern137/hackathon/pkg/ports"
)

type nopTransport struct{}

func (nopTransport) Send(context.Context, string, ports.Message) (string, error) { return "m", nil }
func (nopTransport) Edit(context.Context, string, string, ports.Message) error   { return nil }
func (nopTransport) Download(context.Context, string) ([]byte, error) {
	return nil, errors.New("not supported")
}

func askFlow(claimed *[]string) *flow.Definition {
	return &flow.Definition{
		ID:    "ask",
		Entry: flow.OnTextLabel("start ask"),
		OnEntry: func(context.Context, *flow.Turn) (flow.Outcome, error) {
			return flow.Transition("waiting"), nil
		},
		Initial: "waiting",
		States: []flow.State{
			{
				Name: "waiting",
				Bindings: []flow.Binding{
					{Match: flow.AnyText(), Handle: func(_ context.Context, t *flow.Turn) (flow.Outcome, error) {
						*claimed = append(*claimed, t.Event.Text)
						return flow.Reentrant(), nil
					}},
				},
			},
		},
	}
}

func text(s string) domain.Event {
	return domain.Event{Kind: domain.EventText, UserID: "u1", ChatID: "u1", Text: s}
}

// voiceTransport serves stored audio bytes by file reference.
type voiceTransport struct {
	nopTransport
	audio map[string][]byte
}

func (v *voiceTransport) Download(_ context.Context, ref string) ([]byte, error) {
	audio, ok := v.audio[ref]
	if !ok {
		return nil, errors.New("no such file")
	}
	return audio, nil
}

type fakeTranscriber struct {
	transcript string
	got        []byte
}

func (f *fakeTranscriber) Transcribe(_ context.Context, audio []byte) (string, error) {
	f.got = audio
	return f.transcript, nil
}

func TestDispatchActiveFlowWins(t *testing.T) {
	var claimed []string
	eng := flow.NewEngine(memory.NewStore(), nopTransport{})
	require.NoError(t, eng.Register(askFlow(&claimed)))

	menuHits := 0
	d := dispatch.New(eng)
	d.Handle("меню", func(context.Context, domain.Event) error {
		menuHits++
		return nil
	})

	ctx := context.Background()
	require.NoError(t, d.Dispatch(ctx, text("start ask")))
	// While the flow is active even an exact menu label belongs to it.
	require.NoError(t, d.Dispatch(ctx, text("меню")))

	assert.Equal(t, []string{"меню"}, claimed)
	assert.Zero(t, menuHits)
}

func TestDispatchMenuLabel(t *testing.T) {
	var claimed []string
	eng := flow.NewEngine(memory.NewStore(), nopTransport{})
	require.NoError(t, eng.Register(askFlow(&claimed)))

	menuHits := 0
	d := dispatch.New(eng)
	d.Handle("меню", func(context.Context, domain.Event) error {
		menuHits++
		return nil
	})

	require.NoError(t, d.Dispatch(context.Background(), text("  меню  ")))
	assert.Equal(t, 1, menuHits, "labels match after trimming")
	assert.Empty(t, claimed)
}

func TestDispatchUnclaimedNonTextDropped(t *testing.T) {
	eng := flow.NewEngine(memory.NewStore(), nopTransport{})
	d := dispatch.New(eng, dispatch.WithFallback(func(context.Context, domain.Event) error {
		t.Fatal("fallback must not fire for non-text events")
		return nil
	}))

	err := d.Dispatch(context.Background(), domain.Event{
		Kind: domain.EventPhoto, UserID: "u1", ChatID: "u1", FileRef: "f1",
	})
	assert.NoError(t, err)
}

func TestDispatchFallback(t *testing.T) {
	eng := flow.NewEngine(memory.NewStore(), nopTransport{})

	var got string
	d := dispatch.New(eng, dispatch.WithFallback(func(_ context.Context, e domain.Event) error {
		got = e.Text
		return nil
	}))
	d.Handle("меню", func(context.Context, domain.Event) error { return nil })

	require.NoError(t, d.Dispatch(context.Background(), text("что ты умеешь?")))
	assert.Equal(t, "что ты умеешь?", got)
}

func TestDispatchVoiceIsTranscribedBeforeRouting(t *testing.T) {
	var claimed []string
	files := &voiceTransport{audio: map[string][]byte{"v1": []byte("ogg-bytes")}}
	eng := flow.NewEngine(memory.NewStore(), files)
	require.NoError(t, eng.Register(askFlow(&claimed)))

	tr := &fakeTranscriber{transcript: "собери пост о субботнике"}
	d := dispatch.New(eng, dispatch.WithTranscriber(tr, files))

	ctx := context.Background()
	require.NoError(t, d.Dispatch(ctx, text("start ask")))
	require.NoError(t, d.Dispatch(ctx, domain.Event{
		Kind: domain.EventVoice, UserID: "u1", ChatID: "u1", FileRef: "v1",
	}))

	assert.Equal(t, []byte("ogg-bytes"), tr.got, "the referenced audio reaches the transcriber")
	assert.Equal(t, []string{"собери пост о субботнике"}, claimed,
		"the active flow receives the transcript as ordinary text")
}

func TestDispatchVoiceDownloadFailurePropagates(t *testing.T) {
	files := &voiceTransport{}
	eng := flow.NewEngine(memory.NewStore(), files)
	d := dispatch.New(eng, dispatch.WithTranscriber(&fakeTranscriber{}, files))

	err := d.Dispatch(context.Background(), domain.Event{
		Kind: domain.EventVoice, UserID: "u1", ChatID: "u1", FileRef: "missing",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "download voice message")
}

func TestDispatchVoiceWithoutTranscriberDropped(t *testing.T) {
	eng := flow.NewEngine(memory.NewStore(), nopTransport{})
	d := dispatch.New(eng)

	err := d.Dispatch(context.Background(), domain.Event{
		Kind: domain.EventVoice, UserID: "u1", ChatID: "u1", FileRef: "v1",
	})
	assert.NoError(t, err, "voice stays a non-text event and is dropped unclaimed")
}

func TestDispatchPropagatesEngineErrors(t *testing.T) {
	boom := errors.New("store down")
	def := &flow.Definition{
		ID:    "fragile",
		Entry: flow.OnTextLabel("start fragile"),
		OnEntry: func(context.Context, *flow.Turn) (flow.Outcome, error) {
			return flow.Outcome{}, boom
		},
		Initial: "step",
		States: []flow.State{
			{Name: "step", Bindings: []flow.Binding{
				{Match: flow.AnyText(), Handle: func(context.Context, *flow.Turn) (flow.Outcome, error) {
					return flow.Terminal(), nil
				}},
			}},
		},
	}
	eng := flow.NewEngine(memory.NewStore(), nopTransport{})
	require.NoError(t, eng.Register(def))

	d := dispatch.New(eng)
	err := d.Dispatch(context.Background(), text("start fragile"))
	assert.ErrorIs(t, err, boom)
}
