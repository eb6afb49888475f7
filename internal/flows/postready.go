package flows

import (
	"context"

	"github.com/Wyvern137/hackathon/internal/postprocess"
	"github.com/Wyvern137/hackathon/pkg/domain"
	"github.com/Wyvern137/hackathon/pkg/flow"
)

const replyGenerationDown = "Сервис генерации сейчас недоступен. Попробуй ещё раз чуть позже или нажми «Отмена»."

const statePostReady = "post_ready"

// finishPost runs the shared tail of every text-producing flow: reflow the
// body, attach tags, persist the record and present the save/regenerate
// keyboard. It returns the id of the created record.
func finishPost(ctx context.Context, deps Deps, t *flow.Turn, body, styleID string, kind domain.ContentKind) (string, error) {
	profile := loadProfile(ctx, deps, t.Event.UserID)

	reflowed := postprocess.Reflow(body)
	tags := deps.Tagger.Generate(ctx, reflowed, profile, defaultTagCount)
	text := postprocess.AppendTags(reflowed, tags)

	rec := &domain.ContentRecord{
		OwnerID:   t.Event.UserID,
		Kind:      kind,
		Payload:   map[string]any{"text": text},
		Style:     styleID,
		Tags:      tags,
		CreatedAt: deps.Now(),
	}
	if err := deps.Records.Create(ctx, rec); err != nil {
		return "", err
	}
	if err := t.Reply(ctx, postReadyKeyboard(text)); err != nil {
		return "", err
	}
	return rec.ID, nil
}

// regenerateFunc produces a fresh body for the "another variant" action.
type regenerateFunc func(ctx context.Context, t *flow.Turn) (string, bool, error)

// postReadyState is the terminal stage shared by the text flows: save the
// record, ask for another variant, or finish.
func postReadyState(deps Deps, kind domain.ContentKind, regen regenerateFunc) flow.State {
	return flow.State{
		Name: statePostReady,
		Bindings: []flow.Binding{
			{
				Match: flow.OnCallback("post_save"),
				Handle: func(ctx context.Context, t *flow.Turn) (flow.Outcome, error) {
					var s struct {
						RecordID string `mapstructure:"record_id"`
					}
					if err := t.Scratch(&s); err != nil {
						return flow.Outcome{}, err
					}
					if err := deps.Records.MarkSaved(ctx, s.RecordID, true); err != nil {
						return flow.Outcome{}, err
					}
					if err := t.ReplyText(ctx, "Пост сохранён ✅"); err != nil {
						return flow.Outcome{}, err
					}
					return flow.Terminal(), nil
				},
			},
			{
				Match: flow.OnCallback("post_regen"),
				Handle: func(ctx context.Context, t *flow.Turn) (flow.Outcome, error) {
					body, ok, err := regen(ctx, t)
					if err != nil {
						return flow.Outcome{}, err
					}
					if !ok {
						if rerr := t.ReplyText(ctx, replyGenerationDown); rerr != nil {
							return flow.Outcome{}, rerr
						}
						return flow.Reentrant(), nil
					}
					var s struct {
						Style string `mapstructure:"style"`
					}
					if err := t.Scratch(&s); err != nil {
						return flow.Outcome{}, err
					}
					recID, err := finishPost(ctx, deps, t, body, s.Style, kind)
					if err != nil {
						return flow.Outcome{}, err
					}
					var upd struct {
						RecordID string `mapstructure:"record_id"`
					}
					upd.RecordID = recID
					if err := t.MergeScratch(upd); err != nil {
						return flow.Outcome{}, err
					}
					return flow.Reentrant(), nil
				},
			},
			{
				Match: flow.OnCallback("post_done"),
				Handle: func(ctx context.Context, t *flow.Turn) (flow.Outcome, error) {
					if err := t.ReplyText(ctx, "Готово! Возвращаю в главное меню."); err != nil {
						return flow.Outcome{}, err
					}
					return flow.Terminal(), nil
				},
			},
		},
	}
}

// Tuning knobs of the main post generator.
const (
	postTemperature = 0.8
	postMaxTokens   = 300
	defaultTagCount = 5
)
