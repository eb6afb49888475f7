package flows

import (
	"context"
	"strings"

	"github.com/Wyvern137/hackathon/pkg/domain"
	"github.com/Wyvern137/hackathon/pkg/flow"
)

const minIdeaLength = 5

type freeTextScratch struct {
	Idea     string `mapstructure:"idea"`
	Style    string `mapstructure:"style"`
	RecordID string `mapstructure:"record_id"`
}

// FreeText is the main generation flow: one free-form idea, a style pick,
// one generated post.
func FreeText(deps Deps) *flow.Definition {
	generate := func(ctx context.Context, t *flow.Turn, s freeTextScratch) (string, bool, error) {
		profile := loadProfile(ctx, deps, t.Event.UserID)
		res, err := deps.Gen.Generate(ctx, domain.GenerationRequest{
			SystemPrompt: systemPrompt(profile, s.Style),
			Prompt:       "Напиши пост по этой идее: " + s.Idea,
			Temperature:  postTemperature,
			MaxTokens:    postMaxTokens,
		})
		if err != nil {
			return "", false, err
		}
		return res.Content, res.Success, nil
	}

	return &flow.Definition{
		ID:    "freetext",
		Entry: flow.OnTextLabel(LabelFreeText),
		OnEntry: func(ctx context.Context, t *flow.Turn) (flow.Outcome, error) {
			if err := t.Reply(ctx, prompt("Опиши идею поста своими словами (минимум 5 символов).")); err != nil {
				return flow.Outcome{}, err
			}
			return flow.Transition("waiting_idea"), nil
		},
		Initial: "waiting_idea",
		States: []flow.State{
			{
				Name: "waiting_idea",
				Bindings: []flow.Binding{
					{
						Match: flow.AnyText(),
						Handle: func(ctx context.Context, t *flow.Turn) (flow.Outcome, error) {
							idea := strings.TrimSpace(t.Event.Text)
							if len([]rune(idea)) < minIdeaLength {
								return flow.Outcome{}, domain.Validation("Слишком коротко. Опиши идею хотя бы пятью символами.")
							}
							if err := t.PutScratch(freeTextScratch{Idea: idea}); err != nil {
								return flow.Outcome{}, err
							}
							if err := t.Reply(ctx, styleKeyboard()); err != nil {
								return flow.Outcome{}, err
							}
							return flow.Transition("waiting_style"), nil
						},
					},
				},
			},
			{
				Name: "waiting_style",
				Bindings: []flow.Binding{
					{
						Match: flow.OnCallbackPrefix("style_"),
						Handle: func(ctx context.Context, t *flow.Turn) (flow.Outcome, error) {
							styleID := strings.TrimPrefix(t.Event.Data, "style_")
							if _, _, ok := styleByID(styleID); !ok {
								return flow.Outcome{}, domain.Validation("Такого стиля нет, выбери кнопкой.")
							}
							var s freeTextScratch
							if err := t.Scratch(&s); err != nil {
								return flow.Outcome{}, err
							}
							s.Style = styleID

							body, ok, err := generate(ctx, t, s)
							if err != nil {
								return flow.Outcome{}, err
							}
							if !ok {
								if rerr := t.ReplyText(ctx, replyGenerationDown); rerr != nil {
									return flow.Outcome{}, rerr
								}
								return flow.Reentrant(), nil
							}

							recID, err := finishPost(ctx, deps, t, body, s.Style, domain.KindText)
							if err != nil {
								return flow.Outcome{}, err
							}
							s.RecordID = recID
							if err := t.PutScratch(s); err != nil {
								return flow.Outcome{}, err
							}
							return flow.Transition(statePostReady), nil
						},
					},
					{
						Match: flow.AnyText(),
						Handle: func(context.Context, *flow.Turn) (flow.Outcome, error) {
							return flow.Outcome{}, domain.Validation("Выбери стиль кнопкой под сообщением.")
						},
					},
				},
			},
			postReadyState(deps, domain.KindText, func(ctx context.Context, t *flow.Turn) (string, bool, error) {
				var s freeTextScratch
				if err := t.Scratch(&s); err != nil {
					return "", false, err
				}
				return generate(ctx, t, s)
			}),
		},
	}
}
