package flows

import (
	"context"
	"fmt"
	"strings"

	"github.com/Wyvern137/hackathon/pkg/domain"
	"github.com/Wyvern137/hackathon/pkg/flow"
)

// Temperatures of the two A/B variants: one safe, one bold.
const (
	variantATemperature = 0.5
	variantBTemperature = 0.95
)

// ABTest generates two variants of the same idea with different
// temperature settings so the user can compare tone and pick one.
func ABTest(deps Deps) *flow.Definition {
	variant := func(ctx context.Context, t *flow.Turn, idea string, temperature float64) (string, bool, error) {
		profile := loadProfile(ctx, deps, t.Event.UserID)
		res, err := deps.Gen.Generate(ctx, domain.GenerationRequest{
			SystemPrompt: systemPrompt(profile, ""),
			Prompt:       "Напиши пост по этой идее: " + idea,
			Temperature:  temperature,
			MaxTokens:    postMaxTokens,
		})
		if err != nil {
			return "", false, err
		}
		return res.Content, res.Success, nil
	}

	return &flow.Definition{
		ID:    "abtest",
		Entry: flow.OnTextLabel(LabelABTest),
		OnEntry: func(ctx context.Context, t *flow.Turn) (flow.Outcome, error) {
			if err := t.Reply(ctx, prompt("Опиши идею поста. Я подготовлю два варианта: сдержанный и смелый.")); err != nil {
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
								return flow.Outcome{}, domain.Validation("Слишком коротко. Опиши идею подробнее.")
							}

							a, okA, err := variant(ctx, t, idea, variantATemperature)
							if err != nil {
								return flow.Outcome{}, err
							}
							b, okB, err := variant(ctx, t, idea, variantBTemperature)
							if err != nil {
								return flow.Outcome{}, err
							}
							if !okA || !okB {
								if rerr := t.ReplyText(ctx, replyGenerationDown); rerr != nil {
									return flow.Outcome{}, rerr
								}
								return flow.Reentrant(), nil
							}

							rec := &domain.ContentRecord{
								OwnerID: t.Event.UserID,
								Kind:    domain.KindABTest,
								Payload: map[string]any{
									"idea":      idea,
									"variant_a": a,
									"variant_b": b,
								},
								CreatedAt: deps.Now(),
							}
							if err := deps.Records.Create(ctx, rec); err != nil {
								return flow.Outcome{}, err
							}

							reply := fmt.Sprintf("Вариант А (сдержанный):\n\n%s\n\n———\n\nВариант Б (смелый):\n\n%s", a, b)
							if err := t.ReplyText(ctx, reply); err != nil {
								return flow.Outcome{}, err
							}
							return flow.Terminal(), nil
						},
					},
				},
			},
		},
	}
}
