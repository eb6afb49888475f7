package flows

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Wyvern137/hackathon/pkg/domain"
	"github.com/Wyvern137/hackathon/pkg/flow"
)

const (
	minSeriesParts = 2
	maxSeriesParts = 5
)

type seriesScratch struct {
	Theme string `mapstructure:"theme"`
}

// Series generates a linked sequence of posts on one theme, one record
// per part tied together by a series tag.
func Series(deps Deps) *flow.Definition {
	part := func(ctx context.Context, t *flow.Turn, theme string, index, total int) (string, bool, error) {
		profile := loadProfile(ctx, deps, t.Event.UserID)
		prompt := fmt.Sprintf(
			"Это часть %d из %d серии постов на тему «%s». Напиши самостоятельный пост, продолжающий серию.",
			index, total, theme)
		res, err := deps.Gen.Generate(ctx, domain.GenerationRequest{
			SystemPrompt: systemPrompt(profile, ""),
			Prompt:       prompt,
			Temperature:  postTemperature,
			MaxTokens:    postMaxTokens,
		})
		if err != nil {
			return "", false, err
		}
		return res.Content, res.Success, nil
	}

	return &flow.Definition{
		ID:    "series",
		Entry: flow.OnTextLabel(LabelSeries),
		OnEntry: func(ctx context.Context, t *flow.Turn) (flow.Outcome, error) {
			if err := t.Reply(ctx, prompt("На какую тему серия постов?")); err != nil {
				return flow.Outcome{}, err
			}
			return flow.Transition("waiting_theme"), nil
		},
		Initial: "waiting_theme",
		States: []flow.State{
			{
				Name: "waiting_theme",
				Bindings: []flow.Binding{
					{
						Match: flow.AnyText(),
						Handle: func(ctx context.Context, t *flow.Turn) (flow.Outcome, error) {
							theme := strings.TrimSpace(t.Event.Text)
							if len([]rune(theme)) < minIdeaLength {
								return flow.Outcome{}, domain.Validation("Опиши тему серии подробнее.")
							}
							if err := t.PutScratch(seriesScratch{Theme: theme}); err != nil {
								return flow.Outcome{}, err
							}
							if err := t.Reply(ctx, prompt(fmt.Sprintf("Сколько постов в серии? (от %d до %d)", minSeriesParts, maxSeriesParts))); err != nil {
								return flow.Outcome{}, err
							}
							return flow.Transition("waiting_count"), nil
						},
					},
				},
			},
			{
				Name: "waiting_count",
				Bindings: []flow.Binding{
					{
						Match: flow.AnyText(),
						Handle: func(ctx context.Context, t *flow.Turn) (flow.Outcome, error) {
							count, err := strconv.Atoi(strings.TrimSpace(t.Event.Text))
							if err != nil || count < minSeriesParts || count > maxSeriesParts {
								return flow.Outcome{}, domain.Validation(
									"Напиши число от %d до %d.", minSeriesParts, maxSeriesParts)
							}
							var s seriesScratch
							if err := t.Scratch(&s); err != nil {
								return flow.Outcome{}, err
							}

							if err := t.ReplyText(ctx, "Пишу серию, это займёт немного времени..."); err != nil {
								return flow.Outcome{}, err
							}

							seriesTag := fmt.Sprintf("series-%d", deps.Now().Unix())
							var out strings.Builder
							for i := 1; i <= count; i++ {
								body, ok, err := part(ctx, t, s.Theme, i, count)
								if err != nil {
									return flow.Outcome{}, err
								}
								if !ok {
									if rerr := t.ReplyText(ctx, replyGenerationDown); rerr != nil {
										return flow.Outcome{}, rerr
									}
									return flow.Reentrant(), nil
								}
								rec := &domain.ContentRecord{
									OwnerID: t.Event.UserID,
									Kind:    domain.KindSeries,
									Payload: map[string]any{
										"theme": s.Theme,
										"part":  i,
										"total": count,
										"text":  body,
									},
									Tags:      []string{seriesTag},
									CreatedAt: deps.Now(),
								}
								if err := deps.Records.Create(ctx, rec); err != nil {
									return flow.Outcome{}, err
								}
								fmt.Fprintf(&out, "Часть %d/%d:\n\n%s\n\n———\n\n", i, count, body)
							}

							if err := t.ReplyText(ctx, strings.TrimSuffix(out.String(), "\n\n———\n\n")); err != nil {
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
