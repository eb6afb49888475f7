package flows

import (
	"context"
	"fmt"
	"strings"

	"github.com/Wyvern137/hackathon/pkg/domain"
	"github.com/Wyvern137/hackathon/pkg/flow"
	"github.com/Wyvern137/hackathon/pkg/ports"
)

const maxExamplePosts = 3

type examplesScratch struct {
	Examples    []string `mapstructure:"examples"`
	Description string   `mapstructure:"description"`
	RecordID    string   `mapstructure:"record_id"`
	Style       string   `mapstructure:"style"`
}

func (s examplesScratch) prompt() string {
	var b strings.Builder
	b.WriteString("Вот примеры постов, чей стиль нужно повторить:\n\n")
	for i, ex := range s.Examples {
		fmt.Fprintf(&b, "Пример %d:\n%s\n\n", i+1, ex)
	}
	b.WriteString("Напиши новый пост в том же стиле на эту тему: ")
	b.WriteString(s.Description)
	return b.String()
}

// Examples generates a post mimicking the style of one to three sample
// posts supplied by the user.
func Examples(deps Deps) *flow.Definition {
	generate := func(ctx context.Context, t *flow.Turn, s examplesScratch) (string, bool, error) {
		profile := loadProfile(ctx, deps, t.Event.UserID)
		res, err := deps.Gen.Generate(ctx, domain.GenerationRequest{
			SystemPrompt: systemPrompt(profile, ""),
			Prompt:       s.prompt(),
			Temperature:  postTemperature,
			MaxTokens:    postMaxTokens,
		})
		if err != nil {
			return "", false, err
		}
		return res.Content, res.Success, nil
	}

	return &flow.Definition{
		ID:    "examples",
		Entry: flow.OnTextLabel(LabelExamples),
		OnEntry: func(ctx context.Context, t *flow.Turn) (flow.Outcome, error) {
			if err := t.Reply(ctx, prompt("Пришли пример поста (до трёх, каждый отдельным сообщением).")); err != nil {
				return flow.Outcome{}, err
			}
			return flow.Transition("waiting_examples"), nil
		},
		Initial: "waiting_examples",
		States: []flow.State{
			{
				Name: "waiting_examples",
				Bindings: []flow.Binding{
					{
						Match: flow.OnCallback("examples_done"),
						Handle: func(ctx context.Context, t *flow.Turn) (flow.Outcome, error) {
							var s examplesScratch
							if err := t.Scratch(&s); err != nil {
								return flow.Outcome{}, err
							}
							if len(s.Examples) == 0 {
								return flow.Outcome{}, domain.Validation("Нужен хотя бы один пример поста.")
							}
							if err := t.Reply(ctx, prompt("О чём должен быть новый пост?")); err != nil {
								return flow.Outcome{}, err
							}
							return flow.Transition("waiting_description"), nil
						},
					},
					{
						Match: flow.AnyText(),
						Handle: func(ctx context.Context, t *flow.Turn) (flow.Outcome, error) {
							example := strings.TrimSpace(t.Event.Text)
							if len([]rune(example)) < minIdeaLength {
								return flow.Outcome{}, domain.Validation("Слишком короткий пример, пришли целый пост.")
							}
							var s examplesScratch
							if err := t.Scratch(&s); err != nil {
								return flow.Outcome{}, err
							}
							s.Examples = append(s.Examples, example)
							if err := t.PutScratch(s); err != nil {
								return flow.Outcome{}, err
							}

							if len(s.Examples) >= maxExamplePosts {
								if err := t.Reply(ctx, prompt("Примеров достаточно. О чём должен быть новый пост?")); err != nil {
									return flow.Outcome{}, err
								}
								return flow.Transition("waiting_description"), nil
							}
							msg := prompt(fmt.Sprintf("Принято (%d/%d). Пришли ещё пример или жми «Дальше».", len(s.Examples), maxExamplePosts))
							msg.Buttons = append([][]ports.Button{{{Label: "➡️ Дальше", Data: "examples_done"}}}, msg.Buttons...)
							if err := t.Reply(ctx, msg); err != nil {
								return flow.Outcome{}, err
							}
							return flow.Reentrant(), nil
						},
					},
				},
			},
			{
				Name: "waiting_description",
				Bindings: []flow.Binding{
					{
						Match: flow.AnyText(),
						Handle: func(ctx context.Context, t *flow.Turn) (flow.Outcome, error) {
							desc := strings.TrimSpace(t.Event.Text)
							if len([]rune(desc)) < minIdeaLength {
								return flow.Outcome{}, domain.Validation("Опиши тему нового поста подробнее.")
							}
							var s examplesScratch
							if err := t.Scratch(&s); err != nil {
								return flow.Outcome{}, err
							}
							s.Description = desc

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

							recID, err := finishPost(ctx, deps, t, body, "", domain.KindText)
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
				},
			},
			postReadyState(deps, domain.KindText, func(ctx context.Context, t *flow.Turn) (string, bool, error) {
				var s examplesScratch
				if err := t.Scratch(&s); err != nil {
					return "", false, err
				}
				return generate(ctx, t, s)
			}),
		},
	}
}
