package flows

import (
	"context"
	"fmt"
	"strings"

	"github.com/Wyvern137/hackathon/pkg/domain"
	"github.com/Wyvern137/hackathon/pkg/flow"
)

type structuredScratch struct {
	EventType    string `mapstructure:"event_type"`
	Name         string `mapstructure:"name"`
	Date         string `mapstructure:"date"`
	Place        string `mapstructure:"place"`
	Participants string `mapstructure:"participants"`
	Details      string `mapstructure:"details"`
	CTA          string `mapstructure:"cta"`
	Style        string `mapstructure:"style"`
	RecordID     string `mapstructure:"record_id"`
}

func (s structuredScratch) prompt() string {
	var b strings.Builder
	b.WriteString("Напиши анонс события по этим данным.\n")
	fmt.Fprintf(&b, "Тип события: %s\n", s.EventType)
	fmt.Fprintf(&b, "Название: %s\n", s.Name)
	fmt.Fprintf(&b, "Дата и время: %s\n", s.Date)
	fmt.Fprintf(&b, "Место: %s\n", s.Place)
	fmt.Fprintf(&b, "Участники: %s\n", s.Participants)
	fmt.Fprintf(&b, "Детали: %s\n", s.Details)
	fmt.Fprintf(&b, "Призыв к действию: %s\n", s.CTA)
	return b.String()
}

// Structured collects event fields one by one and assembles the prompt
// from the answers.
func Structured(deps Deps) *flow.Definition {
	generate := func(ctx context.Context, t *flow.Turn, s structuredScratch) (string, bool, error) {
		profile := loadProfile(ctx, deps, t.Event.UserID)
		res, err := deps.Gen.Generate(ctx, domain.GenerationRequest{
			SystemPrompt: systemPrompt(profile, s.Style),
			Prompt:       s.prompt(),
			Temperature:  postTemperature,
			MaxTokens:    postMaxTokens,
		})
		if err != nil {
			return "", false, err
		}
		return res.Content, res.Success, nil
	}

	// collect builds a state that stores one answer and asks the next
	// question.
	collect := func(state, next, question string, assign func(*structuredScratch, string)) flow.State {
		return flow.State{
			Name: state,
			Bindings: []flow.Binding{
				{
					Match: flow.AnyText(),
					Handle: func(ctx context.Context, t *flow.Turn) (flow.Outcome, error) {
						answer := strings.TrimSpace(t.Event.Text)
						if answer == "" {
							return flow.Outcome{}, domain.Validation("Ответ не должен быть пустым.")
						}
						var s structuredScratch
						if err := t.Scratch(&s); err != nil {
							return flow.Outcome{}, err
						}
						assign(&s, answer)
						if err := t.PutScratch(s); err != nil {
							return flow.Outcome{}, err
						}
						if err := t.Reply(ctx, prompt(question)); err != nil {
							return flow.Outcome{}, err
						}
						return flow.Transition(next), nil
					},
				},
			},
		}
	}

	return &flow.Definition{
		ID:    "structured",
		Entry: flow.OnTextLabel(LabelStructured),
		OnEntry: func(ctx context.Context, t *flow.Turn) (flow.Outcome, error) {
			if err := t.Reply(ctx, prompt("Какое событие анонсируем? (концерт, сбор, мастер-класс...)")); err != nil {
				return flow.Outcome{}, err
			}
			return flow.Transition("waiting_event_type"), nil
		},
		Initial: "waiting_event_type",
		States: []flow.State{
			collect("waiting_event_type", "waiting_name", "Как называется событие?",
				func(s *structuredScratch, v string) { s.EventType = v }),
			collect("waiting_name", "waiting_date", "Когда оно пройдёт? (дата и время)",
				func(s *structuredScratch, v string) { s.Name = v }),
			collect("waiting_date", "waiting_place", "Где пройдёт событие?",
				func(s *structuredScratch, v string) { s.Date = v }),
			collect("waiting_place", "waiting_participants", "Кто участвует?",
				func(s *structuredScratch, v string) { s.Place = v }),
			collect("waiting_participants", "waiting_details", "Важные детали? (цена, регистрация, возраст...)",
				func(s *structuredScratch, v string) { s.Participants = v }),
			collect("waiting_details", "waiting_cta", "Какой призыв к действию добавить? (например «Регистрируйтесь по ссылке»)",
				func(s *structuredScratch, v string) { s.Details = v }),
			{
				Name: "waiting_cta",
				Bindings: []flow.Binding{
					{
						Match: flow.AnyText(),
						Handle: func(ctx context.Context, t *flow.Turn) (flow.Outcome, error) {
							answer := strings.TrimSpace(t.Event.Text)
							if answer == "" {
								return flow.Outcome{}, domain.Validation("Ответ не должен быть пустым.")
							}
							var s structuredScratch
							if err := t.Scratch(&s); err != nil {
								return flow.Outcome{}, err
							}
							s.CTA = answer
							if err := t.PutScratch(s); err != nil {
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
							var s structuredScratch
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
				var s structuredScratch
				if err := t.Scratch(&s); err != nil {
					return "", false, err
				}
				return generate(ctx, t, s)
			}),
		},
	}
}
