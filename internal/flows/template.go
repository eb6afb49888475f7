package flows

import (
	"context"
	"strings"

	"github.com/Wyvern137/hackathon/pkg/domain"
	"github.com/Wyvern137/hackathon/pkg/flow"
)

type templateScratch struct {
	Name     string `mapstructure:"name"`
	Category string `mapstructure:"category"`
}

// Template stores a reusable post skeleton: name, category and the
// structure text with placeholders.
func Template(deps Deps) *flow.Definition {
	return &flow.Definition{
		ID:    "template",
		Entry: flow.OnTextLabel(LabelTemplate),
		OnEntry: func(ctx context.Context, t *flow.Turn) (flow.Outcome, error) {
			if err := t.Reply(ctx, prompt("Как назовём шаблон?")); err != nil {
				return flow.Outcome{}, err
			}
			return flow.Transition("waiting_name"), nil
		},
		Initial: "waiting_name",
		States: []flow.State{
			{
				Name: "waiting_name",
				Bindings: []flow.Binding{
					{
						Match: flow.AnyText(),
						Handle: func(ctx context.Context, t *flow.Turn) (flow.Outcome, error) {
							name := strings.TrimSpace(t.Event.Text)
							if name == "" {
								return flow.Outcome{}, domain.Validation("Название не должно быть пустым.")
							}
							if err := t.PutScratch(templateScratch{Name: name}); err != nil {
								return flow.Outcome{}, err
							}
							if err := t.Reply(ctx, prompt("Для какой рубрики шаблон? (анонс, отчёт, призыв...)")); err != nil {
								return flow.Outcome{}, err
							}
							return flow.Transition("waiting_category"), nil
						},
					},
				},
			},
			{
				Name: "waiting_category",
				Bindings: []flow.Binding{
					{
						Match: flow.AnyText(),
						Handle: func(ctx context.Context, t *flow.Turn) (flow.Outcome, error) {
							category := strings.TrimSpace(t.Event.Text)
							if category == "" {
								return flow.Outcome{}, domain.Validation("Рубрика не должна быть пустой.")
							}
							var s templateScratch
							if err := t.Scratch(&s); err != nil {
								return flow.Outcome{}, err
							}
							s.Category = category
							if err := t.PutScratch(s); err != nil {
								return flow.Outcome{}, err
							}
							if err := t.Reply(ctx, prompt("Пришли структуру шаблона. Плейсхолдеры в фигурных скобках: {название}, {дата}...")); err != nil {
								return flow.Outcome{}, err
							}
							return flow.Transition("waiting_structure"), nil
						},
					},
				},
			},
			{
				Name: "waiting_structure",
				Bindings: []flow.Binding{
					{
						Match: flow.AnyText(),
						Handle: func(ctx context.Context, t *flow.Turn) (flow.Outcome, error) {
							structure := strings.TrimSpace(t.Event.Text)
							if len([]rune(structure)) < minIdeaLength {
								return flow.Outcome{}, domain.Validation("Структура слишком короткая.")
							}
							var s templateScratch
							if err := t.Scratch(&s); err != nil {
								return flow.Outcome{}, err
							}

							rec := &domain.ContentRecord{
								OwnerID: t.Event.UserID,
								Kind:    domain.KindTemplate,
								Payload: map[string]any{
									"name":      s.Name,
									"category":  s.Category,
									"structure": structure,
									"use_count": 0,
								},
								CreatedAt: deps.Now(),
							}
							if err := deps.Records.Create(ctx, rec); err != nil {
								return flow.Outcome{}, err
							}
							if err := t.ReplyText(ctx, "Шаблон «"+s.Name+"» сохранён ✅"); err != nil {
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
