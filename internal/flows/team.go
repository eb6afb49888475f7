package flows

import (
	"context"
	"strings"

	"github.com/Wyvern137/hackathon/pkg/domain"
	"github.com/Wyvern137/hackathon/pkg/flow"
)

type teamScratch struct {
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
}

// Team registers a volunteer team: name, short description and the member
// list.
func Team(deps Deps) *flow.Definition {
	return &flow.Definition{
		ID:    "team",
		Entry: flow.OnTextLabel(LabelTeam),
		OnEntry: func(ctx context.Context, t *flow.Turn) (flow.Outcome, error) {
			if err := t.Reply(ctx, prompt("Как называется команда?")); err != nil {
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
							if err := t.PutScratch(teamScratch{Name: name}); err != nil {
								return flow.Outcome{}, err
							}
							if err := t.Reply(ctx, prompt("Чем занимается команда?")); err != nil {
								return flow.Outcome{}, err
							}
							return flow.Transition("waiting_description"), nil
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
							if desc == "" {
								return flow.Outcome{}, domain.Validation("Описание не должно быть пустым.")
							}
							var s teamScratch
							if err := t.Scratch(&s); err != nil {
								return flow.Outcome{}, err
							}
							s.Description = desc
							if err := t.PutScratch(s); err != nil {
								return flow.Outcome{}, err
							}
							if err := t.Reply(ctx, prompt("Перечисли участников через запятую.")); err != nil {
								return flow.Outcome{}, err
							}
							return flow.Transition("waiting_members"), nil
						},
					},
				},
			},
			{
				Name: "waiting_members",
				Bindings: []flow.Binding{
					{
						Match: flow.AnyText(),
						Handle: func(ctx context.Context, t *flow.Turn) (flow.Outcome, error) {
							raw := strings.Split(t.Event.Text, ",")
							members := make([]string, 0, len(raw))
							for _, m := range raw {
								if m = strings.TrimSpace(m); m != "" {
									members = append(members, m)
								}
							}
							if len(members) == 0 {
								return flow.Outcome{}, domain.Validation("Нужен хотя бы один участник.")
							}
							var s teamScratch
							if err := t.Scratch(&s); err != nil {
								return flow.Outcome{}, err
							}

							rec := &domain.ContentRecord{
								OwnerID: t.Event.UserID,
								Kind:    domain.KindTeam,
								Payload: map[string]any{
									"name":        s.Name,
									"description": s.Description,
									"members":     members,
								},
								CreatedAt: deps.Now(),
							}
							if err := deps.Records.Create(ctx, rec); err != nil {
								return flow.Outcome{}, err
							}
							if err := t.ReplyText(ctx, "Команда «"+s.Name+"» создана ✅"); err != nil {
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
