package flows

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Wyvern137/hackathon/pkg/domain"
	"github.com/Wyvern137/hackathon/pkg/flow"
	"github.com/Wyvern137/hackathon/pkg/ports"
)

// profileCategories are the activity directions offered during onboarding.
// The ids double as lookup keys for the curated hashtag sets.
var profileCategories = []struct {
	ID    string
	Label string
}{
	{"environmental", "🌱 Экология"},
	{"animal_welfare", "🐾 Помощь животным"},
	{"humanitarian", "🤝 Гуманитарная помощь"},
	{"education", "📚 Образование"},
	{"culture", "🎭 Культура"},
	{"health", "❤️ Здоровье"},
	{"social", "🫂 Социальная поддержка"},
}

const minAboutLength = 10

type profileScratch struct {
	Name       string   `mapstructure:"name"`
	About      string   `mapstructure:"about"`
	Categories []string `mapstructure:"categories"`
}

// Profile is the organization onboarding wizard: name, description,
// activity directions and tone of voice. The answers feed the system
// prompt and the hashtag pipeline of every later generation.
func Profile(deps Deps) *flow.Definition {
	categoryKeyboard := func(selected []string) ports.Message {
		chosen := make(map[string]bool, len(selected))
		for _, id := range selected {
			chosen[id] = true
		}
		rows := make([][]ports.Button, 0, len(profileCategories)+2)
		for _, c := range profileCategories {
			label := c.Label
			if chosen[c.ID] {
				label = "✅ " + label
			}
			rows = append(rows, []ports.Button{{Label: label, Data: "cat_" + c.ID}})
		}
		rows = append(rows,
			[]ports.Button{{Label: "➡️ Дальше", Data: "cat_done"}},
			cancelRow(),
		)
		return ports.Message{
			Text:    "Шаг 3/4: Чем занимается организация? Отметь направления и жми «Дальше».",
			Buttons: rows,
		}
	}

	return &flow.Definition{
		ID:    "profile",
		Entry: flow.OnTextLabel(LabelProfile),
		OnEntry: func(ctx context.Context, t *flow.Turn) (flow.Outcome, error) {
			intro := "Давай настроим профиль организации, чтобы посты получались точнее.\n\n"
			if existing := loadProfile(ctx, deps, t.Event.UserID); existing != nil {
				intro = fmt.Sprintf("У тебя уже есть профиль «%s». Новые ответы заменят его.\n\n", existing.Name)
			}
			if err := t.Reply(ctx, prompt(intro+"Шаг 1/4: Как называется твоя организация?")); err != nil {
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
							if utf8.RuneCountInString(name) < 2 {
								return flow.Outcome{}, domain.Validation("Название слишком короткое. Попробуй ещё раз.")
							}
							if err := t.PutScratch(profileScratch{Name: name}); err != nil {
								return flow.Outcome{}, err
							}
							msg := ports.Message{
								Text: "Шаг 2/4: Расскажи об организации в паре предложений.",
								Buttons: [][]ports.Button{
									{{Label: "⏭️ Пропустить", Data: "skip_about"}},
									cancelRow(),
								},
							}
							if err := t.Reply(ctx, msg); err != nil {
								return flow.Outcome{}, err
							}
							return flow.Transition("waiting_about"), nil
						},
					},
				},
			},
			{
				Name: "waiting_about",
				Bindings: []flow.Binding{
					{
						Match: flow.OnCallback("skip_about"),
						Handle: func(ctx context.Context, t *flow.Turn) (flow.Outcome, error) {
							if err := t.Reply(ctx, categoryKeyboard(nil)); err != nil {
								return flow.Outcome{}, err
							}
							return flow.Transition("waiting_categories"), nil
						},
					},
					{
						Match: flow.AnyText(),
						Handle: func(ctx context.Context, t *flow.Turn) (flow.Outcome, error) {
							about := strings.TrimSpace(t.Event.Text)
							if utf8.RuneCountInString(about) < minAboutLength {
								return flow.Outcome{}, domain.Validation("Расскажи чуть подробнее, хотя бы пару предложений.")
							}
							var s profileScratch
							if err := t.Scratch(&s); err != nil {
								return flow.Outcome{}, err
							}
							s.About = about
							if err := t.PutScratch(s); err != nil {
								return flow.Outcome{}, err
							}
							if err := t.Reply(ctx, categoryKeyboard(nil)); err != nil {
								return flow.Outcome{}, err
							}
							return flow.Transition("waiting_categories"), nil
						},
					},
				},
			},
			{
				Name: "waiting_categories",
				Bindings: []flow.Binding{
					{
						Match: flow.OnCallback("cat_done"),
						Handle: func(ctx context.Context, t *flow.Turn) (flow.Outcome, error) {
							var s profileScratch
							if err := t.Scratch(&s); err != nil {
								return flow.Outcome{}, err
							}
							if len(s.Categories) == 0 {
								return flow.Outcome{}, domain.Validation("Отметь хотя бы одно направление.")
							}
							msg := styleKeyboard()
							msg.Text = "Шаг 4/4: Каким тоном вести посты?"
							if err := t.Reply(ctx, msg); err != nil {
								return flow.Outcome{}, err
							}
							return flow.Transition("waiting_tone"), nil
						},
					},
					{
						Match: flow.OnCallbackPrefix("cat_"),
						Handle: func(ctx context.Context, t *flow.Turn) (flow.Outcome, error) {
							id := strings.TrimPrefix(t.Event.Data, "cat_")
							if !validCategory(id) {
								return flow.Outcome{}, domain.Validation("Выбери направление кнопкой.")
							}
							var s profileScratch
							if err := t.Scratch(&s); err != nil {
								return flow.Outcome{}, err
							}
							// Toggle.
							kept := s.Categories[:0]
							removed := false
							for _, c := range s.Categories {
								if c == id {
									removed = true
									continue
								}
								kept = append(kept, c)
							}
							s.Categories = kept
							if !removed {
								s.Categories = append(s.Categories, id)
							}
							if err := t.PutScratch(s); err != nil {
								return flow.Outcome{}, err
							}
							if err := t.Reply(ctx, categoryKeyboard(s.Categories)); err != nil {
								return flow.Outcome{}, err
							}
							return flow.Reentrant(), nil
						},
					},
				},
			},
			{
				Name: "waiting_tone",
				Bindings: []flow.Binding{
					{
						Match: flow.OnCallbackPrefix("style_"),
						Handle: func(ctx context.Context, t *flow.Turn) (flow.Outcome, error) {
							styleID := strings.TrimPrefix(t.Event.Data, "style_")
							if _, _, ok := styleByID(styleID); !ok {
								return flow.Outcome{}, domain.Validation("Выбери тон кнопкой.")
							}
							var s profileScratch
							if err := t.Scratch(&s); err != nil {
								return flow.Outcome{}, err
							}
							profile := &domain.Profile{
								OwnerID:    t.Event.UserID,
								Name:       s.Name,
								About:      s.About,
								Categories: s.Categories,
								Tone:       styleID,
							}
							if err := deps.Profiles.SaveProfile(ctx, profile); err != nil {
								return flow.Outcome{}, err
							}
							reply := fmt.Sprintf("✅ Профиль «%s» сохранён! Теперь посты будут учитывать специфику организации.", s.Name)
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

func validCategory(id string) bool {
	for _, c := range profileCategories {
		if c.ID == id {
			return true
		}
	}
	return false
}
