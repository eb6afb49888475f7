package flows

import (
	"context"
	"strings"

	"github.com/Wyvern137/hackathon/pkg/domain"
	"github.com/Wyvern137/hackathon/pkg/flow"
	"github.com/Wyvern137/hackathon/pkg/ports"
)

var imageStyles = []struct {
	ID    string
	Label string
}{
	{"realistic", "📷 Реалистичный"},
	{"illustration", "🖌 Иллюстрация"},
	{"poster", "🪧 Плакат"},
	{"minimalist", "⬜ Минимализм"},
}

var aspectRatios = []struct {
	ID    string
	Label string
}{
	{"1:1", "Квадрат 1:1"},
	{"4:5", "Лента 4:5"},
	{"16:9", "Широкий 16:9"},
	{"9:16", "Сторис 9:16"},
}

type imageScratch struct {
	Description string `mapstructure:"description"`
	Style       string `mapstructure:"style"`
}

// Image drives the image prompt dialogue and submits the final prompt to
// the image backend.
func Image(deps Deps) *flow.Definition {
	return &flow.Definition{
		ID:    "image",
		Entry: flow.OnTextLabel(LabelImage),
		OnEntry: func(ctx context.Context, t *flow.Turn) (flow.Outcome, error) {
			if err := t.Reply(ctx, prompt("Опиши изображение, которое нужно сгенерировать.")); err != nil {
				return flow.Outcome{}, err
			}
			return flow.Transition("waiting_description"), nil
		},
		Initial: "waiting_description",
		States: []flow.State{
			{
				Name: "waiting_description",
				Bindings: []flow.Binding{
					{
						Match: flow.AnyText(),
						Handle: func(ctx context.Context, t *flow.Turn) (flow.Outcome, error) {
							desc := strings.TrimSpace(t.Event.Text)
							if len([]rune(desc)) < minIdeaLength {
								return flow.Outcome{}, domain.Validation("Опиши картинку подробнее.")
							}
							if err := t.PutScratch(imageScratch{Description: desc}); err != nil {
								return flow.Outcome{}, err
							}

							rows := make([][]ports.Button, 0, len(imageStyles)+1)
							for _, s := range imageStyles {
								rows = append(rows, []ports.Button{{Label: s.Label, Data: "imgstyle_" + s.ID}})
							}
							rows = append(rows, cancelRow())
							if err := t.Reply(ctx, ports.Message{Text: "В каком стиле?", Buttons: rows}); err != nil {
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
						Match: flow.OnCallbackPrefix("imgstyle_"),
						Handle: func(ctx context.Context, t *flow.Turn) (flow.Outcome, error) {
							styleID := strings.TrimPrefix(t.Event.Data, "imgstyle_")
							known := false
							for _, s := range imageStyles {
								if s.ID == styleID {
									known = true
									break
								}
							}
							if !known {
								return flow.Outcome{}, domain.Validation("Такого стиля нет, выбери кнопкой.")
							}
							var s imageScratch
							if err := t.Scratch(&s); err != nil {
								return flow.Outcome{}, err
							}
							s.Style = styleID
							if err := t.PutScratch(s); err != nil {
								return flow.Outcome{}, err
							}

							rows := make([][]ports.Button, 0, len(aspectRatios)+1)
							for _, a := range aspectRatios {
								rows = append(rows, []ports.Button{{Label: a.Label, Data: "aspect_" + a.ID}})
							}
							rows = append(rows, cancelRow())
							if err := t.Reply(ctx, ports.Message{Text: "Какой формат кадра?", Buttons: rows}); err != nil {
								return flow.Outcome{}, err
							}
							return flow.Transition("waiting_aspect"), nil
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
			{
				Name: "waiting_aspect",
				Bindings: []flow.Binding{
					{
						Match: flow.OnCallbackPrefix("aspect_"),
						Handle: func(ctx context.Context, t *flow.Turn) (flow.Outcome, error) {
							aspect := strings.TrimPrefix(t.Event.Data, "aspect_")
							known := false
							for _, a := range aspectRatios {
								if a.ID == aspect {
									known = true
									break
								}
							}
							if !known {
								return flow.Outcome{}, domain.Validation("Такого формата нет, выбери кнопкой.")
							}
							var s imageScratch
							if err := t.Scratch(&s); err != nil {
								return flow.Outcome{}, err
							}

							if err := t.ReplyText(ctx, "Генерирую изображение, это займёт до минуты..."); err != nil {
								return flow.Outcome{}, err
							}
							fileRef, err := deps.Images.GenerateImage(ctx, s.Description, s.Style, aspect)
							if err != nil {
								deps.Logger.Warn("image generation failed",
									"user", t.Event.UserID, "err", err)
								if rerr := t.ReplyText(ctx, replyGenerationDown); rerr != nil {
									return flow.Outcome{}, rerr
								}
								return flow.Reentrant(), nil
							}

							rec := &domain.ContentRecord{
								OwnerID: t.Event.UserID,
								Kind:    domain.KindImage,
								Payload: map[string]any{
									"file_ref":     fileRef,
									"description":  s.Description,
									"aspect_ratio": aspect,
								},
								Style:     s.Style,
								CreatedAt: deps.Now(),
							}
							if err := deps.Records.Create(ctx, rec); err != nil {
								return flow.Outcome{}, err
							}
							if err := t.ReplyText(ctx, "Изображение готово: "+fileRef); err != nil {
								return flow.Outcome{}, err
							}
							return flow.Terminal(), nil
						},
					},
					{
						Match: flow.AnyText(),
						Handle: func(context.Context, *flow.Turn) (flow.Outcome, error) {
							return flow.Outcome{}, domain.Validation("Выбери формат кнопкой под сообщением.")
						},
					},
				},
			},
		},
	}
}
