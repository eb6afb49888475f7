// Package flows defines the concrete dialogue flows of the assistant:
// organization onboarding, content generation, content planning, templates,
// teams, A/B tests and post series. Each flow is a static state table over
// the generic engine.
package flows

import (
	"log/slog"
	"time"

	"github.com/Wyvern137/hackathon/internal/logging"
	"github.com/Wyvern137/hackathon/internal/postprocess"
	"github.com/Wyvern137/hackathon/pkg/flow"
	"github.com/Wyvern137/hackathon/pkg/ports"
)

// Menu button labels. Flow entry matchers and the dispatcher's menu table
// share these constants.
const (
	LabelProfile    = "🏢 Профиль организации"
	LabelFreeText   = "📝 Генерация текста"
	LabelStructured = "📋 Пост по структуре"
	LabelExamples   = "✍️ Пост по примерам"
	LabelImage      = "🎨 Генерация изображения"
	LabelPlan       = "📅 Контент-план"
	LabelTemplate   = "📄 Новый шаблон"
	LabelTeam       = "👥 Новая команда"
	LabelABTest     = "🧪 A/B тест"
	LabelSeries     = "📚 Серия постов"
	LabelStats      = "📊 Статистика"
	LabelCancel     = "❌ Отмена"
	LabelBack       = "◀️ Назад"
)

// Deps bundles the collaborators every flow draws on.
type Deps struct {
	Gen      ports.Generator
	Images   ports.ImageGenerator
	Records  ports.RecordStore
	Profiles ports.ProfileStore
	Tagger   *postprocess.Tagger

	Logger *slog.Logger
	Now    func() time.Time
}

func (d *Deps) defaults() {
	if d.Logger == nil {
		d.Logger = logging.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
}

// All returns the flow definitions in menu order. Registration order
// matters: it decides entry precedence in the engine.
func All(deps Deps) []*flow.Definition {
	deps.defaults()
	return []*flow.Definition{
		Profile(deps),
		FreeText(deps),
		Structured(deps),
		Examples(deps),
		Image(deps),
		Plan(deps),
		Template(deps),
		Team(deps),
		ABTest(deps),
		Series(deps),
	}
}

// Style ids offered by the style keyboard. Emoji are only allowed in the
// lighter registers.
var styles = []struct {
	ID    string
	Label string
	Emoji bool
}{
	{"conversational", "💬 Разговорный", true},
	{"formal", "📋 Официальный", false},
	{"artistic", "🎭 Художественный", true},
	{"neutral", "⚖️ Нейтральный", false},
	{"friendly", "🤗 Дружелюбный", true},
}

func styleByID(id string) (label string, emoji, ok bool) {
	for _, s := range styles {
		if s.ID == id {
			return s.Label, s.Emoji, true
		}
	}
	return "", false, false
}

func cancelRow() []ports.Button {
	return []ports.Button{{Label: LabelCancel, Data: "cancel"}}
}

func styleKeyboard() ports.Message {
	rows := make([][]ports.Button, 0, len(styles)+1)
	for _, s := range styles {
		rows = append(rows, []ports.Button{{Label: s.Label, Data: "style_" + s.ID}})
	}
	rows = append(rows, cancelRow())
	return ports.Message{Text: "Выбери стиль поста:", Buttons: rows}
}

func postReadyKeyboard(text string) ports.Message {
	return ports.Message{
		Text: text,
		Buttons: [][]ports.Button{
			{
				{Label: "💾 Сохранить", Data: "post_save"},
				{Label: "🔄 Ещё вариант", Data: "post_regen"},
			},
			{{Label: "✅ Готово", Data: "post_done"}},
		},
	}
}

func prompt(text string) ports.Message {
	return ports.Message{Text: text, Buttons: [][]ports.Button{cancelRow()}}
}
