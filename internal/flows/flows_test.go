package flows_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wyvern137/hackathon/internal/adapters/memory"
	"github.com/Wyvern137/hackathon/internal/flows"
	"github.com/Wyvern137/hackathon/internal/postprocess"
	"github.com/Wyvern137/hackathon/pkg/domain"
	"github.com/Wyvern137/hackathon/pkg/flow"
	"github.com/Wyvern137/hackathon/pkg/ports"
)

type fakeTransport struct {
	mu   sync.Mutex
	sent []ports.Message
}

func (f *fakeTransport) Send(_ context.Context, _ string, msg ports.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return "m", nil
}

func (f *fakeTransport) Edit(context.Context, string, string, ports.Message) error { return nil }
func (f *fakeTransport) Download(context.Context, string) ([]byte, error)          { return nil, nil }

func (f *fakeTransport) last() ports.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return ports.Message{}
	}
	return f.sent[len(f.sent)-1]
}

type fakeGenerator struct {
	reply   string
	success bool
	reqs    []domain.GenerationRequest
}

func (g *fakeGenerator) Generate(_ context.Context, req domain.GenerationRequest) (domain.GenerationResult, error) {
	g.reqs = append(g.reqs, req)
	if !g.success {
		return domain.GenerationResult{Success: false, Failure: domain.FailureTransport}, nil
	}
	return domain.GenerationResult{Success: true, Content: g.reply, Model: "stub"}, nil
}

type fakeImages struct {
	fileRef string
	calls   int
}

func (f *fakeImages) GenerateImage(context.Context, string, string, string) (string, error) {
	f.calls++
	return f.fileRef, nil
}

type fakeRecords struct {
	created []*domain.ContentRecord
	saved   map[string]bool
}

func (r *fakeRecords) Create(_ context.Context, rec *domain.ContentRecord) error {
	if rec.ID == "" {
		rec.ID = "rec-" + time.Now().Format("150405.000000000")
	}
	cp := *rec
	r.created = append(r.created, &cp)
	return nil
}

func (r *fakeRecords) ByOwner(context.Context, string, ports.RecordQuery) ([]domain.ContentRecord, error) {
	out := make([]domain.ContentRecord, 0, len(r.created))
	for _, rec := range r.created {
		out = append(out, *rec)
	}
	return out, nil
}

func (r *fakeRecords) MarkSaved(_ context.Context, id string, saved bool) error {
	if r.saved == nil {
		r.saved = make(map[string]bool)
	}
	r.saved[id] = saved
	return nil
}

func (r *fakeRecords) Delete(context.Context, string) error { return nil }

type fakeProfiles struct {
	p     *domain.Profile
	saved *domain.Profile
}

func (f *fakeProfiles) Profile(context.Context, string) (*domain.Profile, error) { return f.p, nil }

func (f *fakeProfiles) SaveProfile(_ context.Context, p *domain.Profile) error {
	cp := *p
	f.saved = &cp
	f.p = &cp
	return nil
}

type fixture struct {
	engine    *flow.Engine
	transport *fakeTransport
	gen       *fakeGenerator
	images    *fakeImages
	records   *fakeRecords
	profiles  *fakeProfiles
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		transport: &fakeTransport{},
		gen:       &fakeGenerator{reply: "Сгенерированный пост о приюте.", success: true},
		images:    &fakeImages{fileRef: "img-123"},
		records:   &fakeRecords{},
		profiles:  &fakeProfiles{p: &domain.Profile{Name: "Лапа помощи", Categories: []string{"animal_welfare"}}},
	}
	deps := flows.Deps{
		Gen:      f.gen,
		Images:   f.images,
		Records:  f.records,
		Profiles: f.profiles,
		Tagger:   postprocess.NewTagger(nil),
		Now:      func() time.Time { return time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC) }, // a Monday
	}
	f.engine = flow.NewEngine(memory.NewStore(), f.transport)
	require.NoError(t, f.engine.Register(flows.All(deps)...))
	return f
}

func (f *fixture) text(t *testing.T, s string) {
	t.Helper()
	require.NoError(t, f.engine.Step(context.Background(), domain.TextEvent("u1", "u1", s)))
}

func (f *fixture) callback(t *testing.T, data string) {
	t.Helper()
	require.NoError(t, f.engine.Step(context.Background(), domain.CallbackEvent("u1", "u1", data)))
}

func TestProfileSetupSavesProfile(t *testing.T) {
	f := newFixture(t)
	f.profiles.p = nil // first-time setup

	f.text(t, flows.LabelProfile)
	f.text(t, "Чистый берег")
	f.text(t, "Убираем пляжи и учим жителей сортировке отходов")
	f.callback(t, "cat_environmental")
	f.callback(t, "cat_education")
	f.callback(t, "cat_done")
	f.callback(t, "style_friendly")

	require.NotNil(t, f.profiles.saved)
	p := f.profiles.saved
	assert.Equal(t, "u1", p.OwnerID)
	assert.Equal(t, "Чистый берег", p.Name)
	assert.Equal(t, "Убираем пляжи и учим жителей сортировке отходов", p.About)
	assert.Equal(t, []string{"environmental", "education"}, p.Categories)
	assert.Equal(t, "friendly", p.Tone)
	assert.Contains(t, f.transport.last().Text, "сохранён")

	// The next generation builds its system prompt from the saved profile.
	f.text(t, flows.LabelFreeText)
	f.text(t, "Пост о субботнике на пляже")
	f.callback(t, "style_friendly")
	req := f.gen.reqs[len(f.gen.reqs)-1]
	assert.Contains(t, req.SystemPrompt, "Чистый берег")
}

func TestProfileSetupRequiresCategory(t *testing.T) {
	f := newFixture(t)

	f.text(t, flows.LabelProfile)
	f.text(t, "Рука помощи")
	f.callback(t, "skip_about")
	f.callback(t, "cat_done")
	assert.Contains(t, f.transport.last().Text, "хотя бы одно")
	assert.Nil(t, f.profiles.saved)

	f.callback(t, "cat_health")
	f.callback(t, "cat_done")
	f.callback(t, "style_formal")

	require.NotNil(t, f.profiles.saved)
	assert.Empty(t, f.profiles.saved.About, "the description step is skippable")
	assert.Equal(t, []string{"health"}, f.profiles.saved.Categories)
}

func TestProfileSetupCategoryToggle(t *testing.T) {
	f := newFixture(t)

	f.text(t, flows.LabelProfile)
	f.text(t, "Рука помощи")
	f.callback(t, "skip_about")
	f.callback(t, "cat_culture")
	f.callback(t, "cat_culture") // toggle off again
	f.callback(t, "cat_done")

	assert.Contains(t, f.transport.last().Text, "хотя бы одно")
}

func TestProfileSetupRejectsShortAnswers(t *testing.T) {
	f := newFixture(t)

	f.text(t, flows.LabelProfile)
	f.text(t, "Я")
	assert.Contains(t, f.transport.last().Text, "коротк")

	f.text(t, "Рука помощи")
	f.text(t, "коротко")
	assert.Contains(t, f.transport.last().Text, "подробнее")
}

func TestProfileSetupMentionsExistingProfile(t *testing.T) {
	f := newFixture(t)

	f.text(t, flows.LabelProfile)
	assert.Contains(t, f.transport.last().Text, "уже есть профиль")
	assert.Contains(t, f.transport.last().Text, "Лапа помощи")
}

func TestFreeTextHappyPath(t *testing.T) {
	f := newFixture(t)

	f.text(t, flows.LabelFreeText)
	f.text(t, "Пост о сборе корма для приюта")
	f.callback(t, "style_friendly")

	require.Len(t, f.records.created, 1)
	rec := f.records.created[0]
	assert.Equal(t, domain.KindText, rec.Kind)
	assert.Equal(t, "friendly", rec.Style)
	assert.NotEmpty(t, rec.Tags, "rule-based tags are attached even without a tag model")

	body, _ := rec.Payload["text"].(string)
	assert.Contains(t, body, "Сгенерированный пост")
	assert.Contains(t, body, "#", "tags are appended to the post body")

	// Save from the post-ready keyboard.
	f.callback(t, "post_save")
	assert.True(t, f.records.saved[rec.ID])
}

func TestFreeTextIdeaTooShort(t *testing.T) {
	f := newFixture(t)

	f.text(t, flows.LabelFreeText)
	f.text(t, "да")

	assert.Contains(t, f.transport.last().Text, "коротко")
	assert.Empty(t, f.records.created)

	// The flow is still waiting in place; a proper idea proceeds.
	f.text(t, "Пост о субботнике в парке")
	assert.Contains(t, f.transport.last().Text, "стиль")
}

func TestFreeTextGenerationDownKeepsState(t *testing.T) {
	f := newFixture(t)
	f.gen.success = false

	f.text(t, flows.LabelFreeText)
	f.text(t, "Пост о волонтёрах")
	f.callback(t, "style_formal")

	assert.Contains(t, f.transport.last().Text, "недоступен")
	assert.Empty(t, f.records.created)

	// The backend recovers, the same style pick now succeeds.
	f.gen.success = true
	f.callback(t, "style_formal")
	assert.Len(t, f.records.created, 1)
}

func TestFreeTextRegenerateCreatesNewRecord(t *testing.T) {
	f := newFixture(t)

	f.text(t, flows.LabelFreeText)
	f.text(t, "Пост о дне открытых дверей")
	f.callback(t, "style_neutral")
	require.Len(t, f.records.created, 1)

	f.callback(t, "post_regen")
	assert.Len(t, f.records.created, 2)

	// Saving after regeneration saves the latest variant.
	f.callback(t, "post_save")
	assert.True(t, f.records.saved[f.records.created[1].ID])
	assert.False(t, f.records.saved[f.records.created[0].ID])
}

func TestStructuredCollectsAllFields(t *testing.T) {
	f := newFixture(t)

	f.text(t, flows.LabelStructured)
	f.text(t, "благотворительный концерт")
	f.text(t, "Музыка добра")
	f.text(t, "12 июля в 19:00")
	f.text(t, "ДК Октябрь")
	f.text(t, "местные группы и волонтёры")
	f.text(t, "вход свободный, сбор пожертвований")
	f.text(t, "Приходите всей семьёй!")
	f.callback(t, "style_conversational")

	require.Len(t, f.records.created, 1)

	// The prompt carries every collected answer.
	req := f.gen.reqs[len(f.gen.reqs)-1]
	for _, field := range []string{
		"благотворительный концерт", "Музыка добра", "12 июля",
		"ДК Октябрь", "волонтёры", "вход свободный", "Приходите всей семьёй!",
	} {
		assert.Contains(t, req.Prompt, field)
	}
}

func TestExamplesRequiresAtLeastOne(t *testing.T) {
	f := newFixture(t)

	f.text(t, flows.LabelExamples)
	f.callback(t, "examples_done")
	assert.Contains(t, f.transport.last().Text, "хотя бы один")

	f.text(t, "Друзья, сегодня мы провели отличный день в приюте!")
	f.callback(t, "examples_done")
	f.text(t, "Пост про итоги месяца")

	require.Len(t, f.records.created, 1)
	req := f.gen.reqs[len(f.gen.reqs)-1]
	assert.Contains(t, req.Prompt, "отличный день в приюте")
	assert.Contains(t, req.Prompt, "итоги месяца")
}

func TestExamplesCapAtThree(t *testing.T) {
	f := newFixture(t)

	f.text(t, flows.LabelExamples)
	f.text(t, "Первый пример поста для обучения")
	f.text(t, "Второй пример поста для обучения")
	f.text(t, "Третий пример поста для обучения")

	// After the third example the flow moves on without examples_done.
	assert.Contains(t, f.transport.last().Text, "О чём")
}

func TestImageFlow(t *testing.T) {
	f := newFixture(t)

	f.text(t, flows.LabelImage)
	f.text(t, "Котёнок в руках волонтёра")
	f.callback(t, "imgstyle_realistic")
	f.callback(t, "aspect_1:1")

	assert.Equal(t, 1, f.images.calls)
	require.Len(t, f.records.created, 1)
	rec := f.records.created[0]
	assert.Equal(t, domain.KindImage, rec.Kind)
	assert.Equal(t, "img-123", rec.Payload["file_ref"])
	assert.Equal(t, "realistic", rec.Style)
}

func TestPlanWizard(t *testing.T) {
	f := newFixture(t)

	f.text(t, flows.LabelPlan)
	f.callback(t, "period_7")
	f.text(t, "3")
	f.callback(t, "day_1") // Mon
	f.callback(t, "day_3") // Wed
	f.callback(t, "day_5") // Fri
	f.callback(t, "days_done")
	f.text(t, "18:00")
	f.text(t, "волонтёрство, сборы, истории подопечных")

	require.Len(t, f.records.created, 1)
	rec := f.records.created[0]
	assert.Equal(t, domain.KindPlan, rec.Kind)

	dates, ok := rec.Payload["dates"].([]string)
	require.True(t, ok)
	assert.Len(t, dates, 3, "one week with three requested weekdays yields three dates")

	topics, ok := rec.Payload["topics"].([]string)
	require.True(t, ok)
	assert.Len(t, topics, 3)
}

func TestPlanDayToggle(t *testing.T) {
	f := newFixture(t)

	f.text(t, flows.LabelPlan)
	f.callback(t, "period_7")
	f.text(t, "3")
	f.callback(t, "day_1")
	f.callback(t, "day_1") // toggle off again
	f.callback(t, "days_done")

	assert.Contains(t, f.transport.last().Text, "хотя бы один день")
}

func TestPlanRejectsBadFrequency(t *testing.T) {
	f := newFixture(t)

	f.text(t, flows.LabelPlan)
	f.callback(t, "period_14")
	f.text(t, "десять")
	assert.Contains(t, f.transport.last().Text, "от 1 до 7")

	f.text(t, "0")
	assert.Contains(t, f.transport.last().Text, "от 1 до 7")
}

func TestTemplateFlow(t *testing.T) {
	f := newFixture(t)

	f.text(t, flows.LabelTemplate)
	f.text(t, "Анонс события")
	f.text(t, "анонс")
	f.text(t, "🎉 {название}\n📅 {дата}\n📍 {место}\n\n{описание}")

	require.Len(t, f.records.created, 1)
	rec := f.records.created[0]
	assert.Equal(t, domain.KindTemplate, rec.Kind)
	assert.Equal(t, "Анонс события", rec.Payload["name"])
	assert.Equal(t, 0, rec.Payload["use_count"])
}

func TestTeamFlow(t *testing.T) {
	f := newFixture(t)

	f.text(t, flows.LabelTeam)
	f.text(t, "Выездная группа")
	f.text(t, "Помощь приютам по выходным")
	f.text(t, "Аня, Борис, Вера")

	require.Len(t, f.records.created, 1)
	rec := f.records.created[0]
	assert.Equal(t, domain.KindTeam, rec.Kind)
	members, ok := rec.Payload["members"].([]string)
	require.True(t, ok)
	assert.Equal(t, []string{"Аня", "Борис", "Вера"}, members)
}

func TestABTestStoresBothVariants(t *testing.T) {
	f := newFixture(t)

	f.text(t, flows.LabelABTest)
	f.text(t, "Идея поста о новых подопечных")

	require.Len(t, f.records.created, 1)
	rec := f.records.created[0]
	assert.Equal(t, domain.KindABTest, rec.Kind)
	assert.NotEmpty(t, rec.Payload["variant_a"])
	assert.NotEmpty(t, rec.Payload["variant_b"])

	// Both attempts ran with distinct temperatures.
	require.Len(t, f.gen.reqs, 2)
	assert.Less(t, f.gen.reqs[0].Temperature, f.gen.reqs[1].Temperature)
}

func TestSeriesValidatesPartCount(t *testing.T) {
	f := newFixture(t)

	f.text(t, flows.LabelSeries)
	f.text(t, "История нашего приюта")
	f.text(t, "9")
	assert.Contains(t, f.transport.last().Text, "от 2 до 5")

	f.text(t, "3")
	assert.Len(t, f.records.created, 3, "one record per part")
	for i, rec := range f.records.created {
		assert.Equal(t, domain.KindSeries, rec.Kind)
		assert.Equal(t, i+1, rec.Payload["part"])
		require.Len(t, rec.Tags, 1)
		assert.True(t, strings.HasPrefix(rec.Tags[0], "series-"))
	}
}

func TestScheduleDates(t *testing.T) {
	monday := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	t.Run("one week three weekdays", func(t *testing.T) {
		dates := flows.ScheduleDates(monday, 7, 3, []int{1, 3, 5})
		require.Len(t, dates, 3)
		assert.Equal(t, time.Monday, dates[0].Weekday())
		assert.Equal(t, time.Wednesday, dates[1].Weekday())
		assert.Equal(t, time.Friday, dates[2].Weekday())
	})

	t.Run("frequency caps matches", func(t *testing.T) {
		// Five requested weekdays but only two posts per week.
		dates := flows.ScheduleDates(monday, 14, 2, []int{1, 2, 3, 4, 5})
		assert.Len(t, dates, 4)
	})

	t.Run("no matching weekday", func(t *testing.T) {
		dates := flows.ScheduleDates(monday, 7, 3, []int{0})
		assert.Len(t, dates, 1, "Sunday occurs once in the week")
	})

	t.Run("month period", func(t *testing.T) {
		dates := flows.ScheduleDates(monday, 30, 1, []int{1})
		assert.Len(t, dates, 5, "one Monday per started week")
	})
}
