package flows

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Wyvern137/hackathon/pkg/domain"
	"github.com/Wyvern137/hackathon/pkg/flow"
	"github.com/Wyvern137/hackathon/pkg/ports"
)

var weekdays = []struct {
	Bit   int
	Label string
}{
	{1, "Пн"}, {2, "Вт"}, {3, "Ср"}, {4, "Чт"},
	{5, "Пт"}, {6, "Сб"}, {0, "Вс"},
}

var timePattern = regexp.MustCompile(`^([01]?\d|2[0-3]):([0-5]\d)$`)

type planScratch struct {
	PeriodDays int    `mapstructure:"period_days"`
	Frequency  int    `mapstructure:"frequency"`
	Days       []int  `mapstructure:"days"`
	PostTime   string `mapstructure:"post_time"`
}

// ScheduleDates lists the posting dates for a plan: every day within the
// period whose weekday is requested, capped at frequency per week. Days
// use time.Weekday numbering (Sunday=0).
func ScheduleDates(start time.Time, periodDays, frequency int, days []int) []time.Time {
	wanted := make(map[int]bool, len(days))
	for _, d := range days {
		wanted[d] = true
	}

	var dates []time.Time
	perWeek := 0
	for i := 0; i < periodDays; i++ {
		if i%7 == 0 {
			perWeek = 0
		}
		d := start.AddDate(0, 0, i)
		if wanted[int(d.Weekday())] && perWeek < frequency {
			dates = append(dates, d)
			perWeek++
		}
	}
	return dates
}

// Plan is the content-plan wizard: period, frequency, weekdays, posting
// time and topics produce a schedule of posting dates.
func Plan(deps Deps) *flow.Definition {
	dayKeyboard := func(selected []int) ports.Message {
		chosen := make(map[int]bool, len(selected))
		for _, d := range selected {
			chosen[d] = true
		}
		row := make([]ports.Button, 0, len(weekdays))
		for _, wd := range weekdays {
			label := wd.Label
			if chosen[wd.Bit] {
				label = "✅ " + label
			}
			row = append(row, ports.Button{Label: label, Data: fmt.Sprintf("day_%d", wd.Bit)})
		}
		return ports.Message{
			Text: "По каким дням публикуем? Отметь дни и жми «Дальше».",
			Buttons: [][]ports.Button{
				row,
				{{Label: "➡️ Дальше", Data: "days_done"}},
				cancelRow(),
			},
		}
	}

	return &flow.Definition{
		ID:    "plan",
		Entry: flow.OnTextLabel(LabelPlan),
		OnEntry: func(ctx context.Context, t *flow.Turn) (flow.Outcome, error) {
			msg := ports.Message{
				Text: "На какой период составить контент-план?",
				Buttons: [][]ports.Button{
					{
						{Label: "Неделя", Data: "period_7"},
						{Label: "2 недели", Data: "period_14"},
						{Label: "Месяц", Data: "period_30"},
					},
					cancelRow(),
				},
			}
			if err := t.Reply(ctx, msg); err != nil {
				return flow.Outcome{}, err
			}
			return flow.Transition("waiting_period"), nil
		},
		Initial: "waiting_period",
		States: []flow.State{
			{
				Name: "waiting_period",
				Bindings: []flow.Binding{
					{
						Match: flow.OnCallbackPrefix("period_"),
						Handle: func(ctx context.Context, t *flow.Turn) (flow.Outcome, error) {
							days, err := strconv.Atoi(strings.TrimPrefix(t.Event.Data, "period_"))
							if err != nil || (days != 7 && days != 14 && days != 30) {
								return flow.Outcome{}, domain.Validation("Выбери период кнопкой.")
							}
							if err := t.PutScratch(planScratch{PeriodDays: days}); err != nil {
								return flow.Outcome{}, err
							}
							if err := t.Reply(ctx, prompt("Сколько постов в неделю? (от 1 до 7)")); err != nil {
								return flow.Outcome{}, err
							}
							return flow.Transition("waiting_frequency"), nil
						},
					},
				},
			},
			{
				Name: "waiting_frequency",
				Bindings: []flow.Binding{
					{
						Match: flow.AnyText(),
						Handle: func(ctx context.Context, t *flow.Turn) (flow.Outcome, error) {
							freq, err := strconv.Atoi(strings.TrimSpace(t.Event.Text))
							if err != nil || freq < 1 || freq > 7 {
								return flow.Outcome{}, domain.Validation("Напиши число от 1 до 7.")
							}
							var s planScratch
							if err := t.Scratch(&s); err != nil {
								return flow.Outcome{}, err
							}
							s.Frequency = freq
							if err := t.PutScratch(s); err != nil {
								return flow.Outcome{}, err
							}
							if err := t.Reply(ctx, dayKeyboard(nil)); err != nil {
								return flow.Outcome{}, err
							}
							return flow.Transition("waiting_days"), nil
						},
					},
				},
			},
			{
				Name: "waiting_days",
				Bindings: []flow.Binding{
					{
						Match: flow.OnCallback("days_done"),
						Handle: func(ctx context.Context, t *flow.Turn) (flow.Outcome, error) {
							var s planScratch
							if err := t.Scratch(&s); err != nil {
								return flow.Outcome{}, err
							}
							if len(s.Days) == 0 {
								return flow.Outcome{}, domain.Validation("Отметь хотя бы один день недели.")
							}
							if err := t.Reply(ctx, prompt("Во сколько публикуем? (например 18:00)")); err != nil {
								return flow.Outcome{}, err
							}
							return flow.Transition("waiting_time"), nil
						},
					},
					{
						Match: flow.OnCallbackPrefix("day_"),
						Handle: func(ctx context.Context, t *flow.Turn) (flow.Outcome, error) {
							day, err := strconv.Atoi(strings.TrimPrefix(t.Event.Data, "day_"))
							if err != nil || day < 0 || day > 6 {
								return flow.Outcome{}, domain.Validation("Выбери день кнопкой.")
							}
							var s planScratch
							if err := t.Scratch(&s); err != nil {
								return flow.Outcome{}, err
							}
							// Toggle.
							kept := s.Days[:0]
							removed := false
							for _, d := range s.Days {
								if d == day {
									removed = true
									continue
								}
								kept = append(kept, d)
							}
							s.Days = kept
							if !removed {
								s.Days = append(s.Days, day)
							}
							sort.Ints(s.Days)
							if err := t.PutScratch(s); err != nil {
								return flow.Outcome{}, err
							}
							if err := t.Reply(ctx, dayKeyboard(s.Days)); err != nil {
								return flow.Outcome{}, err
							}
							return flow.Reentrant(), nil
						},
					},
				},
			},
			{
				Name: "waiting_time",
				Bindings: []flow.Binding{
					{
						Match: flow.AnyText(),
						Handle: func(ctx context.Context, t *flow.Turn) (flow.Outcome, error) {
							at := strings.TrimSpace(t.Event.Text)
							if !timePattern.MatchString(at) {
								return flow.Outcome{}, domain.Validation("Время в формате ЧЧ:ММ, например 18:00.")
							}
							var s planScratch
							if err := t.Scratch(&s); err != nil {
								return flow.Outcome{}, err
							}
							s.PostTime = at
							if err := t.PutScratch(s); err != nil {
								return flow.Outcome{}, err
							}
							if err := t.Reply(ctx, prompt("Какие темы осветить? Перечисли через запятую.")); err != nil {
								return flow.Outcome{}, err
							}
							return flow.Transition("waiting_topics"), nil
						},
					},
				},
			},
			{
				Name: "waiting_topics",
				Bindings: []flow.Binding{
					{
						Match: flow.AnyText(),
						Handle: func(ctx context.Context, t *flow.Turn) (flow.Outcome, error) {
							raw := strings.Split(t.Event.Text, ",")
							topics := make([]string, 0, len(raw))
							for _, topic := range raw {
								if topic = strings.TrimSpace(topic); topic != "" {
									topics = append(topics, topic)
								}
							}
							if len(topics) == 0 {
								return flow.Outcome{}, domain.Validation("Нужна хотя бы одна тема.")
							}

							var s planScratch
							if err := t.Scratch(&s); err != nil {
								return flow.Outcome{}, err
							}

							start := deps.Now().AddDate(0, 0, 1)
							dates := ScheduleDates(start, s.PeriodDays, s.Frequency, s.Days)

							formatted := make([]string, 0, len(dates))
							for _, d := range dates {
								formatted = append(formatted, d.Format("02.01.2006"))
							}
							rec := &domain.ContentRecord{
								OwnerID: t.Event.UserID,
								Kind:    domain.KindPlan,
								Payload: map[string]any{
									"period_days": s.PeriodDays,
									"frequency":   s.Frequency,
									"post_time":   s.PostTime,
									"dates":       formatted,
									"topics":      topics,
								},
								CreatedAt: deps.Now(),
							}
							if err := deps.Records.Create(ctx, rec); err != nil {
								return flow.Outcome{}, err
							}

							var b strings.Builder
							fmt.Fprintf(&b, "Контент-план готов: %d публикаций в %s.\n\n", len(dates), s.PostTime)
							for i, d := range formatted {
								topic := topics[i%len(topics)]
								fmt.Fprintf(&b, "%s — %s\n", d, topic)
							}
							if err := t.ReplyText(ctx, b.String()); err != nil {
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
