// Package analytics computes read-only statistics over an owner's content
// records: volume by kind, dominant style, best posting hours and simple
// threshold-rule recommendations.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Wyvern137/hackathon/pkg/domain"
	"github.com/Wyvern137/hackathon/pkg/ports"
)

// Default posting hours suggested when there is no history to learn from.
var defaultHours = []int{9, 14, 18}

// Report is the aggregated view over one owner's records.
type Report struct {
	OwnerID string
	Window  time.Duration

	Total   int
	Saved   int
	ByKind  map[domain.ContentKind]int
	ByStyle map[string]int

	// TopStyle is the most-used non-empty style, or "" without history.
	TopStyle string

	// TopHours are up to three creation hours ranked by record volume,
	// falling back to the default schedule with no history.
	TopHours []int

	Recommendations []string
}

// Aggregator reads records and derives reports. It holds no state of its
// own.
type Aggregator struct {
	records ports.RecordStore
	now     func() time.Time
}

// Option configures the aggregator.
type Option func(*Aggregator)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.now = now
	}
}

// New creates an aggregator over a record store.
func New(records ports.RecordStore, opts ...Option) *Aggregator {
	a := &Aggregator{records: records, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Report aggregates the owner's records created within the window. A zero
// window means all history.
func (a *Aggregator) Report(ctx context.Context, ownerID string, window time.Duration) (*Report, error) {
	q := ports.RecordQuery{}
	if window > 0 {
		q.Since = a.now().Add(-window)
	}
	recs, err := a.records.ByOwner(ctx, ownerID, q)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	r := &Report{
		OwnerID: ownerID,
		Window:  window,
		Total:   len(recs),
		ByKind:  make(map[domain.ContentKind]int),
		ByStyle: make(map[string]int),
	}

	hourCounts := make(map[int]int)
	for _, rec := range recs {
		r.ByKind[rec.Kind]++
		if rec.Saved {
			r.Saved++
		}
		if rec.Style != "" {
			r.ByStyle[rec.Style]++
		}
		hourCounts[rec.CreatedAt.Hour()]++
	}

	r.TopStyle = topStyle(r.ByStyle)
	r.TopHours = topHours(hourCounts)
	r.Recommendations = recommend(r)
	return r, nil
}

func topStyle(byStyle map[string]int) string {
	best, bestCount := "", 0
	for style, count := range byStyle {
		if count > bestCount || (count == bestCount && style < best) {
			best, bestCount = style, count
		}
	}
	return best
}

func topHours(counts map[int]int) []int {
	if len(counts) == 0 {
		out := make([]int, len(defaultHours))
		copy(out, defaultHours)
		return out
	}
	hours := make([]int, 0, len(counts))
	for h := range counts {
		hours = append(hours, h)
	}
	sort.Slice(hours, func(i, j int) bool {
		if counts[hours[i]] != counts[hours[j]] {
			return counts[hours[i]] > counts[hours[j]]
		}
		return hours[i] < hours[j]
	})
	if len(hours) > 3 {
		hours = hours[:3]
	}
	return hours
}

// Recommendation thresholds.
const (
	lowVolumeThreshold  = 4
	lowSavedShare       = 0.3
	monotoneStyleShare  = 0.8
	minRecordsForAdvice = 3
)

func recommend(r *Report) []string {
	var out []string
	if r.Total == 0 {
		return []string{"Пока нет данных. Начни с 2-3 постов в неделю и возвращайся за статистикой."}
	}
	if r.Total < lowVolumeThreshold {
		out = append(out, "Публикаций мало. Регулярность важнее объёма: попробуй 3 поста в неделю.")
	}
	if r.Total >= minRecordsForAdvice && float64(r.Saved) < lowSavedShare*float64(r.Total) {
		out = append(out, "Сохраняется мало вариантов. Попробуй другие стили или уточняй идею перед генерацией.")
	}
	if r.TopStyle != "" && r.Total >= minRecordsForAdvice &&
		float64(r.ByStyle[r.TopStyle]) >= monotoneStyleShare*float64(r.Total) {
		out = append(out, "Почти все посты в одном стиле. Чередуй стили, чтобы лента не приедалась.")
	}
	if r.ByKind[domain.KindPlan] == 0 {
		out = append(out, "Контент-плана ещё нет. Составь план на неделю, это экономит время.")
	}
	if len(out) == 0 {
		out = append(out, "Хороший темп! Продолжай в том же духе.")
	}
	return out
}
