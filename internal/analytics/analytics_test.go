package analytics_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wyvern137/hackathon/internal/analytics"
	"github.com/Wyvern137/hackathon/pkg/domain"
	"github.com/Wyvern137/hackathon/pkg/ports"
)

type stubRecords struct {
	recs     []domain.ContentRecord
	gotSince time.Time
}

func (s *stubRecords) Create(context.Context, *domain.ContentRecord) error { return nil }

func (s *stubRecords) ByOwner(_ context.Context, _ string, q ports.RecordQuery) ([]domain.ContentRecord, error) {
	s.gotSince = q.Since
	if q.Since.IsZero() {
		return s.recs, nil
	}
	var out []domain.ContentRecord
	for _, r := range s.recs {
		if !r.CreatedAt.Before(q.Since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubRecords) MarkSaved(context.Context, string, bool) error { return nil }
func (s *stubRecords) Delete(context.Context, string) error          { return nil }

func at(day, hour int) time.Time {
	return time.Date(2025, 6, day, hour, 0, 0, 0, time.UTC)
}

func rec(kind domain.ContentKind, style string, created time.Time, saved bool) domain.ContentRecord {
	return domain.ContentRecord{Kind: kind, Style: style, CreatedAt: created, Saved: saved}
}

func TestReportCountsAndTopStyle(t *testing.T) {
	store := &stubRecords{recs: []domain.ContentRecord{
		rec(domain.KindText, "friendly", at(1, 9), true),
		rec(domain.KindText, "friendly", at(2, 9), true),
		rec(domain.KindText, "formal", at(3, 14), false),
		rec(domain.KindPlan, "", at(4, 18), false),
	}}
	agg := analytics.New(store)

	r, err := agg.Report(context.Background(), "u1", 0)
	require.NoError(t, err)

	assert.Equal(t, 4, r.Total)
	assert.Equal(t, 2, r.Saved)
	assert.Equal(t, 3, r.ByKind[domain.KindText])
	assert.Equal(t, 1, r.ByKind[domain.KindPlan])
	assert.Equal(t, "friendly", r.TopStyle)
}

func TestReportTopHours(t *testing.T) {
	store := &stubRecords{recs: []domain.ContentRecord{
		rec(domain.KindText, "neutral", at(1, 18), false),
		rec(domain.KindText, "neutral", at(2, 18), false),
		rec(domain.KindText, "neutral", at(3, 18), false),
		rec(domain.KindText, "neutral", at(4, 9), false),
		rec(domain.KindText, "neutral", at(5, 9), false),
		rec(domain.KindText, "neutral", at(6, 12), false),
		rec(domain.KindText, "neutral", at(7, 20), false),
	}}
	agg := analytics.New(store)

	r, err := agg.Report(context.Background(), "u1", 0)
	require.NoError(t, err)

	require.Len(t, r.TopHours, 3)
	assert.Equal(t, 18, r.TopHours[0])
	assert.Equal(t, 9, r.TopHours[1])
	// 12 and 20 are tied with one record each; the earlier hour wins.
	assert.Equal(t, 12, r.TopHours[2])
}

func TestReportDefaultHoursWithoutHistory(t *testing.T) {
	agg := analytics.New(&stubRecords{})

	r, err := agg.Report(context.Background(), "u1", 0)
	require.NoError(t, err)

	assert.Equal(t, []int{9, 14, 18}, r.TopHours)
	require.NotEmpty(t, r.Recommendations)
	assert.Contains(t, r.Recommendations[0], "нет данных")
}

func TestReportWindowFiltersBySince(t *testing.T) {
	now := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)
	store := &stubRecords{recs: []domain.ContentRecord{
		rec(domain.KindText, "formal", now.Add(-time.Hour), false),
		rec(domain.KindText, "formal", now.Add(-30*24*time.Hour), false),
	}}
	agg := analytics.New(store, analytics.WithClock(func() time.Time { return now }))

	r, err := agg.Report(context.Background(), "u1", 7*24*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, 1, r.Total)
	assert.Equal(t, now.Add(-7*24*time.Hour), store.gotSince)
}

func TestRecommendationsMonotoneStyle(t *testing.T) {
	store := &stubRecords{recs: []domain.ContentRecord{
		rec(domain.KindText, "formal", at(1, 9), true),
		rec(domain.KindText, "formal", at(2, 9), true),
		rec(domain.KindText, "formal", at(3, 9), true),
		rec(domain.KindText, "formal", at(4, 9), true),
		rec(domain.KindPlan, "", at(5, 9), false),
	}}
	agg := analytics.New(store)

	r, err := agg.Report(context.Background(), "u1", 0)
	require.NoError(t, err)

	joined := ""
	for _, rr := range r.Recommendations {
		joined += rr + "\n"
	}
	assert.Contains(t, joined, "одном стиле")
	assert.NotContains(t, joined, "Контент-плана ещё нет")
}

func TestRecommendationsLowSavedShare(t *testing.T) {
	store := &stubRecords{recs: []domain.ContentRecord{
		rec(domain.KindText, "formal", at(1, 9), false),
		rec(domain.KindText, "friendly", at(2, 9), false),
		rec(domain.KindText, "neutral", at(3, 9), false),
		rec(domain.KindText, "artistic", at(4, 9), false),
		rec(domain.KindPlan, "", at(5, 9), false),
	}}
	agg := analytics.New(store)

	r, err := agg.Report(context.Background(), "u1", 0)
	require.NoError(t, err)

	joined := ""
	for _, rr := range r.Recommendations {
		joined += rr + "\n"
	}
	assert.Contains(t, joined, "Сохраняется мало")
}
