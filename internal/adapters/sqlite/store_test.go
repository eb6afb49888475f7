package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wyvern137/hackathon/internal/adapters/sqlite"
	"github.com/Wyvern137/hackathon/pkg/domain"
	"github.com/Wyvern137/hackathon/pkg/ports"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := &domain.ContentRecord{
		OwnerID: "owner1",
		Kind:    domain.KindText,
		Payload: map[string]any{"text": "New residents at the shelter!", "original": "shelter news"},
		Style:   "friendly",
		Tags:    []string{"#shelter", "#adoptdontshop"},
	}
	require.NoError(t, store.Create(ctx, rec))
	assert.NotEmpty(t, rec.ID)

	records, err := store.ByOwner(ctx, "owner1", ports.RecordQuery{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.KindText, records[0].Kind)
	assert.Equal(t, "friendly", records[0].Style)
	assert.Equal(t, "New residents at the shelter!", records[0].Payload["text"])
	assert.Equal(t, []string{"#shelter", "#adoptdontshop"}, records[0].Tags)
}

func TestByOwnerFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	old := &domain.ContentRecord{
		OwnerID:   "owner1",
		Kind:      domain.KindText,
		Payload:   map[string]any{"text": "old"},
		CreatedAt: time.Now().Add(-48 * time.Hour),
	}
	recent := &domain.ContentRecord{
		OwnerID: "owner1",
		Kind:    domain.KindPlan,
		Payload: map[string]any{"name": "weekly plan"},
		Tags:    []string{"#plan"},
	}
	other := &domain.ContentRecord{
		OwnerID: "owner2",
		Kind:    domain.KindText,
		Payload: map[string]any{"text": "not mine"},
	}
	for _, r := range []*domain.ContentRecord{old, recent, other} {
		require.NoError(t, store.Create(ctx, r))
	}

	byKind, err := store.ByOwner(ctx, "owner1", ports.RecordQuery{Kind: domain.KindPlan})
	require.NoError(t, err)
	require.Len(t, byKind, 1)
	assert.Equal(t, "weekly plan", byKind[0].Payload["name"])

	sinceYesterday, err := store.ByOwner(ctx, "owner1", ports.RecordQuery{Since: time.Now().Add(-24 * time.Hour)})
	require.NoError(t, err)
	assert.Len(t, sinceYesterday, 1)

	byTag, err := store.ByOwner(ctx, "owner1", ports.RecordQuery{Tag: "#plan"})
	require.NoError(t, err)
	assert.Len(t, byTag, 1)
}

func TestMarkSaved(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := &domain.ContentRecord{OwnerID: "owner1", Kind: domain.KindText, Payload: map[string]any{"text": "x"}}
	require.NoError(t, store.Create(ctx, rec))

	require.NoError(t, store.MarkSaved(ctx, rec.ID, true))

	records, err := store.ByOwner(ctx, "owner1", ports.RecordQuery{SavedOnly: true})
	require.NoError(t, err)
	assert.Len(t, records, 1)

	assert.ErrorIs(t, store.MarkSaved(ctx, "no-such-id", true), domain.ErrRecordNotFound)
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := &domain.ContentRecord{OwnerID: "owner1", Kind: domain.KindText, Payload: map[string]any{"text": "x"}}
	require.NoError(t, store.Create(ctx, rec))
	require.NoError(t, store.Delete(ctx, rec.ID))
	assert.ErrorIs(t, store.Delete(ctx, rec.ID), domain.ErrRecordNotFound)
}

func TestProfileUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p, err := store.Profile(ctx, "owner1")
	require.NoError(t, err)
	assert.Nil(t, p)

	profile := &domain.Profile{
		OwnerID:    "owner1",
		Name:       "Paws & Homes",
		About:      "Animal shelter and adoption center",
		Categories: []string{"animal_welfare"},
		Tone:       "friendly",
	}
	require.NoError(t, store.SaveProfile(ctx, profile))

	profile.Tone = "conversational"
	require.NoError(t, store.SaveProfile(ctx, profile))

	p, err = store.Profile(ctx, "owner1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "conversational", p.Tone)
	assert.Equal(t, []string{"animal_welfare"}, p.Categories)
}
