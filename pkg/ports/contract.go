package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests verifying that a
// SessionStore implementation adheres to the interface contract. Adapter
// packages call it from their own tests.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	userID := "contract-user-" + time.Now().Format("20060102150405")

	t.Run("GetCreatesEmpty", func(t *testing.T) {
		s, err := store.Get(ctx, userID)
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, userID, s.UserID)
		assert.False(t, s.Active)
		assert.Empty(t, s.Scratch)
	})

	t.Run("SaveAndGet", func(t *testing.T) {
		s, err := store.Get(ctx, userID)
		require.NoError(t, err)

		s.Begin("freetext", "awaiting_idea")
		s.Scratch["idea"] = "shelter supply drive"
		require.NoError(t, store.Save(ctx, s))

		loaded, err := store.Get(ctx, userID)
		require.NoError(t, err)
		assert.True(t, loaded.Active)
		assert.Equal(t, "freetext", loaded.FlowID)
		assert.Equal(t, "awaiting_idea", loaded.State)
		assert.Equal(t, "shelter supply drive", loaded.Scratch["idea"])
	})

	t.Run("CopiesAreIsolated", func(t *testing.T) {
		s, err := store.Get(ctx, userID)
		require.NoError(t, err)
		s.Scratch["idea"] = "mutated locally"

		loaded, err := store.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, "shelter supply drive", loaded.Scratch["idea"],
			"mutating a returned session must not leak into the store")
	})

	t.Run("IsActive", func(t *testing.T) {
		active, err := store.IsActive(ctx, userID)
		require.NoError(t, err)
		assert.True(t, active)

		active, err = store.IsActive(ctx, "never-seen-"+userID)
		require.NoError(t, err)
		assert.False(t, active)
	})

	t.Run("Clear", func(t *testing.T) {
		require.NoError(t, store.Clear(ctx, userID))

		s, err := store.Get(ctx, userID)
		require.NoError(t, err)
		assert.False(t, s.Active)
		assert.Empty(t, s.FlowID)
		assert.Empty(t, s.State)
		assert.Empty(t, s.Scratch)
	})
}
