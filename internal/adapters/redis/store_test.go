package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wyvern137/hackathon/internal/adapters/redis"
	"github.com/Wyvern137/hackathon/pkg/ports"
)

func newTestStore(t *testing.T, opts ...redis.Option) (*redis.Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	return redis.NewFromClient(client, opts...), mr
}

func TestRedisStore_Contract(t *testing.T) {
	store, _ := newTestStore(t)
	ports.RunSessionStoreContract(t, store)
}

func TestRedisStore_TTLExpiry(t *testing.T) {
	store, mr := newTestStore(t, redis.WithTTL(time.Hour))
	ctx := context.Background()

	s, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	s.Begin("plan", "awaiting_period")
	require.NoError(t, store.Save(ctx, s))

	active, err := store.IsActive(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, active)

	mr.FastForward(2 * time.Hour)

	active, err = store.IsActive(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, active, "expired session must read as empty")

	users, err := store.List(ctx)
	require.NoError(t, err)
	assert.NotContains(t, users, "u1")
}
