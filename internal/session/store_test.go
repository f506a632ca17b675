package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  NewRedisStoreWithClient(client, time.Hour),
	}
}

func TestStoreGetOrCreate(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			state, err := store.GetOrCreate(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, "s1", state.SessionID)
			assert.Equal(t, 1, state.CurrentStep)
			assert.Nil(t, state.WorkLocation)

			// second call returns the same session
			again, err := store.GetOrCreate(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, state.SessionID, again.SessionID)

			n, err := store.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, n)
		})
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			state, err := store.GetOrCreate(ctx, "s2")
			require.NoError(t, err)

			loc := "Whitefield"
			kids := false
			state.WorkLocation = &loc
			state.HasKids = &kids
			state.AppendMessage("user", "no kids")
			require.NoError(t, store.Put(ctx, state))

			got, err := store.Get(ctx, "s2")
			require.NoError(t, err)
			require.NotNil(t, got.WorkLocation)
			assert.Equal(t, "Whitefield", *got.WorkLocation)
			require.NotNil(t, got.HasKids)
			assert.False(t, *got.HasKids)
			require.Len(t, got.Messages, 1)
			assert.Equal(t, "no kids", got.Messages[0].Content)
		})
	}
}

func TestStoreGetUnknown(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(context.Background(), "missing")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStoreDelete(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.GetOrCreate(ctx, "s3")
			require.NoError(t, err)
			require.NoError(t, store.Delete(ctx, "s3"))

			_, err = store.Get(ctx, "s3")
			assert.ErrorIs(t, err, ErrNotFound)

			// deleting again is fine
			assert.NoError(t, store.Delete(ctx, "s3"))
		})
	}
}

func TestRedisStoreExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisStoreWithClient(client, time.Minute)
	ctx := context.Background()

	_, err := store.GetOrCreate(ctx, "expiring")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = store.Get(ctx, "expiring")
	assert.ErrorIs(t, err, ErrNotFound)
}
