//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prepgate/internal/ratelimit/models"
	"prepgate/pkg/testutil/containers"
)

func TestStore_Allow_Integration(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	store := New(rc.Client)

	t.Run("sliding window admits then denies then recovers", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))
		key := models.FormatKey("10.0.0.5")

		for i := range 3 {
			res, err := store.Allow(ctx, key, 3, 2*time.Second)
			require.NoError(t, err)
			assert.True(t, res.Allowed, "request %d", i+1)
		}

		res, err := store.Allow(ctx, key, 3, 2*time.Second)
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.GreaterOrEqual(t, res.RetryAfter, 1)

		// Full window elapses; the denied attempt was never recorded so the
		// key admits again immediately.
		time.Sleep(2100 * time.Millisecond)
		res, err = store.Allow(ctx, key, 3, 2*time.Second)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})

	t.Run("keys are independent", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		for range 3 {
			_, err := store.Allow(ctx, models.FormatKey("10.0.0.5"), 3, time.Minute)
			require.NoError(t, err)
		}
		res, err := store.Allow(ctx, models.FormatKey("10.0.0.5"), 3, time.Minute)
		require.NoError(t, err)
		require.False(t, res.Allowed)

		res, err = store.Allow(ctx, models.FormatKey("10.0.0.6"), 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})

	t.Run("key carries a TTL so idle windows expire", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))
		key := models.FormatKey("10.0.0.7")

		_, err := store.Allow(ctx, key, 3, time.Minute)
		require.NoError(t, err)

		ttl, err := rc.Client.TTL(ctx, key).Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
		assert.LessOrEqual(t, ttl, time.Minute)
	})

	t.Run("clear deletes the window", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))
		key := models.FormatKey("10.0.0.8")

		for range 3 {
			_, err := store.Allow(ctx, key, 3, time.Minute)
			require.NoError(t, err)
		}
		require.NoError(t, store.Clear(ctx, key))

		res, err := store.Allow(ctx, key, 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})
}
