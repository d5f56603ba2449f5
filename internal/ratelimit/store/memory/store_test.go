package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Allow(t *testing.T) {
	ctx := context.Background()

	t.Run("allows up to limit within window", func(t *testing.T) {
		store := New()
		for i := range 3 {
			res, err := store.Allow(ctx, "rate_limit:10.0.0.1", 3, time.Minute)
			require.NoError(t, err)
			assert.True(t, res.Allowed, "request %d should be allowed", i+1)
			assert.Equal(t, 3-i-1, res.Remaining)
		}
	})

	t.Run("denies the request over the limit without recording it", func(t *testing.T) {
		store := New()
		for range 3 {
			res, err := store.Allow(ctx, "rate_limit:10.0.0.2", 3, 200*time.Millisecond)
			require.NoError(t, err)
			require.True(t, res.Allowed)
		}

		res, err := store.Allow(ctx, "rate_limit:10.0.0.2", 3, 200*time.Millisecond)
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.GreaterOrEqual(t, res.RetryAfter, 1)

		// After the original window elapses the key admits again; the denied
		// attempt left no entry behind to wait out.
		time.Sleep(250 * time.Millisecond)
		res, err = store.Allow(ctx, "rate_limit:10.0.0.2", 3, 200*time.Millisecond)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})

	t.Run("distinct keys are independent", func(t *testing.T) {
		store := New()
		for range 3 {
			res, err := store.Allow(ctx, "rate_limit:10.0.0.3", 3, time.Minute)
			require.NoError(t, err)
			require.True(t, res.Allowed)
		}
		res, err := store.Allow(ctx, "rate_limit:10.0.0.3", 3, time.Minute)
		require.NoError(t, err)
		require.False(t, res.Allowed)

		res, err = store.Allow(ctx, "rate_limit:10.0.0.4", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "exhausting one key must not affect another")
	})

	t.Run("clear resets the window", func(t *testing.T) {
		store := New()
		for range 3 {
			_, err := store.Allow(ctx, "rate_limit:10.0.0.5", 3, time.Minute)
			require.NoError(t, err)
		}
		require.NoError(t, store.Clear(ctx, "rate_limit:10.0.0.5"))

		res, err := store.Allow(ctx, "rate_limit:10.0.0.5", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})
}
