package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prepgate/internal/platform/config"
	"prepgate/internal/ratelimit/models"
	"prepgate/internal/ratelimit/store/memory"
)

func testConfig() config.RateLimitConfig {
	return config.RateLimitConfig{Window: time.Minute, MaxRequests: 3}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// failingStore raises on every operation to exercise fail-open behavior.
type failingStore struct{}

func (failingStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error) {
	return nil, errors.New("connection refused")
}

func (failingStore) Clear(ctx context.Context, key string) error {
	return errors.New("connection refused")
}

func TestNew(t *testing.T) {
	t.Run("nil store returns error", func(t *testing.T) {
		_, err := New(nil, testLogger(), testConfig())
		require.Error(t, err)
	})

	t.Run("non-positive config returns error", func(t *testing.T) {
		_, err := New(memory.New(), testLogger(), config.RateLimitConfig{})
		require.Error(t, err)
	})
}

func TestService_Allow(t *testing.T) {
	ctx := context.Background()

	t.Run("admits up to the limit then denies", func(t *testing.T) {
		svc, err := New(memory.New(), testLogger(), testConfig())
		require.NoError(t, err)

		for i := range 3 {
			res := svc.Allow(ctx, "10.0.0.5")
			assert.True(t, res.Allowed, "request %d should pass", i+1)
		}
		res := svc.Allow(ctx, "10.0.0.5")
		assert.False(t, res.Allowed)
	})

	t.Run("keys are namespaced and independent", func(t *testing.T) {
		store := memory.New()
		svc, err := New(store, testLogger(), testConfig())
		require.NoError(t, err)

		for range 3 {
			svc.Allow(ctx, "10.0.0.5")
		}
		require.False(t, svc.Allow(ctx, "10.0.0.5").Allowed)
		assert.True(t, svc.Allow(ctx, "10.0.0.6").Allowed)
	})

	t.Run("fails open when the store raises", func(t *testing.T) {
		svc, err := New(failingStore{}, testLogger(), testConfig())
		require.NoError(t, err)

		res := svc.Allow(ctx, "10.0.0.5")
		assert.True(t, res.Allowed, "store errors must not block requests")
	})
}

func TestService_Clear(t *testing.T) {
	ctx := context.Background()

	t.Run("resets an exhausted window", func(t *testing.T) {
		svc, err := New(memory.New(), testLogger(), testConfig())
		require.NoError(t, err)

		for range 3 {
			svc.Allow(ctx, "10.0.0.5")
		}
		require.False(t, svc.Allow(ctx, "10.0.0.5").Allowed)

		svc.Clear(ctx, "10.0.0.5")
		assert.True(t, svc.Allow(ctx, "10.0.0.5").Allowed)
	})

	t.Run("swallows store errors", func(t *testing.T) {
		svc, err := New(failingStore{}, testLogger(), testConfig())
		require.NoError(t, err)

		assert.NotPanics(t, func() {
			svc.Clear(ctx, "10.0.0.5")
		})
	})
}
