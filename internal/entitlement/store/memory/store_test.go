package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prepgate/internal/entitlement/models"
)

func TestStore_IsSubscriber(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown user is not a subscriber", func(t *testing.T) {
		store := New()
		ok, err := store.IsSubscriber(ctx, "nobody")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("active and trialing entitle", func(t *testing.T) {
		store := New()
		store.Put(models.Subscription{UserID: "u1", Status: models.StatusActive})
		store.Put(models.Subscription{UserID: "u2", Status: models.StatusTrialing})

		for _, userID := range []string{"u1", "u2"} {
			ok, err := store.IsSubscriber(ctx, userID)
			require.NoError(t, err)
			assert.True(t, ok, "user %s", userID)
		}
	})

	t.Run("other statuses do not entitle", func(t *testing.T) {
		store := New()
		for _, status := range []string{"past_due", "canceled", "incomplete"} {
			store.Put(models.Subscription{UserID: "u1", Status: status})
			ok, err := store.IsSubscriber(ctx, "u1")
			require.NoError(t, err)
			assert.False(t, ok, "status %s", status)
		}
	})

	t.Run("pending cancellation keeps access until period end", func(t *testing.T) {
		store := New()
		future := time.Now().Add(24 * time.Hour)
		past := time.Now().Add(-time.Hour)

		store.Put(models.Subscription{
			UserID: "u1", Status: models.StatusActive,
			CancelAtPeriodEnd: true, CurrentPeriodEnd: &future,
		})
		ok, err := store.IsSubscriber(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, ok, "access lasts until the paid period ends")

		store.Put(models.Subscription{
			UserID: "u1", Status: models.StatusActive,
			CancelAtPeriodEnd: true, CurrentPeriodEnd: &past,
		})
		ok, err = store.IsSubscriber(ctx, "u1")
		require.NoError(t, err)
		assert.False(t, ok, "ended period revokes access")
	})

	t.Run("removed subscription revokes access", func(t *testing.T) {
		store := New()
		store.Put(models.Subscription{UserID: "u1", Status: models.StatusActive})
		store.Remove("u1")

		ok, err := store.IsSubscriber(ctx, "u1")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
