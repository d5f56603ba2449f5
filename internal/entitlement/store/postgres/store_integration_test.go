//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prepgate/internal/entitlement/models"
	"prepgate/pkg/testutil/containers"
)

const subscriptionsSchema = `
CREATE TABLE IF NOT EXISTS user_subscriptions (
	id                   BIGSERIAL PRIMARY KEY,
	user_id              TEXT NOT NULL,
	status               TEXT NOT NULL,
	cancel_at_period_end BOOLEAN NOT NULL DEFAULT FALSE,
	current_period_end   TIMESTAMPTZ
)`

func seed(t *testing.T, pc *containers.PostgresContainer, sub models.Subscription) {
	t.Helper()
	_, err := pc.Pool.Exec(context.Background(),
		`INSERT INTO user_subscriptions (user_id, status, cancel_at_period_end, current_period_end)
		 VALUES ($1, $2, $3, $4)`,
		sub.UserID, sub.Status, sub.CancelAtPeriodEnd, sub.CurrentPeriodEnd,
	)
	require.NoError(t, err)
}

func TestStore_IsSubscriber(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	pc := containers.NewPostgresContainer(t)

	_, err := pc.Pool.Exec(ctx, subscriptionsSchema)
	require.NoError(t, err)

	store := New(pc.Pool)
	future := time.Now().Add(30 * 24 * time.Hour).UTC()
	past := time.Now().Add(-time.Hour).UTC()

	t.Run("no row means not a subscriber", func(t *testing.T) {
		ok, err := store.IsSubscriber(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("active subscription entitles", func(t *testing.T) {
		seed(t, pc, models.Subscription{UserID: "active-user", Status: models.StatusActive, CurrentPeriodEnd: &future})

		ok, err := store.IsSubscriber(ctx, "active-user")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("trialing subscription entitles", func(t *testing.T) {
		seed(t, pc, models.Subscription{UserID: "trial-user", Status: models.StatusTrialing, CurrentPeriodEnd: &future})

		ok, err := store.IsSubscriber(ctx, "trial-user")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("canceled subscription does not entitle", func(t *testing.T) {
		seed(t, pc, models.Subscription{UserID: "canceled-user", Status: "canceled", CurrentPeriodEnd: &past})

		ok, err := store.IsSubscriber(ctx, "canceled-user")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("pending cancellation honors the period end", func(t *testing.T) {
		seed(t, pc, models.Subscription{
			UserID: "winding-down", Status: models.StatusActive,
			CancelAtPeriodEnd: true, CurrentPeriodEnd: &future,
		})
		seed(t, pc, models.Subscription{
			UserID: "wound-down", Status: models.StatusActive,
			CancelAtPeriodEnd: true, CurrentPeriodEnd: &past,
		})

		ok, err := store.IsSubscriber(ctx, "winding-down")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.IsSubscriber(ctx, "wound-down")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("most recent period wins when history exists", func(t *testing.T) {
		seed(t, pc, models.Subscription{UserID: "renewed", Status: "canceled", CurrentPeriodEnd: &past})
		seed(t, pc, models.Subscription{UserID: "renewed", Status: models.StatusActive, CurrentPeriodEnd: &future})

		ok, err := store.IsSubscriber(ctx, "renewed")
		require.NoError(t, err)
		assert.True(t, ok, "the newer active row should decide")
	})
}
