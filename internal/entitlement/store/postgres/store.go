package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"prepgate/internal/entitlement/models"
)

// Store answers subscription lookups from the billing tables. A user's most
// recent subscription row decides their entitlement; users with no row at all
// are simply not subscribers, which is the common case and not an error.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const latestSubscriptionQuery = `
SELECT status, cancel_at_period_end, current_period_end
FROM user_subscriptions
WHERE user_id = $1
ORDER BY current_period_end DESC NULLS LAST
LIMIT 1`

func (s *Store) IsSubscriber(ctx context.Context, userID string) (bool, error) {
	sub, err := s.latestSubscription(ctx, userID)
	if err != nil {
		return false, err
	}
	if sub == nil {
		return false, nil
	}
	return sub.Entitled(time.Now()), nil
}

func (s *Store) latestSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	var (
		sub       models.Subscription
		periodEnd *time.Time
	)
	err := s.pool.QueryRow(ctx, latestSubscriptionQuery, userID).
		Scan(&sub.Status, &sub.CancelAtPeriodEnd, &periodEnd)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query subscription: %w", err)
	}
	sub.UserID = userID
	sub.CurrentPeriodEnd = periodEnd
	return &sub, nil
}
