package redis

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"prepgate/internal/ratelimit/models"
)

// Store implements ports.WindowStore as a sliding-window log over a Redis
// sorted set. Each accepted request becomes one member scored by its
// timestamp in milliseconds; members older than the window are pruned at the
// start of every evaluation and the key expires after a window of inactivity.
//
// Prune, count and insert are pipelined but not wrapped in a server-side
// script. Two near-simultaneous requests can both observe a count just under
// the limit and both insert, so the effective limit can be exceeded by a
// small bounded margin under high concurrency. Accepted trade-off for a
// sliding-window log; strict enforcement would need an atomic Lua script.
type Store struct {
	client redis.Cmdable
}

func New(client redis.Cmdable) *Store {
	return &Store{client: client}
}

// Allow evaluates and, when permitted, records one request for key.
func (s *Store) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error) {
	now := time.Now()
	windowStart := now.Add(-window)

	pipe := s.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", "("+strconv.FormatInt(windowStart.UnixMilli(), 10))
	card := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("prune rate limit window: %w", err)
	}

	count := int(card.Val())
	if count >= limit {
		// Denied requests are not recorded, so the window drains on its own.
		resetAt := now.Add(window)
		if oldest, err := s.client.ZRangeWithScores(ctx, key, 0, 0).Result(); err == nil && len(oldest) > 0 {
			resetAt = time.UnixMilli(int64(oldest[0].Score)).Add(window)
		}
		return &models.Result{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: retryAfterSeconds(now, resetAt),
		}, nil
	}

	pipe = s.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMilli()), Member: newMember(now)})
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("record rate limit entry: %w", err)
	}

	return &models.Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - count - 1,
		ResetAt:   now.Add(window),
	}, nil
}

// Clear deletes the whole window for a key.
func (s *Store) Clear(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("clear rate limit window: %w", err)
	}
	return nil
}

// newMember builds a unique sorted-set member for a request accepted at now.
// The random fraction disambiguates requests that share a millisecond, since
// set members must be unique even when scores collide.
func newMember(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + strconv.FormatFloat(rand.Float64(), 'f', -1, 64)
}

func retryAfterSeconds(now, resetAt time.Time) int {
	secs := int(math.Ceil(resetAt.Sub(now).Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}
