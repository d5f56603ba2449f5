package memory

import (
	"context"
	"math"
	"sync"
	"time"

	"prepgate/internal/ratelimit/models"
)

// Store implements ports.WindowStore with an in-memory sliding window.
// Not distributed: state lives in one process, so it only matches the Redis
// store's semantics for a single instance. Used for tests and local
// development when Redis is not configured.
type Store struct {
	mu      sync.Mutex
	windows map[string][]time.Time
}

func New() *Store {
	return &Store{windows: make(map[string][]time.Time)}
}

// Allow evaluates and, when permitted, records one request for key.
func (s *Store) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error) {
	now := time.Now()
	windowStart := now.Add(-window)

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.windows[key][:0]
	for _, ts := range s.windows[key] {
		if !ts.Before(windowStart) {
			kept = append(kept, ts)
		}
	}
	s.windows[key] = kept

	if len(kept) >= limit {
		resetAt := kept[0].Add(window)
		retry := int(math.Ceil(resetAt.Sub(now).Seconds()))
		if retry < 1 {
			retry = 1
		}
		return &models.Result{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: retry,
		}, nil
	}

	s.windows[key] = append(kept, now)
	return &models.Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(s.windows[key]),
		ResetAt:   now.Add(window),
	}, nil
}

// Clear deletes the whole window for a key.
func (s *Store) Clear(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, key)
	return nil
}
