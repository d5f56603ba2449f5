package ports

import (
	"context"
	"time"

	"prepgate/internal/ratelimit/models"
)

// WindowStore provides the sliding-window log primitive over the shared
// key-value store. Implementations must be safe for concurrent use across
// multiple server processes.
type WindowStore interface {
	// Allow prunes entries older than the window, counts the survivors and,
	// if the count is below limit, records the current request. A rejected
	// request is never recorded, so it does not count against future windows.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error)

	// Clear deletes the whole window for a key. Used for test and ops reset.
	Clear(ctx context.Context, key string) error
}
