// Package cache decorates a subscription store with a bounded per-user TTL
// cache. Billing state changes rarely next to request volume, so short TTLs
// absorb most lookups while keeping revocations timely. Negative results use a
// shorter TTL so a fresh purchase unlocks access quickly.
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"prepgate/internal/entitlement/ports"
)

const (
	defaultPositiveTTL = 60 * time.Second
	defaultNegativeTTL = 30 * time.Second
	defaultMaxEntries  = 1000
)

type entry struct {
	userID    string
	value     bool
	expiresAt time.Time
}

// Cache is a SubscriptionStore that remembers recent answers. Least recently
// used entries are evicted once the bound is reached.
type Cache struct {
	next        ports.SubscriptionStore
	positiveTTL time.Duration
	negativeTTL time.Duration
	maxEntries  int
	now         func() time.Time

	mu      sync.Mutex
	order   *list.List // back is most recently used
	entries map[string]*list.Element
}

type Option func(*Cache)

// WithTTLs overrides the lifetimes for subscriber and non-subscriber answers.
func WithTTLs(positive, negative time.Duration) Option {
	return func(c *Cache) {
		c.positiveTTL = positive
		c.negativeTTL = negative
	}
}

// WithMaxEntries bounds the number of cached users.
func WithMaxEntries(n int) Option {
	return func(c *Cache) {
		c.maxEntries = n
	}
}

// WithClock fixes the expiry clock for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

func New(next ports.SubscriptionStore, opts ...Option) *Cache {
	c := &Cache{
		next:        next,
		positiveTTL: defaultPositiveTTL,
		negativeTTL: defaultNegativeTTL,
		maxEntries:  defaultMaxEntries,
		now:         time.Now,
		order:       list.New(),
		entries:     make(map[string]*list.Element),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) IsSubscriber(ctx context.Context, userID string) (bool, error) {
	if value, ok := c.get(userID); ok {
		return value, nil
	}

	// Errors are never cached: the next request should hit the store again
	// rather than pin a possibly transient failure for a full TTL.
	value, err := c.next.IsSubscriber(ctx, userID)
	if err != nil {
		return false, err
	}

	c.put(userID, value)
	return value, nil
}

// Invalidate drops the cached answer for a user, for callers that learn of a
// billing change out of band (webhooks, support tooling).
func (c *Cache) Invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[userID]; ok {
		c.remove(elem)
	}
}

func (c *Cache) get(userID string) (bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[userID]
	if !ok {
		return false, false
	}
	ent := elem.Value.(*entry)
	if !c.now().Before(ent.expiresAt) {
		c.remove(elem)
		return false, false
	}
	c.order.MoveToBack(elem)
	return ent.value, true
}

func (c *Cache) put(userID string, value bool) {
	ttl := c.negativeTTL
	if value {
		ttl = c.positiveTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[userID]; ok {
		c.remove(elem)
	}
	for len(c.entries) >= c.maxEntries {
		c.remove(c.order.Front())
	}
	ent := &entry{userID: userID, value: value, expiresAt: c.now().Add(ttl)}
	c.entries[userID] = c.order.PushBack(ent)
}

// remove expects c.mu to be held.
func (c *Cache) remove(elem *list.Element) {
	c.order.Remove(elem)
	delete(c.entries, elem.Value.(*entry).userID)
}
