// Package memory provides an in-process subscription store for tests and for
// development environments without a billing database.
package memory

import (
	"context"
	"sync"
	"time"

	"prepgate/internal/entitlement/models"
)

type Store struct {
	mu   sync.RWMutex
	subs map[string]models.Subscription
}

func New() *Store {
	return &Store{subs: make(map[string]models.Subscription)}
}

// Put stores or replaces the subscription for its user.
func (s *Store) Put(sub models.Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub.UserID] = sub
}

// Remove deletes any subscription held for the user.
func (s *Store) Remove(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, userID)
}

func (s *Store) IsSubscriber(_ context.Context, userID string) (bool, error) {
	s.mu.RLock()
	sub, ok := s.subs[userID]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	return sub.Entitled(time.Now()), nil
}
