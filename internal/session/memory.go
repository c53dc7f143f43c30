package session

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryStore is a bounded, process-local store. Sessions are evicted when
// capacity is reached or their TTL elapses.
type MemoryStore struct {
	cache *expirable.LRU[string, *Session]
	now   func() time.Time
}

// NewMemoryStore creates a store holding at most capacity sessions.
func NewMemoryStore(capacity int, ttl time.Duration) (*MemoryStore, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("session capacity must be positive, got %d", capacity)
	}
	return &MemoryStore{
		cache: expirable.NewLRU[string, *Session](capacity, nil, ttl),
		now:   time.Now,
	}, nil
}

func (m *MemoryStore) Get(_ context.Context, userID string) (*Session, error) {
	s, ok := m.cache.Get(userID)
	if !ok {
		return nil, ErrNotFound
	}
	return clone(s), nil
}

func (m *MemoryStore) Put(_ context.Context, s *Session) error {
	if s == nil || s.UserID == "" {
		return fmt.Errorf("put session: user id is required")
	}
	stored := clone(s)
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = m.now().UTC()
	}
	m.cache.Add(stored.UserID, stored)
	return nil
}

// Len reports the number of live sessions.
func (m *MemoryStore) Len() int {
	return m.cache.Len()
}

func (m *MemoryStore) Close() error {
	m.cache.Purge()
	return nil
}
