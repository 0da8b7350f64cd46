package tokenstore

import (
	"context"
	"sync"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps the tokens for the life of the process only.
type MemoryStore struct {
	pair *TokenPair
	lock sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get(_ context.Context) (*TokenPair, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.pair == nil || s.pair.IsZero() {
		return nil, ErrNotFound
	}
	p := *s.pair
	return &p, nil
}

func (s *MemoryStore) Set(_ context.Context, pair TokenPair) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.pair = &pair
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.pair = nil
	return nil
}
