package storefake

import (
	"context"
	"sync/atomic"

	"github.com/jrsteele09/go-storefront-session/tokenstore"
)

var _ tokenstore.Store = (*FakeTokenStore)(nil)

// FakeTokenStore is an in-memory Store that also counts writes.
type FakeTokenStore struct {
	*tokenstore.MemoryStore
	setCalls   atomic.Int32
	clearCalls atomic.Int32
}

func NewFakeTokenStore(initial ...tokenstore.TokenPair) *FakeTokenStore {
	s := &FakeTokenStore{MemoryStore: tokenstore.NewMemoryStore()}
	if len(initial) > 0 {
		_ = s.MemoryStore.Set(context.Background(), initial[0])
	}
	return s
}

func (s *FakeTokenStore) Set(ctx context.Context, pair tokenstore.TokenPair) error {
	s.setCalls.Add(1)
	return s.MemoryStore.Set(ctx, pair)
}

func (s *FakeTokenStore) Clear(ctx context.Context) error {
	s.clearCalls.Add(1)
	return s.MemoryStore.Clear(ctx)
}

func (s *FakeTokenStore) SetCalls() int {
	return int(s.setCalls.Load())
}

func (s *FakeTokenStore) ClearCalls() int {
	return int(s.clearCalls.Load())
}
