// Package scope provides generation-tagged cancellation. Every request binds to the current
// generation; Advance cancels everything bound to the previous one.
package scope

import (
	"context"
	"sync"

	apperrors "github.com/jrsteele09/go-storefront-session/internal/errors"
)

// ErrSuperseded is the cancellation cause of contexts whose generation was advanced.
var ErrSuperseded = apperrors.ErrSuperseded

// Generation identifies one cancellation epoch. Generations strictly increase.
type Generation uint64

type Scope struct {
	commit sync.RWMutex // held by Advance, shared by Commit
	mu     sync.Mutex
	gen    Generation
	ctx    context.Context
	cancel context.CancelCauseFunc
}

func New() *Scope {
	ctx, cancel := context.WithCancelCause(context.Background())
	return &Scope{gen: 1, ctx: ctx, cancel: cancel}
}

// Current returns the live generation.
func (s *Scope) Current() Generation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Bind derives a context from parent that is also cancelled, with cause ErrSuperseded, when
// the current generation is advanced. release must be called once the work is finished.
func (s *Scope) Bind(parent context.Context) (ctx context.Context, gen Generation, release func()) {
	s.mu.Lock()
	scopeCtx, gen := s.ctx, s.gen
	s.mu.Unlock()

	ctx, cancel := context.WithCancelCause(parent)
	stop := context.AfterFunc(scopeCtx, func() {
		cancel(context.Cause(scopeCtx))
	})
	return ctx, gen, func() {
		stop()
		cancel(nil)
	}
}

// Advance cancels every context bound to the current generation and starts the next one.
func (s *Scope) Advance() Generation {
	ctx, cancel := context.WithCancelCause(context.Background())

	s.commit.Lock()
	s.mu.Lock()
	prev := s.cancel
	s.gen++
	s.ctx, s.cancel = ctx, cancel
	gen := s.gen
	s.mu.Unlock()
	s.commit.Unlock()

	prev(ErrSuperseded)
	return gen
}

// Commit runs fn only while gen is still the current generation and returns ErrSuperseded
// otherwise. Advance waits for a running fn, so whatever fn writes is visible to work that
// starts after the advance.
func (s *Scope) Commit(gen Generation, fn func() error) error {
	s.commit.RLock()
	defer s.commit.RUnlock()
	if s.Current() != gen {
		return ErrSuperseded
	}
	return fn()
}

// Superseded reports whether ctx was cancelled by Advance.
func Superseded(ctx context.Context) bool {
	return ctx.Err() != nil && context.Cause(ctx) == ErrSuperseded
}
