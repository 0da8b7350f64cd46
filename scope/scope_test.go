package scope_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-storefront-session/scope"
	"github.com/stretchr/testify/require"
)

func TestAdvanceCancelsBoundContexts(t *testing.T) {
	s := scope.New()

	ctx, gen, release := s.Bind(context.Background())
	defer release()
	require.Equal(t, scope.Generation(1), gen)
	require.NoError(t, ctx.Err())

	next := s.Advance()
	require.Equal(t, scope.Generation(2), next)

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("bound context was not cancelled")
	}
	require.ErrorIs(t, context.Cause(ctx), scope.ErrSuperseded)
	require.True(t, scope.Superseded(ctx))
}

func TestNewBindingsUseNewGeneration(t *testing.T) {
	s := scope.New()
	s.Advance()

	ctx, gen, release := s.Bind(context.Background())
	defer release()
	require.Equal(t, scope.Generation(2), gen)
	require.NoError(t, ctx.Err())
}

func TestGenerationsStrictlyIncrease(t *testing.T) {
	s := scope.New()
	last := s.Current()
	for i := 0; i < 10; i++ {
		g := s.Advance()
		require.Greater(t, g, last)
		require.Equal(t, g, s.Current())
		last = g
	}
}

func TestReleaseDetaches(t *testing.T) {
	s := scope.New()
	ctx, _, release := s.Bind(context.Background())
	release()

	require.Error(t, ctx.Err())
	require.False(t, scope.Superseded(ctx))
}

func TestParentCancellationIsNotSuperseded(t *testing.T) {
	s := scope.New()
	parent, cancel := context.WithCancel(context.Background())
	ctx, _, release := s.Bind(parent)
	defer release()

	cancel()
	<-ctx.Done()
	require.False(t, scope.Superseded(ctx))
}

func TestCommitRequiresCurrentGeneration(t *testing.T) {
	s := scope.New()
	gen := s.Current()

	var ran int
	require.NoError(t, s.Commit(gen, func() error { ran++; return nil }))
	require.Equal(t, 1, ran)

	s.Advance()
	err := s.Commit(gen, func() error { ran++; return nil })
	require.ErrorIs(t, err, scope.ErrSuperseded)
	require.Equal(t, 1, ran)
}

func TestAdvanceWaitsForRunningCommit(t *testing.T) {
	s := scope.New()
	gen := s.Current()

	entered := make(chan struct{})
	finish := make(chan struct{})
	committed := make(chan error, 1)
	go func() {
		committed <- s.Commit(gen, func() error {
			close(entered)
			<-finish
			return nil
		})
	}()
	<-entered

	advanced := make(chan scope.Generation, 1)
	go func() { advanced <- s.Advance() }()

	select {
	case <-advanced:
		t.Fatal("advance finished while a commit was running")
	case <-time.After(20 * time.Millisecond):
	}

	close(finish)
	require.NoError(t, <-committed)
	require.Equal(t, gen+1, <-advanced)
}
