package tokenstore_test

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/go-storefront-session/tokenstore"
	"github.com/jrsteele09/go-storefront-session/tokenstore/storefake"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

var testPair = tokenstore.TokenPair{AccessToken: "a1", RefreshToken: "r1", AccessExpiresInSeconds: 900}

func newRedisStore(t *testing.T) (*tokenstore.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return tokenstore.NewRedisStore(client, "test:"), mr
}

func TestStores(t *testing.T) {
	backends := map[string]func(t *testing.T) tokenstore.Store{
		"file": func(t *testing.T) tokenstore.Store {
			return tokenstore.NewFileStore(filepath.Join(t.TempDir(), "nested", "session.json"))
		},
		"redis": func(t *testing.T) tokenstore.Store {
			s, _ := newRedisStore(t)
			return s
		},
		"memory": func(t *testing.T) tokenstore.Store {
			return tokenstore.NewMemoryStore()
		},
		"fake": func(t *testing.T) tokenstore.Store {
			return storefake.NewFakeTokenStore()
		},
	}

	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			_, err := s.Get(ctx)
			require.ErrorIs(t, err, tokenstore.ErrNotFound)

			require.NoError(t, s.Set(ctx, testPair))
			got, err := s.Get(ctx)
			require.NoError(t, err)
			require.Equal(t, "a1", got.AccessToken)
			require.Equal(t, "r1", got.RefreshToken)

			require.NoError(t, s.Set(ctx, tokenstore.TokenPair{AccessToken: "a2", RefreshToken: "r2"}))
			got, err = s.Get(ctx)
			require.NoError(t, err)
			require.Equal(t, "a2", got.AccessToken)
			require.Equal(t, "r2", got.RefreshToken)

			require.NoError(t, s.Clear(ctx))
			_, err = s.Get(ctx)
			require.ErrorIs(t, err, tokenstore.ErrNotFound)

			// Clearing an empty store is fine
			require.NoError(t, s.Clear(ctx))
		})
	}
}

func TestFileStoreLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s := tokenstore.NewFileStore(path)
	require.NoError(t, s.Set(context.Background(), testPair))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Equal(t, map[string]any{"accessToken": "a1", "refreshToken": "r1"}, raw)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStoreSurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, tokenstore.NewFileStore(path).Set(context.Background(), testPair))

	got, err := tokenstore.NewFileStore(path).Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "a1", got.AccessToken)
	require.Zero(t, got.AccessExpiresInSeconds)
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := tokenstore.NewFileStore(path).Get(context.Background())
	require.Error(t, err)
	require.NotErrorIs(t, err, tokenstore.ErrNotFound)
}

func TestRedisStoreLayout(t *testing.T) {
	s, mr := newRedisStore(t)
	require.NoError(t, s.Set(context.Background(), testPair))

	require.Equal(t, "a1", mr.HGet("test:session", "accessToken"))
	require.Equal(t, "r1", mr.HGet("test:session", "refreshToken"))
	keys, err := mr.HKeys("test:session")
	require.NoError(t, err)
	require.Len(t, keys, 2)
}

func TestOAuth2Conversion(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	prev := tokenstore.NowTimeFunc
	tokenstore.NowTimeFunc = func() time.Time { return now }
	t.Cleanup(func() { tokenstore.NowTimeFunc = prev })

	tok := testPair.OAuth2()
	require.Equal(t, "Bearer", tok.Type())
	require.Equal(t, now.Add(15*time.Minute), tok.Expiry)

	tok = tokenstore.TokenPair{AccessToken: "a"}.OAuth2()
	require.True(t, tok.Expiry.IsZero())
}

func TestTokenSource(t *testing.T) {
	ctx := context.Background()
	s := storefake.NewFakeTokenStore()

	_, err := tokenstore.TokenSource(ctx, s).Token()
	require.ErrorIs(t, err, tokenstore.ErrNotFound)

	require.NoError(t, s.Set(ctx, tokenstore.TokenPair{RefreshToken: "r-only"}))
	_, err = tokenstore.TokenSource(ctx, s).Token()
	require.ErrorIs(t, err, tokenstore.ErrNotFound)

	require.NoError(t, s.Set(ctx, testPair))
	tok, err := tokenstore.TokenSource(ctx, s).Token()
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, "http://example.com", nil)
	require.NoError(t, err)
	tok.SetAuthHeader(req)
	require.Equal(t, "Bearer a1", req.Header.Get("Authorization"))
}
