package authapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/go-storefront-session/authapi"
	"github.com/stretchr/testify/require"
)

func newTestAPI(t *testing.T, h http.HandlerFunc) *authapi.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return authapi.New(srv.URL+"/", srv.Client())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestLoginUsesKindEndpoint(t *testing.T) {
	var gotPath string
	var gotBody authapi.Credentials
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.Empty(t, r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		writeJSON(w, http.StatusOK, map[string]any{"accessToken": "a", "refreshToken": "r", "accessExpiresInSeconds": 900})
	})

	pair, err := api.Login(context.Background(), authapi.KindAdmin, authapi.Credentials{Email: "a@b.com", Password: "secret"})
	require.NoError(t, err)
	require.Equal(t, authapi.PathLoginAdmin, gotPath)
	require.Equal(t, authapi.Credentials{Email: "a@b.com", Password: "secret"}, gotBody)
	require.Equal(t, "a", pair.AccessToken)
	require.Equal(t, "r", pair.RefreshToken)
	require.Equal(t, 900, pair.AccessExpiresInSeconds)

	_, err = api.Login(context.Background(), authapi.KindCustomer, authapi.Credentials{})
	require.NoError(t, err)
	require.Equal(t, authapi.PathLoginCustomer, gotPath)
}

func TestLoginInvalidCredentials(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "bad credentials"})
	})

	_, err := api.Login(context.Background(), authapi.KindCustomer, authapi.Credentials{Email: "a@b.com", Password: "nope"})
	require.ErrorIs(t, err, authapi.ErrInvalidCredentials)

	var statusErr *authapi.StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	require.Contains(t, statusErr.Body, "bad credentials")
}

func TestLoginServerErrorIsNotInvalidCredentials(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := api.Login(context.Background(), authapi.KindCustomer, authapi.Credentials{})
	require.Error(t, err)
	require.NotErrorIs(t, err, authapi.ErrInvalidCredentials)
}

func TestRefresh(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, authapi.PathRefresh, r.URL.Path)
		var body authapi.RefreshRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body.RefreshToken != "r1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"accessToken": "a2", "refreshToken": "r2"})
	})

	pair, err := api.Refresh(context.Background(), "r1")
	require.NoError(t, err)
	require.Equal(t, "a2", pair.AccessToken)

	_, err = api.Refresh(context.Background(), "expired")
	require.ErrorIs(t, err, authapi.ErrRefreshRejected)
}

func TestLogoutFlag(t *testing.T) {
	var queries []string
	var auth string
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, authapi.PathLogout, r.URL.Path)
		queries = append(queries, r.URL.RawQuery)
		auth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, api.Logout(context.Background(), "a1", "r1", false))
	require.NoError(t, api.Logout(context.Background(), "", "r1", true))
	require.Equal(t, []string{"", "all=true"}, queries)
	require.Empty(t, auth)
}

func TestLogoutFailure(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer expired", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
	})

	err := api.Logout(context.Background(), "expired", "r1", false)
	require.ErrorIs(t, err, authapi.ErrLogoutFailed)
}

func TestRegister(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, authapi.PathRegisterCustomer, r.URL.Path)
		var body authapi.RegisterRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(w, http.StatusCreated, authapi.CustomerRegistered{ID: 9, Email: body.Email, Name: body.Name})
	})

	out, err := api.Register(context.Background(), authapi.RegisterRequest{Name: "Ana", Email: "ana@b.com", Password: "pw"})
	require.NoError(t, err)
	require.Equal(t, authapi.CustomerRegistered{ID: 9, Email: "ana@b.com", Name: "Ana"}, out)
}

func TestPaths(t *testing.T) {
	require.True(t, authapi.IsPublic("/auth/login/customer"))
	require.True(t, authapi.IsPublic("/auth/refresh"))
	require.True(t, authapi.IsPublic("/public/customers"))
	require.False(t, authapi.IsPublic("/auth/logout"))
	require.False(t, authapi.IsPublic("/customers/me"))

	require.True(t, authapi.IsLogout("/auth/logout"))
	require.True(t, authapi.IsLogout("/api/v1/auth/logout"))
	require.False(t, authapi.IsLogout("/auth/refresh"))
}
