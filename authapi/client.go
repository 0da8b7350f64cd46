package authapi

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/jrsteele09/go-storefront-session/internal/errors"
	"github.com/jrsteele09/go-storefront-session/internal/httpjson"
	"github.com/jrsteele09/go-storefront-session/tokenstore"
	"github.com/pkg/errors"
)

// Client calls the auth endpoints. Its http.Client is normally backed by the dispatcher, which
// binds every call to the cancellation scope and leaves public endpoints unauthenticated.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, kind Kind, creds Credentials) (tokenstore.TokenPair, error) {
	var pair tokenstore.TokenPair
	err := httpjson.Do(ctx, c.http, httpjson.Request{
		Method: http.MethodPost,
		URL:    c.baseURL + kind.path(),
		Body:   creds,
	}, &pair)
	switch httpjson.StatusCode(err) {
	case 0:
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		return tokenstore.TokenPair{}, apperrors.Mark(err, ErrInvalidCredentials, "[Login]")
	}
	if err != nil {
		return tokenstore.TokenPair{}, err
	}
	return pair, nil
}

// Refresh exchanges a refresh token for a new pair. Any 4xx means the refresh token is no
// longer usable and is reported as ErrRefreshRejected.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (tokenstore.TokenPair, error) {
	var pair tokenstore.TokenPair
	err := httpjson.Do(ctx, c.http, httpjson.Request{
		Method: http.MethodPost,
		URL:    c.baseURL + PathRefresh,
		Body:   RefreshRequest{RefreshToken: refreshToken},
	}, &pair)
	if status := httpjson.StatusCode(err); status >= 400 && status < 500 {
		return tokenstore.TokenPair{}, apperrors.Mark(err, ErrRefreshRejected, "[Refresh]")
	}
	if err != nil {
		return tokenstore.TokenPair{}, err
	}
	if pair.AccessToken == "" {
		return tokenstore.TokenPair{}, errors.Wrap(ErrRefreshRejected, "[Refresh] empty access token in response")
	}
	return pair, nil
}

// Logout revokes refreshToken, or every session of the user when allSessions is set.
// accessToken is sent explicitly because the caller may already be clearing the store.
func (c *Client) Logout(ctx context.Context, accessToken, refreshToken string, allSessions bool) error {
	u := c.baseURL + PathLogout
	if allSessions {
		u += "?" + url.Values{"all": {"true"}}.Encode()
	}

	header := http.Header{}
	if accessToken != "" {
		header.Set("Authorization", "Bearer "+accessToken)
	}

	err := httpjson.Do(ctx, c.http, httpjson.Request{
		Method: http.MethodPost,
		URL:    u,
		Body:   LogoutRequest{RefreshToken: refreshToken},
		Header: header,
	}, nil)
	if httpjson.StatusCode(err) != 0 {
		return apperrors.Mark(err, ErrLogoutFailed, "[Logout]")
	}
	return err
}

// Register creates a customer account. It does not sign the customer in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (CustomerRegistered, error) {
	var out CustomerRegistered
	if err := httpjson.Do(ctx, c.http, httpjson.Request{
		Method: http.MethodPost,
		URL:    c.baseURL + PathRegisterCustomer,
		Body:   req,
	}, &out); err != nil {
		return CustomerRegistered{}, err
	}
	return out, nil
}
