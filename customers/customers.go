// Package customers calls the profile endpoints of the signed-in customer.
package customers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-storefront-session/internal/httpjson"
	"github.com/pkg/errors"
)

const (
	PathMe         = "/customers/me"
	PathMePassword = "/customers/me/password"
)

type Profile struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type UpdateProfileRequest struct {
	Name  string  `json:"name"`
	Phone *string `json:"phone,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Service talks to the profile endpoints. Its http.Client is expected to be backed by the
// dispatcher so bearer tokens and refreshes are handled transparently.
type Service struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, httpClient *http.Client) *Service {
	return &Service{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

func (s *Service) GetMe(ctx context.Context) (Profile, error) {
	var p Profile
	if err := httpjson.Do(ctx, s.http, httpjson.Request{Method: http.MethodGet, URL: s.baseURL + PathMe}, &p); err != nil {
		return Profile{}, errors.Wrap(err, "[GetMe]")
	}
	return p, nil
}

func (s *Service) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (Profile, error) {
	var p Profile
	if err := httpjson.Do(ctx, s.http, httpjson.Request{Method: http.MethodPut, URL: s.baseURL + PathMe, Body: req}, &p); err != nil {
		return Profile{}, errors.Wrap(err, "[UpdateProfile]")
	}
	return p, nil
}

func (s *Service) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	var out struct {
		Status string `json:"status"`
	}
	err := httpjson.Do(ctx, s.http, httpjson.Request{
		Method: http.MethodPost,
		URL:    s.baseURL + PathMePassword,
		Body:   ChangePasswordRequest{CurrentPassword: currentPassword, NewPassword: newPassword},
	}, &out)
	return errors.Wrap(err, "[ChangePassword]")
}
