package devserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/jrsteele09/go-storefront-session/authapi"
	"github.com/jrsteele09/go-storefront-session/claims"
	"github.com/jrsteele09/go-storefront-session/tokenstore"
)

// LoginHandler signs in users whose role satisfies allowed. Anyone else gets the same 401 as a
// wrong password.
func (s *Server) LoginHandler(allowed func(claims.Role) bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds authapi.Credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds.Email == "" || creds.Password == "" {
			writeJSONError(w, "email and password are required", http.StatusBadRequest)
			return
		}

		user, err := s.users.GetByEmail(creds.Email)
		if err != nil || !CheckPasswordHash(creds.Password, user.PasswordHash) || !allowed(user.Role) {
			writeJSONError(w, "invalid credentials", http.StatusUnauthorized)
			return
		}

		pair, err := s.issueTokens(user)
		if err != nil {
			s.log.Err(err).Msg("failed to issue tokens")
			writeJSONError(w, "internal error", http.StatusInternalServerError)
			return
		}
		s.log.Debug().Int64("user_id", user.ID).Str("role", string(user.Role)).Msg("login")
		writeJSON(w, http.StatusOK, pair)
	}
}

// RefreshHandler rotates a refresh token: the presented one is consumed and a new pair issued.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authapi.RefreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
			writeJSONError(w, "refreshToken is required", http.StatusBadRequest)
			return
		}

		rt, err := s.refreshTokens.Consume(req.RefreshToken)
		if err != nil {
			writeJSONError(w, "invalid or expired refresh token", http.StatusUnauthorized)
			return
		}
		user, err := s.users.GetByID(rt.UserID)
		if err != nil {
			writeJSONError(w, "invalid or expired refresh token", http.StatusUnauthorized)
			return
		}

		pair, err := s.issueTokens(user)
		if err != nil {
			s.log.Err(err).Msg("failed to issue tokens")
			writeJSONError(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, pair)
	}
}

// LogoutHandler revokes the presented refresh token, or with ?all=true every refresh token of
// its owner. The access token is only consulted to find the owner when the refresh token is
// already gone.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authapi.LogoutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, "invalid body", http.StatusBadRequest)
			return
		}

		if r.URL.Query().Get("all") != "true" {
			s.refreshTokens.Revoke(req.RefreshToken)
			w.WriteHeader(http.StatusNoContent)
			return
		}

		userID, ok := s.refreshTokens.Owner(req.RefreshToken)
		if !ok {
			raw, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			user, err := s.accessTokens.Verify(raw)
			if !found || err != nil {
				writeJSONError(w, "unknown session", http.StatusUnauthorized)
				return
			}
			userID = user.ID
		}
		n := s.refreshTokens.RevokeAll(userID)
		s.log.Debug().Int64("user_id", userID).Int("revoked", n).Msg("logout all sessions")
		w.WriteHeader(http.StatusNoContent)
	}
}

// RegisterHandler creates a customer account.
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authapi.RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, "invalid body", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			writeJSONError(w, "name is required", http.StatusBadRequest)
			return
		}
		if _, err := mail.ParseAddress(req.Email); err != nil {
			writeJSONError(w, "a valid email is required", http.StatusBadRequest)
			return
		}
		if err := ValidatePasswordStrength(req.Password); err != nil {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}

		var phone *string
		if req.Phone != "" {
			phone = &req.Phone
		}
		user, err := s.createUser(req.Email, req.Password, req.Name, phone, claims.RoleCustomer)
		if errors.Is(err, ErrEmailTaken) {
			writeJSONError(w, err.Error(), http.StatusConflict)
			return
		}
		if err != nil {
			s.log.Err(err).Msg("failed to register customer")
			writeJSONError(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, authapi.CustomerRegistered{ID: user.ID, Email: user.Email, Name: user.Name})
	}
}

func (s *Server) issueTokens(user *User) (tokenstore.TokenPair, error) {
	access, err := s.accessTokens.Create(user)
	if err != nil {
		return tokenstore.TokenPair{}, err
	}
	refreshToken, err := s.refreshTokens.Create(user.ID)
	if err != nil {
		return tokenstore.TokenPair{}, err
	}
	return tokenstore.TokenPair{
		AccessToken:            access,
		RefreshToken:           refreshToken,
		AccessExpiresInSeconds: s.accessTokens.ExpiresInSeconds(),
	}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, description string, statusCode int) {
	writeJSON(w, statusCode, map[string]string{"error": description})
}
