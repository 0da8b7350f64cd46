package devserver

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-storefront-session/claims"
	"github.com/jrsteele09/go-storefront-session/customers"
)

func (s *Server) GetMeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.currentCustomer(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, profile(user))
	}
}

func (s *Server) UpdateMeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.currentCustomer(w, r)
		if !ok {
			return
		}
		var req customers.UpdateProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
			writeJSONError(w, "name is required", http.StatusBadRequest)
			return
		}

		user.Name = strings.TrimSpace(req.Name)
		user.Phone = req.Phone
		user.UpdatedAt = NowTimeFunc()
		if err := s.users.Update(user); err != nil {
			writeJSONError(w, "customer not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, profile(user))
	}
}

func (s *Server) ChangePasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.currentCustomer(w, r)
		if !ok {
			return
		}
		var req customers.ChangePasswordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, "invalid body", http.StatusBadRequest)
			return
		}
		if !CheckPasswordHash(req.CurrentPassword, user.PasswordHash) {
			writeJSONError(w, "current password is incorrect", http.StatusBadRequest)
			return
		}
		if err := ValidatePasswordStrength(req.NewPassword); err != nil {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}

		hash, err := HashPassword(req.NewPassword)
		if err != nil {
			writeJSONError(w, "internal error", http.StatusInternalServerError)
			return
		}
		user.PasswordHash = hash
		user.UpdatedAt = NowTimeFunc()
		if err := s.users.Update(user); err != nil {
			writeJSONError(w, "customer not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
	}
}

// currentCustomer loads the authenticated user and rejects anyone who is not a customer.
func (s *Server) currentCustomer(w http.ResponseWriter, r *http.Request) (*User, bool) {
	if roleFromContext(r.Context()) != claims.RoleCustomer {
		writeJSONError(w, "customers only", http.StatusForbidden)
		return nil, false
	}
	id, ok := userIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "unauthorized", http.StatusUnauthorized)
		return nil, false
	}
	user, err := s.users.GetByID(id)
	if err != nil {
		writeJSONError(w, "customer not found", http.StatusNotFound)
		return nil, false
	}
	return user, true
}

func profile(u *User) customers.Profile {
	return customers.Profile{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Phone:     u.Phone,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
