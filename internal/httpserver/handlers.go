package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	domain "portfolio/backend/internal/domain/auth"
)

const adminRole = domain.RoleAdmin

// maxJSONBody bounds auth request bodies.
const maxJSONBody = 16 << 10

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Role:  string(u.Role),
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	token, user, err := s.authService.Login(r.Context(), domain.Credentials{
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			s.audit.log(AuditLoginFailure, r, slog.String("email", payload.Email))
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		s.logger.Error("login failed", "error", err)
		writeInternalError(w)
		return
	}

	s.cookies.writeSessionCookie(w, token)
	s.audit.log(AuditLoginSuccess, r, slog.String("user_id", user.ID))
	writeJSON(w, http.StatusOK, map[string]any{"user": toUserResponse(user)})
}

// handleLogout is not auth-gated: clearing the cookie always succeeds and a
// still-valid token is revoked on the way out.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := s.cookies.readSessionCookie(r); token != "" {
		if err := s.authService.Logout(r.Context(), token); err != nil {
			s.logger.Error("revoke session", "error", err)
		}
	}
	s.cookies.clearSessionCookie(w)
	s.audit.log(AuditLogout, r)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())
	user, err := s.authService.CurrentUser(r.Context(), identity)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			writeError(w, http.StatusUnauthorized, "Invalid or expired session")
			return
		}
		s.logger.Error("load current user", "error", err)
		writeInternalError(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": toUserResponse(user)})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	identity, _ := IdentityFromContext(r.Context())
	err := s.authService.ChangePassword(r.Context(), identity.UserID, payload.CurrentPassword, payload.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPasswordMismatch):
			writeError(w, http.StatusBadRequest, "Current password is incorrect")
		case errors.Is(err, domain.ErrPasswordUnchanged):
			writeError(w, http.StatusBadRequest, "New password must be different from current password")
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "New password is required and must be at most 72 bytes")
		case errors.Is(err, domain.ErrUserNotFound):
			writeError(w, http.StatusUnauthorized, "Invalid or expired session")
		default:
			s.logger.Error("change password", "error", err)
			writeInternalError(w)
		}
		return
	}

	s.audit.log(AuditPasswordChanged, r)
	w.WriteHeader(http.StatusNoContent)
}
