package server

import (
	"errors"
	"net/http"

	"github.com/bobmcallan/stockpin/internal/models"
)

// userProfile is the public view of an account. The password hash is never
// serialized out of the storage layer.
type userProfile struct {
	Username  string   `json:"username"`
	Roles     []string `json:"roles"`
	CreatedAt string   `json:"created_at"`
}

func profileOf(u *models.User) userProfile {
	return userProfile{
		Username:  u.Username,
		Roles:     u.Roles,
		CreatedAt: u.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// handleCurrentUser returns the authenticated caller's own profile.
func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	id := s.requireAuth(w, r)
	if id == nil {
		return
	}

	user, err := s.app.Storage.UserStore().GetUser(r.Context(), id.Username)
	if err != nil {
		s.logger.Error().Err(err).Str("username", id.Username).Msg("Failed to load current user")
		WriteError(w, http.StatusInternalServerError, "Failed to load user")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"data":   profileOf(user),
	})
}

// handleUserByName returns another account's public profile. Requires
// authentication so anonymous callers cannot probe for usernames.
func (s *Server) handleUserByName(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if s.requireAuth(w, r) == nil {
		return
	}

	username := PathParam(r, "/api/users/", "")
	if username == "" {
		WriteError(w, http.StatusBadRequest, "Username is required")
		return
	}
	if username == "me" {
		s.handleCurrentUser(w, r)
		return
	}

	user, err := s.app.Storage.UserStore().GetUser(r.Context(), username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "User not found")
			return
		}
		s.logger.Error().Err(err).Str("username", username).Msg("Failed to load user")
		WriteError(w, http.StatusInternalServerError, "Failed to load user")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"data":   profileOf(user),
	})
}
