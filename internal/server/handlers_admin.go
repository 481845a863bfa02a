package server

import (
	"errors"
	"net/http"

	"github.com/bobmcallan/stockpin/internal/models"
)

// handleAdminUsers lists every registered username. Admin only.
func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if s.requireRole(w, r, models.RoleAdmin) == nil {
		return
	}

	usernames, err := s.app.Storage.UserStore().ListUsernames(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list users")
		WriteError(w, http.StatusInternalServerError, "Failed to list users")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"count":  len(usernames),
		"data":   usernames,
	})
}

// handleAdminUserByName deletes an account and all of its favorites.
// Admin only.
func (s *Server) handleAdminUserByName(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}
	admin := s.requireRole(w, r, models.RoleAdmin)
	if admin == nil {
		return
	}

	username := PathParam(r, "/api/admin/users/", "")
	if username == "" {
		WriteError(w, http.StatusBadRequest, "Username is required")
		return
	}

	if err := s.app.Storage.UserStore().DeleteUser(r.Context(), username); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "User not found")
			return
		}
		s.logger.Error().Err(err).Str("username", username).Msg("Failed to delete user")
		WriteError(w, http.StatusInternalServerError, "Failed to delete user")
		return
	}

	removed, err := s.app.FavoriteService.DeleteAllForOwner(r.Context(), username)
	if err != nil {
		// Account is gone; report success but log the orphaned favorites.
		s.logger.Error().Err(err).Str("username", username).Msg("Failed to delete favorites for removed user")
	}

	s.logger.Info().
		Str("admin", admin.Username).
		Str("username", username).
		Int("favorites_removed", removed).
		Msg("User account deleted")

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"data": map[string]interface{}{
			"username":          username,
			"favorites_removed": removed,
		},
	})
}
