package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bobmcallan/stockpin/internal/common"
	"github.com/bobmcallan/stockpin/internal/models"
)

const boughtDateLayout = "2006-01-02"

// requireAuth resolves the authenticated identity or writes 401.
func (s *Server) requireAuth(w http.ResponseWriter, r *http.Request) *common.Identity {
	id := common.IdentityFromContext(r.Context())
	if id == nil {
		WriteError(w, http.StatusUnauthorized, "Authentication required")
		return nil
	}
	return id
}

// requireRole resolves an identity holding the given role. Anonymous callers
// get 401, authenticated callers without the role get 403.
func (s *Server) requireRole(w http.ResponseWriter, r *http.Request, role string) *common.Identity {
	id := s.requireAuth(w, r)
	if id == nil {
		return nil
	}
	if !id.HasRole(role) {
		WriteError(w, http.StatusForbidden, "Insufficient permissions")
		return nil
	}
	return id
}

type favoriteRequest struct {
	Symbol string `json:"symbol"`
	models.FavoriteUpdate
}

// handleFavorites handles GET (list) and POST (add) on /api/favorites.
func (s *Server) handleFavorites(w http.ResponseWriter, r *http.Request) {
	id := s.requireAuth(w, r)
	if id == nil {
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.listFavorites(w, r, id)
	case http.MethodPost:
		s.addFavorite(w, r, id)
	default:
		w.Header().Set("Allow", "GET, POST")
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) listFavorites(w http.ResponseWriter, r *http.Request, id *common.Identity) {
	favorites, err := s.app.FavoriteService.List(r.Context(), id.Username)
	if err != nil {
		s.logger.Error().Err(err).Str("owner", id.Username).Msg("Failed to list favorites")
		WriteError(w, http.StatusInternalServerError, "Failed to list favorites")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"count":  len(favorites),
		"data":   favorites,
	})
}

func (s *Server) addFavorite(w http.ResponseWriter, r *http.Request, id *common.Identity) {
	var req favoriteRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Symbol) == "" {
		WriteError(w, http.StatusBadRequest, "Symbol is required")
		return
	}
	if !validBoughtDate(req.BoughtDate) {
		WriteError(w, http.StatusBadRequest, "Bought date must be formatted YYYY-MM-DD")
		return
	}

	fav := &models.FavoriteStock{
		Symbol:      req.Symbol,
		Bought:      req.Bought,
		BoughtDate:  req.BoughtDate,
		BoughtPrice: req.BoughtPrice,
		StopLoss:    req.StopLoss,
		TargetPrice: req.TargetPrice,
		Quantity:    req.Quantity,
		Notes:       req.Notes,
	}

	created, err := s.app.FavoriteService.Add(r.Context(), id.Username, fav)
	if err != nil {
		if errors.Is(err, models.ErrDuplicateSymbol) {
			WriteErrorWithCode(w, http.StatusConflict, "Symbol is already favorited", "duplicate_symbol")
			return
		}
		s.logger.Error().Err(err).Str("owner", id.Username).Msg("Failed to add favorite")
		WriteError(w, http.StatusInternalServerError, "Failed to add favorite")
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"status": "ok",
		"data":   created,
	})
}

// handleFavoriteByID handles GET, PUT and DELETE on /api/favorites/{id}.
func (s *Server) handleFavoriteByID(w http.ResponseWriter, r *http.Request) {
	id := s.requireAuth(w, r)
	if id == nil {
		return
	}

	favID := PathParam(r, "/api/favorites/", "")
	if favID == "" {
		WriteError(w, http.StatusBadRequest, "Favorite ID is required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.getFavorite(w, r, id, favID)
	case http.MethodPut:
		s.updateFavorite(w, r, id, favID)
	case http.MethodDelete:
		s.deleteFavorite(w, r, id, favID)
	default:
		w.Header().Set("Allow", "GET, PUT, DELETE")
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) getFavorite(w http.ResponseWriter, r *http.Request, id *common.Identity, favID string) {
	fav, err := s.app.FavoriteService.Get(r.Context(), id.Username, favID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Favorite not found")
			return
		}
		s.logger.Error().Err(err).Str("favorite", favID).Msg("Failed to get favorite")
		WriteError(w, http.StatusInternalServerError, "Failed to get favorite")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"data":   fav,
	})
}

func (s *Server) updateFavorite(w http.ResponseWriter, r *http.Request, id *common.Identity, favID string) {
	var upd models.FavoriteUpdate
	if !DecodeJSON(w, r, &upd) {
		return
	}
	if !validBoughtDate(upd.BoughtDate) {
		WriteError(w, http.StatusBadRequest, "Bought date must be formatted YYYY-MM-DD")
		return
	}

	fav, err := s.app.FavoriteService.Update(r.Context(), id.Username, favID, &upd)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Favorite not found")
			return
		}
		s.logger.Error().Err(err).Str("favorite", favID).Msg("Failed to update favorite")
		WriteError(w, http.StatusInternalServerError, "Failed to update favorite")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"data":   fav,
	})
}

func (s *Server) deleteFavorite(w http.ResponseWriter, r *http.Request, id *common.Identity, favID string) {
	if err := s.app.FavoriteService.Delete(r.Context(), id.Username, favID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Favorite not found")
			return
		}
		s.logger.Error().Err(err).Str("favorite", favID).Msg("Failed to delete favorite")
		WriteError(w, http.StatusInternalServerError, "Failed to delete favorite")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func validBoughtDate(date *string) bool {
	if date == nil || *date == "" {
		return true
	}
	_, err := time.Parse(boughtDateLayout, *date)
	return err == nil
}
