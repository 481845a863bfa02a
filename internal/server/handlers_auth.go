package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bobmcallan/stockpin/internal/common"
	"github.com/bobmcallan/stockpin/internal/models"
)

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleAuthRegister creates a new user account.
func (s *Server) handleAuthRegister(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req registerRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	if err := validateUsername(req.Username); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Password == "" {
		WriteError(w, http.StatusBadRequest, "Password is required")
		return
	}

	user, err := s.app.AuthService.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, models.ErrDuplicateUsername) {
			WriteErrorWithCode(w, http.StatusBadRequest, "Username is already taken", "duplicate_username")
			return
		}
		s.logger.Error().Err(err).Msg("Failed to register user")
		WriteError(w, http.StatusInternalServerError, "Failed to register user")
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"status": "ok",
		"data": map[string]interface{}{
			"username":   user.Username,
			"roles":      user.Roles,
			"created_at": user.CreatedAt,
		},
	})
}

// handleAuthLogin verifies credentials and issues a session token.
func (s *Server) handleAuthLogin(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req loginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		WriteError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	result, err := s.app.AuthService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			WriteError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		s.logger.Error().Err(err).Msg("Login failed")
		WriteError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"data":   result,
	})
}

// handleAuthValidate reports whether the caller's bearer token is valid.
// The token middleware has already resolved any valid token to an Identity,
// so a missing identity here means the token was absent, expired, or forged.
func (s *Server) handleAuthValidate(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	id := common.IdentityFromContext(r.Context())
	if id == nil {
		WriteError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"data": map[string]interface{}{
			"username": id.Username,
			"roles":    id.Roles,
		},
	})
}

func validateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return errors.New("Username is required")
	}
	if len(username) > 128 {
		return errors.New("Username must be 128 characters or fewer")
	}
	for _, c := range username {
		if c < 0x20 || c == 0x7f {
			return errors.New("Username contains invalid characters")
		}
	}
	return nil
}
