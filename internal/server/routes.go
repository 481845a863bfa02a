package server

import "net/http"

// registerRoutes wires every HTTP endpoint onto the mux. Authentication and
// role checks happen inside the handlers; the bearer middleware only
// resolves identities.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Authentication
	mux.HandleFunc("/api/auth/register", s.handleAuthRegister)
	mux.HandleFunc("/api/auth/login", s.handleAuthLogin)
	mux.HandleFunc("/api/auth/validate", s.handleAuthValidate)

	// Favorites
	mux.HandleFunc("/api/favorites", s.handleFavorites)
	mux.HandleFunc("/api/favorites/", s.handleFavoriteByID)

	// Users
	mux.HandleFunc("/api/users/me", s.handleCurrentUser)
	mux.HandleFunc("/api/users/", s.handleUserByName)

	// Admin
	mux.HandleFunc("/api/admin/users", s.handleAdminUsers)
	mux.HandleFunc("/api/admin/users/", s.handleAdminUserByName)
}
