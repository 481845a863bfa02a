package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bobmcallan/stockpin/internal/app"
	"github.com/bobmcallan/stockpin/internal/common"
	"github.com/bobmcallan/stockpin/internal/models"
	"github.com/bobmcallan/stockpin/internal/services/auth"
	"github.com/bobmcallan/stockpin/internal/services/favorites"
	"github.com/bobmcallan/stockpin/internal/storage"
)

func newTestServerWithStorage(t *testing.T) *Server {
	t.Helper()
	logger := common.NewSilentLogger()
	cfg := common.NewDefaultConfig()
	cfg.Storage.Backend = storage.BackendFile
	cfg.Storage.Path = t.TempDir()
	cfg.Auth.JWTSecret = "test-jwt-secret"
	cfg.Auth.TokenExpiry = "1h"

	mgr, err := storage.NewStorageManager(logger, cfg)
	if err != nil {
		t.Fatalf("NewStorageManager failed: %v", err)
	}
	t.Cleanup(func() { mgr.Close() })

	tokens := auth.NewTokenService(&cfg.Auth)
	a := &app.App{
		Config:          cfg,
		Logger:          logger,
		Storage:         mgr,
		TokenService:    tokens,
		AuthService:     auth.NewService(mgr, tokens, logger),
		FavoriteService: favorites.NewService(mgr, logger),
		StartupTime:     time.Now(),
	}
	return NewServer(a)
}

func doRequest(t *testing.T, h http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func registerAndLogin(t *testing.T, h http.Handler, username, password string) string {
	t.Helper()
	rec := doRequest(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"password": password,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d: %s", username, rec.Code, rec.Body.String())
	}

	rec = doRequest(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d: %s", username, rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	data := env["data"].(map[string]interface{})
	token, _ := data["token"].(string)
	if token == "" {
		t.Fatal("expected login to return a token")
	}
	return token
}

// --- Registration and login ---

func TestRegister_DuplicateUsername(t *testing.T) {
	srv := newTestServerWithStorage(t)
	h := srv.Handler()

	rec := doRequest(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice", "password": "pw1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	rec = doRequest(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice", "password": "pw2",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for duplicate username, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env["code"] != "duplicate_username" {
		t.Errorf("expected code duplicate_username, got %v", env["code"])
	}
}

func TestRegister_Validation(t *testing.T) {
	srv := newTestServerWithStorage(t)
	h := srv.Handler()

	cases := []map[string]string{
		{"username": "", "password": "pw"},
		{"username": "alice", "password": ""},
		{"username": strings.Repeat("x", 200), "password": "pw"},
		{"username": "al\x00ice", "password": "pw"},
	}
	for _, body := range cases {
		rec := doRequest(t, h, http.MethodPost, "/api/auth/register", "", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("register %v: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	srv := newTestServerWithStorage(t)
	h := srv.Handler()
	registerAndLogin(t, h, "alice", "correct-password")

	// Wrong password and unknown user look identical.
	for _, body := range []map[string]string{
		{"username": "alice", "password": "wrong"},
		{"username": "nobody", "password": "whatever"},
	} {
		rec := doRequest(t, h, http.MethodPost, "/api/auth/login", "", body)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("login %v: expected 401, got %d", body, rec.Code)
		}
		env := decodeEnvelope(t, rec)
		if env["error"] != "Invalid credentials" {
			t.Errorf("expected uniform error message, got %v", env["error"])
		}
	}
}

func TestValidate_Token(t *testing.T) {
	srv := newTestServerWithStorage(t)
	h := srv.Handler()
	token := registerAndLogin(t, h, "alice", "pw")

	rec := doRequest(t, h, http.MethodGet, "/api/auth/validate", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	data := env["data"].(map[string]interface{})
	if data["username"] != "alice" {
		t.Errorf("expected username alice, got %v", data["username"])
	}

	for _, bad := range []string{"", "garbage-token"} {
		rec = doRequest(t, h, http.MethodGet, "/api/auth/validate", bad, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("validate with token %q: expected 401, got %d", bad, rec.Code)
		}
	}
}

// --- Favorites ---

func TestFavorites_FullLifecycle(t *testing.T) {
	srv := newTestServerWithStorage(t)
	h := srv.Handler()
	token := registerAndLogin(t, h, "alice", "pw")

	// Empty list to start.
	rec := doRequest(t, h, http.MethodGet, "/api/favorites", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env["count"].(float64) != 0 {
		t.Errorf("expected empty list, got count=%v", env["count"])
	}

	// Add.
	rec = doRequest(t, h, http.MethodPost, "/api/favorites", token, map[string]interface{}{
		"symbol":       "aapl",
		"bought":       true,
		"bought_date":  "2026-01-15",
		"bought_price": "190.50",
		"quantity":     10,
		"notes":        "long term hold",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeEnvelope(t, rec)["data"].(map[string]interface{})
	favID := created["id"].(string)
	if created["symbol"] != "AAPL" {
		t.Errorf("expected uppercased symbol, got %v", created["symbol"])
	}
	if created["owner"] != "alice" {
		t.Errorf("expected owner alice, got %v", created["owner"])
	}

	// Get.
	rec = doRequest(t, h, http.MethodGet, "/api/favorites/"+favID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rec.Code)
	}

	// Update to not-bought clears purchase details.
	rec = doRequest(t, h, http.MethodPut, "/api/favorites/"+favID, token, map[string]interface{}{
		"bought": false,
		"notes":  "sold out",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	updated := decodeEnvelope(t, rec)["data"].(map[string]interface{})
	if updated["bought"] != false {
		t.Errorf("expected bought=false, got %v", updated["bought"])
	}
	if _, present := updated["bought_price"]; present {
		t.Errorf("expected purchase details cleared, got %v", updated)
	}

	// Delete.
	rec = doRequest(t, h, http.MethodDelete, "/api/favorites/"+favID, token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}
	rec = doRequest(t, h, http.MethodGet, "/api/favorites/"+favID, token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: expected 404, got %d", rec.Code)
	}
}

func TestFavorites_RequireAuth(t *testing.T) {
	srv := newTestServerWithStorage(t)
	h := srv.Handler()

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/favorites"},
		{http.MethodPost, "/api/favorites"},
		{http.MethodGet, "/api/favorites/some-id"},
		{http.MethodPut, "/api/favorites/some-id"},
		{http.MethodDelete, "/api/favorites/some-id"},
	} {
		rec := doRequest(t, h, tc.method, tc.path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s anonymous: expected 401, got %d", tc.method, tc.path, rec.Code)
		}
		// A forged token is treated the same as no token.
		rec = doRequest(t, h, tc.method, tc.path, "forged.token.value", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s forged token: expected 401, got %d", tc.method, tc.path, rec.Code)
		}
	}
}

func TestFavorites_CrossUserIsNotFound(t *testing.T) {
	srv := newTestServerWithStorage(t)
	h := srv.Handler()
	aliceToken := registerAndLogin(t, h, "alice", "pw")
	bobToken := registerAndLogin(t, h, "bob", "pw")

	rec := doRequest(t, h, http.MethodPost, "/api/favorites", aliceToken, map[string]interface{}{
		"symbol": "AAPL",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add: expected 201, got %d", rec.Code)
	}
	favID := decodeEnvelope(t, rec)["data"].(map[string]interface{})["id"].(string)

	// Bob sees alice's favourite exactly like a nonexistent one.
	for _, tc := range []struct{ method string }{
		{http.MethodGet}, {http.MethodDelete},
	} {
		rec = doRequest(t, h, tc.method, "/api/favorites/"+favID, bobToken, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s cross-user: expected 404, got %d", tc.method, rec.Code)
		}
	}
	rec = doRequest(t, h, http.MethodPut, "/api/favorites/"+favID, bobToken, map[string]interface{}{"bought": true})
	if rec.Code != http.StatusNotFound {
		t.Errorf("PUT cross-user: expected 404, got %d", rec.Code)
	}

	// Still intact for alice.
	rec = doRequest(t, h, http.MethodGet, "/api/favorites/"+favID, aliceToken, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("owner get after cross-user attempts: expected 200, got %d", rec.Code)
	}
}

func TestFavorites_DuplicateSymbolConflict(t *testing.T) {
	srv := newTestServerWithStorage(t)
	h := srv.Handler()
	token := registerAndLogin(t, h, "alice", "pw")

	rec := doRequest(t, h, http.MethodPost, "/api/favorites", token, map[string]interface{}{"symbol": "AAPL"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add: expected 201, got %d", rec.Code)
	}
	rec = doRequest(t, h, http.MethodPost, "/api/favorites", token, map[string]interface{}{"symbol": "aapl"})
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 for duplicate symbol, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env["code"] != "duplicate_symbol" {
		t.Errorf("expected code duplicate_symbol, got %v", env["code"])
	}
}

func TestFavorites_BadBoughtDate(t *testing.T) {
	srv := newTestServerWithStorage(t)
	h := srv.Handler()
	token := registerAndLogin(t, h, "alice", "pw")

	rec := doRequest(t, h, http.MethodPost, "/api/favorites", token, map[string]interface{}{
		"symbol":      "AAPL",
		"bought":      true,
		"bought_date": "15/01/2026",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed date, got %d", rec.Code)
	}

	rec = doRequest(t, h, http.MethodPost, "/api/favorites", token, map[string]interface{}{
		"symbol": "",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty symbol, got %d", rec.Code)
	}
}

// --- Users ---

func TestUsers_Profiles(t *testing.T) {
	srv := newTestServerWithStorage(t)
	h := srv.Handler()
	aliceToken := registerAndLogin(t, h, "alice", "pw")
	registerAndLogin(t, h, "bob", "pw")

	rec := doRequest(t, h, http.MethodGet, "/api/users/me", aliceToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", rec.Code)
	}
	data := decodeEnvelope(t, rec)["data"].(map[string]interface{})
	if data["username"] != "alice" {
		t.Errorf("expected username alice, got %v", data["username"])
	}
	if _, present := data["password_hash"]; present {
		t.Error("profile must not expose the password hash")
	}

	rec = doRequest(t, h, http.MethodGet, "/api/users/bob", aliceToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("other profile: expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Error("profile body must not mention passwords")
	}

	rec = doRequest(t, h, http.MethodGet, "/api/users/nobody", aliceToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown profile: expected 404, got %d", rec.Code)
	}

	// Anonymous callers cannot probe profiles.
	rec = doRequest(t, h, http.MethodGet, "/api/users/bob", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous profile: expected 401, got %d", rec.Code)
	}
}

// --- Admin ---

func makeAdmin(t *testing.T, srv *Server, username, password string) {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	now := time.Now().UTC()
	err = srv.app.Storage.UserStore().SaveUser(context.Background(), &models.User{
		Username:     username,
		PasswordHash: hash,
		Roles:        []string{models.RoleUser, models.RoleAdmin},
		CreatedAt:    now,
		ModifiedAt:   now,
	})
	if err != nil {
		t.Fatalf("SaveUser failed: %v", err)
	}
}

func login(t *testing.T, h http.Handler, username, password string) string {
	t.Helper()
	rec := doRequest(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username, "password": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d", username, rec.Code)
	}
	return decodeEnvelope(t, rec)["data"].(map[string]interface{})["token"].(string)
}

func TestAdmin_Guards(t *testing.T) {
	srv := newTestServerWithStorage(t)
	h := srv.Handler()
	userToken := registerAndLogin(t, h, "alice", "pw")

	rec := doRequest(t, h, http.MethodGet, "/api/admin/users", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous admin list: expected 401, got %d", rec.Code)
	}
	rec = doRequest(t, h, http.MethodGet, "/api/admin/users", userToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-admin list: expected 403, got %d", rec.Code)
	}
	rec = doRequest(t, h, http.MethodDelete, "/api/admin/users/alice", userToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-admin delete: expected 403, got %d", rec.Code)
	}
}

func TestAdmin_ListAndDeleteUser(t *testing.T) {
	srv := newTestServerWithStorage(t)
	h := srv.Handler()

	aliceToken := registerAndLogin(t, h, "alice", "pw")
	makeAdmin(t, srv, "root", "admin-pw")
	adminToken := login(t, h, "root", "admin-pw")

	// Alice has favourites to cascade.
	doRequest(t, h, http.MethodPost, "/api/favorites", aliceToken, map[string]interface{}{"symbol": "AAPL"})
	doRequest(t, h, http.MethodPost, "/api/favorites", aliceToken, map[string]interface{}{"symbol": "MSFT"})

	rec := doRequest(t, h, http.MethodGet, "/api/admin/users", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin list: expected 200, got %d", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env["count"].(float64) != 2 {
		t.Errorf("expected 2 users, got count=%v", env["count"])
	}

	rec = doRequest(t, h, http.MethodDelete, "/api/admin/users/alice", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin delete: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	data := decodeEnvelope(t, rec)["data"].(map[string]interface{})
	if data["favorites_removed"].(float64) != 2 {
		t.Errorf("expected 2 favorites removed, got %v", data["favorites_removed"])
	}

	// Account is gone; the old token no longer resolves.
	rec = doRequest(t, h, http.MethodGet, "/api/favorites", aliceToken, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("deleted user's token: expected 401, got %d", rec.Code)
	}

	rec = doRequest(t, h, http.MethodDelete, "/api/admin/users/nobody", adminToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("delete unknown user: expected 404, got %d", rec.Code)
	}
}

// --- System ---

func TestSystemEndpoints(t *testing.T) {
	srv := newTestServerWithStorage(t)
	h := srv.Handler()

	rec := doRequest(t, h, http.MethodGet, "/api/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("health: expected 200, got %d", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env["status"] != "ok" {
		t.Errorf("health: expected status ok, got %v", env["status"])
	}

	rec = doRequest(t, h, http.MethodGet, "/api/version", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("version: expected 200, got %d", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServerWithStorage(t)
	h := srv.Handler()

	rec := doRequest(t, h, http.MethodDelete, "/api/auth/register", "", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}
