package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Server.Port != 8095 {
		t.Errorf("expected default port 8095, got %d", cfg.Server.Port)
	}
	if cfg.Storage.Backend != "file" {
		t.Errorf("expected default backend file, got %q", cfg.Storage.Backend)
	}
	if cfg.Auth.GetTokenExpiry() != 24*time.Hour {
		t.Errorf("expected default expiry 24h, got %v", cfg.Auth.GetTokenExpiry())
	}
}

func TestLoadConfig_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stockpin.toml")
	content := `
environment = "staging"

[server]
port = 9000

[auth]
jwt_secret = "file-secret"
token_expiry = "2h"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("STOCKPIN_PORT", "9100")
	t.Setenv("STOCKPIN_AUTH_JWT_SECRET", "env-secret")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Environment != "staging" {
		t.Errorf("expected environment staging, got %q", cfg.Environment)
	}
	// Env beats file, file beats default.
	if cfg.Server.Port != 9100 {
		t.Errorf("expected env port 9100, got %d", cfg.Server.Port)
	}
	if cfg.Auth.JWTSecret != "env-secret" {
		t.Errorf("expected env secret, got %q", cfg.Auth.JWTSecret)
	}
	if cfg.Auth.GetTokenExpiry() != 2*time.Hour {
		t.Errorf("expected 2h expiry, got %v", cfg.Auth.GetTokenExpiry())
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("expected default host retained, got %q", cfg.Server.Host)
	}
}

func TestLoadConfig_MissingFileIsSkipped(t *testing.T) {
	cfg, err := LoadConfig("/does/not/exist.toml")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.Port != 8095 {
		t.Errorf("expected defaults for missing file, got port %d", cfg.Server.Port)
	}
}

func TestGetTokenExpiry_Parsing(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Duration
	}{
		{"1h", time.Hour},
		{"0s", 0},
		{"-1h", -time.Hour},
		{"garbage", 24 * time.Hour},
		{"", 24 * time.Hour},
	}
	for _, tc := range cases {
		cfg := AuthConfig{TokenExpiry: tc.raw}
		if got := cfg.GetTokenExpiry(); got != tc.want {
			t.Errorf("GetTokenExpiry(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestIsProduction(t *testing.T) {
	for raw, want := range map[string]bool{
		"production":  true,
		"PROD":        true,
		"development": false,
		"":            false,
	} {
		cfg := Config{Environment: raw}
		if cfg.IsProduction() != want {
			t.Errorf("IsProduction(%q) = %v, want %v", raw, !want, want)
		}
	}
}
