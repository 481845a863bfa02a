// Package app wires configuration, storage and services into a running core.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/stockpin/internal/common"
	"github.com/bobmcallan/stockpin/internal/interfaces"
	"github.com/bobmcallan/stockpin/internal/services/auth"
	"github.com/bobmcallan/stockpin/internal/services/favorites"
	"github.com/bobmcallan/stockpin/internal/storage"
)

// App holds all initialized services and storage. It is the shared core
// used by cmd/stockpin-server and by the handler tests.
type App struct {
	Config          *common.Config
	Logger          *common.Logger
	Storage         interfaces.StorageManager
	TokenService    interfaces.TokenService
	AuthService     interfaces.AuthService
	FavoriteService interfaces.FavoriteService
	StartupTime     time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes configuration, logging, storage and services.
// configPath may be empty, in which case the default resolution logic is
// used: STOCKPIN_CONFIG, then stockpin.toml beside the binary, then
// config/stockpin.toml.
func NewApp(configPath string) (*App, error) {
	common.LoadVersionFromFile()

	binDir := getBinaryDir()

	if configPath == "" {
		configPath = os.Getenv("STOCKPIN_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "stockpin.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/stockpin.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative storage path to binary directory
	if config.Storage.Path != "" && !filepath.IsAbs(config.Storage.Path) {
		config.Storage.Path = filepath.Join(binDir, config.Storage.Path)
	}

	logger := common.NewLogger(config.Logging.Level)

	storageManager, err := storage.NewStorageManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	tokenService := auth.NewTokenService(&config.Auth)

	a := &App{
		Config:          config,
		Logger:          logger,
		Storage:         storageManager,
		TokenService:    tokenService,
		AuthService:     auth.NewService(storageManager, tokenService, logger),
		FavoriteService: favorites.NewService(storageManager, logger),
		StartupTime:     time.Now(),
	}

	return a, nil
}

// Close releases storage resources.
func (a *App) Close() {
	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
		}
	}
}
