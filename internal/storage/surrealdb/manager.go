// Package surrealdb provides the SurrealDB-backed storage manager. It is
// the production backend; uniqueness constraints live in the database
// engine so racing writes conflict even across process instances.
package surrealdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"

	"github.com/bobmcallan/stockpin/internal/common"
	"github.com/bobmcallan/stockpin/internal/interfaces"
)

// Compile-time interface check
var _ interfaces.StorageManager = (*Manager)(nil)

// Manager implements interfaces.StorageManager using SurrealDB.
type Manager struct {
	db     *surrealdb.DB
	logger *common.Logger

	userStore     *UserStore
	favoriteStore *FavoriteStore
}

// schema defines tables and the unique indexes backing the username and
// (owner, symbol) constraints.
var schema = []string{
	"DEFINE TABLE IF NOT EXISTS user SCHEMALESS",
	"DEFINE INDEX IF NOT EXISTS user_username ON user FIELDS username UNIQUE",
	"DEFINE TABLE IF NOT EXISTS favorite SCHEMALESS",
	"DEFINE INDEX IF NOT EXISTS favorite_owner ON favorite FIELDS owner",
	"DEFINE INDEX IF NOT EXISTS favorite_owner_symbol ON favorite FIELDS owner, symbol UNIQUE",
}

// NewManager creates a StorageManager connected to SurrealDB.
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	ctx := context.Background()

	db, err := surrealdb.New(config.Storage.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": config.Storage.Username,
		"pass": config.Storage.Password,
	}); err != nil {
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}

	if err := db.Use(ctx, config.Storage.Namespace, config.Storage.Database); err != nil {
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	for _, stmt := range schema {
		if _, err := surrealdb.Query[any](ctx, db, stmt, nil); err != nil {
			return nil, fmt.Errorf("failed to apply schema %q: %w", stmt, err)
		}
	}

	m := &Manager{
		db:     db,
		logger: logger,
	}
	m.userStore = NewUserStore(db, logger)
	m.favoriteStore = NewFavoriteStore(db, logger)

	logger.Info().
		Str("address", config.Storage.Address).
		Str("namespace", config.Storage.Namespace).
		Str("database", config.Storage.Database).
		Msg("SurrealDB storage manager initialized")

	return m, nil
}

func (m *Manager) UserStore() interfaces.UserStore {
	return m.userStore
}

func (m *Manager) FavoriteStore() interfaces.FavoriteStore {
	return m.favoriteStore
}

func (m *Manager) Close() error {
	m.db.Close(context.Background())
	return nil
}

// isNotFoundError reports whether a SurrealDB error means the record does
// not exist.
func isNotFoundError(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "not found")
}

// isUniqueConflictError reports whether a SurrealDB error is a unique-index
// or existing-record violation from a CREATE.
func isUniqueConflictError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "already contains")
}
