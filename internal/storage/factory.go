// Package storage selects and constructs the persistence backend.
package storage

import (
	"fmt"

	"github.com/bobmcallan/stockpin/internal/common"
	"github.com/bobmcallan/stockpin/internal/interfaces"
	"github.com/bobmcallan/stockpin/internal/storage/file"
	"github.com/bobmcallan/stockpin/internal/storage/surrealdb"
)

// Backend type constants.
const (
	BackendFile      = "file"
	BackendSurrealDB = "surrealdb"
)

// NewStorageManager creates a storage manager based on the configuration.
// Supported backends: "file" (default), "surrealdb".
func NewStorageManager(logger *common.Logger, config *common.Config) (interfaces.StorageManager, error) {
	backend := config.Storage.Backend
	if backend == "" {
		backend = BackendFile
	}

	switch backend {
	case BackendFile:
		return file.NewStore(logger, &config.Storage)

	case BackendSurrealDB:
		return surrealdb.NewManager(logger, config)

	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: file, surrealdb)", backend)
	}
}
