// Package interfaces defines service and storage contracts for stockpin
package interfaces

import (
	"context"

	"github.com/bobmcallan/stockpin/internal/models"
)

// StorageManager coordinates the storage backends
type StorageManager interface {
	UserStore() UserStore
	FavoriteStore() FavoriteStore

	// Lifecycle
	Close() error
}

// UserStore is the credential store: user accounts keyed by username.
// Username uniqueness is enforced by the backend's constraint mechanism so
// concurrent registrations surface as a save-time conflict even across
// process instances.
type UserStore interface {
	// GetUser returns the account, or models.ErrNotFound.
	GetUser(ctx context.Context, username string) (*models.User, error)

	// ExistsUser reports whether the username is taken.
	ExistsUser(ctx context.Context, username string) (bool, error)

	// SaveUser creates a new account. Returns models.ErrDuplicateUsername
	// if the username is already taken.
	SaveUser(ctx context.Context, user *models.User) error

	// UpdateUser overwrites an existing account (password/role changes).
	UpdateUser(ctx context.Context, user *models.User) error

	// DeleteUser removes an account. Returns models.ErrNotFound if absent.
	DeleteUser(ctx context.Context, username string) error

	ListUsernames(ctx context.Context) ([]string, error)
}

// FavoriteStore persists favourite-stock records keyed by id, with a unique
// constraint on (owner, symbol).
type FavoriteStore interface {
	// GetFavorite returns the record, or models.ErrNotFound.
	GetFavorite(ctx context.Context, id string) (*models.FavoriteStock, error)

	// ListFavoritesByOwner returns every favourite owned by the username.
	ListFavoritesByOwner(ctx context.Context, owner string) ([]*models.FavoriteStock, error)

	// SaveFavorite creates a new record. Returns models.ErrDuplicateSymbol
	// if the owner already favourited the symbol.
	SaveFavorite(ctx context.Context, fav *models.FavoriteStock) error

	// UpdateFavorite overwrites an existing record in place.
	UpdateFavorite(ctx context.Context, fav *models.FavoriteStock) error

	// DeleteFavorite removes a record. Returns models.ErrNotFound if absent.
	DeleteFavorite(ctx context.Context, id string) error

	// DeleteFavoritesByOwner removes every favourite owned by the username,
	// returning the number deleted. Used when an account is deleted.
	DeleteFavoritesByOwner(ctx context.Context, owner string) (int, error)
}
