package surrealdb

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/bobmcallan/stockpin/internal/common"
	"github.com/bobmcallan/stockpin/internal/interfaces"
	"github.com/bobmcallan/stockpin/internal/models"
)

// Compile-time interface check
var _ interfaces.FavoriteStore = (*FavoriteStore)(nil)

// FavoriteStore persists favourite-stock records in the "favorite" table,
// keyed by server-assigned id. The (owner, symbol) unique index is defined
// in the manager's schema.
type FavoriteStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewFavoriteStore creates a new FavoriteStore.
func NewFavoriteStore(db *surrealdb.DB, logger *common.Logger) *FavoriteStore {
	return &FavoriteStore{
		db:     db,
		logger: logger,
	}
}

func (s *FavoriteStore) GetFavorite(ctx context.Context, id string) (*models.FavoriteStock, error) {
	fav, err := surrealdb.Select[models.FavoriteStock](ctx, s.db, surrealmodels.NewRecordID("favorite", id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to select favourite: %w", err)
	}
	if fav == nil || fav.ID == "" {
		return nil, models.ErrNotFound
	}
	return fav, nil
}

func (s *FavoriteStore) ListFavoritesByOwner(ctx context.Context, owner string) ([]*models.FavoriteStock, error) {
	sql := "SELECT * FROM favorite WHERE owner = $owner ORDER BY created_at ASC"
	vars := map[string]any{"owner": owner}

	results, err := surrealdb.Query[[]models.FavoriteStock](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list favourites: %w", err)
	}

	var favs []*models.FavoriteStock
	if results != nil && len(*results) > 0 {
		for i := range (*results)[0].Result {
			favs = append(favs, &(*results)[0].Result[i])
		}
	}
	return favs, nil
}

// SaveFavorite creates the record with CREATE so the (owner, symbol) unique
// index rejects a duplicate at save time.
func (s *FavoriteStore) SaveFavorite(ctx context.Context, fav *models.FavoriteStock) error {
	sql := "CREATE type::record('favorite', $id) CONTENT $fav"
	vars := map[string]any{"id": fav.ID, "fav": fav}

	if _, err := surrealdb.Query[[]models.FavoriteStock](ctx, s.db, sql, vars); err != nil {
		if isUniqueConflictError(err) {
			return models.ErrDuplicateSymbol
		}
		return fmt.Errorf("failed to save favourite: %w", err)
	}
	return nil
}

func (s *FavoriteStore) UpdateFavorite(ctx context.Context, fav *models.FavoriteStock) error {
	sql := "UPSERT type::record('favorite', $id) CONTENT $fav"
	vars := map[string]any{"id": fav.ID, "fav": fav}

	if _, err := surrealdb.Query[[]models.FavoriteStock](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to update favourite: %w", err)
	}
	return nil
}

func (s *FavoriteStore) DeleteFavorite(ctx context.Context, id string) error {
	if _, err := s.GetFavorite(ctx, id); err != nil {
		return err
	}
	if _, err := surrealdb.Delete[models.FavoriteStock](ctx, s.db, surrealmodels.NewRecordID("favorite", id)); err != nil && !isNotFoundError(err) {
		return fmt.Errorf("failed to delete favourite: %w", err)
	}
	return nil
}

func (s *FavoriteStore) DeleteFavoritesByOwner(ctx context.Context, owner string) (int, error) {
	sql := "DELETE favorite WHERE owner = $owner RETURN BEFORE"
	vars := map[string]any{"owner": owner}

	results, err := surrealdb.Query[[]models.FavoriteStock](ctx, s.db, sql, vars)
	if err != nil {
		return 0, fmt.Errorf("failed to delete favourites by owner: %w", err)
	}

	count := 0
	if results != nil && len(*results) > 0 {
		count = len((*results)[0].Result)
	}
	return count, nil
}
