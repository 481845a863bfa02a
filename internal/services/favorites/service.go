// Package favorites manages per-user favourite stocks with ownership enforcement
package favorites

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/stockpin/internal/common"
	"github.com/bobmcallan/stockpin/internal/interfaces"
	"github.com/bobmcallan/stockpin/internal/models"
)

// Compile-time interface check
var _ interfaces.FavoriteService = (*Service)(nil)

// Service implements FavoriteService
type Service struct {
	storage interfaces.StorageManager
	logger  *common.Logger
}

// NewService creates a new favourites service
func NewService(storage interfaces.StorageManager, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// loadOwned fetches a favourite by id and checks ownership. A record that
// does not exist and a record owned by another identity both come back as
// ErrNotFound, so callers cannot tell the two apart.
func (s *Service) loadOwned(ctx context.Context, owner, id string) (*models.FavoriteStock, error) {
	fav, err := s.storage.FavoriteStore().GetFavorite(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}
	if fav.Owner != owner {
		return nil, models.ErrNotFound
	}
	return fav, nil
}

// List returns every favourite owned by the given username.
func (s *Service) List(ctx context.Context, owner string) ([]*models.FavoriteStock, error) {
	favs, err := s.storage.FavoriteStore().ListFavoritesByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}
	return favs, nil
}

// Get returns a single owned favourite by id.
func (s *Service) Get(ctx context.Context, owner, id string) (*models.FavoriteStock, error) {
	return s.loadOwned(ctx, owner, id)
}

// Add creates a favourite bound to the acting identity. The id is always
// server-assigned and any caller-supplied owner is overwritten, so a
// tampered payload cannot attach a record to someone else. With
// bought=false, purchase details are force-cleared regardless of input.
func (s *Service) Add(ctx context.Context, owner string, fav *models.FavoriteStock) (*models.FavoriteStock, error) {
	now := time.Now()
	fav.ID = uuid.New().String()
	fav.Owner = owner
	fav.Symbol = strings.ToUpper(strings.TrimSpace(fav.Symbol))
	if !fav.Bought {
		fav.ClearPurchaseDetails()
	}
	fav.CreatedAt = now
	fav.UpdatedAt = now

	if err := s.storage.FavoriteStore().SaveFavorite(ctx, fav); err != nil {
		if errors.Is(err, models.ErrDuplicateSymbol) {
			return nil, models.ErrDuplicateSymbol
		}
		return nil, fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}

	s.logger.Info().Str("owner", owner).Str("symbol", fav.Symbol).Msg("Favourite added")
	return fav, nil
}

// Update overwrites the updatable fields of an owned favourite. Id, owner,
// symbol and created_at never change; the bought=false clearing rule is
// re-applied on every update.
func (s *Service) Update(ctx context.Context, owner, id string, upd *models.FavoriteUpdate) (*models.FavoriteStock, error) {
	existing, err := s.loadOwned(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	existing.Bought = upd.Bought
	existing.BoughtDate = upd.BoughtDate
	existing.BoughtPrice = upd.BoughtPrice
	existing.StopLoss = upd.StopLoss
	existing.TargetPrice = upd.TargetPrice
	existing.Quantity = upd.Quantity
	existing.Notes = upd.Notes
	if !existing.Bought {
		existing.ClearPurchaseDetails()
	}
	existing.UpdatedAt = time.Now()

	if err := s.storage.FavoriteStore().UpdateFavorite(ctx, existing); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}

	s.logger.Info().Str("owner", owner).Str("symbol", existing.Symbol).Msg("Favourite updated")
	return existing, nil
}

// Delete removes an owned favourite by id.
func (s *Service) Delete(ctx context.Context, owner, id string) error {
	fav, err := s.loadOwned(ctx, owner, id)
	if err != nil {
		return err
	}

	if err := s.storage.FavoriteStore().DeleteFavorite(ctx, fav.ID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		return fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}

	s.logger.Info().Str("owner", owner).Str("symbol", fav.Symbol).Msg("Favourite removed")
	return nil
}

// DeleteAllForOwner removes every favourite owned by the username. Called
// when the account itself is deleted.
func (s *Service) DeleteAllForOwner(ctx context.Context, owner string) (int, error) {
	count, err := s.storage.FavoriteStore().DeleteFavoritesByOwner(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}
	if count > 0 {
		s.logger.Info().Str("owner", owner).Int("count", count).Msg("Favourites removed with account")
	}
	return count, nil
}
