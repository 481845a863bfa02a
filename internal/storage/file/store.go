// Package file provides file-based JSON document storage. It is the default
// backend for development and tests; uniqueness constraints are enforced
// under an in-process lock, which is sufficient for its single-process use.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bobmcallan/stockpin/internal/common"
	"github.com/bobmcallan/stockpin/internal/interfaces"
	"github.com/bobmcallan/stockpin/internal/models"
)

// Compile-time interface check
var _ interfaces.StorageManager = (*Store)(nil)

// subdirectories defines the directory layout under basePath.
var subdirectories = []string{"users", "favorites"}

// Store is a file-backed StorageManager. One JSON document per record:
// users/<username>.json and favorites/<id>.json.
type Store struct {
	basePath string
	logger   *common.Logger

	// mu guards check-then-write sequences so uniqueness checks and the
	// subsequent write are a single atomic step.
	mu sync.Mutex
}

// NewStore creates a Store and ensures all subdirectories exist.
func NewStore(logger *common.Logger, config *common.StorageConfig) (*Store, error) {
	s := &Store{
		basePath: config.Path,
		logger:   logger,
	}

	for _, sub := range subdirectories {
		dir := filepath.Join(s.basePath, sub)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	logger.Debug().Str("path", config.Path).Msg("File store opened")
	return s, nil
}

// UserStore returns the user store view.
func (s *Store) UserStore() interfaces.UserStore {
	return &userStore{s}
}

// FavoriteStore returns the favourite store view.
func (s *Store) FavoriteStore() interfaces.FavoriteStore {
	return &favoriteStore{s}
}

// Close is a no-op for the file backend.
func (s *Store) Close() error {
	return nil
}

// sanitizeKey makes a key safe for use as a filename. Replaces /, \, : with
// _ and collapses ".." to "_" to prevent path traversal. Single dots are
// preserved (common in tickers like BHP.AU).
func sanitizeKey(key string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_")
	return r.Replace(key)
}

func (s *Store) filePath(sub, key string) string {
	return filepath.Join(s.basePath, sub, sanitizeKey(key)+".json")
}

// readJSON reads and unmarshals a JSON document. Missing files map to
// models.ErrNotFound.
func (s *Store) readJSON(sub, key string, dest interface{}) error {
	path := s.filePath(sub, key)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.ErrNotFound
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// writeJSON marshals a document to indented JSON and writes it atomically
// via a temp file and rename.
func (s *Store) writeJSON(sub, key string, data interface{}) error {
	path := s.filePath(sub, key)
	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename %s: %w", tmp, err)
	}
	return nil
}

// deleteJSON removes a document. Missing files map to models.ErrNotFound.
func (s *Store) deleteJSON(sub, key string) error {
	path := s.filePath(sub, key)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return models.ErrNotFound
		}
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}

// listKeys returns the document keys (filenames without .json) in a subdir.
func (s *Store) listKeys(sub string) ([]string, error) {
	dir := filepath.Join(s.basePath, sub)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(keys)
	return keys, nil
}

// --- user store ---

type userStore struct {
	*Store
}

var _ interfaces.UserStore = (*userStore)(nil)

func (s *userStore) GetUser(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.readJSON("users", username, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *userStore) ExistsUser(ctx context.Context, username string) (bool, error) {
	_, err := os.Stat(s.filePath("users", username))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat user %q: %w", username, err)
	}
	return true, nil
}

func (s *userStore) SaveUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.ExistsUser(ctx, user.Username)
	if err != nil {
		return err
	}
	if exists {
		return models.ErrDuplicateUsername
	}
	return s.writeJSON("users", user.Username, user)
}

func (s *userStore) UpdateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSON("users", user.Username, user)
}

func (s *userStore) DeleteUser(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteJSON("users", username)
}

func (s *userStore) ListUsernames(ctx context.Context) ([]string, error) {
	keys, err := s.listKeys("users")
	if err != nil {
		return nil, err
	}

	// Filenames are sanitized; read each document for the stored username.
	var usernames []string
	for _, key := range keys {
		var user models.User
		if err := s.readJSON("users", key, &user); err != nil {
			continue
		}
		usernames = append(usernames, user.Username)
	}
	return usernames, nil
}

// --- favourite store ---

type favoriteStore struct {
	*Store
}

var _ interfaces.FavoriteStore = (*favoriteStore)(nil)

func (s *favoriteStore) GetFavorite(ctx context.Context, id string) (*models.FavoriteStock, error) {
	var fav models.FavoriteStock
	if err := s.readJSON("favorites", id, &fav); err != nil {
		return nil, err
	}
	return &fav, nil
}

func (s *favoriteStore) ListFavoritesByOwner(ctx context.Context, owner string) ([]*models.FavoriteStock, error) {
	keys, err := s.listKeys("favorites")
	if err != nil {
		return nil, err
	}

	var favs []*models.FavoriteStock
	for _, key := range keys {
		var fav models.FavoriteStock
		if err := s.readJSON("favorites", key, &fav); err != nil {
			continue
		}
		if fav.Owner == owner {
			favs = append(favs, &fav)
		}
	}
	sort.Slice(favs, func(i, j int) bool {
		return favs[i].CreatedAt.Before(favs[j].CreatedAt)
	})
	return favs, nil
}

func (s *favoriteStore) SaveFavorite(ctx context.Context, fav *models.FavoriteStock) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Enforce the (owner, symbol) unique constraint before writing.
	existing, err := s.ListFavoritesByOwner(ctx, fav.Owner)
	if err != nil {
		return err
	}
	for _, f := range existing {
		if f.Symbol == fav.Symbol {
			return models.ErrDuplicateSymbol
		}
	}
	return s.writeJSON("favorites", fav.ID, fav)
}

func (s *favoriteStore) UpdateFavorite(ctx context.Context, fav *models.FavoriteStock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSON("favorites", fav.ID, fav)
}

func (s *favoriteStore) DeleteFavorite(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteJSON("favorites", id)
}

func (s *favoriteStore) DeleteFavoritesByOwner(ctx context.Context, owner string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	favs, err := s.ListFavoritesByOwner(ctx, owner)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, fav := range favs {
		if err := s.deleteJSON("favorites", fav.ID); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
