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
var _ interfaces.UserStore = (*UserStore)(nil)

// UserStore persists user accounts in the "user" table, keyed by username.
type UserStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewUserStore creates a new UserStore.
func NewUserStore(db *surrealdb.DB, logger *common.Logger) *UserStore {
	return &UserStore{
		db:     db,
		logger: logger,
	}
}

func (s *UserStore) GetUser(ctx context.Context, username string) (*models.User, error) {
	user, err := surrealdb.Select[models.User](ctx, s.db, surrealmodels.NewRecordID("user", username))
	if err != nil {
		if isNotFoundError(err) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to select user: %w", err)
	}
	if user == nil || user.Username == "" {
		return nil, models.ErrNotFound
	}
	return user, nil
}

func (s *UserStore) ExistsUser(ctx context.Context, username string) (bool, error) {
	user, err := surrealdb.Select[models.User](ctx, s.db, surrealmodels.NewRecordID("user", username))
	if err != nil {
		if isNotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to select user: %w", err)
	}
	return user != nil && user.Username != "", nil
}

// SaveUser creates the account with CREATE, not UPSERT, so the record id
// and the unique username index both reject a concurrent duplicate at save
// time.
func (s *UserStore) SaveUser(ctx context.Context, user *models.User) error {
	sql := "CREATE type::record('user', $id) CONTENT $user"
	vars := map[string]any{"id": user.Username, "user": user}

	if _, err := surrealdb.Query[[]models.User](ctx, s.db, sql, vars); err != nil {
		if isUniqueConflictError(err) {
			return models.ErrDuplicateUsername
		}
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (s *UserStore) UpdateUser(ctx context.Context, user *models.User) error {
	sql := "UPSERT type::record('user', $id) CONTENT $user"
	vars := map[string]any{"id": user.Username, "user": user}

	if _, err := surrealdb.Query[[]models.User](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (s *UserStore) DeleteUser(ctx context.Context, username string) error {
	if _, err := s.GetUser(ctx, username); err != nil {
		return err
	}
	if _, err := surrealdb.Delete[models.User](ctx, s.db, surrealmodels.NewRecordID("user", username)); err != nil && !isNotFoundError(err) {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (s *UserStore) ListUsernames(ctx context.Context) ([]string, error) {
	list, err := surrealdb.Select[[]models.User](ctx, s.db, surrealmodels.Table("user"))
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	var usernames []string
	if list != nil {
		for _, u := range *list {
			if u.Username != "" {
				usernames = append(usernames, u.Username)
			}
		}
	}
	return usernames, nil
}
