package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bobmcallan/stockpin/internal/common"
	"github.com/bobmcallan/stockpin/internal/interfaces"
	"github.com/bobmcallan/stockpin/internal/models"
)

// Compile-time interface check
var _ interfaces.AuthService = (*Service)(nil)

// Service implements AuthService
type Service struct {
	storage interfaces.StorageManager
	tokens  interfaces.TokenService
	logger  *common.Logger
}

// NewService creates a new authentication service
func NewService(storage interfaces.StorageManager, tokens interfaces.TokenService, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		tokens:  tokens,
		logger:  logger,
	}
}

// Register creates a new account with the default USER role. The username
// pre-check and the storage engine's unique constraint both map to
// ErrDuplicateUsername, so a racing concurrent registration cannot slip
// through the gap between check and save.
func (s *Service) Register(ctx context.Context, username, password string) (*models.User, error) {
	store := s.storage.UserStore()

	exists, err := store.ExistsUser(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}
	if exists {
		return nil, models.ErrDuplicateUsername
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		Roles:        []string{models.RoleUser},
		CreatedAt:    time.Now(),
	}

	if err := store.SaveUser(ctx, user); err != nil {
		if errors.Is(err, models.ErrDuplicateUsername) {
			return nil, models.ErrDuplicateUsername
		}
		return nil, fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}

	s.logger.Info().Str("username", username).Msg("User registered")
	return user, nil
}

// Login verifies credentials and issues a session token. Unknown username
// and wrong password are indistinguishable in the returned error.
func (s *Service) Login(ctx context.Context, username, password string) (*interfaces.LoginResult, error) {
	user, err := s.storage.UserStore().GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}

	if !VerifyPassword(password, user.PasswordHash) {
		return nil, models.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info().Str("username", username).Msg("User logged in")
	return &interfaces.LoginResult{
		Token:    token,
		Username: user.Username,
		Roles:    user.Roles,
	}, nil
}
