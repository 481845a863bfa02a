package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/stockpin/internal/models"
)

// TokenClaims is the verified content of a session token. Only meaningful
// when returned by a successful Validate; callers must never trust claims
// pulled from an unvalidated token.
type TokenClaims struct {
	Subject   string
	Roles     []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenService issues and validates signed, stateless session tokens.
// Operations are pure functions of their inputs plus the signing secret and
// are safe for unlimited concurrent use.
type TokenService interface {
	// Issue signs a token for the user with an absolute expiry of now + TTL.
	Issue(user *models.User) (string, error)

	// Validate verifies signature integrity first, then expiry. Malformed
	// input of any kind yields models.ErrTokenInvalid; a correctly signed
	// but stale token yields models.ErrTokenExpired.
	Validate(token string) (*TokenClaims, error)
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token    string   `json:"token"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// AuthService orchestrates registration and login.
type AuthService interface {
	// Register creates an account with the default role set. Returns
	// models.ErrDuplicateUsername when the username is taken.
	Register(ctx context.Context, username, password string) (*models.User, error)

	// Login verifies credentials and issues a session token. Unknown user
	// and wrong password both return models.ErrInvalidCredentials.
	Login(ctx context.Context, username, password string) (*LoginResult, error)
}

// FavoriteService manages a user's favourite stocks with ownership
// enforcement: every keyed operation takes the acting identity's username
// and treats records owned by anyone else exactly like nonexistent ones.
type FavoriteService interface {
	List(ctx context.Context, owner string) ([]*models.FavoriteStock, error)
	Get(ctx context.Context, owner, id string) (*models.FavoriteStock, error)
	Add(ctx context.Context, owner string, fav *models.FavoriteStock) (*models.FavoriteStock, error)
	Update(ctx context.Context, owner, id string, upd *models.FavoriteUpdate) (*models.FavoriteStock, error)
	Delete(ctx context.Context, owner, id string) error
	DeleteAllForOwner(ctx context.Context, owner string) (int, error)
}
