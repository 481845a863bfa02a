// Package auth provides credential verification and stateless session tokens
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bobmcallan/stockpin/internal/common"
	"github.com/bobmcallan/stockpin/internal/interfaces"
	"github.com/bobmcallan/stockpin/internal/models"
)

const tokenIssuer = "stockpin-server"

// Compile-time interface check
var _ interfaces.TokenService = (*TokenService)(nil)

// TokenService signs and validates HMAC-SHA256 session tokens. It holds no
// mutable state beyond the immutable secret, so concurrent use needs no
// locking.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService from auth configuration.
func NewTokenService(config *common.AuthConfig) *TokenService {
	return &TokenService{
		secret: []byte(config.JWTSecret),
		ttl:    config.GetTokenExpiry(),
	}
}

// Issue creates a signed JWT for the given user with expiry now + TTL.
func (t *TokenService) Issue(user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.Username,
		"roles": user.Roles,
		"iss":   tokenIssuer,
		"iat":   now.Unix(),
		"exp":   now.Add(t.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Validate parses and verifies a token string. Signature integrity is
// checked before expiry: a tampered-and-stale token reports ErrTokenInvalid,
// not ErrTokenExpired. Malformed input of any kind is ErrTokenInvalid.
func (t *TokenService) Validate(tokenString string) (*interfaces.TokenClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, models.ErrTokenInvalid
		}
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, models.ErrTokenExpired
		}
		return nil, models.ErrTokenInvalid
	}
	if !token.Valid {
		return nil, models.ErrTokenInvalid
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, models.ErrTokenInvalid
	}

	out := &interfaces.TokenClaims{
		Subject: sub,
		Roles:   rolesFromClaim(claims["roles"]),
	}
	if iat, ok := claims["iat"].(float64); ok {
		out.IssuedAt = time.Unix(int64(iat), 0)
	}
	if exp, ok := claims["exp"].(float64); ok {
		out.ExpiresAt = time.Unix(int64(exp), 0)
	}
	return out, nil
}

// rolesFromClaim converts the decoded "roles" claim back to a string slice.
// JWT decoding yields []interface{}; anything else is treated as no roles.
func rolesFromClaim(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	var roles []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			roles = append(roles, s)
		}
	}
	return roles
}
