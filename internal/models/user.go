// Package models defines the persisted data types for stockpin.
package models

import (
	"slices"
	"time"
)

// Role names attached to user accounts.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User represents a registered account. Username is the unique key; the
// storage layer enforces that no two users share one. PasswordHash is a
// bcrypt hash and is never included in API responses.
type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
	ModifiedAt   time.Time `json:"modified_at,omitempty"`
}

// HasRole reports whether the user carries the given role.
func (u *User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}
