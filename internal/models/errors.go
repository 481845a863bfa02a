package models

import "errors"

// Terminal error taxonomy. Handlers map these to HTTP statuses; components
// convert unexpected library failures into the nearest of these rather than
// letting them escape.
var (
	// ErrDuplicateUsername is returned by registration when the username is
	// taken, whether detected by the pre-check or by the storage engine's
	// unique constraint at save time.
	ErrDuplicateUsername = errors.New("username is already taken")

	// ErrInvalidCredentials covers both unknown-user and wrong-password so
	// login responses cannot be used for username enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrTokenInvalid covers malformed, unsigned and tampered tokens.
	ErrTokenInvalid = errors.New("invalid token")

	// ErrTokenExpired is returned for a well-formed, correctly signed token
	// whose expiry has passed.
	ErrTokenExpired = errors.New("token expired")

	// ErrNotFound covers both nonexistent records and records owned by a
	// different identity; the two cases are observably identical to callers.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateSymbol is returned when a user favourites a symbol they
	// already have, violating the (owner, symbol) uniqueness constraint.
	ErrDuplicateSymbol = errors.New("symbol is already favourited")

	// ErrStorageUnavailable wraps storage round-trip failures. Surfaced to
	// clients as a generic server error, never retried by this core.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
