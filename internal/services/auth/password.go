package auth

import (
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

// truncatePassword caps the password at bcrypt's 72-byte input limit.
func truncatePassword(plain string) []byte {
	passwordBytes := []byte(plain)
	if len(passwordBytes) > 72 {
		passwordBytes = passwordBytes[:72]
	}
	return passwordBytes
}

// HashPassword returns a salted bcrypt hash of the password. Hashing the
// same input twice yields different hashes; VerifyPassword matches both.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(truncatePassword(plain), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether plain matches the stored hash. Any failure
// in the underlying library, including a panic on corrupt hash input,
// counts as a mismatch rather than escaping to the caller.
func VerifyPassword(plain, hash string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return bcrypt.CompareHashAndPassword([]byte(hash), truncatePassword(plain)) == nil
}
