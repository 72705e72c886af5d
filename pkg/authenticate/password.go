package authenticate

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes the plain-text password using bcrypt.
func HashPassword(password string) ([]byte, error) {
	if password == "" {
		return nil, fmt.Errorf("password cannot be empty")
	}
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

// CheckPasswordHash compares the plain-text password with the stored hash.
// A mismatch is reported as (false, nil); only unexpected faults return an
// error.
func CheckPasswordHash(password string, hash []byte) (bool, error) {
	if password == "" || len(hash) == 0 {
		return false, fmt.Errorf("password and hashed password cannot be empty")
	}
	err := bcrypt.CompareHashAndPassword(hash, []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
