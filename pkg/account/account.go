package account

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors returned by repositories. Lookup misses are always reported
// as ErrNotFound so callers can tell them apart from storage failures.
var (
	ErrNotFound   = errors.New("account not found")
	ErrEmailTaken = errors.New("email already registered")
)

// Account is the identity of a principal. Username is the lower-cased email
// address. A zero LockoutUntil means the account is not locked out.
type Account struct {
	ID               uuid.UUID
	Username         string
	Email            string
	FirstName        string
	LastName         string
	PasswordHash     []byte
	EmailConfirmed   bool
	FailedLoginCount int32
	LockoutUntil     time.Time
	Roles            []string
	Claims           map[string]string
	CreatedAt        time.Time
}

// IsLockedOut reports whether the account is locked out at the given time.
func (a Account) IsLockedOut(now time.Time) bool {
	return !a.LockoutUntil.IsZero() && now.Before(a.LockoutUntil)
}

// HasRole reports whether the account holds the named role.
func (a Account) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// DisplayName returns the name used in notification and token claims.
func (a Account) DisplayName() string {
	switch {
	case a.FirstName != "" && a.LastName != "":
		return a.FirstName + " " + a.LastName
	case a.FirstName != "":
		return a.FirstName
	default:
		return a.Username
	}
}
