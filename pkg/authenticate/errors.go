package authenticate

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidCredentials is returned for unknown usernames and wrong
	// passwords alike, so the login path does not reveal account existence.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrEmailNotConfirmed is returned when the account exists but its email
	// has not been confirmed yet.
	ErrEmailNotConfirmed = errors.New("email not confirmed")
)

// AccountLockedError is returned while an account is locked out. Until is the
// time at which authentication becomes possible again.
type AccountLockedError struct {
	Until time.Time
}

func (e AccountLockedError) Error() string {
	return fmt.Sprintf("account locked until %s", e.Until.Format(time.RFC3339))
}

// IsAccountLocked reports whether err is an AccountLockedError.
func IsAccountLocked(err error) bool {
	var locked AccountLockedError
	return errors.As(err, &locked)
}
