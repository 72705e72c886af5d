package account

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the credential store consumed by the authentication and
// lifecycle services.
//
// IncrementFailedLoginCount must apply the increment atomically per account
// and return the resulting count, so concurrent login attempts against the
// same account cannot race past the lockout threshold with a stale read.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (Account, error)
	FindByEmail(ctx context.Context, email string) (Account, error)
	EmailExists(ctx context.Context, email string) (bool, error)

	Create(ctx context.Context, acct Account) (Account, error)

	SetEmailConfirmed(ctx context.Context, id uuid.UUID) error
	SetPasswordHash(ctx context.Context, id uuid.UUID, hash []byte) error
	AssignRole(ctx context.Context, id uuid.UUID, role string) error

	IncrementFailedLoginCount(ctx context.Context, id uuid.UUID) (int32, error)
	ResetFailedLoginCount(ctx context.Context, id uuid.UUID) error
	SetLockoutUntil(ctx context.Context, id uuid.UUID, until time.Time) error
}
