package account

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepository implements Repository using mutex-guarded maps. It is
// used by tests and the quick-start binary; the counter mutations hold the
// write lock for the whole read-modify-write, satisfying the atomicity the
// interface requires.
type InMemoryRepository struct {
	mu         sync.RWMutex
	accounts   map[uuid.UUID]Account
	byUsername map[string]uuid.UUID
	byEmail    map[string]uuid.UUID
}

// NewInMemoryRepository creates an empty in-memory account repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		accounts:   make(map[uuid.UUID]Account),
		byUsername: make(map[string]uuid.UUID),
		byEmail:    make(map[string]uuid.UUID),
	}
}

// FindByUsername finds an account by its lower-cased username.
func (r *InMemoryRepository) FindByUsername(ctx context.Context, username string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[strings.ToLower(username)]
	if !ok {
		return Account{}, ErrNotFound
	}
	return cloneAccount(r.accounts[id]), nil
}

// FindByEmail finds an account by its lower-cased email address.
func (r *InMemoryRepository) FindByEmail(ctx context.Context, email string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return Account{}, ErrNotFound
	}
	return cloneAccount(r.accounts[id]), nil
}

// EmailExists reports whether an account with the given email exists.
func (r *InMemoryRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byEmail[strings.ToLower(email)]
	return ok, nil
}

// Create stores a new account. A zero ID is replaced with a fresh one.
func (r *InMemoryRepository) Create(ctx context.Context, acct Account) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(acct.Email)
	if _, ok := r.byEmail[email]; ok {
		return Account{}, ErrEmailTaken
	}

	if acct.ID == uuid.Nil {
		acct.ID = uuid.New()
	}
	if acct.CreatedAt.IsZero() {
		acct.CreatedAt = time.Now().UTC()
	}
	acct.Username = strings.ToLower(acct.Username)
	acct.Email = email

	r.accounts[acct.ID] = cloneAccount(acct)
	r.byUsername[acct.Username] = acct.ID
	r.byEmail[email] = acct.ID
	return acct, nil
}

// SetEmailConfirmed marks the account's email as confirmed.
func (r *InMemoryRepository) SetEmailConfirmed(ctx context.Context, id uuid.UUID) error {
	return r.update(id, func(a *Account) {
		a.EmailConfirmed = true
	})
}

// SetPasswordHash replaces the stored password hash.
func (r *InMemoryRepository) SetPasswordHash(ctx context.Context, id uuid.UUID, hash []byte) error {
	h := append([]byte(nil), hash...)
	return r.update(id, func(a *Account) {
		a.PasswordHash = h
	})
}

// AssignRole adds a role to the account if not already held.
func (r *InMemoryRepository) AssignRole(ctx context.Context, id uuid.UUID, role string) error {
	return r.update(id, func(a *Account) {
		for _, existing := range a.Roles {
			if existing == role {
				return
			}
		}
		a.Roles = append(a.Roles, role)
	})
}

// IncrementFailedLoginCount increments the failure counter and returns the
// new value. The write lock is held for the whole operation.
func (r *InMemoryRepository) IncrementFailedLoginCount(ctx context.Context, id uuid.UUID) (int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	acct, ok := r.accounts[id]
	if !ok {
		return 0, ErrNotFound
	}
	acct.FailedLoginCount++
	r.accounts[id] = acct
	return acct.FailedLoginCount, nil
}

// ResetFailedLoginCount zeroes the failure counter and clears any lockout.
func (r *InMemoryRepository) ResetFailedLoginCount(ctx context.Context, id uuid.UUID) error {
	return r.update(id, func(a *Account) {
		a.FailedLoginCount = 0
		a.LockoutUntil = time.Time{}
	})
}

// SetLockoutUntil sets the lockout expiry timestamp.
func (r *InMemoryRepository) SetLockoutUntil(ctx context.Context, id uuid.UUID, until time.Time) error {
	return r.update(id, func(a *Account) {
		a.LockoutUntil = until
	})
}

func (r *InMemoryRepository) update(id uuid.UUID, fn func(*Account)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	acct, ok := r.accounts[id]
	if !ok {
		return ErrNotFound
	}
	fn(&acct)
	r.accounts[id] = acct
	return nil
}

func cloneAccount(a Account) Account {
	a.PasswordHash = append([]byte(nil), a.PasswordHash...)
	a.Roles = append([]string(nil), a.Roles...)
	if a.Claims != nil {
		claims := make(map[string]string, len(a.Claims))
		for k, v := range a.Claims {
			claims[k] = v
		}
		a.Claims = claims
	}
	return a
}
