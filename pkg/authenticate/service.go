package authenticate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/authcore-id/authd/pkg/account"
)

// Config holds the lockout policy for the authentication service.
type Config struct {
	// MaxFailedAttempts is the number of failed attempts tolerated before
	// lockout; the attempt that pushes the counter past this value locks the
	// account.
	MaxFailedAttempts int32

	// LockoutDuration is how long the account stays locked once the
	// threshold is exceeded.
	LockoutDuration time.Duration

	// AdminUsername names the bootstrap administrator, which is exempt from
	// failure counting so it can never be locked out remotely.
	AdminUsername string
}

// DefaultConfig returns the production lockout policy.
func DefaultConfig() Config {
	return Config{
		MaxFailedAttempts: 3,
		LockoutDuration:   24 * time.Hour,
		AdminUsername:     "admin@example.com",
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.MaxFailedAttempts < 0 {
		return fmt.Errorf("max failed attempts must be non-negative, got %d", c.MaxFailedAttempts)
	}
	if c.LockoutDuration < 0 {
		return fmt.Errorf("lockout duration must be non-negative, got %v", c.LockoutDuration)
	}
	return nil
}

// Service decides login outcomes and maintains per-account failure counters
// and lockout state through the credential store.
type Service struct {
	repo account.Repository
	cfg  Config
	now  func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates an authentication service with the given store and
// lockout policy.
func NewService(repo account.Repository, cfg Config, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	s := &Service{
		repo: repo,
		cfg:  cfg,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Authenticate verifies the credentials and returns the account on success.
//
// The checks run in a fixed order: lookup, email confirmation, lockout,
// password. A failed password verification increments the failure counter
// (except for the bootstrap administrator) and locks the account once the new
// count exceeds the threshold. A successful verification resets the counter
// and clears any lockout.
func (s *Service) Authenticate(ctx context.Context, username, password string) (account.Account, error) {
	acct, err := s.repo.FindByUsername(ctx, strings.ToLower(username))
	if err != nil {
		if err == account.ErrNotFound {
			return account.Account{}, ErrInvalidCredentials
		}
		return account.Account{}, fmt.Errorf("failed to look up account: %w", err)
	}

	if !acct.EmailConfirmed {
		return account.Account{}, ErrEmailNotConfirmed
	}

	if acct.IsLockedOut(s.now()) {
		slog.Warn("Login attempt against locked account", "username", acct.Username, "until", acct.LockoutUntil)
		return account.Account{}, AccountLockedError{Until: acct.LockoutUntil}
	}

	valid, err := CheckPasswordHash(password, acct.PasswordHash)
	if err != nil {
		return account.Account{}, fmt.Errorf("failed to verify password: %w", err)
	}

	if !valid {
		return account.Account{}, s.recordFailure(ctx, acct)
	}

	if err := s.repo.ResetFailedLoginCount(ctx, acct.ID); err != nil {
		return account.Account{}, fmt.Errorf("failed to reset login counter: %w", err)
	}
	acct.FailedLoginCount = 0
	acct.LockoutUntil = time.Time{}
	return acct, nil
}

// recordFailure counts a failed attempt and locks the account once the new
// count exceeds the threshold. The bootstrap administrator is never counted.
func (s *Service) recordFailure(ctx context.Context, acct account.Account) error {
	if acct.Username == strings.ToLower(s.cfg.AdminUsername) {
		return ErrInvalidCredentials
	}

	count, err := s.repo.IncrementFailedLoginCount(ctx, acct.ID)
	if err != nil {
		return fmt.Errorf("failed to record failed attempt: %w", err)
	}

	if count > s.cfg.MaxFailedAttempts {
		until := s.now().Add(s.cfg.LockoutDuration)
		if err := s.repo.SetLockoutUntil(ctx, acct.ID, until); err != nil {
			return fmt.Errorf("failed to lock account: %w", err)
		}
		slog.Warn("Account locked after repeated failures", "username", acct.Username, "failures", count, "until", until)
		return AccountLockedError{Until: until}
	}

	return ErrInvalidCredentials
}
