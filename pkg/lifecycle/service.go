package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/authcore-id/authd/pkg/account"
	"github.com/authcore-id/authd/pkg/authenticate"
	"github.com/authcore-id/authd/pkg/notification"
	"github.com/authcore-id/authd/pkg/securetoken"
)

// Dispatcher is the slice of the notification manager the orchestrator
// needs.
type Dispatcher interface {
	Send(ctx context.Context, noticeType notification.NoticeType, data notification.NotificationData) error
}

// Config holds the client-facing link surface and registration defaults.
type Config struct {
	// ClientBaseURL is the public base URL of the front-end the links point
	// at, without a trailing slash.
	ClientBaseURL string

	// ConfirmEmailPath and ResetPasswordPath are the client routes the
	// confirmation and reset links open.
	ConfirmEmailPath  string
	ResetPasswordPath string

	// DefaultRole is assigned to newly registered accounts.
	DefaultRole string
}

// DefaultConfig returns the link surface used by the development client.
func DefaultConfig() Config {
	return Config{
		ClientBaseURL:     "http://localhost:3000",
		ConfirmEmailPath:  "confirm-email",
		ResetPasswordPath: "reset-password",
		DefaultRole:       "Member",
	}
}

// Service drives registration, email confirmation, and password recovery.
// All state lives in the credential store; dispatch failures never roll back
// committed account state.
type Service struct {
	repo       account.Repository
	codec      *securetoken.Codec
	dispatcher Dispatcher
	cfg        Config
}

// NewService creates the credential lifecycle orchestrator.
func NewService(repo account.Repository, codec *securetoken.Codec, dispatcher Dispatcher, cfg Config) *Service {
	return &Service{
		repo:       repo,
		codec:      codec,
		dispatcher: dispatcher,
		cfg:        cfg,
	}
}

// RegisterParams are the registration inputs.
type RegisterParams struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Register creates an unconfirmed account with the default role and
// dispatches a confirmation link. If dispatch fails the account stays
// created and ErrDeliveryFailed is returned; the resend flow recovers from
// that state.
func (s *Service) Register(ctx context.Context, params RegisterParams) (account.Account, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return account.Account{}, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return account.Account{}, account.ErrEmailTaken
	}

	hash, err := authenticate.HashPassword(params.Password)
	if err != nil {
		return account.Account{}, fmt.Errorf("failed to hash password: %w", err)
	}

	acct, err := s.repo.Create(ctx, account.Account{
		Username:       email,
		Email:          email,
		FirstName:      params.FirstName,
		LastName:       params.LastName,
		PasswordHash:   hash,
		EmailConfirmed: false,
		Roles:          []string{s.cfg.DefaultRole},
	})
	if err != nil {
		return account.Account{}, err
	}
	slog.Info("Account registered", "username", acct.Username)

	if err := s.sendConfirmation(ctx, acct); err != nil {
		return acct, err
	}
	return acct, nil
}

// ConfirmEmail validates the confirmation token and marks the email
// confirmed.
func (s *Service) ConfirmEmail(ctx context.Context, email, token string) error {
	acct, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	if acct.EmailConfirmed {
		return ErrAlreadyConfirmed
	}

	if err := s.codec.Validate(ctx, securetoken.PurposeEmailConfirmation, acct.ID, token); err != nil {
		return securetoken.ErrInvalidToken
	}

	if err := s.repo.SetEmailConfirmed(ctx, acct.ID); err != nil {
		return fmt.Errorf("failed to confirm email: %w", err)
	}
	slog.Info("Email confirmed", "username", acct.Username)
	return nil
}

// ResendConfirmation regenerates and redispatches the confirmation link for
// an unconfirmed account.
func (s *Service) ResendConfirmation(ctx context.Context, email string) error {
	acct, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	if acct.EmailConfirmed {
		return ErrAlreadyConfirmed
	}
	return s.sendConfirmation(ctx, acct)
}

// ForgotUsernameOrPassword dispatches a message with the username and a
// password-reset link to a confirmed account.
func (s *Service) ForgotUsernameOrPassword(ctx context.Context, email string) error {
	acct, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !acct.EmailConfirmed {
		return ErrNotConfirmed
	}

	token, err := s.codec.Generate(ctx, securetoken.PurposePasswordReset, acct.ID)
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	err = s.dispatcher.Send(ctx, notification.UsernameReminderNotice, notification.NotificationData{
		To: acct.Email,
		Data: map[string]string{
			"Name":      acct.DisplayName(),
			"Username":  acct.Username,
			"ResetLink": s.buildLink(s.cfg.ResetPasswordPath, token, acct.Email),
		},
	})
	if err != nil {
		slog.Error("Failed to dispatch username reminder", "username", acct.Username, "err", err)
		return ErrDeliveryFailed
	}
	return nil
}

// ResetPassword validates the reset token and replaces the password hash,
// clearing any lockout state.
func (s *Service) ResetPassword(ctx context.Context, email, token, newPassword string) error {
	acct, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !acct.EmailConfirmed {
		return ErrNotConfirmed
	}

	if err := s.codec.Validate(ctx, securetoken.PurposePasswordReset, acct.ID, token); err != nil {
		return securetoken.ErrInvalidToken
	}

	hash, err := authenticate.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.repo.SetPasswordHash(ctx, acct.ID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if err := s.repo.ResetFailedLoginCount(ctx, acct.ID); err != nil {
		slog.Error("Failed to clear lockout state after reset", "username", acct.Username, "err", err)
		// Password was replaced; the stale counter clears on next login.
	}
	slog.Info("Password reset", "username", acct.Username)
	return nil
}

func (s *Service) sendConfirmation(ctx context.Context, acct account.Account) error {
	token, err := s.codec.Generate(ctx, securetoken.PurposeEmailConfirmation, acct.ID)
	if err != nil {
		return fmt.Errorf("failed to generate confirmation token: %w", err)
	}

	err = s.dispatcher.Send(ctx, notification.EmailConfirmationNotice, notification.NotificationData{
		To: acct.Email,
		Data: map[string]string{
			"Name":             acct.DisplayName(),
			"ConfirmationLink": s.buildLink(s.cfg.ConfirmEmailPath, token, acct.Email),
		},
	})
	if err != nil {
		slog.Error("Failed to dispatch confirmation email", "username", acct.Username, "err", err)
		return ErrDeliveryFailed
	}
	return nil
}

func (s *Service) findByEmail(ctx context.Context, email string) (account.Account, error) {
	acct, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return account.Account{}, account.ErrNotFound
		}
		return account.Account{}, fmt.Errorf("failed to look up account: %w", err)
	}
	return acct, nil
}

func (s *Service) buildLink(path, token, email string) string {
	return fmt.Sprintf("%s/%s?token=%s&email=%s",
		strings.TrimRight(s.cfg.ClientBaseURL, "/"), path,
		url.QueryEscape(token), url.QueryEscape(email))
}
