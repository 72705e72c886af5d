package lifecycle

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authcore-id/authd/pkg/account"
	"github.com/authcore-id/authd/pkg/authenticate"
	"github.com/authcore-id/authd/pkg/notification"
	"github.com/authcore-id/authd/pkg/securetoken"
)

type fixture struct {
	svc   *Service
	repo  *account.InMemoryRepository
	codec *securetoken.Codec
	mock  *notification.MockNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := account.NewInMemoryRepository()
	codec := securetoken.NewCodec(securetoken.NewHMACProvider([]byte("test-key"), 24*time.Hour))
	mock := &notification.MockNotifier{}
	manager, err := notification.NewManager(
		notification.WithNotifier(mock),
		notification.WithDefaultTemplates(),
	)
	require.NoError(t, err)

	return &fixture{
		svc:   NewService(repo, codec, manager, DefaultConfig()),
		repo:  repo,
		codec: codec,
		mock:  mock,
	}
}

// tokenFromLastNotice pulls the single-use token out of the link in the most
// recently dispatched notice, the way a user would follow the email.
func tokenFromLastNotice(t *testing.T, mock *notification.MockNotifier, linkKey string) string {
	t.Helper()
	require.NotEmpty(t, mock.SentNotifications)

	link := mock.SentNotifications[len(mock.SentNotifications)-1].Data[linkKey]
	require.NotEmpty(t, link)

	u, err := url.Parse(link)
	require.NoError(t, err)
	token := u.Query().Get("token")
	require.NotEmpty(t, token)
	return token
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("CreatesUnconfirmedAccountAndDispatches", func(t *testing.T) {
		f := newFixture(t)

		acct, err := f.svc.Register(ctx, RegisterParams{
			FirstName: "Ada",
			LastName:  "Lovelace",
			Email:     "Ada@Example.com",
			Password:  "secret1",
		})
		require.NoError(t, err)

		assert.Equal(t, "ada@example.com", acct.Username)
		assert.Equal(t, "ada@example.com", acct.Email)
		assert.False(t, acct.EmailConfirmed)
		assert.Equal(t, []string{"Member"}, acct.Roles)

		require.Len(t, f.mock.SentNotifications, 1)
		assert.Equal(t, notification.EmailConfirmationNotice, f.mock.SentTypes[0])
		assert.Equal(t, "ada@example.com", f.mock.SentNotifications[0].To)
		assert.Contains(t, f.mock.SentNotifications[0].Data["ConfirmationLink"], "confirm-email")
	})

	t.Run("EmailTaken", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Register(ctx, RegisterParams{Email: "a@b.com", Password: "secret1"})
		require.NoError(t, err)

		_, err = f.svc.Register(ctx, RegisterParams{Email: "A@B.com", Password: "other12"})
		assert.ErrorIs(t, err, account.ErrEmailTaken)
	})

	t.Run("DispatchFailureLeavesAccountCreated", func(t *testing.T) {
		f := newFixture(t)
		f.mock.Err = errors.New("smtp unreachable")

		_, err := f.svc.Register(ctx, RegisterParams{Email: "a@b.com", Password: "secret1"})
		assert.ErrorIs(t, err, ErrDeliveryFailed)

		acct, err := f.repo.FindByEmail(ctx, "a@b.com")
		require.NoError(t, err)
		assert.False(t, acct.EmailConfirmed)

		// Resend recovers once the transport is back.
		f.mock.Err = nil
		assert.NoError(t, f.svc.ResendConfirmation(ctx, "a@b.com"))
	})
}

func TestConfirmEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("ValidToken", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Register(ctx, RegisterParams{Email: "a@b.com", Password: "secret1"})
		require.NoError(t, err)

		token := tokenFromLastNotice(t, f.mock, "ConfirmationLink")
		require.NoError(t, f.svc.ConfirmEmail(ctx, "a@b.com", token))

		acct, err := f.repo.FindByEmail(ctx, "a@b.com")
		require.NoError(t, err)
		assert.True(t, acct.EmailConfirmed)
	})

	t.Run("UnknownAccount", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.ConfirmEmail(ctx, "nobody@b.com", "token")
		assert.ErrorIs(t, err, account.ErrNotFound)
	})

	t.Run("AlreadyConfirmed", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Register(ctx, RegisterParams{Email: "a@b.com", Password: "secret1"})
		require.NoError(t, err)
		token := tokenFromLastNotice(t, f.mock, "ConfirmationLink")
		require.NoError(t, f.svc.ConfirmEmail(ctx, "a@b.com", token))

		err = f.svc.ConfirmEmail(ctx, "a@b.com", token)
		assert.ErrorIs(t, err, ErrAlreadyConfirmed)
	})

	t.Run("GarbledToken", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Register(ctx, RegisterParams{Email: "a@b.com", Password: "secret1"})
		require.NoError(t, err)

		err = f.svc.ConfirmEmail(ctx, "a@b.com", "%%% garbage %%%")
		assert.ErrorIs(t, err, securetoken.ErrInvalidToken)
	})
}

func TestResendConfirmation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	assert.ErrorIs(t, f.svc.ResendConfirmation(ctx, "nobody@b.com"), account.ErrNotFound)

	_, err := f.svc.Register(ctx, RegisterParams{Email: "a@b.com", Password: "secret1"})
	require.NoError(t, err)

	require.NoError(t, f.svc.ResendConfirmation(ctx, "a@b.com"))
	require.Len(t, f.mock.SentNotifications, 2)

	// The re-issued token confirms the account.
	token := tokenFromLastNotice(t, f.mock, "ConfirmationLink")
	require.NoError(t, f.svc.ConfirmEmail(ctx, "a@b.com", token))

	assert.ErrorIs(t, f.svc.ResendConfirmation(ctx, "a@b.com"), ErrAlreadyConfirmed)
}

func TestForgotUsernameOrPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("SendsUsernameAndResetLink", func(t *testing.T) {
		f := newFixture(t)
		registerConfirmed(t, f, "ada@example.com", "secret1")

		require.NoError(t, f.svc.ForgotUsernameOrPassword(ctx, "ada@example.com"))

		last := f.mock.SentNotifications[len(f.mock.SentNotifications)-1]
		assert.Equal(t, notification.UsernameReminderNotice, f.mock.SentTypes[len(f.mock.SentTypes)-1])
		assert.Equal(t, "ada@example.com", last.Data["Username"])
		assert.Contains(t, last.Data["ResetLink"], "reset-password")
	})

	t.Run("NotConfirmed", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Register(ctx, RegisterParams{Email: "a@b.com", Password: "secret1"})
		require.NoError(t, err)

		assert.ErrorIs(t, f.svc.ForgotUsernameOrPassword(ctx, "a@b.com"), ErrNotConfirmed)
	})

	t.Run("NotFound", func(t *testing.T) {
		f := newFixture(t)
		assert.ErrorIs(t, f.svc.ForgotUsernameOrPassword(ctx, "nobody@b.com"), account.ErrNotFound)
	})
}

func TestResetPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("ValidToken", func(t *testing.T) {
		f := newFixture(t)
		registerConfirmed(t, f, "a@b.com", "secret1")

		require.NoError(t, f.svc.ForgotUsernameOrPassword(ctx, "a@b.com"))
		token := tokenFromLastNotice(t, f.mock, "ResetLink")

		require.NoError(t, f.svc.ResetPassword(ctx, "a@b.com", token, "newpass1"))

		acct, err := f.repo.FindByEmail(ctx, "a@b.com")
		require.NoError(t, err)
		ok, err := authenticate.CheckPasswordHash("newpass1", acct.PasswordHash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("ResetClearsLockout", func(t *testing.T) {
		f := newFixture(t)
		acct := registerConfirmed(t, f, "a@b.com", "secret1")
		require.NoError(t, f.repo.SetLockoutUntil(ctx, acct.ID, time.Now().Add(time.Hour)))

		require.NoError(t, f.svc.ForgotUsernameOrPassword(ctx, "a@b.com"))
		token := tokenFromLastNotice(t, f.mock, "ResetLink")
		require.NoError(t, f.svc.ResetPassword(ctx, "a@b.com", token, "newpass1"))

		updated, err := f.repo.FindByEmail(ctx, "a@b.com")
		require.NoError(t, err)
		assert.True(t, updated.LockoutUntil.IsZero())
	})

	t.Run("InvalidToken", func(t *testing.T) {
		f := newFixture(t)
		registerConfirmed(t, f, "a@b.com", "secret1")

		err := f.svc.ResetPassword(ctx, "a@b.com", "bogus-token", "newpass1")
		assert.ErrorIs(t, err, securetoken.ErrInvalidToken)
	})

	t.Run("TokenIsSingleUse", func(t *testing.T) {
		f := newFixture(t)
		registerConfirmed(t, f, "a@b.com", "secret1")

		require.NoError(t, f.svc.ForgotUsernameOrPassword(ctx, "a@b.com"))
		token := tokenFromLastNotice(t, f.mock, "ResetLink")

		require.NoError(t, f.svc.ResetPassword(ctx, "a@b.com", token, "newpass1"))
		err := f.svc.ResetPassword(ctx, "a@b.com", token, "another1")
		assert.ErrorIs(t, err, securetoken.ErrInvalidToken)
	})
}

// TestRegisterConfirmLogin walks the full happy path: register, confirm via
// the emailed token, then authenticate.
func TestRegisterConfirmLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Register(ctx, RegisterParams{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "a@b.com",
		Password:  "secret1",
	})
	require.NoError(t, err)

	auth, err := authenticate.NewService(f.repo, authenticate.DefaultConfig())
	require.NoError(t, err)

	_, err = auth.Authenticate(ctx, "a@b.com", "secret1")
	require.ErrorIs(t, err, authenticate.ErrEmailNotConfirmed)

	token := tokenFromLastNotice(t, f.mock, "ConfirmationLink")
	require.NoError(t, f.svc.ConfirmEmail(ctx, "a@b.com", token))

	acct, err := auth.Authenticate(ctx, "a@b.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", acct.Username)
}

func registerConfirmed(t *testing.T, f *fixture, email, password string) account.Account {
	t.Helper()
	ctx := context.Background()

	_, err := f.svc.Register(ctx, RegisterParams{Email: email, Password: password})
	require.NoError(t, err)

	token := tokenFromLastNotice(t, f.mock, "ConfirmationLink")
	require.NoError(t, f.svc.ConfirmEmail(ctx, email, token))

	acct, err := f.repo.FindByEmail(ctx, email)
	require.NoError(t, err)
	return acct
}
