// Package main runs the service without a database or mail server: accounts
// live in memory and emailed links are logged to stdout. Useful for demos
// and for exercising the API locally. All data is lost on exit; production
// deployments use cmd/authd with PostgreSQL and SMTP.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"

	"github.com/authcore-id/authd/pkg/account"
	"github.com/authcore-id/authd/pkg/api"
	"github.com/authcore-id/authd/pkg/authenticate"
	"github.com/authcore-id/authd/pkg/lifecycle"
	"github.com/authcore-id/authd/pkg/notification"
	"github.com/authcore-id/authd/pkg/securetoken"
	"github.com/authcore-id/authd/pkg/sessiontoken"
)

const (
	addr      = "localhost:4000"
	jwtSecret = "inmem-dev-secret-change-in-production"
	issuer    = "authd-inmem"

	adminUsername = "admin@example.com"
	adminPassword = "admin-dev-password"
)

// logNotifier writes notices to the log instead of sending mail, so the
// confirmation and reset links can be copied straight from stdout.
type logNotifier struct{}

func (logNotifier) Send(_ context.Context, noticeType notification.NoticeType, data notification.NotificationData, tmpl notification.NoticeTemplate) error {
	slog.Info("Notice dispatched", "notice", noticeType, "to", data.To, "subject", tmpl.Subject)
	for key, value := range data.Data {
		slog.Info("  "+key, "value", value)
	}
	return nil
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("Starting in-memory account service (no database required)")

	repo := account.NewInMemoryRepository()
	seedAdmin(repo)

	manager, err := notification.NewManager(
		notification.WithNotifier(logNotifier{}),
		notification.WithDefaultTemplates(),
	)
	if err != nil {
		slog.Error("Failed to build notification manager", "err", err)
		os.Exit(1)
	}

	auth, err := authenticate.NewService(repo, authenticate.DefaultConfig())
	if err != nil {
		slog.Error("Failed to build authenticator", "err", err)
		os.Exit(1)
	}

	codec := securetoken.NewCodec(
		securetoken.NewHMACProvider([]byte("inmem-dev-token-secret"), 24*time.Hour))
	lc := lifecycle.NewService(repo, codec, manager, lifecycle.DefaultConfig())

	sessionIssuer := sessiontoken.NewIssuer(jwtSecret, issuer, 30*time.Minute)
	tokenAuth := jwtauth.New("HS256", []byte(jwtSecret), nil)
	handler := api.NewHandler(auth, lc, sessionIssuer, repo)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Mount("/api/account", api.Routes(handler, tokenAuth))

	slog.Info("Listening", "addr", addr, "admin", adminUsername)
	if err := http.ListenAndServe(addr, r); err != nil {
		slog.Error("Server exited", "err", err)
		os.Exit(1)
	}
}

func seedAdmin(repo *account.InMemoryRepository) {
	hash, err := authenticate.HashPassword(adminPassword)
	if err != nil {
		slog.Error("Failed to hash admin password", "err", err)
		os.Exit(1)
	}

	_, err = repo.Create(context.Background(), account.Account{
		Username:       adminUsername,
		Email:          adminUsername,
		FirstName:      "Admin",
		PasswordHash:   hash,
		EmailConfirmed: true,
		Roles:          []string{"Admin"},
	})
	if err != nil {
		slog.Error("Failed to seed admin account", "err", err)
		os.Exit(1)
	}
}
