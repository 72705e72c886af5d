package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"github.com/authcore-id/authd/migrations"
	"github.com/authcore-id/authd/pkg/account"
	"github.com/authcore-id/authd/pkg/api"
	"github.com/authcore-id/authd/pkg/authenticate"
	"github.com/authcore-id/authd/pkg/config"
	"github.com/authcore-id/authd/pkg/lifecycle"
	"github.com/authcore-id/authd/pkg/notification"
	"github.com/authcore-id/authd/pkg/securetoken"
	"github.com/authcore-id/authd/pkg/sessiontoken"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Service exited", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	dbURL := cfg.Db.DatabaseURL()
	if err := runMigrations(ctx, dbURL); err != nil {
		return err
	}

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := account.NewPostgresRepository(pool)

	notifier, err := notification.NewEmailNotifier(notification.SMTPConfig{
		Host:        cfg.Email.Host,
		Port:        cfg.Email.Port,
		TLS:         cfg.Email.TLS,
		Username:    cfg.Email.Username,
		Password:    cfg.Email.Password,
		From:        cfg.Email.From,
		DisplayName: cfg.Email.DisplayName,
	})
	if err != nil {
		return err
	}
	manager, err := notification.NewManager(
		notification.WithNotifier(notifier),
		notification.WithDefaultTemplates(),
	)
	if err != nil {
		return err
	}

	auth, err := authenticate.NewService(repo, authenticate.Config{
		MaxFailedAttempts: cfg.Login.MaxFailedAttempts,
		LockoutDuration:   cfg.Login.LockoutDuration,
		AdminUsername:     cfg.Login.AdminUsername,
	})
	if err != nil {
		return err
	}

	codec := securetoken.NewCodec(securetoken.NewHMACProvider(
		[]byte(cfg.Token.Secret), cfg.Token.Expiry,
		securetoken.WithStore(securetoken.NewPostgresStore(pool))))

	lc := lifecycle.NewService(repo, codec, manager, lifecycle.Config{
		ClientBaseURL:     cfg.Client.BaseURL,
		ConfirmEmailPath:  cfg.Client.ConfirmEmailPath,
		ResetPasswordPath: cfg.Client.ResetPasswordPath,
		DefaultRole:       cfg.Login.DefaultRole,
	})

	if err := seedAdmin(ctx, repo, cfg.Login); err != nil {
		return err
	}

	issuer := sessiontoken.NewIssuer(cfg.Jwt.Secret, cfg.Jwt.Issuer, cfg.Jwt.TokenExpiry)
	tokenAuth := jwtauth.New("HS256", []byte(cfg.Jwt.Secret), nil)
	handler := api.NewHandler(auth, lc, issuer, repo)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Mount("/api/account", api.Routes(handler, tokenAuth))

	server := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Listening", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func runMigrations(ctx context.Context, dbURL string) error {
	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return err
	}
	defer db.Close()

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// seedAdmin provisions the bootstrap administrator account so a fresh
// deployment can be signed into. It is skipped unless an admin password is
// configured, and never overwrites an existing account.
func seedAdmin(ctx context.Context, repo account.Repository, cfg config.LoginConfig) error {
	if cfg.AdminPassword == "" {
		return nil
	}

	_, err := repo.FindByUsername(ctx, cfg.AdminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, account.ErrNotFound) {
		return err
	}

	hash, err := authenticate.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	_, err = repo.Create(ctx, account.Account{
		Username:       cfg.AdminUsername,
		Email:          cfg.AdminUsername,
		FirstName:      "Admin",
		PasswordHash:   hash,
		EmailConfirmed: true,
		Roles:          []string{"Admin"},
	})
	if err != nil {
		return err
	}
	slog.Info("Bootstrap admin created", "username", cfg.AdminUsername)
	return nil
}
