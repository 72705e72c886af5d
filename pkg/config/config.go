package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// DbConfig holds the PostgreSQL connection settings.
type DbConfig struct {
	Host     string `env:"AUTHD_PG_HOST" env-default:"localhost"`
	Port     uint16 `env:"AUTHD_PG_PORT" env-default:"5432"`
	Database string `env:"AUTHD_PG_DATABASE" env-default:"authd_db"`
	User     string `env:"AUTHD_PG_USER" env-default:"authd"`
	Password string `env:"AUTHD_PG_PASSWORD" env-default:"pwd"`
	Schema   string `env:"AUTHD_PG_SCHEMA" env-default:"public"`
}

// DatabaseURL renders the config as a PostgreSQL connection URL.
func (d DbConfig) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable&search_path=%s,public",
		d.User, d.Password, d.Host, d.Port, d.Database, d.Schema)
}

// JwtConfig holds the session token signing settings.
type JwtConfig struct {
	Secret      string        `env:"JWT_SECRET" env-default:"very-secure-jwt-secret"`
	Issuer      string        `env:"JWT_ISSUER" env-default:"authd"`
	TokenExpiry time.Duration `env:"JWT_TOKEN_EXPIRY" env-default:"168h"`
}

// EmailConfig holds the SMTP transport settings.
type EmailConfig struct {
	Host        string `env:"EMAIL_HOST" env-default:"localhost"`
	Port        int    `env:"EMAIL_PORT" env-default:"1025"`
	Username    string `env:"EMAIL_USERNAME" env-default:""`
	Password    string `env:"EMAIL_PASSWORD" env-default:""`
	From        string `env:"EMAIL_FROM" env-default:"noreply@example.com"`
	DisplayName string `env:"EMAIL_DISPLAY_NAME" env-default:"Account Service"`
	TLS         bool   `env:"EMAIL_TLS" env-default:"false"`
}

// LoginConfig holds the throttle and bootstrap settings.
type LoginConfig struct {
	MaxFailedAttempts int32         `env:"LOGIN_MAX_FAILED_ATTEMPTS" env-default:"3"`
	LockoutDuration   time.Duration `env:"LOGIN_LOCKOUT_DURATION" env-default:"24h"`
	AdminUsername     string        `env:"LOGIN_ADMIN_USERNAME" env-default:"admin@example.com"`
	AdminPassword     string        `env:"LOGIN_ADMIN_PASSWORD" env-default:""`
	DefaultRole       string        `env:"LOGIN_DEFAULT_ROLE" env-default:"Member"`
}

// TokenConfig holds the single-use token settings.
type TokenConfig struct {
	Secret string        `env:"TOKEN_SECRET" env-default:"very-secure-token-secret"`
	Expiry time.Duration `env:"TOKEN_EXPIRY" env-default:"24h"`
}

// ClientConfig holds the public surface the emailed links point at.
type ClientConfig struct {
	BaseURL           string `env:"CLIENT_BASE_URL" env-default:"http://localhost:3000"`
	ConfirmEmailPath  string `env:"CLIENT_CONFIRM_EMAIL_PATH" env-default:"confirm-email"`
	ResetPasswordPath string `env:"CLIENT_RESET_PASSWORD_PATH" env-default:"reset-password"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host string `env:"AUTHD_HOST" env-default:"0.0.0.0"`
	Port uint16 `env:"AUTHD_PORT" env-default:"4000"`
}

// Addr renders the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Config aggregates every setting the service reads from the environment.
type Config struct {
	Db     DbConfig
	Jwt    JwtConfig
	Email  EmailConfig
	Login  LoginConfig
	Token  TokenConfig
	Client ClientConfig
	Server ServerConfig
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read environment config: %w", err)
	}
	return cfg, nil
}
