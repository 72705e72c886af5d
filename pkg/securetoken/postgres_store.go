package securetoken

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists issued secrets so emailed links stay redeemable
// across restarts and multiple instances share one single-use state. Expired
// rows are cleaned up on every save.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed secret store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Save inserts the secret and sweeps rows past their expiry.
func (s *PostgresStore) Save(ctx context.Context, mac string, expiresAt time.Time) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM secure_tokens WHERE expires_at < now()`); err != nil {
		return fmt.Errorf("failed to clean up expired tokens: %w", err)
	}

	if _, err := s.pool.Exec(ctx, `
		INSERT INTO secure_tokens (mac, expires_at)
		VALUES ($1, $2)`, mac, expiresAt); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// Consume deletes the secret's row in a single statement, so concurrent
// redemption attempts serialize on the row and only one succeeds.
func (s *PostgresStore) Consume(ctx context.Context, mac string) (time.Time, bool, error) {
	var expiresAt time.Time
	err := s.pool.QueryRow(ctx, `
		DELETE FROM secure_tokens
		WHERE mac = $1
		RETURNING expires_at`, mac).Scan(&expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("failed to consume token: %w", err)
	}
	return expiresAt, true, nil
}
