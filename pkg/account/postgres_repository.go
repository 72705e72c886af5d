package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const accountColumns = `id, username, email, first_name, last_name, password_hash,
	email_confirmed, failed_login_count, lockout_until, created_at`

// PostgresRepository implements Repository backed by a pgx connection pool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a Postgres-backed account repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// FindByUsername finds an account by its lower-cased username.
func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE username = $1`
	return r.findOne(ctx, query, strings.ToLower(username))
}

// FindByEmail finds an account by its lower-cased email address.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return r.findOne(ctx, query, strings.ToLower(email))
}

// EmailExists reports whether an account with the given email exists.
func (r *PostgresRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM accounts WHERE email = $1)`,
		strings.ToLower(email)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists, nil
}

// Create inserts a new account and its role assignments.
func (r *PostgresRepository) Create(ctx context.Context, acct Account) (Account, error) {
	if acct.ID == uuid.Nil {
		acct.ID = uuid.New()
	}
	acct.Username = strings.ToLower(acct.Username)
	acct.Email = strings.ToLower(acct.Email)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Account{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO accounts (id, username, email, first_name, last_name, password_hash, email_confirmed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		acct.ID, acct.Username, acct.Email, acct.FirstName, acct.LastName,
		acct.PasswordHash, acct.EmailConfirmed,
	).Scan(&acct.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Account{}, ErrEmailTaken
		}
		return Account{}, fmt.Errorf("failed to create account: %w", err)
	}

	for _, role := range acct.Roles {
		if _, err := tx.Exec(ctx, `
			INSERT INTO account_roles (account_id, role_name)
			VALUES ($1, $2) ON CONFLICT DO NOTHING`, acct.ID, role); err != nil {
			return Account{}, fmt.Errorf("failed to assign role %q: %w", role, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Account{}, fmt.Errorf("failed to commit account creation: %w", err)
	}
	return acct, nil
}

// SetEmailConfirmed marks the account's email as confirmed.
func (r *PostgresRepository) SetEmailConfirmed(ctx context.Context, id uuid.UUID) error {
	return r.exec(ctx, `UPDATE accounts SET email_confirmed = TRUE WHERE id = $1`, id)
}

// SetPasswordHash replaces the stored password hash.
func (r *PostgresRepository) SetPasswordHash(ctx context.Context, id uuid.UUID, hash []byte) error {
	return r.exec(ctx, `UPDATE accounts SET password_hash = $2 WHERE id = $1`, id, hash)
}

// AssignRole adds a role to the account.
func (r *PostgresRepository) AssignRole(ctx context.Context, id uuid.UUID, role string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO account_roles (account_id, role_name)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`, id, role)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to assign role: %w", err)
	}
	return nil
}

// IncrementFailedLoginCount bumps the failure counter in a single UPDATE and
// returns the new count, so concurrent attempts serialize on the row.
func (r *PostgresRepository) IncrementFailedLoginCount(ctx context.Context, id uuid.UUID) (int32, error) {
	var count int32
	err := r.pool.QueryRow(ctx, `
		UPDATE accounts
		SET failed_login_count = failed_login_count + 1
		WHERE id = $1
		RETURNING failed_login_count`, id).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to increment failed login count: %w", err)
	}
	return count, nil
}

// ResetFailedLoginCount zeroes the failure counter and clears any lockout.
func (r *PostgresRepository) ResetFailedLoginCount(ctx context.Context, id uuid.UUID) error {
	return r.exec(ctx, `
		UPDATE accounts
		SET failed_login_count = 0, lockout_until = NULL
		WHERE id = $1`, id)
}

// SetLockoutUntil sets the lockout expiry timestamp.
func (r *PostgresRepository) SetLockoutUntil(ctx context.Context, id uuid.UUID, until time.Time) error {
	return r.exec(ctx, `UPDATE accounts SET lockout_until = $2 WHERE id = $1`, id, until)
}

func (r *PostgresRepository) findOne(ctx context.Context, query string, arg any) (Account, error) {
	var (
		acct         Account
		lockoutUntil sql.NullTime
	)
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&acct.ID, &acct.Username, &acct.Email, &acct.FirstName, &acct.LastName,
		&acct.PasswordHash, &acct.EmailConfirmed, &acct.FailedLoginCount,
		&lockoutUntil, &acct.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, fmt.Errorf("failed to find account: %w", err)
	}
	if lockoutUntil.Valid {
		acct.LockoutUntil = lockoutUntil.Time
	}

	rows, err := r.pool.Query(ctx,
		`SELECT role_name FROM account_roles WHERE account_id = $1 ORDER BY role_name`, acct.ID)
	if err != nil {
		return Account{}, fmt.Errorf("failed to load roles: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return Account{}, fmt.Errorf("failed to scan role: %w", err)
		}
		acct.Roles = append(acct.Roles, role)
	}
	if err := rows.Err(); err != nil {
		return Account{}, fmt.Errorf("failed to read roles: %w", err)
	}
	return acct, nil
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation
}
