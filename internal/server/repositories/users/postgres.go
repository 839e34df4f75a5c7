// Package users provides the PostgreSQL-backed repository for account rows.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/dbx"
	"github.com/dmitrijs2005/accounts/internal/server/models"
)

const userColumns = `id, email, password_hash, email_verified,
		 verification_code, verification_code_expires,
		 reset_code, reset_code_expires,
		 subscribed_to_updates, unsubscribe_token, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (email, password_hash, email_verified,
		 verification_code, verification_code_expires,
		 subscribed_to_updates, unsubscribe_token)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.PasswordHash, user.EmailVerified,
		user.VerificationCode, user.VerificationCodeExpires,
		user.SubscribedToUpdates, user.UnsubscribeToken,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetByEmailForUpdate(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 FOR UPDATE`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetBySessionToken(ctx context.Context, token string, now time.Time) (*models.User, error) {
	query :=
		`SELECT u.id, u.email, u.password_hash, u.email_verified,
		 u.verification_code, u.verification_code_expires,
		 u.reset_code, u.reset_code_expires,
		 u.subscribed_to_updates, u.unsubscribe_token, u.created_at
		 FROM users u
		 JOIN sessions s ON u.id = s.user_id
		 WHERE s.token = $1 AND s.expires_at > $2`
	return r.scanOne(r.db.QueryRowContext(ctx, query, token, now))
}

func (r *PostgresRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) MarkEmailVerified(ctx context.Context, id string) error {
	query :=
		`UPDATE users
		 SET email_verified = TRUE, verification_code = NULL, verification_code_expires = NULL
		 WHERE id = $1`
	return r.execOne(ctx, query, id)
}

func (r *PostgresRepository) SetResetCode(ctx context.Context, id string, code string, expires time.Time) error {
	query :=
		`UPDATE users
		 SET reset_code = $2, reset_code_expires = $3
		 WHERE id = $1`
	return r.execOne(ctx, query, id, code, expires)
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	query :=
		`UPDATE users
		 SET password_hash = $2, reset_code = NULL, reset_code_expires = NULL
		 WHERE id = $1`
	return r.execOne(ctx, query, id, passwordHash)
}

func (r *PostgresRepository) ClearExpiredResetCodes(ctx context.Context, now time.Time) (int64, error) {
	query :=
		`UPDATE users
		 SET reset_code = NULL, reset_code_expires = NULL
		 WHERE reset_code_expires <= $1`
	return r.execCount(ctx, query, now)
}

func (r *PostgresRepository) Subscribe(ctx context.Context, email string, unsubscribeToken string) (int64, error) {
	query :=
		`UPDATE users
		 SET subscribed_to_updates = TRUE, unsubscribe_token = $2
		 WHERE email = $1`
	return r.execCount(ctx, query, email, unsubscribeToken)
}

func (r *PostgresRepository) UnsubscribeByToken(ctx context.Context, token string) (int64, error) {
	query :=
		`UPDATE users
		 SET subscribed_to_updates = FALSE
		 WHERE unsubscribe_token = $1`
	return r.execCount(ctx, query, token)
}

func (r *PostgresRepository) UnsubscribeByEmail(ctx context.Context, email string) (int64, error) {
	query :=
		`UPDATE users
		 SET subscribed_to_updates = FALSE
		 WHERE email = $1`
	return r.execCount(ctx, query, email)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = $1`
	return r.execOne(ctx, query, id)
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.EmailVerified,
		&user.VerificationCode, &user.VerificationCodeExpires,
		&user.ResetCode, &user.ResetCodeExpires,
		&user.SubscribedToUpdates, &user.UnsubscribeToken, &user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

// execOne runs a statement that must touch exactly one user row.
func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	n, err := r.execCount(ctx, query, args...)
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) execCount(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
