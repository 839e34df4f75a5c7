package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/accounts/internal/server/models"
)

type Repository interface {
	// Create inserts user and fills ID and CreatedAt. A duplicate email
	// yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetByEmailForUpdate is GetByEmail that also locks the row until the
	// surrounding transaction ends.
	GetByEmailForUpdate(ctx context.Context, email string) (*models.User, error)
	// GetBySessionToken returns the owner of a session still valid at now.
	GetBySessionToken(ctx context.Context, token string, now time.Time) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// MarkEmailVerified sets email_verified and clears the verification code
	// together with its expiry.
	MarkEmailVerified(ctx context.Context, id string) error
	SetResetCode(ctx context.Context, id string, code string, expires time.Time) error
	// UpdatePassword stores a new digest and clears the reset code pair.
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	// ClearExpiredResetCodes drops reset codes whose expiry is at or before now.
	ClearExpiredResetCodes(ctx context.Context, now time.Time) (int64, error)

	// Subscribe turns update mail on and replaces the unsubscribe token.
	Subscribe(ctx context.Context, email string, unsubscribeToken string) (int64, error)
	UnsubscribeByToken(ctx context.Context, token string) (int64, error)
	UnsubscribeByEmail(ctx context.Context, email string) (int64, error)

	Delete(ctx context.Context, id string) error
}
