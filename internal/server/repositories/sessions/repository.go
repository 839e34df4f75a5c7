package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/accounts/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, session *models.Session) error
	// CountByUser counts sessions of userID still valid at now.
	CountByUser(ctx context.Context, userID string, now time.Time) (int, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
	// DeleteExpired removes sessions with expires_at at or before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
