package donations

import (
	"context"

	"github.com/dmitrijs2005/accounts/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, donation *models.Donation) (*models.Donation, error)
	// ListByUser returns donations of userID, newest first.
	ListByUser(ctx context.Context, userID string) ([]models.Donation, error)
	// TotalCompleted sums completed donation amounts of userID.
	TotalCompleted(ctx context.Context, userID string) (float64, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}
