package services

import (
	"context"
	"errors"
	"math"

	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/dbx"
	"github.com/dmitrijs2005/accounts/internal/logging"
	"github.com/dmitrijs2005/accounts/internal/server/models"
	"github.com/dmitrijs2005/accounts/internal/server/repositories/repomanager"
	validation "github.com/go-ozzo/ozzo-validation"
)

type DonationSummary struct {
	Donations  []models.Donation `json:"donations"`
	Total      float64           `json:"total"`
	HasDonated bool              `json:"has_donated"`
}

type DonationService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewDonationService(db dbx.DBTX, m repomanager.RepositoryManager, log logging.Logger) *DonationService {
	return &DonationService{db: db, repomanager: m, log: log}
}

// maxDonationCents is the first value that overflows NUMERIC(12, 2).
const maxDonationCents = 1e12

// donationAmount accepts what the amount column stores once rounded to
// cents: at least 0.01 and below 1e10.
var donationAmount = validation.By(func(v interface{}) error {
	amount := v.(float64)
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return errors.New("must be a finite number")
	}
	cents := math.Round(amount * 100)
	if cents < 1 || cents >= maxDonationCents {
		return errors.New("must be between 0.01 and 9999999999.99")
	}
	return nil
})

// Record stores a completed donation of amount for userID.
func (s *DonationService) Record(ctx context.Context, userID string, amount float64) (*models.Donation, error) {
	if err := validation.Validate(amount, donationAmount); err != nil {
		return nil, common.ValidationFailed("amount", "Invalid amount")
	}

	d, err := s.repomanager.Donations(s.db).Create(ctx, &models.Donation{
		UserID: userID,
		Amount: amount,
		Status: models.DonationStatusCompleted,
	})
	if err != nil {
		return nil, internalError(ctx, s.log, "recording donation", err)
	}

	s.log.Info(ctx, "donation recorded", "user_id", userID, "donation_id", d.ID)
	return d, nil
}

func (s *DonationService) List(ctx context.Context, userID string) (*DonationSummary, error) {
	repo := s.repomanager.Donations(s.db)

	list, err := repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, internalError(ctx, s.log, "listing donations", err)
	}
	total, err := repo.TotalCompleted(ctx, userID)
	if err != nil {
		return nil, internalError(ctx, s.log, "summing donations", err)
	}

	return &DonationSummary{Donations: list, Total: total, HasDonated: total > 0}, nil
}
