package memory

import (
	"context"
	"sort"
	"time"

	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/server/models"
	"github.com/google/uuid"
)

type DonationRepository struct {
	s *Store
}

func (r *DonationRepository) Create(ctx context.Context, d *models.Donation) (*models.Donation, error) {
	err := r.s.unit(ctx, func() error {
		if _, ok := r.s.users[d.UserID]; !ok {
			return common.ErrorNotFound
		}
		d.ID = uuid.NewString()
		d.CreatedAt = time.Now().UTC()
		c := *d
		r.s.donations[d.ID] = &c
		r.s.seq++
		r.s.donSeq[d.ID] = r.s.seq
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *DonationRepository) ListByUser(ctx context.Context, userID string) ([]models.Donation, error) {
	result := make([]models.Donation, 0)
	err := r.s.unit(ctx, func() error {
		for _, d := range r.s.donations {
			if d.UserID == userID {
				result = append(result, *d)
			}
		}
		sort.Slice(result, func(i, j int) bool {
			return r.s.donSeq[result[i].ID] > r.s.donSeq[result[j].ID]
		})
		return nil
	})
	return result, err
}

func (r *DonationRepository) TotalCompleted(ctx context.Context, userID string) (float64, error) {
	var total float64
	err := r.s.unit(ctx, func() error {
		for _, d := range r.s.donations {
			if d.UserID == userID && d.Status == models.DonationStatusCompleted {
				total += d.Amount
			}
		}
		return nil
	})
	return total, err
}

func (r *DonationRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.s.unit(ctx, func() error {
		for id, d := range r.s.donations {
			if d.UserID == userID {
				delete(r.s.donations, id)
				delete(r.s.donSeq, id)
				n++
			}
		}
		return nil
	})
	return n, err
}
