package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/accounts/internal/dbx"
	"github.com/dmitrijs2005/accounts/internal/logging"
	"github.com/dmitrijs2005/accounts/internal/server/repositories/repomanager"
)

// Reaper periodically drops expired sessions and reset codes. Reads already
// ignore expired rows; the reaper only bounds storage.
type Reaper struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	interval    time.Duration
	log         logging.Logger
	now         func() time.Time
}

func NewReaper(db dbx.DBTX, m repomanager.RepositoryManager, interval time.Duration, log logging.Logger) *Reaper {
	return &Reaper{db: db, repomanager: m, interval: interval, log: log, now: time.Now}
}

// Run sweeps every interval until ctx is done. A non-positive interval
// disables the reaper and Run returns at once.
func (r *Reaper) Run(ctx context.Context) {
	if r.interval <= 0 {
		r.log.Info(ctx, "reaper disabled")
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Sweep(ctx); err != nil {
				r.log.Warn(ctx, "reaper sweep failed", "error", err)
			}
		}
	}
}

// Sweep performs one cleanup pass.
func (r *Reaper) Sweep(ctx context.Context) error {
	now := r.now()

	sessions, err := r.repomanager.Sessions(r.db).DeleteExpired(ctx, now)
	if err != nil {
		return err
	}
	codes, err := r.repomanager.Users(r.db).ClearExpiredResetCodes(ctx, now)
	if err != nil {
		return err
	}

	if sessions > 0 || codes > 0 {
		r.log.Info(ctx, "expired rows reaped", "sessions", sessions, "reset_codes", codes)
	}
	return nil
}
