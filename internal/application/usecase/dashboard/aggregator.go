// Package dashboard contains dashboard-related use cases.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/finance-tracker/summary/internal/domain/entity"
)

// LogRollup holds the all-time total of one log and its trailing-window rollup.
type LogRollup struct {
	AllTime decimal.Decimal
	Window  entity.WindowedRollup
}

// Aggregator computes totals over a single transaction log.
type Aggregator struct {
	repo TransactionLogRepository
	now  func() time.Time
}

// NewAggregator creates a new Aggregator. A nil clock defaults to time.Now.
func NewAggregator(repo TransactionLogRepository, now func() time.Time) *Aggregator {
	if now == nil {
		now = time.Now
	}
	return &Aggregator{
		repo: repo,
		now:  now,
	}
}

// WindowStart returns the instant windowDays before now. It is plain wall-clock
// subtraction; no calendar-day rounding is applied.
func WindowStart(now time.Time, windowDays int) time.Time {
	if windowDays < 0 {
		windowDays = 0
	}
	return now.Add(-time.Duration(windowDays) * 24 * time.Hour)
}

// Rollup computes the all-time total and the windowed rollup of log for userID.
// Both store reads run concurrently; if either fails no rollup is returned.
func (a *Aggregator) Rollup(
	ctx context.Context,
	log entity.LogType,
	userID string,
	windowDays int,
) (*LogRollup, error) {
	since := WindowStart(a.now(), windowDays)

	var rollup LogRollup
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		total, err := a.repo.SumAmount(gctx, log, userID)
		if err != nil {
			return fmt.Errorf("failed to sum %s amounts: %w", log, err)
		}
		rollup.AllTime = total
		return nil
	})

	g.Go(func() error {
		records, err := a.repo.ListSince(gctx, log, userID, since)
		if err != nil {
			return fmt.Errorf("failed to list %s records since %s: %w", log, since.Format(time.RFC3339), err)
		}
		// The total is computed from the exact slice handed back to the caller.
		rollup.Window = entity.NewWindowedRollup(records)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &rollup, nil
}
