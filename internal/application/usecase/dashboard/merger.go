// Package dashboard contains dashboard-related use cases.
package dashboard

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/finance-tracker/summary/internal/domain/entity"
)

// DefaultRecentLimit is the number of records fetched from each log for recent activity.
const DefaultRecentLimit = 5

// Merger builds the recent-activity feed across both logs.
type Merger struct {
	repo TransactionLogRepository
}

// NewMerger creates a new Merger.
func NewMerger(repo TransactionLogRepository) *Merger {
	return &Merger{
		repo: repo,
	}
}

// Recent fetches the newest limit records of each log for userID and merges them.
//
// This is a per-log top-K followed by a merge, not a global top-K: each log always
// contributes its own newest records, so the result may hold up to 2*limit entries.
func (m *Merger) Recent(ctx context.Context, userID string, limit int) ([]entity.TaggedTransaction, error) {
	if limit <= 0 {
		return []entity.TaggedTransaction{}, nil
	}

	var income, expense []entity.Record
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		records, err := m.repo.ListRecent(gctx, entity.LogIncome, userID, limit)
		if err != nil {
			return fmt.Errorf("failed to list recent income: %w", err)
		}
		income = records
		return nil
	})

	g.Go(func() error {
		records, err := m.repo.ListRecent(gctx, entity.LogExpense, userID, limit)
		if err != nil {
			return fmt.Errorf("failed to list recent expenses: %w", err)
		}
		expense = records
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return MergeRecent(income, expense), nil
}

// MergeRecent tags income and expense records with their log, concatenates them
// and sorts the result newest first. Records with equal dates keep their
// concatenation order.
func MergeRecent(income, expense []entity.Record) []entity.TaggedTransaction {
	merged := make([]entity.TaggedTransaction, 0, len(income)+len(expense))
	for _, r := range income {
		merged = append(merged, entity.TaggedTransaction{Record: r, Type: entity.LogIncome})
	}
	for _, r := range expense {
		merged = append(merged, entity.TaggedTransaction{Record: r, Type: entity.LogExpense})
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date.After(merged[j].Date)
	})

	return merged
}
