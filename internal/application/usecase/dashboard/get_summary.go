// Package dashboard contains dashboard-related use cases.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/finance-tracker/summary/internal/domain/entity"
	domainerror "github.com/finance-tracker/summary/internal/domain/error"
)

const (
	// DefaultIncomeWindowDays is the trailing window used for the income rollup.
	DefaultIncomeWindowDays = 60
	// DefaultExpenseWindowDays is the trailing window used for the expense rollup.
	DefaultExpenseWindowDays = 30
)

// SummaryOptions configures the windows and recent-activity size of the summary.
type SummaryOptions struct {
	IncomeWindowDays  int
	ExpenseWindowDays int
	RecentLimit       int
}

// DefaultSummaryOptions returns the standard 60/30 day windows and 5 recent records per log.
func DefaultSummaryOptions() SummaryOptions {
	return SummaryOptions{
		IncomeWindowDays:  DefaultIncomeWindowDays,
		ExpenseWindowDays: DefaultExpenseWindowDays,
		RecentLimit:       DefaultRecentLimit,
	}
}

// GetSummaryInput represents the input for building a dashboard summary.
type GetSummaryInput struct {
	UserID string
}

// GetSummaryUseCase assembles the dashboard summary for a user.
type GetSummaryUseCase struct {
	validator  IdentityValidator
	aggregator *Aggregator
	merger     *Merger
	opts       SummaryOptions
}

// NewGetSummaryUseCase creates a new GetSummaryUseCase instance.
func NewGetSummaryUseCase(
	repo TransactionLogRepository,
	validator IdentityValidator,
	now func() time.Time,
	opts SummaryOptions,
) *GetSummaryUseCase {
	return &GetSummaryUseCase{
		validator:  validator,
		aggregator: NewAggregator(repo, now),
		merger:     NewMerger(repo),
		opts:       opts,
	}
}

// Execute validates the user ID, then runs both log rollups and the recent-activity
// merge concurrently. Any failure fails the whole summary; no partial result is
// returned.
func (uc *GetSummaryUseCase) Execute(ctx context.Context, input GetSummaryInput) (*entity.DashboardSummary, error) {
	if !uc.validator.ValidUserID(input.UserID) {
		slog.Warn("Rejected dashboard summary request",
			"user_id", input.UserID,
			"stage", domainerror.StageValidate,
		)
		return nil, domainerror.NewInvalidIdentifierError()
	}

	var (
		income  *LogRollup
		expense *LogRollup
		recent  []entity.TaggedTransaction
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rollup, err := uc.aggregator.Rollup(gctx, entity.LogIncome, input.UserID, uc.opts.IncomeWindowDays)
		if err != nil {
			return domainerror.NewStoreUnavailableError(domainerror.StageAggregateIncome, err)
		}
		income = rollup
		return nil
	})

	g.Go(func() error {
		rollup, err := uc.aggregator.Rollup(gctx, entity.LogExpense, input.UserID, uc.opts.ExpenseWindowDays)
		if err != nil {
			return domainerror.NewStoreUnavailableError(domainerror.StageAggregateExpense, err)
		}
		expense = rollup
		return nil
	})

	g.Go(func() error {
		transactions, err := uc.merger.Recent(gctx, input.UserID, uc.opts.RecentLimit)
		if err != nil {
			return domainerror.NewStoreUnavailableError(domainerror.StageRecentActivity, err)
		}
		recent = transactions
		return nil
	})

	if err := g.Wait(); err != nil {
		stage := domainerror.Stage("unknown")
		var dashErr *domainerror.DashboardError
		if errors.As(err, &dashErr) {
			stage = dashErr.Stage
		}
		slog.Error("Failed to build dashboard summary",
			"user_id", input.UserID,
			"stage", stage,
			"error", err,
		)
		return nil, err
	}

	return &entity.DashboardSummary{
		TotalBalance:       income.AllTime.Sub(expense.AllTime),
		TotalIncome:        income.AllTime,
		TotalExpenses:      expense.AllTime,
		RecentExpenses:     expense.Window,
		RecentIncome:       income.Window,
		RecentTransactions: recent,
	}, nil
}
