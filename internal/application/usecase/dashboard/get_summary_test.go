package dashboard

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finance-tracker/summary/internal/domain/entity"
	domainerror "github.com/finance-tracker/summary/internal/domain/error"
)

var testNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func daysAgo(days int) time.Time {
	return testNow.Add(-time.Duration(days) * 24 * time.Hour)
}

func newTestUseCase(repo *fakeRepository) *GetSummaryUseCase {
	return NewGetSummaryUseCase(repo, uuidValidator(), fixedClock(testNow), DefaultSummaryOptions())
}

func TestGetSummaryUseCase_EmptyUser(t *testing.T) {
	repo := newFakeRepository()
	uc := newTestUseCase(repo)

	summary, err := uc.Execute(context.Background(), GetSummaryInput{UserID: uuid.NewString()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for name, got := range map[string]decimal.Decimal{
		"total balance":       summary.TotalBalance,
		"total income":        summary.TotalIncome,
		"total expenses":      summary.TotalExpenses,
		"last 60 days income": summary.RecentIncome.Total,
		"last 30 days spent":  summary.RecentExpenses.Total,
	} {
		if !got.IsZero() {
			t.Errorf("expected %s to be 0, got %s", name, got)
		}
	}

	if summary.RecentTransactions == nil || len(summary.RecentTransactions) != 0 {
		t.Errorf("expected empty non-nil recent transactions, got %#v", summary.RecentTransactions)
	}
	if summary.RecentIncome.Records == nil || summary.RecentExpenses.Records == nil {
		t.Error("expected windowed record lists to be empty, not nil")
	}
}

func TestGetSummaryUseCase_IncomeOnlyScenario(t *testing.T) {
	repo := newFakeRepository()
	userID := uuid.NewString()

	repo.add(entity.LogIncome, userID, "100", "Salary", daysAgo(10))
	repo.add(entity.LogIncome, userID, "200", "Freelance", daysAgo(2))
	repo.add(entity.LogIncome, userID, "50", "Gift", daysAgo(70))
	// Another user's data must not leak into the summary.
	repo.add(entity.LogIncome, uuid.NewString(), "999", "Salary", daysAgo(1))

	summary, err := newTestUseCase(repo).Execute(context.Background(), GetSummaryInput{UserID: userID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertDecimal(t, "totalIncome", summary.TotalIncome, "350")
	assertDecimal(t, "last60DaysIncome.total", summary.RecentIncome.Total, "250")
	assertDecimal(t, "totalExpenses", summary.TotalExpenses, "0")
	assertDecimal(t, "totalBalance", summary.TotalBalance, "350")

	if len(summary.RecentIncome.Records) != 2 {
		t.Fatalf("expected 2 income records in window, got %d", len(summary.RecentIncome.Records))
	}

	if len(summary.RecentTransactions) != 3 {
		t.Fatalf("expected 3 recent transactions, got %d", len(summary.RecentTransactions))
	}
	wantLabels := []string{"Freelance", "Salary", "Gift"}
	for i, tx := range summary.RecentTransactions {
		if tx.Type != entity.LogIncome {
			t.Errorf("transaction %d: expected type income, got %s", i, tx.Type)
		}
		if tx.Label != wantLabels[i] {
			t.Errorf("transaction %d: expected %s, got %s", i, wantLabels[i], tx.Label)
		}
	}
}

func TestGetSummaryUseCase_InvalidIdentifier(t *testing.T) {
	for _, id := range []string{"", "not-a-key", "12345", "../etc/passwd"} {
		t.Run("rejects "+id, func(t *testing.T) {
			repo := newFakeRepository()
			summary, err := newTestUseCase(repo).Execute(context.Background(), GetSummaryInput{UserID: id})

			if summary != nil {
				t.Error("expected no summary for invalid identifier")
			}
			if !errors.Is(err, domainerror.ErrInvalidIdentifier) {
				t.Errorf("expected ErrInvalidIdentifier, got %v", err)
			}
			if repo.callCount() != 0 {
				t.Errorf("expected zero store queries, got %d", repo.callCount())
			}
		})
	}
}

func TestGetSummaryUseCase_StoreFailureIsAllOrNothing(t *testing.T) {
	stages := []struct {
		log   entity.LogType
		op    string
		stage domainerror.Stage
	}{
		{entity.LogExpense, "sum", domainerror.StageAggregateExpense},
		{entity.LogExpense, "since", domainerror.StageAggregateExpense},
		{entity.LogIncome, "sum", domainerror.StageAggregateIncome},
		{entity.LogIncome, "since", domainerror.StageAggregateIncome},
		{entity.LogIncome, "recent", domainerror.StageRecentActivity},
		{entity.LogExpense, "recent", domainerror.StageRecentActivity},
	}

	for _, tc := range stages {
		t.Run(string(tc.log)+" "+tc.op, func(t *testing.T) {
			repo := newFakeRepository()
			userID := uuid.NewString()
			repo.add(entity.LogIncome, userID, "100", "Salary", daysAgo(1))
			repo.failOn(tc.log, tc.op, errors.New("connection reset by peer"))

			summary, err := newTestUseCase(repo).Execute(context.Background(), GetSummaryInput{UserID: userID})
			if summary != nil {
				t.Fatal("expected no partial summary on store failure")
			}
			if !errors.Is(err, domainerror.ErrStoreUnavailable) {
				t.Fatalf("expected ErrStoreUnavailable, got %v", err)
			}

			var dashErr *domainerror.DashboardError
			if !errors.As(err, &dashErr) {
				t.Fatalf("expected DashboardError, got %T", err)
			}
			if dashErr.Stage != tc.stage {
				t.Errorf("expected stage %s, got %s", tc.stage, dashErr.Stage)
			}
		})
	}
}

func TestGetSummaryUseCase_BalanceIdentity(t *testing.T) {
	repo := newFakeRepository()
	userID := uuid.NewString()

	repo.add(entity.LogIncome, userID, "1000.10", "Salary", daysAgo(3))
	repo.add(entity.LogIncome, userID, "-20.05", "Chargeback", daysAgo(4))
	repo.add(entity.LogIncome, userID, "0", "Adjustment", daysAgo(5))
	repo.add(entity.LogExpense, userID, "300.33", "Rent", daysAgo(1))
	repo.add(entity.LogExpense, userID, "-15.00", "Refund", daysAgo(40))

	summary, err := newTestUseCase(repo).Execute(context.Background(), GetSummaryInput{UserID: userID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := summary.TotalIncome.Sub(summary.TotalExpenses)
	if !summary.TotalBalance.Equal(want) {
		t.Errorf("expected balance %s, got %s", want, summary.TotalBalance)
	}
	assertDecimal(t, "totalIncome", summary.TotalIncome, "980.05")
	assertDecimal(t, "totalExpenses", summary.TotalExpenses, "285.33")
	assertDecimal(t, "totalBalance", summary.TotalBalance, "694.72")
	assertDecimal(t, "last30DaysExpenses.total", summary.RecentExpenses.Total, "300.33")
}

func TestGetSummaryUseCase_WindowTotalsMatchRecords(t *testing.T) {
	repo := newFakeRepository()
	userID := uuid.NewString()

	for i, days := range []int{0, 1, 29, 30, 31, 59, 60, 61, 365} {
		amount := decimal.NewFromInt(int64(i + 1)).String()
		repo.add(entity.LogIncome, userID, amount, "Income", daysAgo(days))
		repo.add(entity.LogExpense, userID, amount, "Expense", daysAgo(days))
	}

	summary, err := newTestUseCase(repo).Execute(context.Background(), GetSummaryInput{UserID: userID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	checks := []struct {
		name   string
		rollup entity.WindowedRollup
		days   int
		count  int
	}{
		{"income", summary.RecentIncome, DefaultIncomeWindowDays, 7},
		{"expense", summary.RecentExpenses, DefaultExpenseWindowDays, 4},
	}

	for _, c := range checks {
		t.Run(c.name, func(t *testing.T) {
			start := WindowStart(testNow, c.days)
			sum := decimal.Zero
			for i, r := range c.rollup.Records {
				if r.Date.Before(start) {
					t.Errorf("record %s dated %s is outside the window", r.ID, r.Date)
				}
				if i > 0 && r.Date.After(c.rollup.Records[i-1].Date) {
					t.Errorf("records are not sorted newest first at index %d", i)
				}
				sum = sum.Add(r.Amount)
			}
			if !sum.Equal(c.rollup.Total) {
				t.Errorf("window total %s does not match listed records %s", c.rollup.Total, sum)
			}
			if len(c.rollup.Records) != c.count {
				t.Errorf("expected %d records in window, got %d", c.count, len(c.rollup.Records))
			}
		})
	}
}

func TestGetSummaryUseCase_RecentTransactionsBounded(t *testing.T) {
	repo := newFakeRepository()
	userID := uuid.NewString()

	for i := 0; i < 8; i++ {
		repo.add(entity.LogIncome, userID, "10", "Income", daysAgo(i*2))
		repo.add(entity.LogExpense, userID, "5", "Expense", daysAgo(i*2+1))
	}

	summary, err := newTestUseCase(repo).Execute(context.Background(), GetSummaryInput{UserID: userID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(summary.RecentTransactions) != 2*DefaultRecentLimit {
		t.Fatalf("expected %d recent transactions, got %d", 2*DefaultRecentLimit, len(summary.RecentTransactions))
	}
	for i, tx := range summary.RecentTransactions {
		if tx.Type != entity.LogIncome && tx.Type != entity.LogExpense {
			t.Errorf("transaction %d has unexpected type %q", i, tx.Type)
		}
		if i > 0 && tx.Date.After(summary.RecentTransactions[i-1].Date) {
			t.Errorf("recent transactions not sorted at index %d", i)
		}
	}
}

func TestGetSummaryUseCase_Idempotent(t *testing.T) {
	repo := newFakeRepository()
	userID := uuid.NewString()
	repo.add(entity.LogIncome, userID, "42.50", "Salary", daysAgo(3))
	repo.add(entity.LogExpense, userID, "12.25", "Food", daysAgo(2))

	uc := newTestUseCase(repo)
	first, err := uc.Execute(context.Background(), GetSummaryInput{UserID: userID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := uc.Execute(context.Background(), GetSummaryInput{UserID: userID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical summaries, got %+v and %+v", first, second)
	}
}

func TestGetSummaryUseCase_CustomOptions(t *testing.T) {
	repo := newFakeRepository()
	userID := uuid.NewString()
	for i := 0; i < 4; i++ {
		repo.add(entity.LogExpense, userID, "1", "Expense", daysAgo(i*5))
	}

	uc := NewGetSummaryUseCase(repo, uuidValidator(), fixedClock(testNow), SummaryOptions{
		IncomeWindowDays:  60,
		ExpenseWindowDays: 7,
		RecentLimit:       2,
	})

	summary, err := uc.Execute(context.Background(), GetSummaryInput{UserID: userID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertDecimal(t, "expense window total", summary.RecentExpenses.Total, "2")
	if len(summary.RecentTransactions) != 2 {
		t.Errorf("expected 2 recent transactions, got %d", len(summary.RecentTransactions))
	}
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("expected %s to be %s, got %s", name, want, got)
	}
}
