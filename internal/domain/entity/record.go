// Package entity defines the core business entities for the domain layer.
package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// LogType identifies one of the two append-only transaction logs.
type LogType string

const (
	LogIncome  LogType = "income"
	LogExpense LogType = "expense"
)

// String implements fmt.Stringer.
func (l LogType) String() string {
	return string(l)
}

// Record is a single income or expense entry owned by one user.
// Records are read-only for this service.
type Record struct {
	ID     string
	UserID string
	// Label is the income source or the expense category depending on the log.
	Label     string
	Amount    decimal.Decimal
	Date      time.Time
	CreatedAt time.Time
}

// WindowedRollup is a total together with the exact records it was summed from.
type WindowedRollup struct {
	Total   decimal.Decimal
	Records []Record
}

// NewWindowedRollup sums the amounts of records. The records slice is kept as is,
// so the total always matches the listed records.
func NewWindowedRollup(records []Record) WindowedRollup {
	if records == nil {
		records = []Record{}
	}

	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Amount)
	}

	return WindowedRollup{
		Total:   total,
		Records: records,
	}
}

// TaggedTransaction is a record annotated with the log it came from.
type TaggedTransaction struct {
	Record
	Type LogType
}

// DashboardSummary is the per-request financial summary for one user.
type DashboardSummary struct {
	TotalBalance       decimal.Decimal
	TotalIncome        decimal.Decimal
	TotalExpenses      decimal.Decimal
	RecentExpenses     WindowedRollup
	RecentIncome       WindowedRollup
	RecentTransactions []TaggedTransaction
}
