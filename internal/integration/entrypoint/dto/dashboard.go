// Package dto defines data transfer objects for API requests and responses.
package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/finance-tracker/summary/internal/domain/entity"
)

// DashboardSummaryResponse represents the response for the dashboard summary API.
type DashboardSummaryResponse struct {
	TotalBalance       float64                     `json:"totalBalance"`
	TotalIncome        float64                     `json:"totalIncome"`
	TotalExpenses      float64                     `json:"totalExpenses"`
	Last30DaysExpenses ExpenseRollupResponse       `json:"last30DaysExpenses"`
	Last60DaysIncome   IncomeRollupResponse        `json:"last60DaysIncome"`
	RecentTransactions []RecentTransactionResponse `json:"recentTransactions"`
}

// ExpenseRollupResponse represents the expense window total and the records summed.
type ExpenseRollupResponse struct {
	Total        float64                 `json:"total"`
	Transactions []ExpenseRecordResponse `json:"transactions"`
}

// IncomeRollupResponse represents the income window total and the records summed.
type IncomeRollupResponse struct {
	Total        float64                `json:"total"`
	Transactions []IncomeRecordResponse `json:"transactions"`
}

// IncomeRecordResponse represents an income record in the response.
type IncomeRecordResponse struct {
	ID        string  `json:"id"`
	UserID    string  `json:"userId"`
	Source    string  `json:"source"`
	Amount    float64 `json:"amount"`
	Date      string  `json:"date"`
	CreatedAt string  `json:"createdAt"`
}

// ExpenseRecordResponse represents an expense record in the response.
type ExpenseRecordResponse struct {
	ID        string  `json:"id"`
	UserID    string  `json:"userId"`
	Category  string  `json:"category"`
	Amount    float64 `json:"amount"`
	Date      string  `json:"date"`
	CreatedAt string  `json:"createdAt"`
}

// RecentTransactionResponse represents a type-tagged record in the recent activity list.
// Income entries carry source, expense entries carry category.
type RecentTransactionResponse struct {
	ID        string  `json:"id"`
	UserID    string  `json:"userId"`
	Source    string  `json:"source,omitempty"`
	Category  string  `json:"category,omitempty"`
	Amount    float64 `json:"amount"`
	Date      string  `json:"date"`
	CreatedAt string  `json:"createdAt"`
	Type      string  `json:"type"`
}

// ToDashboardSummaryResponse converts a domain summary to its wire form.
// Lists are always non-nil so they serialise as [].
func ToDashboardSummaryResponse(summary *entity.DashboardSummary) DashboardSummaryResponse {
	expenses := make([]ExpenseRecordResponse, 0, len(summary.RecentExpenses.Records))
	for _, r := range summary.RecentExpenses.Records {
		expenses = append(expenses, ExpenseRecordResponse{
			ID:        r.ID,
			UserID:    r.UserID,
			Category:  r.Label,
			Amount:    toFloat(r.Amount),
			Date:      formatTime(r.Date),
			CreatedAt: formatTime(r.CreatedAt),
		})
	}

	incomes := make([]IncomeRecordResponse, 0, len(summary.RecentIncome.Records))
	for _, r := range summary.RecentIncome.Records {
		incomes = append(incomes, IncomeRecordResponse{
			ID:        r.ID,
			UserID:    r.UserID,
			Source:    r.Label,
			Amount:    toFloat(r.Amount),
			Date:      formatTime(r.Date),
			CreatedAt: formatTime(r.CreatedAt),
		})
	}

	recent := make([]RecentTransactionResponse, 0, len(summary.RecentTransactions))
	for _, t := range summary.RecentTransactions {
		item := RecentTransactionResponse{
			ID:        t.ID,
			UserID:    t.UserID,
			Amount:    toFloat(t.Amount),
			Date:      formatTime(t.Date),
			CreatedAt: formatTime(t.CreatedAt),
			Type:      t.Type.String(),
		}
		if t.Type == entity.LogIncome {
			item.Source = t.Label
		} else {
			item.Category = t.Label
		}
		recent = append(recent, item)
	}

	return DashboardSummaryResponse{
		TotalBalance:  toFloat(summary.TotalBalance),
		TotalIncome:   toFloat(summary.TotalIncome),
		TotalExpenses: toFloat(summary.TotalExpenses),
		Last30DaysExpenses: ExpenseRollupResponse{
			Total:        toFloat(summary.RecentExpenses.Total),
			Transactions: expenses,
		},
		Last60DaysIncome: IncomeRollupResponse{
			Total:        toFloat(summary.RecentIncome.Total),
			Transactions: incomes,
		},
		RecentTransactions: recent,
	}
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
